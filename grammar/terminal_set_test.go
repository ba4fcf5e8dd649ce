package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalSet_AddReportsGrowth(t *testing.T) {
	s := newTerminalSet(8)
	assert.True(t, s.isEmpty())

	assert.True(t, s.add(3))
	assert.False(t, s.add(3))
	assert.True(t, s.contains(3))
	assert.False(t, s.contains(4))
	assert.False(t, s.isEmpty())
	assert.Equal(t, 1, s.count())
}

func TestTerminalSet_AddSetIsMonotone(t *testing.T) {
	s := newTerminalSet(8)
	s.add(1)

	other := newTerminalSet(8)
	other.add(1)
	other.add(5)

	require.True(t, s.addSet(other))
	require.False(t, s.addSet(other))
	assert.Equal(t, []int{1, 5}, s.terminals())
}

func TestTerminalSet_Relations(t *testing.T) {
	a := newTerminalSet(16)
	a.add(2)
	a.add(7)

	b := newTerminalSet(16)
	b.add(2)
	b.add(7)
	b.add(9)

	assert.True(t, a.isSubsetOf(b))
	assert.False(t, b.isSubsetOf(a))
	assert.True(t, a.intersects(b))

	c := newTerminalSet(16)
	c.add(3)
	assert.False(t, a.intersects(c))
	assert.True(t, a.intersection(b).isSubsetOf(a))
	assert.Equal(t, []int{2, 7}, a.intersection(b).terminals())
	assert.True(t, a.intersection(c).isEmpty())
}

func TestTerminalSet_CloneIsIndependent(t *testing.T) {
	a := newTerminalSet(8)
	a.add(1)

	b := a.clone()
	b.add(2)

	assert.False(t, a.contains(2))
	assert.True(t, b.contains(1))
}
