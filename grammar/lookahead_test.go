package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookaheads_AddPropagatesTransitively(t *testing.T) {
	mk := func() *lookaheads {
		return newLookaheads(newTerminalSet(8))
	}

	a := mk()
	b := mk()
	c := mk()
	a.addPropagation(b)
	b.addPropagation(c)

	la := newTerminalSet(8)
	la.add(4)
	require.True(t, a.add(la))

	assert.True(t, a.contains(4))
	assert.True(t, b.contains(4))
	assert.True(t, c.contains(4))
}

func TestLookaheads_AddIsMonotone(t *testing.T) {
	a := newLookaheads(newTerminalSet(8))
	la := newTerminalSet(8)
	la.add(1)

	require.True(t, a.add(la))
	require.False(t, a.add(la))
}

func TestLookaheads_CyclicPropagationTerminates(t *testing.T) {
	a := newLookaheads(newTerminalSet(8))
	b := newLookaheads(newTerminalSet(8))
	a.addPropagation(b)
	b.addPropagation(a)

	la := newTerminalSet(8)
	la.add(2)
	require.True(t, a.add(la))

	assert.True(t, a.contains(2))
	assert.True(t, b.contains(2))

	// A second addition through the other end of the cycle changes
	// nothing.
	require.False(t, b.add(la))
}

func TestLookaheads_ConstructorCopiesTheSet(t *testing.T) {
	seed := newTerminalSet(8)
	seed.add(1)

	la := newLookaheads(seed)
	seed.add(2)

	assert.True(t, la.contains(1))
	assert.False(t, la.contains(2))
}
