package compressor

import (
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOriginalTable(t *testing.T) {
	t.Run("empty entries are rejected", func(t *testing.T) {
		_, err := NewOriginalTable(nil, 3)
		assert.Error(t, err)
	})

	t.Run("column count must be positive", func(t *testing.T) {
		_, err := NewOriginalTable([]int{1, 2, 3}, 0)
		assert.Error(t, err)
	})

	t.Run("entries must fill whole rows", func(t *testing.T) {
		_, err := NewOriginalTable([]int{1, 2, 3, 4, 5}, 3)
		assert.Error(t, err)
	})

	t.Run("valid", func(t *testing.T) {
		orig, err := NewOriginalTable([]int{1, 2, 3, 4, 5, 6}, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, orig.rowCount)
		assert.Equal(t, 3, orig.colCount)
	})
}

func TestPackActionTable_RoundTrip(t *testing.T) {
	// 3 states x 4 terminals. 0 is the error action.
	entries := []int{
		0, 3, 4, 0,
		6, 6, 0, 6,
		0, 0, 5, 6,
	}
	defaults := []int{0, 6, 0}

	orig, err := NewOriginalTable(entries, 4)
	require.NoError(t, err)
	tab, err := PackActionTable(orig, defaults)
	require.NoError(t, err)

	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			dense := entries[row*4+col]
			want := dense
			if dense == 0 || dense == defaults[row] {
				want = defaults[row]
			}
			got, err := tab.Lookup(row, col)
			require.NoError(t, err)
			assert.Equal(t, want, got, "mismatch at (%v, %v)", row, col)
		}
	}

	rows, cols := tab.OriginalTableSize()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 4, cols)

	// The prefix of the vector holds the per-state defaults.
	assert.Equal(t, int16(0), tab.Compressed[0])
	assert.Equal(t, int16(6), tab.Compressed[1])

	_, err = tab.Lookup(3, 0)
	assert.Error(t, err)
	_, err = tab.Lookup(0, 4)
	assert.Error(t, err)
}

func TestPackActionTable_AllDefaultRowClaimsNothing(t *testing.T) {
	entries := []int{
		4, 4, 4,
		0, 0, 0,
	}
	defaults := []int{4, 0}

	orig, err := NewOriginalTable(entries, 3)
	require.NoError(t, err)
	tab, err := PackActionTable(orig, defaults)
	require.NoError(t, err)

	// Nothing differs from the defaults, so only the prefix remains.
	assert.Len(t, tab.Compressed, 2)
	got, err := tab.Lookup(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	got, err = tab.Lookup(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}

func TestPackActionTable_IsDeterministic(t *testing.T) {
	entries := []int{
		1, 0, 3, 0, 5,
		0, 2, 0, 4, 0,
		1, 2, 3, 4, 5,
		0, 0, 0, 0, 7,
	}
	defaults := []int{0, 2, 4, 0}

	pack := func() *ActionTable {
		orig, err := NewOriginalTable(entries, 5)
		require.NoError(t, err)
		tab, err := PackActionTable(orig, defaults)
		require.NoError(t, err)
		return tab
	}

	first := pack()
	for i := 0; i < 5; i++ {
		tab := pack()
		assert.Equal(t, first.Compressed, tab.Compressed)
		assert.Equal(t, first.Bases, tab.Bases)
	}
}

func TestPackActionTable_Overflow(t *testing.T) {
	// Every row stores a pair in the same column, so each needs its own
	// base and the flat base rowCount + 2*base eventually leaves the
	// int16 range.
	const rows = 17000
	entries := make([]int, rows*2)
	for row := 0; row < rows; row++ {
		entries[row*2] = 3
	}
	defaults := make([]int, rows)

	orig, err := NewOriginalTable(entries, 2)
	require.NoError(t, err)
	_, err = PackActionTable(orig, defaults)
	require.Error(t, err)
	assert.Equal(t, ErrTableOverflow, errors.Cause(err))
}

func TestPackGotoTable_RoundTrip(t *testing.T) {
	const empty = -1
	entries := []int{
		empty, 2, 3, empty,
		1, empty, empty, 4,
		empty, empty, empty, empty,
	}

	orig, err := NewOriginalTable(entries, 4)
	require.NoError(t, err)
	tab, err := PackGotoTable(orig, empty)
	require.NoError(t, err)

	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			dense := entries[row*4+col]
			if dense == empty {
				continue
			}
			got, ok, err := tab.Lookup(row, col)
			require.NoError(t, err)
			require.True(t, ok, "missing entry at (%v, %v)", row, col)
			assert.Equal(t, dense, got)
		}
	}

	_, _, err = tab.Lookup(-1, 0)
	assert.Error(t, err)
}

func TestPackGotoTable_Overflow(t *testing.T) {
	const empty = -1
	const rows = 33000
	// The bases alone exceed the int16 range once the state prefix is
	// this long.
	entries := make([]int, rows*2)
	for row := 0; row < rows; row++ {
		entries[row*2] = 1
		entries[row*2+1] = empty
	}

	orig, err := NewOriginalTable(entries, 2)
	require.NoError(t, err)
	_, err = PackGotoTable(orig, empty)
	require.Error(t, err)
	assert.Equal(t, ErrTableOverflow, errors.Cause(err))
}

func TestFindBase_FirstFit(t *testing.T) {
	orig, err := NewOriginalTable([]int{
		1, 0,
		2, 0,
		0, 3,
	}, 2)
	require.NoError(t, err)
	tab, err := PackActionTable(orig, []int{0, 0, 0})
	require.NoError(t, err)

	// Row 0 packs at base 0, row 1 must slide past it, and row 2's only
	// column lands in the first free slot.
	assert.Equal(t, int16(3+2*0), tab.Bases[0])
	assert.Equal(t, int16(3+2*1), tab.Bases[1])
	assert.Equal(t, int16(3+2*1), tab.Bases[2])
}
