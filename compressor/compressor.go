// Package compressor packs the dense action and goto tables into flat
// 16-bit vectors using per-row first-fit base assignment against a global
// occupancy bitmap. Packing is greedy and not guaranteed optimal, but it
// is deterministic in row order.
package compressor

import (
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/pingcap/errors"
)

// ErrTableOverflow reports that a base or a stored value left the signed
// 16-bit range the output vectors use.
var ErrTableOverflow = errors.New("compressed table exceeds the signed 16-bit range")

// ForbiddenTag fills the owner slots that no row claimed; it never equals
// a state number.
const ForbiddenTag = -1

// OriginalTable is a dense row-major matrix to be compressed.
type OriginalTable struct {
	entries  []int
	rowCount int
	colCount int
}

func NewOriginalTable(entries []int, colCount int) (*OriginalTable, error) {
	if len(entries) == 0 {
		return nil, errors.New("entries is empty")
	}
	if colCount <= 0 {
		return nil, errors.New("colCount must be >=1")
	}
	if len(entries)%colCount != 0 {
		return nil, errors.Errorf("entries length and column count are inconsistent; entries length: %v, column count: %v", len(entries), colCount)
	}

	return &OriginalTable{
		entries:  entries,
		rowCount: len(entries) / colCount,
		colCount: colCount,
	}, nil
}

// ActionTable is the packed action table.
//
// Compressed[0..rowCount) holds the per-state default actions. The rest of
// the vector holds (owner-state, action) pairs: the pair of slot k lives
// at Compressed[rowCount+2k] and Compressed[rowCount+2k+1]. Bases[s] is
// rowCount + 2*base(s), so a lookup for (s, t) reads the pair at
// Bases[s] + 2t and falls back to the default unless the owner tag
// equals s.
type ActionTable struct {
	Compressed []int16
	Bases      []int16

	originalRowCount int
	originalColCount int
}

func (t *ActionTable) OriginalTableSize() (int, int) {
	return t.originalRowCount, t.originalColCount
}

func (t *ActionTable) Lookup(row, col int) (int, error) {
	if row < 0 || row >= t.originalRowCount || col < 0 || col >= t.originalColCount {
		return 0, errors.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	pos := int(t.Bases[row]) + 2*col
	if pos+1 < len(t.Compressed) && int(t.Compressed[pos]) == row {
		return int(t.Compressed[pos+1]), nil
	}
	return int(t.Compressed[row]), nil
}

// PackActionTable compresses a dense action table. defaults holds the
// per-row default action; row cells equal to the default or to the error
// action are treated as absent, and a lookup miss falls back to the
// default.
func PackActionTable(orig *OriginalTable, defaults []int) (*ActionTable, error) {
	if len(defaults) != orig.rowCount {
		return nil, errors.Errorf("defaults length and row count are inconsistent; defaults length: %v, row count: %v", len(defaults), orig.rowCount)
	}

	used := bitset.New(uint(orig.colCount))
	bases := make([]int16, orig.rowCount)
	var owners []int
	var values []int
	maxSlot := -1

	for row := 0; row < orig.rowCount; row++ {
		var cols []int
		for col := 0; col < orig.colCount; col++ {
			v := orig.entries[row*orig.colCount+col]
			if v == 0 || v == defaults[row] {
				continue
			}
			cols = append(cols, col)
		}

		base := findBase(used, cols)
		flatBase := orig.rowCount + 2*base
		if flatBase > math.MaxInt16 {
			return nil, errors.Annotatef(ErrTableOverflow, "row %v needs base %v", row, base)
		}
		bases[row] = int16(flatBase)

		for _, col := range cols {
			slot := base + col
			used.Set(uint(slot))
			if slot > maxSlot {
				maxSlot = slot
				owners = growTo(owners, maxSlot+1, ForbiddenTag)
				values = growTo(values, maxSlot+1, 0)
			}
			owners[slot] = row
			values[slot] = orig.entries[row*orig.colCount+col]
		}
	}

	compressed := make([]int16, orig.rowCount+2*(maxSlot+1))
	for row, def := range defaults {
		v, err := toInt16(def)
		if err != nil {
			return nil, err
		}
		compressed[row] = v
	}
	for slot := 0; slot <= maxSlot; slot++ {
		owner, err := toInt16(owners[slot])
		if err != nil {
			return nil, err
		}
		value, err := toInt16(values[slot])
		if err != nil {
			return nil, err
		}
		compressed[orig.rowCount+2*slot] = owner
		compressed[orig.rowCount+2*slot+1] = value
	}

	return &ActionTable{
		Compressed:       compressed,
		Bases:            bases,
		originalRowCount: orig.rowCount,
		originalColCount: orig.colCount,
	}, nil
}

// GotoTable is the packed goto table.
//
// Compressed[0..rowCount) holds the per-state bases; the goto target of
// state s under non-terminal n lives at Compressed[Compressed[s] + n]. No
// owner tags are stored: packing gives every row collision-free slots for
// its present columns, and consumers only look up gotos that exist.
type GotoTable struct {
	Compressed []int16

	emptyValue       int
	originalRowCount int
	originalColCount int
}

func (t *GotoTable) OriginalTableSize() (int, int) {
	return t.originalRowCount, t.originalColCount
}

// Lookup returns the goto target of a present cell. The result for a cell
// that was absent in the original table is unspecified unless its slot was
// never claimed, in which case ok is false.
func (t *GotoTable) Lookup(row, col int) (int, bool, error) {
	if row < 0 || row >= t.originalRowCount || col < 0 || col >= t.originalColCount {
		return 0, false, errors.Errorf("indexes are out of range: [%v, %v]", row, col)
	}
	pos := int(t.Compressed[row]) + col
	if pos >= len(t.Compressed) || int(t.Compressed[pos]) == t.emptyValue {
		return 0, false, nil
	}
	return int(t.Compressed[pos]), true, nil
}

// PackGotoTable compresses a dense goto table whose absent cells hold
// emptyValue.
func PackGotoTable(orig *OriginalTable, emptyValue int) (*GotoTable, error) {
	used := bitset.New(uint(orig.colCount))
	bases := make([]int, orig.rowCount)
	var values []int
	maxSlot := -1

	for row := 0; row < orig.rowCount; row++ {
		var cols []int
		for col := 0; col < orig.colCount; col++ {
			if orig.entries[row*orig.colCount+col] == emptyValue {
				continue
			}
			cols = append(cols, col)
		}

		base := findBase(used, cols)
		flatBase := orig.rowCount + base
		if flatBase > math.MaxInt16 {
			return nil, errors.Annotatef(ErrTableOverflow, "row %v needs base %v", row, base)
		}
		bases[row] = flatBase

		for _, col := range cols {
			slot := base + col
			used.Set(uint(slot))
			if slot > maxSlot {
				maxSlot = slot
				values = growTo(values, maxSlot+1, emptyValue)
			}
			values[slot] = orig.entries[row*orig.colCount+col]
		}
	}

	compressed := make([]int16, orig.rowCount+maxSlot+1)
	for row, base := range bases {
		compressed[row] = int16(base)
	}
	for slot := 0; slot <= maxSlot; slot++ {
		v, err := toInt16(values[slot])
		if err != nil {
			return nil, err
		}
		compressed[orig.rowCount+slot] = v
	}

	return &GotoTable{
		Compressed:       compressed,
		emptyValue:       emptyValue,
		originalRowCount: orig.rowCount,
		originalColCount: orig.colCount,
	}, nil
}

// findBase returns the smallest base such that every column of the row
// lands on an unoccupied slot. An empty row packs at base 0 and claims
// nothing.
func findBase(used *bitset.BitSet, cols []int) int {
	if len(cols) == 0 {
		return 0
	}
	for base := 0; ; base++ {
		ok := true
		for _, col := range cols {
			if used.Test(uint(base + col)) {
				ok = false
				break
			}
		}
		if ok {
			return base
		}
	}
}

func growTo(s []int, n, fill int) []int {
	for len(s) < n {
		s = append(s, fill)
	}
	return s
}

func toInt16(v int) (int16, error) {
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, errors.Annotatef(ErrTableOverflow, "value %v", v)
	}
	return int16(v), nil
}
