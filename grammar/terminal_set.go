package grammar

import (
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// terminalSet is a fixed-capacity set of terminal numbers. The capacity is
// the terminal count of the grammar the set belongs to; all sets taking part
// in a union must share it.
type terminalSet struct {
	bits *bitset.BitSet
}

func newTerminalSet(capacity int) *terminalSet {
	return &terminalSet{
		bits: bitset.New(uint(capacity)),
	}
}

func (s *terminalSet) clone() *terminalSet {
	return &terminalSet{
		bits: s.bits.Clone(),
	}
}

// add inserts a single terminal number and reports whether the set grew.
func (s *terminalSet) add(t int) bool {
	if s.bits.Test(uint(t)) {
		return false
	}
	s.bits.Set(uint(t))
	return true
}

// addSet unions target into the set and reports whether the set grew.
func (s *terminalSet) addSet(target *terminalSet) bool {
	before := s.bits.Count()
	s.bits.InPlaceUnion(target.bits)
	return s.bits.Count() > before
}

func (s *terminalSet) contains(t int) bool {
	return s.bits.Test(uint(t))
}

func (s *terminalSet) intersects(target *terminalSet) bool {
	return s.bits.IntersectionCardinality(target.bits) > 0
}

func (s *terminalSet) intersection(target *terminalSet) *terminalSet {
	return &terminalSet{
		bits: s.bits.Intersection(target.bits),
	}
}

func (s *terminalSet) isSubsetOf(target *terminalSet) bool {
	return target.bits.IsSuperSet(s.bits)
}

func (s *terminalSet) isEmpty() bool {
	return s.bits.None()
}

func (s *terminalSet) count() int {
	return int(s.bits.Count())
}

// terminals returns the members in ascending terminal-number order.
func (s *terminalSet) terminals() []int {
	ts := make([]int, 0, s.bits.Count())
	for t, ok := s.bits.NextSet(0); ok; t, ok = s.bits.NextSet(t + 1) {
		ts = append(ts, int(t))
	}
	return ts
}

func (s *terminalSet) describe(g *Grammar) string {
	var b strings.Builder
	b.WriteString("{")
	for i, t := range s.terminals() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(g.terminals[t].name)
	}
	b.WriteString("}")
	return b.String()
}
