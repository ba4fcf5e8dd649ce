package grammar

import (
	"strings"
)

// lrItem is the core of an LR item: a production and a dot position within
// its RHS. Items are interned per production, so two items with the same
// production and dot are the same object and pointer comparison is value
// comparison.
type lrItem struct {
	prod *production

	// E ::= E + T
	//
	// Dot | Dotted Symbol | Item
	// ----+---------------+--------------
	// 0   | E             | E ::= ・E + T
	// 1   | +             | E ::= E・+ T
	// 2   | T             | E ::= E +・T
	// 3   | none          | E ::= E + T・
	dot int

	hash uint32
}

// item returns the interned LR item for the production with the given dot
// position.
func (p *production) item(dot int) *lrItem {
	if dot < 0 || dot > p.rhsLen {
		return nil
	}
	itm := p.items[dot]
	if itm == nil {
		itm = &lrItem{
			prod: p,
			dot:  dot,
			hash: uint32(31*p.num + dot),
		}
		p.items[dot] = itm
	}
	return itm
}

func (i *lrItem) dotAtEnd() bool {
	return i.dot >= i.prod.rhsLen
}

func (i *lrItem) symbolAfterDot() symbol {
	if i.dotAtEnd() {
		return nil
	}
	return i.prod.rhs[i.dot]
}

// dotBeforeNonTerminal returns the non-terminal immediately after the dot,
// or nil.
func (i *lrItem) dotBeforeNonTerminal() *nonTerminal {
	nt, ok := i.symbolAfterDot().(*nonTerminal)
	if !ok {
		return nil
	}
	return nt
}

// isInitial reports whether the item is the start item [$START ::=・S <eof>].
func (i *lrItem) isInitial() bool {
	return i.prod.lhs.isStart && i.dot == 0
}

// isKernel reports whether the item belongs to the kernel of a state.
func (i *lrItem) isKernel() bool {
	return i.dot > 0 || i.isInitial()
}

// shiftCore returns the item with the dot advanced by one position. The
// result is interned like any other item.
func (i *lrItem) shiftCore() *lrItem {
	if i.dotAtEnd() {
		return nil
	}
	return i.prod.item(i.dot + 1)
}

// calcLookahead computes the FIRST set of the RHS suffix starting at the
// dot. Nullability and FIRST sets must be stable before this is called.
func (i *lrItem) calcLookahead(g *Grammar) *terminalSet {
	return g.firstOfSequence(i.prod.rhs[i.dot:])
}

// isNullable reports whether every symbol from the dot to the end of the
// RHS is nullable. When true, the lookahead of an item being closed must
// also flow into the items produced from it.
func (i *lrItem) isNullable() bool {
	for _, sym := range i.prod.rhs[i.dot:] {
		nt, ok := sym.(*nonTerminal)
		if !ok {
			return false
		}
		if !nt.nullable {
			return false
		}
	}
	return true
}

func (i *lrItem) String() string {
	var b strings.Builder
	b.WriteString(i.prod.lhs.name)
	b.WriteString(" ::=")
	for pos, sym := range i.prod.rhs {
		if pos == i.dot {
			b.WriteString(" ・")
		} else {
			b.WriteString(" ")
		}
		b.WriteString(sym.symbolName())
	}
	if i.dotAtEnd() {
		b.WriteString(" ・")
	}
	return b.String()
}
