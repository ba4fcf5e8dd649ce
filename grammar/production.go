package grammar

import (
	"strings"

	"github.com/pingcap/errors"
)

// production represents a rewritten production: its RHS contains only
// symbol references, and its reduce action (if any) fires at the end.
type production struct {
	num    int
	lhs    *nonTerminal
	rhs    []symbol
	rhsLen int

	// action is the opaque reduce-action payload. The generator never
	// interprets it; it is carried through to the action-code table.
	action    string
	hasAction bool

	precNum  int
	precSide assocType

	nullable bool
	first    *terminalSet

	// numReductions counts the REDUCE cells of the dense action table
	// that refer to this production.
	numReductions int

	// base is non-nil for the empty productions synthesized while
	// factoring out embedded actions; it points at the production the
	// action was factored out of. indexOfAction is the position the
	// synthesized non-terminal occupies in the rewritten base RHS, and
	// indexOfIntermediateResult is the position of the previous embedded
	// action's non-terminal, or -1 when there is none.
	base                      *production
	indexOfAction             int
	indexOfIntermediateResult int

	// items interns the LR items over this production, indexed by dot.
	items []*lrItem
}

func newProduction(num int, lhs *nonTerminal, rhs []symbol) (*production, error) {
	if lhs == nil {
		return nil, errors.Errorf("production #%v must have a LHS non-terminal", num)
	}
	for _, sym := range rhs {
		if sym == nil {
			return nil, errors.Errorf("production #%v contains a nil RHS symbol", num)
		}
	}

	prod := &production{
		num:                       num,
		lhs:                       lhs,
		rhs:                       rhs,
		rhsLen:                    len(rhs),
		precNum:                   precNil,
		precSide:                  assocTypeNil,
		indexOfAction:             -1,
		indexOfIntermediateResult: -1,
		items:                     make([]*lrItem, len(rhs)+1),
	}
	lhs.addProduction(prod)

	return prod, nil
}

func (p *production) isEmpty() bool {
	return p.rhsLen == 0
}

func (p *production) isEmbeddedAction() bool {
	return p.base != nil
}

func (p *production) precedenceNum() int {
	return p.precNum
}

func (p *production) precedenceSide() assocType {
	return p.precSide
}

// rhsStackDepth is the number of semantic values below the reduce action
// when it fires. For an embedded-action production that is the number of
// symbols to the left of the factored-out action in its base production.
func (p *production) rhsStackDepth() int {
	if p.isEmbeddedAction() {
		return p.indexOfAction
	}
	return p.rhsLen
}

func (p *production) noteReductionUse() {
	p.numReductions++
}

// checkNullable reports whether the RHS can currently derive the empty
// string. The result becomes stable only after the nullability fixed point
// has quiesced.
func (p *production) checkNullable() bool {
	for _, sym := range p.rhs {
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

// firstSet computes the FIRST set of the RHS based on the current FIRST
// sets of the non-terminals. Nullability must already be stable.
func (p *production) firstSet(g *Grammar) *terminalSet {
	return g.firstOfSequence(p.rhs)
}

func (p *production) String() string {
	var b strings.Builder
	b.WriteString(p.lhs.name)
	b.WriteString(" ::=")
	if p.rhsLen == 0 {
		b.WriteString(" ε")
		return b.String()
	}
	for _, sym := range p.rhs {
		b.WriteString(" ")
		b.WriteString(sym.symbolName())
	}
	return b.String()
}
