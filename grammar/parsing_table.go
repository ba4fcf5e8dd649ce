package grammar

import (
	"strings"

	"go.uber.org/zap"

	"github.com/nihei9/cupola/diag"
)

// Action codes pack the kind and the operand into one integer:
//
//	0        ERROR
//	odd c    SHIFT, target state = (c - 1) / 2
//	even c>0 REDUCE, production = (c - 2) / 2
//
// The encoding is shared by the dense table and the compressed vectors and
// is consumed bit-exactly by runtime drivers.
const ActionError = 0

func ShiftAction(state int) int {
	return 2*state + 1
}

func ReduceAction(prod int) int {
	return 2*prod + 2
}

func IsShift(code int) bool {
	return code&1 == 1
}

func IsReduce(code int) bool {
	return code != 0 && code&1 == 0
}

// ActionIndex recovers the state or production number of a non-ERROR code.
func ActionIndex(code int) int {
	return (code - 1) >> 1
}

// GotoAbsent marks the cells of the dense goto table that have no
// successor state.
const GotoAbsent = -1

// ParsingTable holds the dense action and goto matrices. The cells are
// filled during a single build, where conflict resolution may replace an
// entry written earlier; the compressor reads them afterwards.
type ParsingTable struct {
	actions  []int
	gotos    []int
	defaults []int

	stateCount       int
	terminalCount    int
	nonTerminalCount int

	InitialState int
}

func newParsingTable(stateCount, terminalCount, nonTerminalCount int) *ParsingTable {
	gotos := make([]int, stateCount*nonTerminalCount)
	for i := range gotos {
		gotos[i] = GotoAbsent
	}
	return &ParsingTable{
		actions:          make([]int, stateCount*terminalCount),
		gotos:            gotos,
		stateCount:       stateCount,
		terminalCount:    terminalCount,
		nonTerminalCount: nonTerminalCount,
	}
}

func (t *ParsingTable) Action(state, term int) int {
	return t.actions[state*t.terminalCount+term]
}

func (t *ParsingTable) writeAction(state, term, code int) {
	t.actions[state*t.terminalCount+term] = code
}

func (t *ParsingTable) Goto(state, nonTerm int) int {
	return t.gotos[state*t.nonTerminalCount+nonTerm]
}

func (t *ParsingTable) writeGoto(state, nonTerm, next int) {
	t.gotos[state*t.nonTerminalCount+nonTerm] = next
}

func (t *ParsingTable) StateCount() int {
	return t.stateCount
}

func (t *ParsingTable) TerminalCount() int {
	return t.terminalCount
}

func (t *ParsingTable) NonTerminalCount() int {
	return t.nonTerminalCount
}

// Default returns the default action of a state's row, valid once
// computeDefaults has run.
func (t *ParsingTable) Default(state int) int {
	return t.defaults[state]
}

// computeDefaults picks the per-row default action. A REDUCE sitting on
// the error terminal pins the default; otherwise, under compact reduces,
// the production with the most REDUCE cells in the row wins.
func (t *ParsingTable) computeDefaults(g *Grammar) {
	t.defaults = make([]int, t.stateCount)
	counts := make([]int, len(g.productions))
	for state := 0; state < t.stateCount; state++ {
		if code := t.Action(state, terminalNumError); IsReduce(code) {
			t.defaults[state] = code
			continue
		}
		if !g.compactReduces {
			t.defaults[state] = ActionError
			continue
		}

		for i := range counts {
			counts[i] = 0
		}
		maxProd := -1
		for term := 0; term < t.terminalCount; term++ {
			code := t.Action(state, term)
			if !IsReduce(code) {
				continue
			}
			prod := ActionIndex(code)
			counts[prod]++
			if maxProd < 0 || counts[prod] > counts[maxProd] {
				maxProd = prod
			}
		}
		if maxProd >= 0 {
			t.defaults[state] = ReduceAction(maxProd)
		} else {
			t.defaults[state] = ActionError
		}
	}
}

type conflictResolutionMethod string

const (
	resolvedByPrec      = conflictResolutionMethod("prec")
	resolvedByAssoc     = conflictResolutionMethod("assoc")
	resolvedByShift     = conflictResolutionMethod("shift")
	resolvedByProdOrder = conflictResolutionMethod("order")
	resolvedByNonAssoc  = conflictResolutionMethod("nonassoc")
)

type srConflict struct {
	state      int
	term       *terminal
	nextState  int
	prod       int
	resolvedBy conflictResolutionMethod
}

type rrConflict struct {
	state      int
	term       *terminal
	prod1      int
	prod2      int
	resolvedBy conflictResolutionMethod
}

type srOutcome int

const (
	srOutcomeShift srOutcome = iota
	srOutcomeReduce
	srOutcomeError
)

// lrTableBuilder fills the dense tables from the machine and resolves
// conflicts. Conflicts that precedence or associativity settle are
// recorded for the report but neither warned about nor counted; default
// shift-wins, reduce/reduce order, and nonassoc erasures are reported and
// count against the expected-conflicts budget.
type lrTableBuilder struct {
	grammar *Grammar
	machine *lalrMachine
	diag    *diag.Manager
	logger  *zap.Logger

	srConflicts []*srConflict
	rrConflicts []*rrConflict
	conflicts   int
}

func (b *lrTableBuilder) build() *ParsingTable {
	g := b.grammar
	ptab := newParsingTable(len(b.machine.states), len(g.terminals), len(g.nonTerminals))

	for _, st := range b.machine.states {
		// Per terminal, the production that occupied the table cell when
		// a shift won by default or a nonassoc tie erased the entry; -1
		// means no such collision. Both feed the per-state reporting
		// pass, which must blame only the actual cell occupant.
		shiftWonOver := newConflictRecord(len(g.terminals))
		erasedOver := newConflictRecord(len(g.terminals))

		for _, itm := range st.order {
			if !itm.dotAtEnd() {
				continue
			}
			for _, term := range st.items[itm].terminals() {
				b.writeReduce(ptab, st, term, itm.prod)
			}
		}

		for tr := st.transitions; tr != nil; tr = tr.next {
			switch sym := tr.onSymbol.(type) {
			case *terminal:
				b.writeShift(ptab, st, sym, tr.toState, shiftWonOver, erasedOver)
			case *nonTerminal:
				ptab.writeGoto(st.num, sym.num, tr.toState.num)
			}
		}

		b.reportStateConflicts(st, shiftWonOver, erasedOver)
	}

	ptab.InitialState = 0
	b.logger.Debug("parsing table filled",
		zap.Int("states", ptab.stateCount),
		zap.Int("conflicts", b.conflicts),
	)

	return ptab
}

// writeReduce proposes REDUCE(prod) at (state, term). On a reduce/reduce
// collision the production declared first wins.
func (b *lrTableBuilder) writeReduce(ptab *ParsingTable, st *lalrState, term int, prod *production) {
	existing := ptab.Action(st.num, term)
	if existing == ActionError {
		ptab.writeAction(st.num, term, ReduceAction(prod.num))
		return
	}
	if !IsReduce(existing) {
		return
	}
	other := ActionIndex(existing)
	if other == prod.num {
		return
	}
	b.rrConflicts = append(b.rrConflicts, &rrConflict{
		state:      st.num,
		term:       b.grammar.terminals[term],
		prod1:      minInt(other, prod.num),
		prod2:      maxInt(other, prod.num),
		resolvedBy: resolvedByProdOrder,
	})
	if prod.num < other {
		ptab.writeAction(st.num, term, ReduceAction(prod.num))
	}
}

// conflictRecord maps each terminal to the production that was defeated
// in a reported shift/reduce collision on it, or -1.
type conflictRecord []int

func newConflictRecord(terminalCount int) conflictRecord {
	rec := make(conflictRecord, terminalCount)
	for i := range rec {
		rec[i] = -1
	}
	return rec
}

// terminalsDefeating returns the terminals on which the given production
// lost, in ascending order.
func (rec conflictRecord) terminalsDefeating(prodNum int, capacity int) *terminalSet {
	terms := newTerminalSet(capacity)
	for term, defeated := range rec {
		if defeated == prodNum {
			terms.add(term)
		}
	}
	return terms
}

// writeShift proposes SHIFT(next) at (state, term), resolving a collision
// with an already-written reduce by the precedence rules.
func (b *lrTableBuilder) writeShift(ptab *ParsingTable, st *lalrState, term *terminal, next *lalrState, shiftWonOver, erasedOver conflictRecord) {
	existing := ptab.Action(st.num, term.num)
	if existing == ActionError {
		ptab.writeAction(st.num, term.num, ShiftAction(next.num))
		return
	}
	if IsShift(existing) {
		return
	}

	prod := b.grammar.productions[ActionIndex(existing)]
	outcome, method := b.resolveSRConflict(term, prod)
	b.srConflicts = append(b.srConflicts, &srConflict{
		state:      st.num,
		term:       term,
		nextState:  next.num,
		prod:       prod.num,
		resolvedBy: method,
	})
	switch outcome {
	case srOutcomeShift:
		ptab.writeAction(st.num, term.num, ShiftAction(next.num))
		if method == resolvedByShift {
			shiftWonOver[term.num] = prod.num
		}
	case srOutcomeReduce:
		// keep the reduce
	case srOutcomeError:
		ptab.writeAction(st.num, term.num, ActionError)
		erasedOver[term.num] = prod.num
	}
}

// resolveSRConflict applies the precedence table: when both the production
// and the terminal carry a precedence the higher one wins, associativity
// breaks ties (LEFT reduces, RIGHT shifts, NONASSOC errors), and without
// both precedences the shift wins by default.
func (b *lrTableBuilder) resolveSRConflict(term *terminal, prod *production) (srOutcome, conflictResolutionMethod) {
	prodPrec := prod.precedenceNum()
	termPrec := term.precedenceNum()
	if prodPrec == precNil || termPrec == precNil {
		return srOutcomeShift, resolvedByShift
	}
	if prodPrec > termPrec {
		return srOutcomeReduce, resolvedByPrec
	}
	if prodPrec < termPrec {
		return srOutcomeShift, resolvedByPrec
	}
	switch term.precedenceSide() {
	case assocTypeLeft:
		return srOutcomeReduce, resolvedByAssoc
	case assocTypeRight:
		return srOutcomeShift, resolvedByAssoc
	}
	return srOutcomeError, resolvedByNonAssoc
}

// reportStateConflicts emits the warnings for one state: reduce/reduce
// pairs with intersecting lookaheads, then shift/reduce messages for the
// terminals where the shift won by default or a nonassoc tie erased the
// entry. Only the item whose production actually occupied the table cell
// at collision time is blamed; another completed item may share the
// conflict terminal in its lookahead after losing a reduce/reduce
// tie-break, but it never met the shift. Items appear in declaration
// order.
func (b *lrTableBuilder) reportStateConflicts(st *lalrState, shiftWonOver, erasedOver conflictRecord) {
	termCount := len(b.grammar.terminals)
	for i, itm := range st.order {
		if !itm.dotAtEnd() {
			continue
		}
		for _, other := range st.order[i+1:] {
			if !other.dotAtEnd() {
				continue
			}
			common := st.items[itm].intersection(st.items[other].terminalSet)
			if common.isEmpty() {
				continue
			}
			first, second := itm, other
			if second.prod.num < first.prod.num {
				first, second = second, first
			}
			b.diag.Warningf("reduce/reduce conflict in state %v\n  between %v\n  and     %v\n  under symbols: %v\n  resolved in favor of the first production",
				st.num, first, second, common.describe(b.grammar))
			b.conflicts++
		}

		if srTerms := shiftWonOver.terminalsDefeating(itm.prod.num, termCount); !srTerms.isEmpty() {
			b.diag.Warningf("shift/reduce conflict in state %v\n  between %v\n%v  under symbols: %v\n  resolved in favor of shifting",
				st.num, itm, b.describeShiftItems(st, srTerms), srTerms.describe(b.grammar))
			b.conflicts += srTerms.count()
		}
		if naTerms := erasedOver.terminalsDefeating(itm.prod.num, termCount); !naTerms.isEmpty() {
			b.diag.Warningf("shift/reduce conflict in state %v\n  between %v\n%v  under symbols: %v\n  resolved as an error (nonassoc)",
				st.num, itm, b.describeShiftItems(st, naTerms), naTerms.describe(b.grammar))
			b.conflicts += naTerms.count()
		}
	}
}

// describeShiftItems lists the items of the state that shift on any of the
// given conflict terminals, one per line, in declaration order.
func (b *lrTableBuilder) describeShiftItems(st *lalrState, terms *terminalSet) string {
	var sb strings.Builder
	for _, itm := range st.order {
		t, ok := itm.symbolAfterDot().(*terminal)
		if !ok {
			continue
		}
		if !terms.contains(t.num) {
			continue
		}
		sb.WriteString("  and     ")
		sb.WriteString(itm.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// checkReductions tallies the REDUCE cells of the final table per
// production and warns once for every production that is never reduced.
func (b *lrTableBuilder) checkReductions(ptab *ParsingTable) int {
	for state := 0; state < ptab.stateCount; state++ {
		for term := 0; term < ptab.terminalCount; term++ {
			code := ptab.Action(state, term)
			if !IsReduce(code) {
				continue
			}
			b.grammar.productions[ActionIndex(code)].noteReductionUse()
		}
	}

	neverReduced := 0
	for _, prod := range b.grammar.productions {
		if prod.numReductions == 0 {
			b.diag.Warningf("production %v is never reduced", prod)
			neverReduced++
		}
	}
	return neverReduced
}

// checkUnused warns about terminals that appear in no production and
// non-terminals that are unused or have no productions. The reserved
// terminals and the synthesized symbols are exempt.
func (b *lrTableBuilder) checkUnused() (int, int) {
	unusedTerms := 0
	for _, t := range b.grammar.terminals {
		if t.num == terminalNumEOF || t.num == terminalNumError {
			continue
		}
		if t.uses == 0 {
			b.diag.Warningf("terminal %v is declared but never used", t.name)
			unusedTerms++
		}
	}

	unusedNonTerms := 0
	for _, nt := range b.grammar.nonTerminals {
		if nt.isStart || nt.isEmbeddedAction {
			continue
		}
		if len(nt.prods) == 0 {
			b.diag.Warningf("non-terminal %v has no productions", nt.name)
			unusedNonTerms++
			continue
		}
		if nt.uses == 0 {
			b.diag.Warningf("non-terminal %v is declared but never used", nt.name)
			unusedNonTerms++
		}
	}
	return unusedTerms, unusedNonTerms
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
