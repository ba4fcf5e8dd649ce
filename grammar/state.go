package grammar

import (
	"sort"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/sets/treeset"
	"go.uber.org/zap"
)

// lalrTransition is one entry of a state's singly-linked transition list.
type lalrTransition struct {
	onSymbol symbol
	toState  *lalrState
	next     *lalrTransition
}

// lalrState is a state of the viable-prefix recognition machine: a mapping
// from items to lookahead cells plus the outgoing transitions. order keeps
// the items in insertion order so that every later traversal is
// reproducible run-to-run.
type lalrState struct {
	num         int
	items       map[*lrItem]*lookaheads
	order       []*lrItem
	transitions *lalrTransition
}

func newLALRState(num int, kernel map[*lrItem]*terminalSet) *lalrState {
	st := &lalrState{
		num:   num,
		items: map[*lrItem]*lookaheads{},
	}
	for _, itm := range sortedKernelItems(kernel) {
		st.insertItem(itm, newLookaheads(kernel[itm]))
	}
	return st
}

func (s *lalrState) insertItem(itm *lrItem, la *lookaheads) {
	s.items[itm] = la
	s.order = append(s.order, itm)
}

func (s *lalrState) addTransition(sym symbol, to *lalrState) {
	s.transitions = &lalrTransition{
		onSymbol: sym,
		toState:  to,
		next:     s.transitions,
	}
}

// propagateLookaheads merges the lookaheads of an equal kernel into the
// state's cells. The cells push any growth through their propagation
// edges, so no separate propagation pass is needed.
func (s *lalrState) propagateLookaheads(kernel map[*lrItem]*terminalSet) {
	for itm, la := range kernel {
		s.items[itm].add(la)
	}
}

func sortedKernelItems(kernel map[*lrItem]*terminalSet) []*lrItem {
	items := make([]*lrItem, 0, len(kernel))
	for itm := range kernel {
		items = append(items, itm)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].prod.num != items[j].prod.num {
			return items[i].prod.num < items[j].prod.num
		}
		return items[i].dot < items[j].dot
	})
	return items
}

// kernelKey derives the canonical hash key of a kernel: its item set with
// lookaheads ignored.
func kernelKey(kernel map[*lrItem]*terminalSet) string {
	items := sortedKernelItems(kernel)
	b := make([]byte, 0, len(items)*4)
	for _, itm := range items {
		b = append(b,
			byte(itm.prod.num>>8), byte(itm.prod.num),
			byte(itm.dot>>8), byte(itm.dot))
	}
	return string(b)
}

// lalrMachine is the per-grammar registry of LALR states keyed by kernel.
type lalrMachine struct {
	grammar *Grammar
	states  []*lalrState
	kernels map[string]*lalrState
}

// genLALRMachine builds the viable-prefix recognition machine. Nullability
// and FIRST sets must be stable before it is called. States are numbered
// in creation order; lookahead propagation happens eagerly through the
// cell edges, so the machine has quiesced when the work list drains.
func genLALRMachine(g *Grammar, logger *zap.Logger) *lalrMachine {
	m := &lalrMachine{
		grammar: g,
		kernels: map[string]*lalrState{},
	}

	work := arraylist.New()

	// The start kernel is [$START ::=・S <eof>] with lookahead {<eof>}.
	la := newTerminalSet(len(g.terminals))
	la.add(terminalNumEOF)
	m.getState(map[*lrItem]*terminalSet{
		g.startProduction.item(0): la,
	}, work)

	for !work.Empty() {
		v, _ := work.Get(0)
		work.Remove(0)
		st := v.(*lalrState)
		m.computeClosure(st)
		m.computeSuccessors(st, work)
	}

	logger.Debug("LALR machine built",
		zap.Int("states", len(m.states)),
	)

	return m
}

// getState canonicalizes a kernel: an existing state with an equal item
// set absorbs the supplied lookaheads, otherwise a new state is created
// and enqueued for processing.
func (m *lalrMachine) getState(kernel map[*lrItem]*terminalSet, work *arraylist.List) *lalrState {
	key := kernelKey(kernel)
	if st, ok := m.kernels[key]; ok {
		st.propagateLookaheads(kernel)
		return st
	}
	st := newLALRState(len(m.states), kernel)
	m.states = append(m.states, st)
	m.kernels[key] = st
	work.Add(st)
	return st
}

// computeClosure closes the state under the LALR closure rule: for every
// item [A ::= α・B β, L] and every production B ::= γ, the state receives
// [B ::=・γ, FIRST(β)], and when β is nullable the cell of the closing
// item gains a propagation edge to the new cell so later additions to L
// flow onward.
func (m *lalrMachine) computeClosure(st *lalrState) {
	unchecked := make([]*lrItem, len(st.order))
	copy(unchecked, st.order)
	for len(unchecked) > 0 {
		var nextUnchecked []*lrItem
		for _, itm := range unchecked {
			nt := itm.dotBeforeNonTerminal()
			if nt == nil {
				continue
			}

			shifted := itm.shiftCore()
			la := shifted.calcLookahead(m.grammar)
			needProp := shifted.isNullable()
			if needProp {
				la.addSet(st.items[itm].terminalSet)
			}

			for _, prod := range nt.prods {
				newItm := prod.item(0)
				cell, ok := st.items[newItm]
				if ok {
					cell.add(la)
				} else {
					cell = newLookaheads(la)
					st.insertItem(newItm, cell)
					nextUnchecked = append(nextUnchecked, newItm)
				}
				if needProp {
					st.items[itm].addPropagation(cell)
				}
			}
		}
		unchecked = nextUnchecked
	}
}

// computeSuccessors groups the items by their dotted symbol and realizes
// one successor state per symbol from the shifted kernels. Each
// contributing cell gains a propagation edge to its counterpart in the
// successor.
func (m *lalrMachine) computeSuccessors(st *lalrState, work *arraylist.List) {
	groups := map[symbol][]*lrItem{}
	syms := treeset.NewWith(symbolComparator)
	for _, itm := range st.order {
		sym := itm.symbolAfterDot()
		if sym == nil {
			continue
		}
		if _, ok := groups[sym]; !ok {
			syms.Add(sym)
		}
		groups[sym] = append(groups[sym], itm)
	}

	it := syms.Iterator()
	for it.Next() {
		sym := it.Value().(symbol)
		group := groups[sym]

		kernel := map[*lrItem]*terminalSet{}
		for _, itm := range group {
			kernel[itm.shiftCore()] = st.items[itm].terminalSet
		}
		succ := m.getState(kernel, work)
		for _, itm := range group {
			st.items[itm].addPropagation(succ.items[itm.shiftCore()])
		}
		st.addTransition(sym, succ)
	}
}

// symbolComparator orders terminals before non-terminals, then by number.
// It makes successor creation, and with it state numbering, deterministic.
func symbolComparator(a, b interface{}) int {
	sa := a.(symbol)
	sb := b.(symbol)
	if sa.isNonTerminal() != sb.isNonTerminal() {
		if !sa.isNonTerminal() {
			return -1
		}
		return 1
	}
	return sa.symbolNum() - sb.symbolNum()
}
