package grammar

import (
	"sort"

	"github.com/nihei9/cupola/spec"
)

// genReport assembles the human-oriented build description: the symbol and
// production inventories, and per state the kernel, the moves of the final
// table, and how each conflict was resolved.
//
// RHS encoding in the report: terminals appear as their number,
// non-terminals as -(number + 1).
func (b *lrTableBuilder) genReport(ptab *ParsingTable) *spec.Report {
	g := b.grammar

	terms := make([]*spec.TerminalReport, len(g.terminals))
	for i, t := range g.terminals {
		r := &spec.TerminalReport{
			Number: t.num,
			Name:   t.name,
		}
		if t.precedenceNum() != precNil {
			r.Precedence = t.precedenceNum()
			r.Associativity = string(t.precedenceSide())
		}
		terms[i] = r
	}

	nonTerms := make([]*spec.NonTerminalReport, len(g.nonTerminals))
	for i, nt := range g.nonTerminals {
		nonTerms[i] = &spec.NonTerminalReport{
			Number: nt.num,
			Name:   nt.name,
		}
	}

	prods := make([]*spec.ProductionReport, len(g.productions))
	for i, prod := range g.productions {
		rhs := make([]int, prod.rhsLen)
		for j, sym := range prod.rhs {
			if sym.isNonTerminal() {
				rhs[j] = -(sym.symbolNum() + 1)
			} else {
				rhs[j] = sym.symbolNum()
			}
		}
		r := &spec.ProductionReport{
			Number: prod.num,
			LHS:    prod.lhs.num,
			RHS:    rhs,
		}
		if prod.precedenceNum() != precNil {
			r.Precedence = prod.precedenceNum()
			r.Associativity = string(prod.precedenceSide())
		}
		prods[i] = r
	}

	srByState := map[int][]*srConflict{}
	for _, c := range b.srConflicts {
		srByState[c.state] = append(srByState[c.state], c)
	}
	rrByState := map[int][]*rrConflict{}
	for _, c := range b.rrConflicts {
		rrByState[c.state] = append(rrByState[c.state], c)
	}

	states := make([]*spec.StateReport, len(b.machine.states))
	for _, st := range b.machine.states {
		var kernel []*spec.ItemReport
		for _, itm := range st.order {
			if !itm.isKernel() {
				continue
			}
			kernel = append(kernel, &spec.ItemReport{
				Production: itm.prod.num,
				Dot:        itm.dot,
			})
		}

		var shift []*spec.TransitionReport
		var reduce []*spec.ReduceReport
		var goTo []*spec.TransitionReport
		reduceByProd := map[int]*spec.ReduceReport{}
		for term := 0; term < ptab.terminalCount; term++ {
			code := ptab.Action(st.num, term)
			switch {
			case IsShift(code):
				shift = append(shift, &spec.TransitionReport{
					Symbol: term,
					State:  ActionIndex(code),
				})
			case IsReduce(code):
				prod := ActionIndex(code)
				r, ok := reduceByProd[prod]
				if !ok {
					r = &spec.ReduceReport{
						Production: prod,
					}
					reduceByProd[prod] = r
					reduce = append(reduce, r)
				}
				r.LookAhead = append(r.LookAhead, term)
			}
		}
		for nonTerm := 0; nonTerm < ptab.nonTerminalCount; nonTerm++ {
			if next := ptab.Goto(st.num, nonTerm); next != GotoAbsent {
				goTo = append(goTo, &spec.TransitionReport{
					Symbol: nonTerm,
					State:  next,
				})
			}
		}
		sort.Slice(reduce, func(i, j int) bool {
			return reduce[i].Production < reduce[j].Production
		})

		var sr []*spec.SRConflictReport
		for _, c := range srByState[st.num] {
			sr = append(sr, &spec.SRConflictReport{
				Symbol:     c.term.num,
				State:      c.nextState,
				Production: c.prod,
				ResolvedBy: string(c.resolvedBy),
			})
		}
		var rr []*spec.RRConflictReport
		for _, c := range rrByState[st.num] {
			rr = append(rr, &spec.RRConflictReport{
				Symbol:      c.term.num,
				Production1: c.prod1,
				Production2: c.prod2,
				ResolvedBy:  string(c.resolvedBy),
			})
		}

		states[st.num] = &spec.StateReport{
			Number:     st.num,
			Kernel:     kernel,
			Shift:      shift,
			Reduce:     reduce,
			GoTo:       goTo,
			SRConflict: sr,
			RRConflict: rr,
		}
	}

	return &spec.Report{
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prods,
		States:       states,
	}
}
