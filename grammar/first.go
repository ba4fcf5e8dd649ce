package grammar

// computeNullability marks every non-terminal that can derive the empty
// string. The loop is a monotone fixed point: flags only ever flip from
// false to true, so it terminates.
func (g *Grammar) computeNullability() {
	change := true
	for change {
		change = false
		for _, nt := range g.nonTerminals {
			if nt.nullable {
				continue
			}
			if nt.looksNullable() {
				nt.nullable = true
				change = true
			}
		}
	}

	// One final pass over the productions to freeze their flags.
	for _, prod := range g.productions {
		prod.nullable = prod.checkNullable()
	}
}

// computeFirstSets computes the FIRST set of every non-terminal. It assumes
// nullability has already quiesced. The sets grow monotonically, so the
// loop terminates.
func (g *Grammar) computeFirstSets() {
	for _, nt := range g.nonTerminals {
		nt.first = newTerminalSet(len(g.terminals))
	}

	change := true
	for change {
		change = false
		for _, nt := range g.nonTerminals {
			for _, prod := range nt.prods {
				if nt.first.addSet(prod.firstSet(g)) {
					change = true
				}
			}
		}
	}

	// Freeze the per-production FIRST sets.
	for _, prod := range g.productions {
		prod.first = prod.firstSet(g)
	}
}

// firstOfSequence computes the FIRST set of a symbol sequence under the
// nullable-prefix rule: terminals are added directly and stop the scan, a
// non-terminal contributes its FIRST set and stops the scan unless it is
// nullable.
func (g *Grammar) firstOfSequence(seq []symbol) *terminalSet {
	first := newTerminalSet(len(g.terminals))
	for _, sym := range seq {
		switch s := sym.(type) {
		case *terminal:
			first.add(s.num)
			return first
		case *nonTerminal:
			if s.first != nil {
				first.addSet(s.first)
			}
			if !s.nullable {
				return first
			}
		}
	}
	return first
}
