package grammar

// lookaheads is the lookahead cell of one item in one state: a terminal set
// plus propagation edges to the cells that must receive every terminal
// added here. The propagation graph may contain cycles; add terminates
// because an edge is only followed when its target actually grew.
type lookaheads struct {
	*terminalSet
	propagations []*lookaheads
}

func newLookaheads(set *terminalSet) *lookaheads {
	return &lookaheads{
		terminalSet: set.clone(),
	}
}

// addPropagation links child so that any terminals added to the cell later
// also flow into child, transitively.
func (l *lookaheads) addPropagation(child *lookaheads) {
	l.propagations = append(l.propagations, child)
}

// add unions newLA into the cell and, when the cell grew, pushes the added
// terminals through all reachable propagation edges.
func (l *lookaheads) add(newLA *terminalSet) bool {
	if !l.terminalSet.addSet(newLA) {
		return false
	}

	work := make([]*lookaheads, len(l.propagations))
	copy(work, l.propagations)
	for len(work) > 0 {
		la := work[len(work)-1]
		work = work[:len(work)-1]
		if la.terminalSet.addSet(newLA) {
			work = append(work, la.propagations...)
		}
	}
	return true
}
