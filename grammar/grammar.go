// Package grammar implements the analysis pipeline of the parser-table
// generator: embedded-action rewriting, nullability and FIRST fixed
// points, LALR(1) machine construction with lookahead propagation,
// conflict resolution, and dense-table construction.
package grammar

import (
	"fmt"
	"os"

	"github.com/pingcap/errors"

	"github.com/nihei9/cupola/diag"
	"github.com/nihei9/cupola/spec"
)

// Grammar owns the terminal, non-terminal, and production sequences of one
// rewritten grammar. All three are indexed densely from zero and are never
// mutated after Build returns, except for the nullability flags, FIRST
// sets, and reduction-use counters maintained by the later phases.
type Grammar struct {
	name            string
	terminals       []*terminal
	nonTerminals    []*nonTerminal
	productions     []*production
	startSymbol     *nonTerminal
	startProduction *production

	expectedConflicts int
	compactReduces    bool

	diag *diag.Manager
}

func (g *Grammar) Name() string {
	return g.name
}

func (g *Grammar) eof() *terminal {
	return g.terminals[terminalNumEOF]
}

// GrammarBuilder constructs a Grammar from a grammar description. Symbol
// and precedence problems are recorded through the diagnostics manager and
// the build continues where possible, so that a single run surfaces as
// many problems as it can.
type GrammarBuilder struct {
	Desc *spec.GrammarDesc

	// Diag receives the diagnostics of both the builder and the later
	// build phases. When nil, a manager writing to stderr is used.
	Diag *diag.Manager
}

// rhsPart is a production part before rewriting: exactly one of sym and
// action text is meaningful.
type rhsPart struct {
	isAction bool
	sym      symbol
	action   string
}

func (b *GrammarBuilder) Build() (*Grammar, error) {
	d := b.Desc
	if d == nil {
		return nil, errors.New("grammar description must be non-nil")
	}
	m := b.Diag
	if m == nil {
		m = diag.NewManager(os.Stderr)
	}

	g := &Grammar{
		name: d.Name,
		diag: m,
	}
	if d.Options != nil {
		g.expectedConflicts = d.Options.ExpectedConflicts
		g.compactReduces = d.Options.CompactReduces
	}

	symTab := map[string]symbol{}

	// The reserved terminals occupy the first two numbers.
	for _, name := range []string{symbolNameEOF, symbolNameError} {
		t := &terminal{
			num:  len(g.terminals),
			name: name,
		}
		g.terminals = append(g.terminals, t)
		symTab[name] = t
	}
	for _, td := range d.Terminals {
		if _, declared := symTab[td.Name]; declared {
			m.Errorf("%v: %v", semErrSymbolRedeclared, td.Name)
			continue
		}
		t := &terminal{
			num:      len(g.terminals),
			name:     td.Name,
			typeTag:  td.Type,
			precNum:  precNil,
			precSide: assocTypeNil,
		}
		if td.Precedence >= precMin {
			side, err := parseAssocType(td.Associativity)
			if err != nil {
				m.Errorf("terminal %v: %v", td.Name, err)
			} else if side != assocTypeNil {
				t.precNum = td.Precedence
				t.precSide = side
			}
		}
		g.terminals = append(g.terminals, t)
		symTab[td.Name] = t
	}

	// $START takes non-terminal number 0; user non-terminals follow in
	// declaration order.
	start := &nonTerminal{
		num:     nonTerminalNumStart,
		name:    symbolNameStart,
		isStart: true,
	}
	g.nonTerminals = append(g.nonTerminals, start)
	symTab[symbolNameStart] = start
	for _, nd := range d.NonTerminals {
		if _, declared := symTab[nd.Name]; declared {
			m.Errorf("%v: %v", semErrSymbolRedeclared, nd.Name)
			continue
		}
		nt := &nonTerminal{
			num:     len(g.nonTerminals),
			name:    nd.Name,
			typeTag: nd.Type,
		}
		g.nonTerminals = append(g.nonTerminals, nt)
		symTab[nd.Name] = nt
	}

	startSym, ok := symTab[d.Start].(*nonTerminal)
	if !ok || d.Start == "" {
		m.Errorf("start symbol is not a declared non-terminal: %v", d.Start)
		return nil, semErrNoStartSymbol
	}
	g.startSymbol = startSym

	if len(d.Productions) == 0 {
		m.Errorf("%v", semErrNoProduction)
		return nil, semErrNoProduction
	}

	// The augmented start production $START ::= S <eof> takes production
	// number 0 so that REDUCE(0) marks an accept.
	startProd, err := newProduction(0, start, []symbol{startSym, g.eof()})
	if err != nil {
		return nil, err
	}
	startSym.noteUse()
	g.eof().noteUse()
	g.productions = append(g.productions, startProd)
	g.startProduction = startProd

	hiddenNum := 0
	for _, pd := range d.Productions {
		lhs, ok := symTab[pd.LHS].(*nonTerminal)
		if !ok {
			m.Errorf("%v in LHS position: %v", semErrUnknownSymbol, pd.LHS)
			continue
		}

		parts, ok := b.resolveParts(m, symTab, pd)
		if !ok {
			continue
		}
		parts = mergeAdjacentActions(parts)

		// A trailing action becomes the reduce action of the production
		// itself; every other action is factored out below.
		var action string
		var hasAction bool
		if n := len(parts); n > 0 && parts[n-1].isAction {
			action = parts[n-1].action
			hasAction = true
			parts = parts[:n-1]
		}

		// Factor out the embedded actions: each one is replaced by a
		// fresh hidden non-terminal with a single empty production
		// carrying the action.
		type pendingAction struct {
			lhs                       *nonTerminal
			action                    string
			indexOfAction             int
			indexOfIntermediateResult int
		}
		var rhs []symbol
		var pending []*pendingAction
		prevActionIdx := -1
		for _, part := range parts {
			if !part.isAction {
				rhs = append(rhs, part.sym)
				noteSymbolUse(part.sym)
				continue
			}
			hiddenNum++
			hidden := &nonTerminal{
				num:              len(g.nonTerminals),
				name:             fmt.Sprintf("NT$%v", hiddenNum),
				isEmbeddedAction: true,
			}
			g.nonTerminals = append(g.nonTerminals, hidden)
			symTab[hidden.name] = hidden
			pending = append(pending, &pendingAction{
				lhs:                       hidden,
				action:                    part.action,
				indexOfAction:             len(rhs),
				indexOfIntermediateResult: prevActionIdx,
			})
			prevActionIdx = len(rhs)
			rhs = append(rhs, hidden)
		}

		prod, err := newProduction(len(g.productions), lhs, rhs)
		if err != nil {
			return nil, err
		}
		prod.action = action
		prod.hasAction = hasAction
		g.productions = append(g.productions, prod)

		for _, pa := range pending {
			actProd, err := newProduction(len(g.productions), pa.lhs, nil)
			if err != nil {
				return nil, err
			}
			actProd.action = pa.action
			actProd.hasAction = true
			actProd.base = prod
			actProd.indexOfAction = pa.indexOfAction
			actProd.indexOfIntermediateResult = pa.indexOfIntermediateResult
			g.productions = append(g.productions, actProd)
		}

		b.assignPrecedence(m, symTab, pd, prod)
	}

	return g, nil
}

func (b *GrammarBuilder) resolveParts(m *diag.Manager, symTab map[string]symbol, pd *spec.ProductionDesc) ([]*rhsPart, bool) {
	var parts []*rhsPart
	for _, rd := range pd.RHS {
		if rd.Symbol != "" && rd.Action != "" {
			m.Errorf("production %v: a RHS entry cannot be both a symbol and an action", pd.LHS)
			return nil, false
		}
		if rd.Symbol == "" {
			parts = append(parts, &rhsPart{
				isAction: true,
				action:   rd.Action,
			})
			continue
		}
		sym, declared := symTab[rd.Symbol]
		if !declared {
			m.Errorf("%v: %v in a production of %v", semErrUnknownSymbol, rd.Symbol, pd.LHS)
			return nil, false
		}
		parts = append(parts, &rhsPart{
			sym: sym,
		})
	}
	return parts, true
}

// assignPrecedence sets the production precedence from the explicit %prec
// terminal when given, otherwise from the rightmost RHS terminal carrying
// a precedence. Distinct implicit precedences without an explicit choice
// are an error.
func (b *GrammarBuilder) assignPrecedence(m *diag.Manager, symTab map[string]symbol, pd *spec.ProductionDesc, prod *production) {
	if pd.Precedence != "" {
		t, ok := symTab[pd.Precedence].(*terminal)
		if !ok {
			m.Errorf("%v in a precedence declaration: %v", semErrUnknownSymbol, pd.Precedence)
			return
		}
		prod.precNum = t.precedenceNum()
		prod.precSide = t.precedenceSide()
		return
	}

	levels := map[int]struct{}{}
	for _, sym := range prod.rhs {
		t, ok := sym.(*terminal)
		if !ok || t.precedenceNum() == precNil {
			continue
		}
		levels[t.precedenceNum()] = struct{}{}
		prod.precNum = t.precedenceNum()
		prod.precSide = t.precedenceSide()
	}
	if len(levels) > 1 {
		m.Errorf("%v: %v", semErrPrecAmbiguous, prod)
	}
}

func mergeAdjacentActions(parts []*rhsPart) []*rhsPart {
	merged := make([]*rhsPart, 0, len(parts))
	for _, part := range parts {
		if part.isAction && len(merged) > 0 && merged[len(merged)-1].isAction {
			prev := merged[len(merged)-1]
			merged[len(merged)-1] = &rhsPart{
				isAction: true,
				action:   prev.action + part.action,
			}
			continue
		}
		merged = append(merged, part)
	}
	return merged
}

func noteSymbolUse(sym symbol) {
	switch s := sym.(type) {
	case *terminal:
		s.noteUse()
	case *nonTerminal:
		if !s.isEmbeddedAction {
			s.noteUse()
		}
	}
}

func parseAssocType(assoc string) (assocType, error) {
	switch assoc {
	case "left":
		return assocTypeLeft, nil
	case "right":
		return assocTypeRight, nil
	case "nonassoc":
		return assocTypeNonAssoc, nil
	case "":
		return assocTypeNil, nil
	}
	return assocTypeNil, errors.Errorf("invalid associativity: %v", assoc)
}
