package grammar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nihei9/cupola/diag"
	"github.com/nihei9/cupola/spec"
)

func termDesc(name string) *spec.TerminalDesc {
	return &spec.TerminalDesc{
		Name: name,
	}
}

func termDescPrec(name string, prec int, assoc string) *spec.TerminalDesc {
	return &spec.TerminalDesc{
		Name:          name,
		Precedence:    prec,
		Associativity: assoc,
	}
}

func nonTermDesc(name string) *spec.NonTerminalDesc {
	return &spec.NonTerminalDesc{
		Name: name,
	}
}

func symPart(name string) *spec.RHSPartDesc {
	return &spec.RHSPartDesc{
		Symbol: name,
	}
}

func actPart(code string) *spec.RHSPartDesc {
	return &spec.RHSPartDesc{
		Action: code,
	}
}

func prodDesc(lhs string, rhs ...*spec.RHSPartDesc) *spec.ProductionDesc {
	return &spec.ProductionDesc{
		LHS: lhs,
		RHS: rhs,
	}
}

// buildTestGrammar builds a grammar with diagnostics captured in a buffer.
func buildTestGrammar(t *testing.T, desc *spec.GrammarDesc) (*Grammar, *diag.Manager, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	m := diag.NewManager(&buf)
	b := &GrammarBuilder{
		Desc: desc,
		Diag: m,
	}
	gram, err := b.Build()
	require.NoError(t, err)
	return gram, m, &buf
}

func (g *Grammar) terminalByName(t *testing.T, name string) *terminal {
	t.Helper()

	for _, term := range g.terminals {
		if term.name == name {
			return term
		}
	}
	t.Fatalf("terminal was not found: %v", name)
	return nil
}

func (g *Grammar) nonTerminalByName(t *testing.T, name string) *nonTerminal {
	t.Helper()

	for _, nt := range g.nonTerminals {
		if nt.name == name {
			return nt
		}
	}
	t.Fatalf("non-terminal was not found: %v", name)
	return nil
}

// findProduction returns the unique production with the given LHS name and
// RHS symbol names.
func (g *Grammar) findProduction(t *testing.T, lhs string, rhs ...string) *production {
	t.Helper()

PRODS:
	for _, prod := range g.productions {
		if prod.lhs.name != lhs || prod.rhsLen != len(rhs) {
			continue
		}
		for i, sym := range prod.rhs {
			if sym.symbolName() != rhs[i] {
				continue PRODS
			}
		}
		return prod
	}
	t.Fatalf("production was not found: %v ::= %v", lhs, rhs)
	return nil
}

// exprGrammarDesc is the precedence-annotated arithmetic grammar:
//
//	E ::= E PLUS E | E TIMES E | ID
func exprGrammarDesc() *spec.GrammarDesc {
	return &spec.GrammarDesc{
		Name: "expr",
		Terminals: []*spec.TerminalDesc{
			termDescPrec("PLUS", 1, "left"),
			termDescPrec("TIMES", 2, "left"),
			termDesc("ID"),
		},
		NonTerminals: []*spec.NonTerminalDesc{
			nonTermDesc("E"),
		},
		Start: "E",
		Productions: []*spec.ProductionDesc{
			prodDesc("E", symPart("E"), symPart("PLUS"), symPart("E")),
			prodDesc("E", symPart("E"), symPart("TIMES"), symPart("E")),
			prodDesc("E", symPart("ID")),
		},
	}
}

// danglingElseDesc is the classic shift/reduce grammar:
//
//	S ::= if e then S | if e then S else S | x
func danglingElseDesc() *spec.GrammarDesc {
	return &spec.GrammarDesc{
		Name: "dangling_else",
		Terminals: []*spec.TerminalDesc{
			termDesc("if"),
			termDesc("e"),
			termDesc("then"),
			termDesc("else"),
			termDesc("x"),
		},
		NonTerminals: []*spec.NonTerminalDesc{
			nonTermDesc("S"),
		},
		Start: "S",
		Productions: []*spec.ProductionDesc{
			prodDesc("S", symPart("if"), symPart("e"), symPart("then"), symPart("S")),
			prodDesc("S", symPart("if"), symPart("e"), symPart("then"), symPart("S"), symPart("else"), symPart("S")),
			prodDesc("S", symPart("x")),
		},
		Options: &spec.OptionsDesc{
			ExpectedConflicts: 1,
		},
	}
}
