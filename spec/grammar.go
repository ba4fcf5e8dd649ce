// Package spec defines the wire formats of the generator: the grammar
// object accepted as input and the compiled table bundle produced as
// output.
package spec

import (
	"encoding/json"
	"io"

	"github.com/pingcap/errors"
)

// GrammarDesc is the grammar object handed to the analysis pipeline. It is
// normally produced by decoding a JSON document, but callers may construct
// one programmatically as well.
type GrammarDesc struct {
	Name         string             `json:"name"`
	Terminals    []*TerminalDesc    `json:"terminals"`
	NonTerminals []*NonTerminalDesc `json:"non_terminals"`
	Start        string             `json:"start"`
	Productions  []*ProductionDesc  `json:"productions"`
	Options      *OptionsDesc       `json:"options,omitempty"`
}

// TerminalDesc declares a terminal symbol. Precedence 0 means the terminal
// carries no precedence; Associativity is one of "left", "right",
// "nonassoc", or empty.
type TerminalDesc struct {
	Name          string `json:"name"`
	Type          string `json:"type,omitempty"`
	Precedence    int    `json:"precedence,omitempty"`
	Associativity string `json:"associativity,omitempty"`
}

type NonTerminalDesc struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ProductionDesc declares one raw production. The RHS interleaves symbol
// references with opaque embedded-action payloads; the rewriter factors
// the actions out before any analysis runs. Precedence optionally names a
// terminal whose precedence the production adopts.
type ProductionDesc struct {
	LHS        string         `json:"lhs"`
	RHS        []*RHSPartDesc `json:"rhs"`
	Precedence string         `json:"precedence,omitempty"`
	Action     string         `json:"action,omitempty"`
}

// RHSPartDesc is either a symbol reference or an action payload, never
// both.
type RHSPartDesc struct {
	Symbol string `json:"symbol,omitempty"`
	Action string `json:"action,omitempty"`
}

type OptionsDesc struct {
	ExpectedConflicts int  `json:"expected_conflicts,omitempty"`
	CompactReduces    bool `json:"compact_reduces,omitempty"`
}

// ParseGrammar decodes a JSON grammar object. Unknown fields are rejected
// so that typos in hand-written grammar files surface immediately.
func ParseGrammar(r io.Reader) (*GrammarDesc, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	d := &GrammarDesc{}
	if err := dec.Decode(d); err != nil {
		return nil, errors.Annotate(err, "failed to parse a grammar description")
	}
	if d.Name == "" {
		return nil, errors.New("a grammar description needs a name")
	}
	// A trailing reduce action may be written either as the production's
	// action field or as a trailing RHS action entry; normalize to the
	// latter so the rewriter sees a single form.
	for _, pd := range d.Productions {
		if pd.Action != "" {
			pd.RHS = append(pd.RHS, &RHSPartDesc{Action: pd.Action})
			pd.Action = ""
		}
	}
	return d, nil
}
