package spec

import (
	"encoding/json"
	"io"

	"github.com/pingcap/errors"
)

// CompiledTables is the compact table bundle consumed by a runtime parse
// driver.
//
// Action encoding (shared by the dense and compressed forms):
//
//	0        ERROR
//	odd c    SHIFT, target state = (c - 1) / 2
//	even c>0 REDUCE, production = (c - 2) / 2
//
// ActionCompressed[0..NumStates) holds per-state default actions; the
// remainder holds (owner-state, action) pairs. A lookup for (s, t) reads
// the slot ActionBase[s] + 2t: when its owner tag equals s the neighboring
// slot is the action, otherwise the default applies.
//
// ReduceCompressed[0..NumStates) holds per-state bases; the slot
// ReduceCompressed[base(s) + n] holds the goto target of state s under
// non-terminal n.
type CompiledTables struct {
	Name            string  `json:"name"`
	NumStates       int     `json:"num_states"`
	NumTerminals    int     `json:"num_terminals"`
	NumNonTerminals int     `json:"num_non_terminals"`
	NumProductions  int     `json:"num_productions"`
	InitialState    int     `json:"initial_state"`
	ActionCompressed []int16 `json:"action_compressed"`
	ActionBase       []int16 `json:"action_base"`
	ReduceCompressed []int16 `json:"reduce_compressed"`

	// ProductionTable holds one entry per production: the LHS
	// non-terminal number, the RHS symbol count, and the stack depth
	// visible to the reduce action.
	ProductionTable []*ProductionEntry `json:"production_table"`

	// ActionCodeTable carries the opaque reduce-action payloads, one per
	// production; entries are empty for actionless productions.
	ActionCodeTable []string `json:"action_code_table"`

	TerminalNames    []string `json:"terminal_names"`
	NonTerminalNames []string `json:"non_terminal_names"`

	NumConflicts       int `json:"num_conflicts"`
	UnusedTerminals    int `json:"unused_terminals"`
	UnusedNonTerminals int `json:"unused_non_terminals"`
	NeverReduced       int `json:"never_reduced"`
}

type ProductionEntry struct {
	LHS           int `json:"lhs"`
	RHSSymbolCount int `json:"rhs_symbol_count"`
	RHSStackDepth  int `json:"rhs_stack_depth"`
}

func WriteCompiledTables(w io.Writer, tabs *CompiledTables) error {
	out, err := json.Marshal(tabs)
	if err != nil {
		return errors.Annotate(err, "failed to marshal compiled tables")
	}
	if _, err := w.Write(out); err != nil {
		return errors.Annotate(err, "failed to write compiled tables")
	}
	return nil
}

// Report is the optional human-oriented build description: per-state
// kernels, moves, and how each conflict was resolved.
type Report struct {
	Terminals    []*TerminalReport    `json:"terminals"`
	NonTerminals []*NonTerminalReport `json:"non_terminals"`
	Productions  []*ProductionReport  `json:"productions"`
	States       []*StateReport       `json:"states"`
}

type TerminalReport struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	Precedence    int    `json:"precedence,omitempty"`
	Associativity string `json:"associativity,omitempty"`
}

type NonTerminalReport struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

type ProductionReport struct {
	Number        int    `json:"number"`
	LHS           int    `json:"lhs"`
	RHS           []int  `json:"rhs"`
	Precedence    int    `json:"precedence,omitempty"`
	Associativity string `json:"associativity,omitempty"`
}

type ItemReport struct {
	Production int `json:"production"`
	Dot        int `json:"dot"`
}

type TransitionReport struct {
	Symbol int `json:"symbol"`
	State  int `json:"state"`
}

type ReduceReport struct {
	LookAhead  []int `json:"look_ahead"`
	Production int   `json:"production"`
}

type SRConflictReport struct {
	Symbol     int    `json:"symbol"`
	State      int    `json:"state"`
	Production int    `json:"production"`
	ResolvedBy string `json:"resolved_by"`
}

type RRConflictReport struct {
	Symbol      int    `json:"symbol"`
	Production1 int    `json:"production_1"`
	Production2 int    `json:"production_2"`
	ResolvedBy  string `json:"resolved_by"`
}

type StateReport struct {
	Number     int                 `json:"number"`
	Kernel     []*ItemReport       `json:"kernel"`
	Shift      []*TransitionReport `json:"shift,omitempty"`
	Reduce     []*ReduceReport     `json:"reduce,omitempty"`
	GoTo       []*TransitionReport `json:"goto,omitempty"`
	SRConflict []*SRConflictReport `json:"sr_conflict,omitempty"`
	RRConflict []*RRConflictReport `json:"rr_conflict,omitempty"`
}

func WriteReport(w io.Writer, report *Report) error {
	out, err := json.Marshal(report)
	if err != nil {
		return errors.Annotate(err, "failed to marshal a report")
	}
	if _, err := w.Write(out); err != nil {
		return errors.Annotate(err, "failed to write a report")
	}
	return nil
}
