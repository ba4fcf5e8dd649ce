package grammar

import (
	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/nihei9/cupola/compressor"
	"github.com/nihei9/cupola/spec"
)

type compileConfig struct {
	reporting bool
	logger    *zap.Logger
}

type CompileOption func(config *compileConfig)

// EnableReporting makes Compile return a build report describing the
// states, moves, and conflict resolutions.
func EnableReporting() CompileOption {
	return func(config *compileConfig) {
		config.reporting = true
	}
}

// WithLogger routes the pipeline's debug telemetry to the given logger.
// Diagnostics for the user are unaffected; they go through the grammar's
// diagnostics manager.
func WithLogger(logger *zap.Logger) CompileOption {
	return func(config *compileConfig) {
		config.logger = logger
	}
}

// Compile runs the analysis pipeline over a built grammar: the nullability
// and FIRST fixed points, LALR machine construction, table fill with
// conflict resolution, and compression into the compact table bundle.
func Compile(gram *Grammar, opts ...CompileOption) (*spec.CompiledTables, *spec.Report, error) {
	config := &compileConfig{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(config)
	}
	logger := config.logger
	m := gram.diag

	gram.computeNullability()
	gram.computeFirstSets()
	logger.Debug("fixed points computed",
		zap.Int("terminals", len(gram.terminals)),
		zap.Int("non_terminals", len(gram.nonTerminals)),
		zap.Int("productions", len(gram.productions)),
	)

	machine := genLALRMachine(gram, logger)

	b := &lrTableBuilder{
		grammar: gram,
		machine: machine,
		diag:    m,
		logger:  logger,
	}
	ptab := b.build()
	neverReduced := b.checkReductions(ptab)
	unusedTerms, unusedNonTerms := b.checkUnused()

	if b.conflicts > gram.expectedConflicts {
		m.Errorf("%v conflicts found (%v expected)", b.conflicts, gram.expectedConflicts)
		return nil, nil, semErrTooManyConflicts
	}

	ptab.computeDefaults(gram)

	actOrig, err := compressor.NewOriginalTable(ptab.actions, ptab.terminalCount)
	if err != nil {
		return nil, nil, err
	}
	actTab, err := compressor.PackActionTable(actOrig, ptab.defaults)
	if err != nil {
		return nil, nil, compressionError(gram, err)
	}
	gotoOrig, err := compressor.NewOriginalTable(ptab.gotos, ptab.nonTerminalCount)
	if err != nil {
		return nil, nil, err
	}
	gotoTab, err := compressor.PackGotoTable(gotoOrig, GotoAbsent)
	if err != nil {
		return nil, nil, compressionError(gram, err)
	}
	logger.Debug("tables compressed",
		zap.Int("action_len", len(actTab.Compressed)),
		zap.Int("goto_len", len(gotoTab.Compressed)),
	)

	prodTab := make([]*spec.ProductionEntry, len(gram.productions))
	actionCodes := make([]string, len(gram.productions))
	for i, prod := range gram.productions {
		prodTab[i] = &spec.ProductionEntry{
			LHS:            prod.lhs.num,
			RHSSymbolCount: prod.rhsLen,
			RHSStackDepth:  prod.rhsStackDepth(),
		}
		actionCodes[i] = prod.action
	}

	termNames := make([]string, len(gram.terminals))
	for i, t := range gram.terminals {
		termNames[i] = t.name
	}
	nonTermNames := make([]string, len(gram.nonTerminals))
	for i, nt := range gram.nonTerminals {
		nonTermNames[i] = nt.name
	}

	tabs := &spec.CompiledTables{
		Name:               gram.name,
		NumStates:          ptab.stateCount,
		NumTerminals:       ptab.terminalCount,
		NumNonTerminals:    ptab.nonTerminalCount,
		NumProductions:     len(gram.productions),
		InitialState:       ptab.InitialState,
		ActionCompressed:   actTab.Compressed,
		ActionBase:         actTab.Bases,
		ReduceCompressed:   gotoTab.Compressed,
		ProductionTable:    prodTab,
		ActionCodeTable:    actionCodes,
		TerminalNames:      termNames,
		NonTerminalNames:   nonTermNames,
		NumConflicts:       b.conflicts,
		UnusedTerminals:    unusedTerms,
		UnusedNonTerminals: unusedNonTerms,
		NeverReduced:       neverReduced,
	}

	var report *spec.Report
	if config.reporting {
		report = b.genReport(ptab)
	}

	return tabs, report, nil
}

func compressionError(gram *Grammar, err error) error {
	if errors.Cause(err) == compressor.ErrTableOverflow {
		gram.diag.Fatalf("%v", err)
		return semErrTableOverflow
	}
	return err
}
