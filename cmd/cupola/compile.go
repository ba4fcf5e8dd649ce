package main

import (
	"io"
	"os"

	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nihei9/cupola/diag"
	"github.com/nihei9/cupola/grammar"
	"github.com/nihei9/cupola/spec"
)

var compileFlags = struct {
	output            *string
	report            *string
	expectedConflicts *int
	compactReduces    *bool
	debug             *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a grammar into compressed LALR(1) parsing tables",
		Example: `  cupola compile grammar.json -o tables.json`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runCompile,
	}
	compileFlags.output = cmd.Flags().StringP("output", "o", "", "output file path (default stdout)")
	compileFlags.report = cmd.Flags().String("report", "", "write a build report to the given path")
	compileFlags.expectedConflicts = cmd.Flags().Int("expected-conflicts", 0, "number of conflicts the grammar is expected to contain")
	compileFlags.compactReduces = cmd.Flags().Bool("compact-reduces", false, "replace error entries with the most frequent reduce of each row")
	compileFlags.debug = cmd.Flags().Bool("debug", false, "enable debug logging to stderr")
	rootCmd.AddCommand(cmd)
}

func runCompile(cmd *cobra.Command, args []string) error {
	var src io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return &fatalError{err: err}
		}
		defer f.Close()
		src = f
	}

	desc, err := spec.ParseGrammar(src)
	if err != nil {
		return err
	}
	if desc.Options == nil {
		desc.Options = &spec.OptionsDesc{}
	}
	if cmd.Flags().Changed("expected-conflicts") {
		desc.Options.ExpectedConflicts = *compileFlags.expectedConflicts
	}
	if cmd.Flags().Changed("compact-reduces") {
		desc.Options.CompactReduces = *compileFlags.compactReduces
	}

	logger := zap.NewNop()
	if *compileFlags.debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return &fatalError{err: err}
		}
		defer logger.Sync()
	}

	m := diag.NewManager(os.Stderr)
	b := &grammar.GrammarBuilder{
		Desc: desc,
		Diag: m,
	}
	gram, err := b.Build()
	if err != nil {
		return err
	}

	opts := []grammar.CompileOption{
		grammar.WithLogger(logger),
	}
	if *compileFlags.report != "" {
		opts = append(opts, grammar.EnableReporting())
	}
	tabs, report, err := grammar.Compile(gram, opts...)
	if err != nil {
		return err
	}
	if m.ErrorCount() > 0 || m.FatalCount() > 0 {
		return errors.Errorf("%v errors found in %v", m.ErrorCount()+m.FatalCount(), gram.Name())
	}

	if err := writeCompiledTables(tabs, *compileFlags.output); err != nil {
		return &fatalError{err: err}
	}
	if *compileFlags.report != "" {
		if err := writeReport(report, *compileFlags.report); err != nil {
			return &fatalError{err: err}
		}
	}
	return nil
}

func writeCompiledTables(tabs *spec.CompiledTables, path string) error {
	w := os.Stdout
	if path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return spec.WriteCompiledTables(w, tabs)
}

func writeReport(report *spec.Report, path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	return spec.WriteReport(f, report)
}
