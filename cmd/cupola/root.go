package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitFatal   = 2
)

// fatalError marks failures of the host environment (I/O, internal
// assertions) that exit with code 2 instead of 1.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string {
	return e.err.Error()
}

var rootCmd = &cobra.Command{
	Use:           "cupola",
	Short:         "Generate compact LALR(1) parsing tables from a grammar",
	Long: `cupola compiles a context-free grammar with precedence declarations and
embedded semantic actions into compressed LALR(1) action/goto tables.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintf(os.Stderr, "%v\n", err)
	if _, ok := err.(*fatalError); ok {
		return exitFatal
	}
	return exitFailure
}
