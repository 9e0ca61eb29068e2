package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nihei9/jpegen/log"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootFlags = struct {
	verbose *int
}{}

var rootCmd = &cobra.Command{
	Use:   "pegen",
	Short: "Generate a PEG parser from a grammar",
	Long: `pegen provides the following features:
- Generates a packrat parser written in Java from a grammar and token definitions.
- Shows the rules of a grammar and the results of its analyses.
- Parses a text stream according to a grammar without generating a parser.
  This feature is primarily aimed at debugging the grammar.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootFlags.verbose = rootCmd.PersistentFlags().CountP("verbose", "v", "print diagnostics; repeat to trace the parser (-vv) and the tokenizer (-vvv)")
}

func Execute() error {
	return execute(os.Args[1:], os.Stderr)
}

func execute(args []string, stderr io.Writer) error {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil {
		reportError(stderr, err, *rootFlags.verbose)
		return err
	}
	return nil
}

// reportError prints an error. Without -v only the type and the message of the root cause are printed;
// with -v the stack trace recorded where the error occurred is printed too.
func reportError(w io.Writer, err error, verbosity int) {
	if verbosity > 0 {
		fmt.Fprintf(w, "%+v\n", err)
		return
	}
	fmt.Fprintf(w, "%T: %v\n", errors.Cause(err), err)
	fmt.Fprintf(w, "For full traceback, use -v\n")
}

func newLogger() *logrus.Logger {
	return log.New(os.Stderr, *rootFlags.verbose)
}
