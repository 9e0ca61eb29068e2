package main

import (
	"os"

	"github.com/nihei9/jpegen/build"
	"github.com/nihei9/jpegen/grammar"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <grammar file path> [<tokens file path>]",
		Short: "Print the rules of a grammar and the results of its analyses",
		Long: `show prints the rules of a grammar with their nullability, left recursion and first sets.
When a tokens file is given, the grammar is also checked against it.`,
		Example: `  pegen show python.gram Tokens`,
		Args:    cobra.RangeArgs(1, 2),
		RunE:    runShow,
	}
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	var tokensFile string
	if len(args) > 1 {
		tokensFile = args[1]
	}
	report, err := analyzeGrammar(args[0], tokensFile, newLogger())
	if err != nil {
		return err
	}
	return writeGrammarReport(os.Stdout, report)
}

func analyzeGrammar(grammarFile, tokensFile string, logger logrus.FieldLogger) (*grammarReport, error) {
	gram, _, _, err := build.BuildParser(grammarFile, false, false, build.Logger(logger))
	if err != nil {
		return nil, err
	}

	if tokensFile == "" {
		grammar.ComputeNullables(gram)
		lr, err := grammar.ComputeLeftRecursives(gram)
		if err != nil {
			return nil, err
		}
		return newGrammarReport(gram, lr, grammar.ComputeFirstSets(gram)), nil
	}

	gen, err := build.BuildGenerator(gram, grammarFile, tokensFile, build.Logger(logger))
	if err != nil {
		return nil, err
	}
	return newGrammarReport(gram, gen.LeftRecursion, gen.FirstSets), nil
}
