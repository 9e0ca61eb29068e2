package main

import (
	"io"
	"os"

	"github.com/nihei9/jpegen/build"
	"github.com/nihei9/jpegen/driver"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <grammar file path> <tokens file path>",
		Short:   "Parse a text stream according to a grammar",
		Example: `  cat src | pegen parse python.gram Tokens`,
		Args:    cobra.ExactArgs(2),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	src := io.Reader(os.Stdin)
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return errors.Wrapf(err, "cannot open the source file %s", *parseFlags.source)
		}
		defer f.Close()
		src = f
	}
	return parseSource(os.Stdout, src, args[0], args[1], newLogger(), *rootFlags.verbose >= 2)
}

// parseSource interprets a grammar on src and prints the syntax tree to w.
func parseSource(w io.Writer, src io.Reader, grammarFile, tokensFile string, logger logrus.FieldLogger, trace bool) error {
	gram, _, _, err := build.BuildParser(grammarFile, false, false, build.Logger(logger))
	if err != nil {
		return err
	}
	gen, err := build.BuildGenerator(gram, grammarFile, tokensFile, build.Logger(logger))
	if err != nil {
		return err
	}

	p, err := driver.NewParser(gen, driver.Logger(logger), driver.Trace(trace))
	if err != nil {
		return errors.WithStack(err)
	}
	tree, err := p.Parse(src)
	if err != nil {
		return errors.WithStack(err)
	}
	driver.PrintTree(w, tree)
	return nil
}
