package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nihei9/jpegen/build"
	"github.com/nihei9/jpegen/config"
	"github.com/nihei9/jpegen/generator/java"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultJavaOutput = "Parser.java"

var javaFlags = struct {
	output           *string
	compileExtension *bool
	optimized        *bool
	skipActions      *bool
	config           *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "java <grammar file path> <tokens file path>",
		Short:   "Generate a parser written in Java",
		Example: `  pegen java python.gram Tokens -o PythonParser.java`,
		Args:    cobra.ExactArgs(2),
		RunE:    runJava,
	}
	javaFlags.output = cmd.Flags().StringP("output", "o", defaultJavaOutput, "where to write the generated parser")
	javaFlags.compileExtension = cmd.Flags().Bool("compile-extension", false, "has no effect on Java parsers")
	javaFlags.optimized = cmd.Flags().Bool("optimized", false, "has no effect on Java parsers")
	javaFlags.skipActions = cmd.Flags().Bool("skip-actions", false, "suppress code emission for rule actions")
	javaFlags.config = cmd.Flags().StringP("config", "c", "", "configuration file path")
	rootCmd.AddCommand(cmd)
}

type javaParams struct {
	grammarFile string
	tokensFile  string

	// output is empty unless given on the command line.
	output           string
	configFile       string
	compileExtension bool
	optimized        bool
	skipActions      bool
	verbosity        int
}

func runJava(cmd *cobra.Command, args []string) error {
	params := &javaParams{
		grammarFile:      args[0],
		tokensFile:       args[1],
		configFile:       *javaFlags.config,
		compileExtension: *javaFlags.compileExtension,
		optimized:        *javaFlags.optimized,
		skipActions:      *javaFlags.skipActions,
		verbosity:        *rootFlags.verbose,
	}
	if cmd.Flags().Changed("output") {
		params.output = *javaFlags.output
	}
	return generateJava(os.Stdout, newLogger(), params)
}

// generateJava writes a Java parser. With -v it also prints the grammar report and statistics to w.
func generateJava(w io.Writer, logger logrus.FieldLogger, params *javaParams) error {
	if params.compileExtension {
		logger.Debug("--compile-extension has no effect on Java parsers")
	}
	if params.optimized {
		logger.Debug("--optimized has no effect on Java parsers")
	}

	conf := &config.Config{}
	if params.configFile != "" {
		var err error
		conf, err = config.Load(params.configFile)
		if err != nil {
			return err
		}
	}
	output := params.output
	if output == "" {
		output = conf.Output
	}
	if output == "" {
		output = defaultJavaOutput
	}

	verboseTokenizer := params.verbosity >= 3
	verboseParser := params.verbosity == 2 || params.verbosity >= 4
	opts := []build.Option{
		build.Logger(logger),
		build.JavaOptions(conf.JavaOptions()...),
		build.JavaOptions(java.SkipActions(params.skipActions)),
	}

	start := time.Now()
	gram, _, tok, gen, err := build.BuildJavaParserAndGenerator(params.grammarFile, params.tokensFile, output, verboseTokenizer, verboseParser, opts...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if params.verbosity > 0 {
		g := gen.Generator()
		err := writeGrammarReport(w, newGrammarReport(gram, g.LeftRecursion, g.FirstSets))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n")
		writeStats(w, tok, elapsed)
	}

	return nil
}
