// Package build wires the stages of parser generation together: reading a grammar file, reading token
// definitions and running a target generator.
package build

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	verr "github.com/nihei9/jpegen/error"
	"github.com/nihei9/jpegen/generator"
	"github.com/nihei9/jpegen/generator/java"
	"github.com/nihei9/jpegen/grammar"
	"github.com/nihei9/jpegen/log"
	"github.com/nihei9/jpegen/spec"
	"github.com/nihei9/jpegen/tokens"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Option func(c *buildConfig)

type buildConfig struct {
	logger   logrus.FieldLogger
	javaOpts []java.Option
}

// Logger sets the logger receiving tokenizer and parser traces and generator messages.
func Logger(l logrus.FieldLogger) Option {
	return func(c *buildConfig) {
		c.logger = l
	}
}

// JavaOptions passes options to the Java generator.
func JavaOptions(opts ...java.Option) Option {
	return func(c *buildConfig) {
		c.javaOpts = append(c.javaOpts, opts...)
	}
}

func newBuildConfig(opts []Option) *buildConfig {
	c := &buildConfig{
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BuildParser reads a grammar file. It also returns the parser and the tokenizer it used so that callers can
// report how much of the source was read.
func BuildParser(grammarFile string, verboseTokenizer, verboseParser bool, opts ...Option) (*grammar.Grammar, *spec.Parser, *spec.Tokenizer, error) {
	c := newBuildConfig(opts)

	f, err := os.Open(grammarFile)
	if err != nil {
		return nil, nil, nil, errors.WithStack(err)
	}
	defer f.Close()

	tok, err := spec.NewTokenizer(f, spec.TokenizerLogger(c.logger), spec.VerboseTokenizer(verboseTokenizer))
	if err != nil {
		return nil, nil, nil, errors.WithStack(err)
	}
	p := spec.NewParser(tok, spec.ParserLogger(c.logger), spec.VerboseParser(verboseParser))
	gram, err := p.Parse()
	if err != nil {
		setSource(err, grammarFile)
		return nil, p, tok, errors.WithStack(err)
	}

	return gram, p, tok, nil
}

// GenerateTokenDefinitions reads token definitions and returns the three tables generators take: every token
// type by number, the exact tokens by operator, and the names of the non-exact tokens.
func GenerateTokenDefinitions(r io.Reader) (map[int]string, map[string]int, map[string]struct{}, error) {
	defs, err := tokens.Read(r)
	if err != nil {
		return nil, nil, nil, errors.WithStack(err)
	}
	return defs.All, defs.Exact, defs.NonExact, nil
}

// BuildGenerator analyzes a grammar against the token definitions in tokensFile without generating code.
func BuildGenerator(gram *grammar.Grammar, grammarFile, tokensFile string, opts ...Option) (*generator.Generator, error) {
	c := newBuildConfig(opts)

	defs, err := readTokensFile(tokensFile)
	if err != nil {
		return nil, err
	}
	gen, err := generator.New(gram, defs, generator.Logger(c.logger))
	if err != nil {
		setSource(err, grammarFile)
		return nil, errors.WithStack(err)
	}
	return gen, nil
}

func readTokensFile(tokensFile string) (*tokens.Definitions, error) {
	f, err := os.Open(tokensFile)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	defs, err := tokens.Read(f)
	if err != nil {
		setSource(err, tokensFile)
		return nil, errors.WithStack(err)
	}
	return defs, nil
}

// BuildJavaParserAndGenerator reads a grammar file and generates a Java parser from it.
func BuildJavaParserAndGenerator(grammarFile, tokensFile, outputFile string, verboseTokenizer, verboseParser bool, opts ...Option) (*grammar.Grammar, *spec.Parser, *spec.Tokenizer, *java.ParserGenerator, error) {
	gram, p, tok, err := BuildParser(grammarFile, verboseTokenizer, verboseParser, opts...)
	if err != nil {
		return nil, p, tok, nil, err
	}
	gen, err := BuildJavaGenerator(gram, grammarFile, tokensFile, outputFile, opts...)
	if err != nil {
		return gram, p, tok, nil, err
	}
	return gram, p, tok, gen, nil
}

// BuildJavaGenerator generates a Java parser from a grammar and writes it to outputFile. Unless an option or
// the grammar names the class, the class is named after the output file.
func BuildJavaGenerator(gram *grammar.Grammar, grammarFile, tokensFile, outputFile string, opts ...Option) (*java.ParserGenerator, error) {
	c := newBuildConfig(opts)

	defs, err := readTokensFile(tokensFile)
	if err != nil {
		return nil, err
	}

	out, err := os.OpenFile(outputFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer out.Close()

	javaOpts := []java.Option{
		java.FallbackClassName(classNameOf(outputFile)),
		java.Logger(c.logger),
	}
	javaOpts = append(javaOpts, c.javaOpts...)
	gen, err := java.NewParserGenerator(gram, defs.All, defs.Exact, defs.NonExact, out, javaOpts...)
	if err != nil {
		setSource(err, grammarFile)
		return nil, errors.WithStack(err)
	}
	err = gen.Generate(grammarFile)
	if err != nil {
		setSource(err, grammarFile)
		return nil, errors.WithStack(err)
	}

	return gen, nil
}

func classNameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// setSource lets grammar errors quote the line they point to.
func setSource(err error, path string) {
	switch e := err.(type) {
	case verr.SpecErrors:
		e.SetSource(path, path)
	case *verr.SpecError:
		e.FilePath = path
		e.SourceName = path
	}
}
