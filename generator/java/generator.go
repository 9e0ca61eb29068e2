// Package java generates a packrat parser written in Java. The generated class extends a runtime parser class
// providing the token buffer, the memo table and the primitive matchers such as expect and nameToken.
package java

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/cespare/xxhash/v2"
	verr "github.com/nihei9/jpegen/error"
	"github.com/nihei9/jpegen/generator"
	"github.com/nihei9/jpegen/grammar"
	"github.com/nihei9/jpegen/log"
	"github.com/nihei9/jpegen/tokens"
	"github.com/sirupsen/logrus"
)

//go:embed parser.java.tmpl
var parserTemplate string

const (
	runtimePackage   = "pegen.runtime"
	defaultClassName = "GeneratedParser"

	// Qualified so that a generated class named Parser doesn't extend itself.
	defaultBaseClass = runtimePackage + ".Parser"
)

var defaultImports = []string{
	"java.util.ArrayList",
	"java.util.HashMap",
	"java.util.HashSet",
	"java.util.List",
	"java.util.Map",
	"java.util.Set",
	runtimePackage + ".Token",
	runtimePackage + ".Tokenizer",
}

type Option func(pg *ParserGenerator)

// SkipActions makes every alternative return a dummy result instead of its action.
func SkipActions(skip bool) Option {
	return func(pg *ParserGenerator) {
		pg.skipActions = skip
	}
}

// ClassName sets the name of the generated class. It takes precedence over the @class meta directive.
func ClassName(name string) Option {
	return func(pg *ParserGenerator) {
		pg.className = name
	}
}

// FallbackClassName sets the class name used when neither ClassName nor @class gives one.
func FallbackClassName(name string) Option {
	return func(pg *ParserGenerator) {
		pg.fallbackClassName = name
	}
}

// Package sets the package of the generated class. It takes precedence over the @package meta directive.
func Package(name string) Option {
	return func(pg *ParserGenerator) {
		pg.pkg = name
	}
}

// Extends sets the runtime class the generated class extends. It takes precedence over the @extends meta
// directive.
func Extends(name string) Option {
	return func(pg *ParserGenerator) {
		pg.extends = name
	}
}

// Imports adds import declarations.
func Imports(imports ...string) Option {
	return func(pg *ParserGenerator) {
		pg.imports = append(pg.imports, imports...)
	}
}

func Logger(l logrus.FieldLogger) Option {
	return func(pg *ParserGenerator) {
		pg.logger = l
	}
}

type ParserGenerator struct {
	gen   *generator.Generator
	calls *callMaker
	w     io.Writer

	skipActions       bool
	className         string
	fallbackClassName string
	pkg               string
	extends           string
	imports           []string
	logger            logrus.FieldLogger

	class    string
	base     string
	checksum string
	methods  *string
}

// NewParserGenerator checks a grammar against token definitions. allTokens maps a token type to its name,
// exactTokens maps an operator to its token type, and nonExactTokens holds the token names a grammar may refer
// to. The generated source is written to w.
func NewParserGenerator(gram *grammar.Grammar, allTokens map[int]string, exactTokens map[string]int, nonExactTokens map[string]struct{}, w io.Writer, opts ...Option) (*ParserGenerator, error) {
	pg := &ParserGenerator{
		w:      w,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(pg)
	}

	defs := tokens.NewDefinitions(allTokens, exactTokens, nonExactTokens)
	gen, err := generator.New(gram, defs, generator.Logger(pg.logger))
	if err != nil {
		return nil, err
	}
	pg.gen = gen
	pg.calls = newCallMaker(gen, pg.skipActions)
	pg.checksum = fmt.Sprintf("%016x", xxhash.Sum64String(gram.String()))

	pg.class = pg.choose(pg.className, "class", pg.fallbackClass())
	pg.base = pg.choose(pg.extends, "extends", defaultBaseClass)
	pkg := pg.choose(pg.pkg, "package", "")
	if pg.base == pg.class || (pkg != "" && pg.base == pkg+"."+pg.class) {
		return nil, &verr.SpecError{
			Cause:  ErrClassExtendsItself,
			Detail: pg.class,
		}
	}
	err = checkNames(gram)
	if err != nil {
		return nil, err
	}

	return pg, nil
}

// Generator returns the target-independent generator holding the analysis results.
func (pg *ParserGenerator) Generator() *generator.Generator {
	return pg.gen
}

type keyword struct {
	Text string
	Type int
}

type classData struct {
	GrammarFile  string
	Checksum     string
	Package      string
	Header       string
	Imports      []string
	Subheader    string
	Class        string
	Extends      string
	TokenNames   []string
	Keywords     []keyword
	SoftKeywords []string
	Rules        []string
	StartType    string
	Methods      string
	Trailer      string
}

// Generate writes the parser. grammarFile is the path of the grammar source, mentioned in the generated header
// and substituted for `{filename}` in the @header, @subheader and @trailer directives. Calling it again writes
// the same parser.
func (pg *ParserGenerator) Generate(grammarFile string) error {
	g := pg.gen.Grammar
	checksum := pg.checksum

	if pg.methods == nil {
		methods, err := pg.genRules()
		if err != nil {
			return err
		}
		pg.methods = &methods
	}

	data := &classData{
		GrammarFile:  grammarFile,
		Checksum:     checksum,
		Package:      pg.choose(pg.pkg, "package", ""),
		Imports:      pg.imports,
		Class:        pg.class,
		Extends:      pg.base,
		TokenNames:   pg.gen.Tokens.Names(),
		SoftKeywords: pg.gen.SoftKeywords,
		Methods:      *pg.methods,
	}
	if header, ok := g.Meta("header"); ok {
		data.Header = substituteFilename(strings.TrimRight(header, "\n"), grammarFile)
	} else {
		var b strings.Builder
		for _, imp := range defaultImports {
			fmt.Fprintf(&b, "import %v;\n", imp)
		}
		data.Header = strings.TrimRight(b.String(), "\n")
	}
	if subheader, ok := g.Meta("subheader"); ok {
		data.Subheader = substituteFilename(strings.TrimRight(subheader, "\n"), grammarFile)
	}
	if trailer, ok := g.Meta("trailer"); ok {
		data.Trailer = substituteFilename(strings.TrimRight(trailer, "\n"), grammarFile)
	} else {
		start, _ := g.Rule("start")
		typ, err := pg.calls.ruleType(start)
		if err != nil {
			return err
		}
		data.StartType = typ
	}
	for _, kw := range pg.gen.KeywordList {
		data.Keywords = append(data.Keywords, keyword{
			Text: kw,
			Type: pg.gen.Keywords[kw],
		})
	}
	for _, r := range g.Rules {
		data.Rules = append(data.Rules, r.Name)
	}

	tmpl, err := template.New("parser").Funcs(template.FuncMap{
		"quote":   quote,
		"memoKey": memoKey,
		"add": func(a, b int) int {
			return a + b
		},
	}).Parse(parserTemplate)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	err = tmpl.Execute(&b, data)
	if err != nil {
		return err
	}

	_, err = pg.w.Write(b.Bytes())
	if err != nil {
		return err
	}

	pg.logger.WithFields(logrus.Fields{
		"class":    data.Class,
		"checksum": checksum,
		"bytes":    b.Len(),
	}).Info("parser generated")

	return nil
}

// genRules emits the methods of all rules, including the artificial rules invented on the way.
func (pg *ParserGenerator) genRules() (string, error) {
	p := &printer{}
	p.level = 1
	count := 0
	for {
		r, ok := pg.gen.Next()
		if !ok {
			break
		}
		if count > 0 {
			p.print("")
		}
		err := pg.genRule(p, r)
		if err != nil {
			return "", err
		}
		count++
	}
	pg.logger.WithFields(logrus.Fields{
		"rules":       count,
		"artificials": countArtificial(pg.gen.Grammar),
	}).Debug("rules generated")
	return p.String(), nil
}

func countArtificial(g *grammar.Grammar) int {
	n := 0
	for _, r := range g.Rules {
		if strings.HasPrefix(r.Name, "_") {
			n++
		}
	}
	return n
}

// choose picks an option value, then the value of a meta directive, then a default.
func (pg *ParserGenerator) choose(opt, meta, def string) string {
	if opt != "" {
		return opt
	}
	if v, ok := pg.gen.Grammar.Meta(meta); ok && v != "" {
		return v
	}
	return def
}

func (pg *ParserGenerator) fallbackClass() string {
	if pg.fallbackClassName != "" {
		return pg.fallbackClassName
	}
	return defaultClassName
}

func substituteFilename(s, filename string) string {
	return strings.ReplaceAll(s, "{filename}", filename)
}
