package spec

import (
	"fmt"
	"io"
	"strings"
	"sync"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

const (
	lexModeAction = mlspec.LexModeName("action")

	kindWhiteSpace   = "white_space"
	kindNewline      = "newline"
	kindComment      = "comment"
	kindName         = "name"
	kindNumber       = "number"
	kindString       = "string"
	kindTripleString = "triple_string"
	kindActionOpen   = "action_open"
	kindActionClose  = "action_close"
	kindActionString = "action_string"
	kindActionText   = "action_text"
)

// operators maps the kind names of operator tokens to their spellings.
var operators = []struct {
	kind string
	text string
}{
	{"colon", ":"},
	{"or", "|"},
	{"eq", "="},
	{"tilde", "~"},
	{"amp", "&"},
	{"bang", "!"},
	{"question", "?"},
	{"star", "*"},
	{"plus", "+"},
	{"dot", "."},
	{"dollar", "$"},
	{"at", "@"},
	{"l_paren", "("},
	{"r_paren", ")"},
	{"l_bracket", "["},
	{"r_bracket", "]"},
	{"lt", "<"},
	{"gt", ">"},
	{"comma", ","},
	{"minus", "-"},
	{"slash", "/"},
	{"percent", "%"},
	{"caret", "^"},
	{"semicolon", ";"},
}

const (
	patString       = `'([^'\\\u{000A}]|\\[^\u{000A}])*'|"([^"\\\u{000A}]|\\[^\u{000A}])*"`
	patTripleString = `"""([^"]|"[^"]|""[^"])*"""|'''([^']|'[^']|''[^'])*'''`
)

func newLexSpec() *mlspec.LexSpec {
	entries := []*mlspec.LexEntry{
		{
			Kind:    kindWhiteSpace,
			Pattern: `[\u{0009}\u{000D}\u{0020}]+`,
		},
		{
			Kind:    kindNewline,
			Pattern: `\u{000A}`,
		},
		{
			Kind:    kindComment,
			Pattern: `#[^\u{000A}]*`,
		},
		{
			Kind:    kindName,
			Pattern: `[A-Za-z_][0-9A-Za-z_]*`,
		},
		{
			Kind:    kindNumber,
			Pattern: `[0-9]+`,
		},
		{
			Kind:    kindString,
			Pattern: patString,
		},
		{
			Kind:    kindTripleString,
			Pattern: patTripleString,
		},
		{
			Kind:    kindActionOpen,
			Pattern: `{`,
			Modes:   []mlspec.LexModeName{mlspec.LexModeNameDefault, lexModeAction},
			Push:    lexModeAction,
		},
		{
			Kind:    kindActionClose,
			Pattern: `}`,
			Modes:   []mlspec.LexModeName{lexModeAction},
			Pop:     true,
		},
		{
			Kind:    kindActionString,
			Pattern: patString,
			Modes:   []mlspec.LexModeName{lexModeAction},
		},
		{
			Kind:    kindActionText,
			Pattern: `[^{}'"]+`,
			Modes:   []mlspec.LexModeName{lexModeAction},
		},
	}
	for _, op := range operators {
		entries = append(entries, &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(op.kind),
			Pattern: mlspec.LexPattern(mlspec.EscapePattern(op.text)),
		})
	}

	return &mlspec.LexSpec{
		Name:    "pegen",
		Entries: entries,
	}
}

var (
	compileOnce  sync.Once
	compiledSpec *mlspec.CompiledLexSpec
	compileErr   error
	opKinds      map[string]string
)

// compiledLexSpec compiles the lexical specification of grammar files on first use.
func compiledLexSpec() (*mlspec.CompiledLexSpec, error) {
	compileOnce.Do(func() {
		opKinds = make(map[string]string, len(operators))
		for _, op := range operators {
			opKinds[op.kind] = op.text
		}

		s, err, cErrs := mlcompiler.Compile(newLexSpec(), mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
		if err != nil {
			compileErr = compileError(err, cErrs)
			return
		}
		compiledSpec = s
	})
	return compiledSpec, compileErr
}

func compileError(err error, cErrs []*mlcompiler.CompileError) error {
	if len(cErrs) == 0 {
		return err
	}
	var b strings.Builder
	for i, cErr := range cErrs {
		if i > 0 {
			fmt.Fprintf(&b, "\n")
		}
		fmt.Fprintf(&b, "%v: %v", cErr.Kind, cErr.Cause)
		if cErr.Detail != "" {
			fmt.Fprintf(&b, ": %v", cErr.Detail)
		}
	}
	return fmt.Errorf("cannot compile the lexical specification: %v", b.String())
}

type lexer struct {
	s *mlspec.CompiledLexSpec
	d *mldriver.Lexer
}

func newLexer(src io.Reader) (*lexer, error) {
	s, err := compiledLexSpec()
	if err != nil {
		return nil, err
	}
	d, err := mldriver.NewLexer(mldriver.NewLexSpec(s), src)
	if err != nil {
		return nil, err
	}
	return &lexer{
		s: s,
		d: d,
	}, nil
}

// rawToken is a token as the DFA recognizes it, before newlines and actions are post-processed.
type rawToken struct {
	kind    string
	text    string
	row     int
	col     int
	eof     bool
	invalid bool
}

func (l *lexer) next() (*rawToken, error) {
	tok, err := l.d.Next()
	if err != nil {
		return nil, err
	}
	t := &rawToken{
		text:    string(tok.Lexeme),
		row:     tok.Row + 1,
		col:     tok.Col + 1,
		eof:     tok.EOF,
		invalid: tok.Invalid,
	}
	if !tok.EOF && !tok.Invalid {
		t.kind = l.s.KindNames[tok.KindID].String()
	}
	return t, nil
}
