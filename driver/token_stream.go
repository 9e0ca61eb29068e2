package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/nihei9/jpegen/tokens"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

// Token is a token of an input. Hard keywords have their own types; soft keywords are NAME tokens.
type Token struct {
	Type int
	Name string
	Text string

	// Row and Col are 1-based.
	Row int
	Col int
}

func (t *Token) String() string {
	if t.Text == "" {
		return t.Name
	}
	return fmt.Sprintf("%v %#v", t.Name, t.Text)
}

const (
	kindWhiteSpace = "white_space"
	kindNewline    = "newline"
	kindComment    = "comment"
	kindName       = "name"
	kindNumber     = "number"
	kindString     = "string"

	opKindPrefix = "op_"
)

// TokenStream tokenizes inputs according to token definitions. Operators match the exact tokens, and NAME,
// NUMBER, STRING and NEWLINE tokens are produced when the definitions declare them. White spaces and comments
// starting with '#' are skipped.
type TokenStream struct {
	defs     *tokens.Definitions
	keywords map[string]int
	spec     *mlspec.CompiledLexSpec
	opTypes  map[string]int
	nesting  map[string]int
}

// NewTokenStream compiles a lexical specification from token definitions. keywords maps a hard keyword to its
// token type.
func NewTokenStream(defs *tokens.Definitions, keywords map[string]int) (*TokenStream, error) {
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
			Pattern: `[0-9]+(\.[0-9]+)?`,
		},
		{
			Kind:    kindString,
			Pattern: `'([^'\\\u{000A}]|\\[^\u{000A}])*'|"([^"\\\u{000A}]|\\[^\u{000A}])*"`,
		},
	}

	opTypes := map[string]int{}
	for _, op := range defs.Operators() {
		kind := opKindPrefix + strings.ToLower(defs.All[defs.Exact[op]])
		opTypes[kind] = defs.Exact[op]
		entries = append(entries, &mlspec.LexEntry{
			Kind:    mlspec.LexKindName(kind),
			Pattern: mlspec.LexPattern(mlspec.EscapePattern(op)),
		})
	}

	cs, err, cErrs := mlcompiler.Compile(&mlspec.LexSpec{
		Name:    "input",
		Entries: entries,
	}, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "cannot compile a lexical specification from the token definitions: %v", err)
		for _, cErr := range cErrs {
			fmt.Fprintf(&b, "\n%v: %v", cErr.Kind, cErr.Cause)
		}
		return nil, fmt.Errorf("%v", b.String())
	}

	nesting := map[string]int{}
	for _, p := range []string{"(", ")", "[", "]", "{", "}"} {
		if _, ok := defs.Exact[p]; ok {
			if strings.ContainsAny(p, "([{") {
				nesting[p] = 1
			} else {
				nesting[p] = -1
			}
		}
	}

	return &TokenStream{
		defs:     defs,
		keywords: keywords,
		spec:     cs,
		opTypes:  opTypes,
		nesting:  nesting,
	}, nil
}

// Tokenize reads all tokens of src. The last token is always ENDMARKER, preceded by a NEWLINE when NEWLINE is
// declared. Newlines inside brackets and on blank lines are dropped.
func (s *TokenStream) Tokenize(src io.Reader) ([]*Token, error) {
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(s.spec), src)
	if err != nil {
		return nil, err
	}

	newline, hasNewline := s.defs.TypeOf("NEWLINE")
	var toks []*Token
	depth := 0
	lastIsNewline := func() bool {
		return len(toks) > 0 && toks[len(toks)-1].Name == "NEWLINE"
	}
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		row, col := tok.Row+1, tok.Col+1
		if tok.EOF {
			if hasNewline && len(toks) > 0 && !lastIsNewline() {
				toks = append(toks, &Token{
					Type: newline,
					Name: "NEWLINE",
					Row:  row,
					Col:  col,
				})
			}
			endmarker, _ := s.defs.TypeOf("ENDMARKER")
			toks = append(toks, &Token{
				Type: endmarker,
				Name: "ENDMARKER",
				Row:  row,
				Col:  col,
			})
			return toks, nil
		}
		if tok.Invalid {
			return nil, &SyntaxError{
				Row:     row,
				Col:     col,
				Message: fmt.Sprintf("%v: %#v", msgInvalidToken, string(tok.Lexeme)),
			}
		}

		text := string(tok.Lexeme)
		kind := s.spec.KindNames[tok.KindID].String()
		var t *Token
		switch kind {
		case kindWhiteSpace, kindComment:
			continue
		case kindNewline:
			if !hasNewline || depth > 0 || len(toks) == 0 || lastIsNewline() {
				continue
			}
			t = &Token{
				Type: newline,
				Name: "NEWLINE",
			}
		case kindName:
			if kwType, ok := s.keywords[text]; ok {
				t = &Token{
					Type: kwType,
					Name: fmt.Sprintf("'%v'", text),
					Text: text,
				}
				break
			}
			t, err = s.nonExact("NAME", text, row, col)
		case kindNumber:
			t, err = s.nonExact("NUMBER", text, row, col)
		case kindString:
			t, err = s.nonExact("STRING", text, row, col)
		default:
			typ := s.opTypes[kind]
			depth += s.nesting[text]
			if depth < 0 {
				depth = 0
			}
			t = &Token{
				Type: typ,
				Name: s.defs.All[typ],
				Text: text,
			}
		}
		if err != nil {
			return nil, err
		}
		t.Row = row
		t.Col = col
		toks = append(toks, t)
	}
}

func (s *TokenStream) nonExact(name, text string, row, col int) (*Token, error) {
	typ, ok := s.defs.TypeOf(name)
	if !ok {
		return nil, &SyntaxError{
			Row:     row,
			Col:     col,
			Message: fmt.Sprintf("%v: %#v; %v isn't defined", msgInvalidToken, text, name),
		}
	}
	return &Token{
		Type: typ,
		Name: name,
		Text: text,
	}, nil
}
