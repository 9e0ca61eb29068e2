package spec

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	verr "github.com/nihei9/jpegen/error"
	"github.com/nihei9/jpegen/grammar"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type tokenSummary struct {
	Kind TokenKind
	Text string
}

func readAll(t *testing.T, tok *Tokenizer) []*Token {
	t.Helper()
	var toks []*Token
	for {
		tk, err := tok.GetNext()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		toks = append(toks, tk)
		if tk.Kind == TokenKindEndMarker {
			return toks
		}
	}
}

func TestTokenizer(t *testing.T) {
	name := func(text string) tokenSummary {
		return tokenSummary{Kind: TokenKindName, Text: text}
	}
	op := func(text string) tokenSummary {
		return tokenSummary{Kind: TokenKindOp, Text: text}
	}
	str := func(text string) tokenSummary {
		return tokenSummary{Kind: TokenKindString, Text: text}
	}
	action := func(text string) tokenSummary {
		return tokenSummary{Kind: TokenKindAction, Text: text}
	}
	newline := tokenSummary{Kind: TokenKindNewline, Text: "\n"}
	synthesizedNewline := tokenSummary{Kind: TokenKindNewline}
	eof := tokenSummary{Kind: TokenKindEndMarker}

	tests := []struct {
		caption string
		src     string
		tokens  []tokenSummary
	}{
		{
			caption: "the tokenizer can recognize all kinds of operators",
			src:     `: | = ~ & ! ? * + . $ @ ( ) [ ] < > , - / % ^ ;`,
			tokens: []tokenSummary{
				op(":"), op("|"), op("="), op("~"), op("&"), op("!"), op("?"), op("*"), op("+"), op("."),
				op("$"), op("@"), op("("), op(")"), op("["), op("]"), op("<"), op(">"), op(","), op("-"),
				op("/"), op("%"), op("^"), op(";"),
				synthesizedNewline,
				eof,
			},
		},
		{
			caption: "blank lines and comments don't produce newlines",
			src: `

# comment
start: a # trailing comment


    | b
`,
			tokens: []tokenSummary{
				name("start"), op(":"), name("a"), newline,
				op("|"), name("b"), newline,
				eof,
			},
		},
		{
			caption: "newlines inside parentheses and brackets are dropped",
			src: `start: (a
    | b) [c
    d]
`,
			tokens: []tokenSummary{
				name("start"), op(":"), op("("), name("a"), op("|"), name("b"), op(")"),
				op("["), name("c"), name("d"), op("]"), newline,
				eof,
			},
		},
		{
			caption: "the tokenizer can recognize strings",
			src:     `'a' "b" '\'' """c"d"""`,
			tokens: []tokenSummary{
				str(`'a'`), str(`"b"`), str(`'\''`), str(`"""c"d"""`),
				synthesizedNewline,
				eof,
			},
		},
		{
			caption: "braces in an action balance",
			src:     `start: a { f({x}, '}') }`,
			tokens: []tokenSummary{
				name("start"), op(":"), name("a"), action(`f({x}, '}')`),
				synthesizedNewline,
				eof,
			},
		},
		{
			caption: "an empty source produces only an end marker",
			src:     ``,
			tokens: []tokenSummary{
				eof,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tok, err := NewTokenizer(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			var actual []tokenSummary
			for _, tk := range readAll(t, tok) {
				actual = append(actual, tokenSummary{Kind: tk.Kind, Text: tk.Text})
			}
			if diff := cmp.Diff(tt.tokens, actual); diff != "" {
				t.Fatalf("unexpected tokens (-want +got):\n%v", diff)
			}
		})
	}
}

func TestTokenizer_Position(t *testing.T) {
	src := `start: a
    | 'b'
`
	tok, err := NewTokenizer(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	toks := readAll(t, tok)
	expected := []grammar.Position{
		{Row: 1, Col: 1},
		{Row: 1, Col: 6},
		{Row: 1, Col: 8},
		{Row: 1, Col: 9},
		{Row: 2, Col: 5},
		{Row: 2, Col: 7},
	}
	for i, pos := range expected {
		if toks[i].Pos != pos {
			t.Errorf("unexpected position of %v; want: %+v, got: %+v", toks[i], pos, toks[i].Pos)
		}
	}
	if tok.Lines() < 2 {
		t.Errorf("unexpected line count: %v", tok.Lines())
	}
}

func TestTokenizer_MarkAndReset(t *testing.T) {
	tok, err := NewTokenizer(strings.NewReader(`a b c`))
	if err != nil {
		t.Fatal(err)
	}
	mark := tok.Mark()
	for _, text := range []string{"a", "b"} {
		tk, err := tok.GetNext()
		if err != nil {
			t.Fatal(err)
		}
		if tk.Text != text {
			t.Fatalf("unexpected token; want: %v, got: %v", text, tk.Text)
		}
	}
	if tok.Count() != 2 {
		t.Fatalf("unexpected token count; want: 2, got: %v", tok.Count())
	}

	tok.Reset(mark)
	tk, err := tok.Peek()
	if err != nil {
		t.Fatal(err)
	}
	if tk.Text != "a" {
		t.Fatalf("the tokenizer didn't rewind; got: %v", tk)
	}
	if d := tok.Diagnose(); d.Text != "b" {
		t.Fatalf("the farthest token must be kept after a reset; got: %v", d)
	}

	readAll(t, tok)
	end, err := tok.GetNext()
	if err != nil {
		t.Fatal(err)
	}
	if end.Kind != TokenKindEndMarker {
		t.Fatalf("the tokenizer must stay at the end marker; got: %v", end)
	}
}

func TestTokenizer_Verbose(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	tok, err := NewTokenizer(strings.NewReader(`a b`), TokenizerLogger(logger), VerboseTokenizer(true))
	if err != nil {
		t.Fatal(err)
	}
	readAll(t, tok)

	// a, b, NEWLINE and ENDMARKER
	if len(hook.AllEntries()) != 4 {
		t.Fatalf("unexpected number of log entries; want: 4, got: %v", len(hook.AllEntries()))
	}
	if hook.LastEntry().Level != logrus.DebugLevel {
		t.Fatalf("tokens must be logged at the debug level; got: %v", hook.LastEntry().Level)
	}
}

func TestTokenizer_Error(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		cause   *SyntaxError
	}{
		{
			caption: "an unknown character is an invalid token",
			src:     "start: a `",
			cause:   synErrInvalidToken,
		},
		{
			caption: "a string must be closed on its line",
			src:     "start: 'a\n",
			cause:   synErrUnclosedString,
		},
		{
			caption: "an action must be closed",
			src:     "start: a { f(\n",
			cause:   synErrUnclosedAction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tok, err := NewTokenizer(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			for {
				var tk *Token
				tk, err = tok.GetNext()
				if err != nil || tk.Kind == TokenKindEndMarker {
					break
				}
			}
			specErr, ok := err.(*verr.SpecError)
			if !ok {
				t.Fatalf("unexpected error; want: *verr.SpecError, got: %#v", err)
			}
			if specErr.Cause != tt.cause {
				t.Fatalf("unexpected cause; want: %v, got: %v", tt.cause, specErr.Cause)
			}
		})
	}
}
