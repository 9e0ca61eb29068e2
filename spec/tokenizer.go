package spec

import (
	"fmt"
	"io"
	"strings"

	verr "github.com/nihei9/jpegen/error"
	"github.com/nihei9/jpegen/grammar"
	"github.com/nihei9/jpegen/log"
	"github.com/sirupsen/logrus"
)

type TokenKind string

const (
	TokenKindName      = TokenKind("NAME")
	TokenKindNumber    = TokenKind("NUMBER")
	TokenKindString    = TokenKind("STRING")
	TokenKindOp        = TokenKind("OP")
	TokenKindAction    = TokenKind("ACTION")
	TokenKindNewline   = TokenKind("NEWLINE")
	TokenKindEndMarker = TokenKind("ENDMARKER")
)

type Token struct {
	Kind TokenKind
	Text string
	Pos  grammar.Position
}

func (t *Token) String() string {
	switch t.Kind {
	case TokenKindNewline, TokenKindEndMarker:
		return fmt.Sprintf("%v:%v: %v", t.Pos.Row, t.Pos.Col, t.Kind)
	}
	return fmt.Sprintf("%v:%v: %v %q", t.Pos.Row, t.Pos.Col, t.Kind, t.Text)
}

type TokenizerOption func(t *Tokenizer)

// TokenizerLogger sets the logger receiving the token trace.
func TokenizerLogger(l logrus.FieldLogger) TokenizerOption {
	return func(t *Tokenizer) {
		t.logger = l
	}
}

// VerboseTokenizer makes the tokenizer log every token it reads.
func VerboseTokenizer(verbose bool) TokenizerOption {
	return func(t *Tokenizer) {
		t.verbose = verbose
	}
}

// Tokenizer reads tokens of a grammar file on demand and keeps them so that the parser can backtrack.
//
// Newlines are significant only at the nesting level 0: they are dropped inside parentheses and brackets, and
// blank or comment-only lines never produce a NEWLINE token. A NEWLINE is inserted before the ENDMARKER when the
// last line is not terminated.
type Tokenizer struct {
	lex     *lexer
	tokens  []*Token
	index   int
	depth   int
	pending *Token
	done    bool
	lines   int
	logger  logrus.FieldLogger
	verbose bool
}

func NewTokenizer(src io.Reader, opts ...TokenizerOption) (*Tokenizer, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	t := &Tokenizer{
		lex:    lex,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Mark returns the current position. Passing it to Reset rewinds the tokenizer.
func (t *Tokenizer) Mark() int {
	return t.index
}

func (t *Tokenizer) Reset(index int) {
	if index == t.index {
		return
	}
	if t.verbose {
		t.logger.WithFields(logrus.Fields{
			"from": t.index,
			"to":   index,
		}).Debug("reset")
	}
	t.index = index
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() (*Token, error) {
	for t.index >= len(t.tokens) {
		tok, err := t.fetch()
		if err != nil {
			return nil, err
		}
		t.tokens = append(t.tokens, tok)
		if t.verbose {
			t.logger.WithField("index", len(t.tokens)-1).Debug(tok)
		}
	}
	return t.tokens[t.index], nil
}

// GetNext consumes the next token.
func (t *Tokenizer) GetNext() (*Token, error) {
	tok, err := t.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokenKindEndMarker {
		t.index++
	}
	return tok, nil
}

// Diagnose returns the farthest token read so far. A syntax error is reported at this token.
func (t *Tokenizer) Diagnose() *Token {
	if len(t.tokens) == 0 {
		tok, err := t.Peek()
		if err != nil {
			return nil
		}
		return tok
	}
	return t.tokens[len(t.tokens)-1]
}

// Count returns the number of tokens read so far.
func (t *Tokenizer) Count() int {
	return len(t.tokens)
}

// Lines returns the number of the last line the tokenizer reached.
func (t *Tokenizer) Lines() int {
	return t.lines
}

func (t *Tokenizer) fetch() (*Token, error) {
	if t.pending != nil {
		tok := t.pending
		t.pending = nil
		return tok, nil
	}
	if t.done {
		return t.tokens[len(t.tokens)-1], nil
	}

	for {
		raw, err := t.lex.next()
		if err != nil {
			return nil, err
		}
		if raw.row > t.lines {
			t.lines = raw.row
		}
		pos := grammar.Position{
			Row: raw.row,
			Col: raw.col,
		}

		if raw.eof {
			t.done = true
			eof := &Token{
				Kind: TokenKindEndMarker,
				Pos:  pos,
			}
			if t.lastKind() != TokenKindNewline && len(t.tokens) > 0 {
				t.pending = eof
				return &Token{
					Kind: TokenKindNewline,
					Pos:  pos,
				}, nil
			}
			return eof, nil
		}
		if raw.invalid {
			cause := synErrInvalidToken
			if strings.HasPrefix(raw.text, `'`) || strings.HasPrefix(raw.text, `"`) {
				cause = synErrUnclosedString
			}
			return nil, &verr.SpecError{
				Cause:  cause,
				Detail: raw.text,
				Row:    raw.row,
				Col:    raw.col,
			}
		}

		switch raw.kind {
		case kindWhiteSpace, kindComment:
			continue
		case kindNewline:
			if t.depth > 0 || len(t.tokens) == 0 || t.lastKind() == TokenKindNewline {
				continue
			}
			return &Token{
				Kind: TokenKindNewline,
				Text: "\n",
				Pos:  pos,
			}, nil
		case kindName:
			return &Token{
				Kind: TokenKindName,
				Text: raw.text,
				Pos:  pos,
			}, nil
		case kindNumber:
			return &Token{
				Kind: TokenKindNumber,
				Text: raw.text,
				Pos:  pos,
			}, nil
		case kindString, kindTripleString:
			return &Token{
				Kind: TokenKindString,
				Text: raw.text,
				Pos:  pos,
			}, nil
		case kindActionOpen:
			text, err := t.readAction(raw)
			if err != nil {
				return nil, err
			}
			return &Token{
				Kind: TokenKindAction,
				Text: text,
				Pos:  pos,
			}, nil
		}

		op, ok := opKinds[raw.kind]
		if !ok {
			return nil, &verr.SpecError{
				Cause:  synErrInvalidToken,
				Detail: raw.text,
				Row:    raw.row,
				Col:    raw.col,
			}
		}
		switch op {
		case "(", "[":
			t.depth++
		case ")", "]":
			if t.depth > 0 {
				t.depth--
			}
		}
		return &Token{
			Kind: TokenKindOp,
			Text: op,
			Pos:  pos,
		}, nil
	}
}

// readAction reads the text between a '{' and its matching '}'. Braces in the action must balance, except for
// those in string literals.
func (t *Tokenizer) readAction(open *rawToken) (string, error) {
	var b strings.Builder
	depth := 1
	for {
		raw, err := t.lex.next()
		if err != nil {
			return "", err
		}
		if raw.eof {
			return "", &verr.SpecError{
				Cause: synErrUnclosedAction,
				Row:   open.row,
				Col:   open.col,
			}
		}
		if raw.invalid {
			return "", &verr.SpecError{
				Cause:  synErrInvalidToken,
				Detail: raw.text,
				Row:    raw.row,
				Col:    raw.col,
			}
		}
		if raw.row > t.lines {
			t.lines = raw.row
		}

		switch raw.kind {
		case kindActionOpen:
			depth++
		case kindActionClose:
			depth--
			if depth == 0 {
				return strings.TrimSpace(b.String()), nil
			}
		}
		b.WriteString(raw.text)
	}
}

func (t *Tokenizer) lastKind() TokenKind {
	if len(t.tokens) == 0 {
		return ""
	}
	return t.tokens[len(t.tokens)-1].Kind
}
