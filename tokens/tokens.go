// Package tokens reads token definitions. A token definitions file lists one token type per line: a bare name
// declares a token whose text varies, such as NAME, and a name followed by a quoted operator declares a token
// that always has that text.
//
//	ENDMARKER
//	NAME
//	LPAR '('
//
// Types are numbered from 0 in the order of appearance. Blank lines and lines starting with '#' are skipped.
package tokens

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	verr "github.com/nihei9/jpegen/error"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

type DefinitionError struct {
	message string
}

func (e *DefinitionError) Error() string {
	return e.message
}

var (
	ErrUnexpectedLine = &DefinitionError{message: "unexpected line found in token definitions"}
	ErrDuplicateType  = &DefinitionError{message: "duplicate token type"}
	ErrInvalidToken   = &DefinitionError{message: "invalid token"}
)

// Definitions holds token types and their numbers.
type Definitions struct {
	// All maps a number to its token type.
	All map[int]string

	// Exact maps an operator to the number of its token type.
	Exact map[string]int

	// NonExact holds the token types whose text varies.
	NonExact map[string]struct{}

	types map[string]int
}

// NewDefinitions makes definitions from the three tables Read produces.
func NewDefinitions(all map[int]string, exact map[string]int, nonExact map[string]struct{}) *Definitions {
	d := &Definitions{
		All:      all,
		Exact:    exact,
		NonExact: nonExact,
		types:    make(map[string]int, len(all)),
	}
	for n, name := range all {
		d.types[name] = n
	}
	return d
}

// TypeOf returns the number of a token type.
func (d *Definitions) TypeOf(name string) (int, bool) {
	n, ok := d.types[name]
	return n, ok
}

// Names returns the token types ordered by their numbers.
func (d *Definitions) Names() []string {
	nums := make([]int, 0, len(d.All))
	for n := range d.All {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	names := make([]string, len(nums))
	for i, n := range nums {
		names[i] = d.All[n]
	}
	return names
}

// Operators returns the exact tokens ordered by their numbers.
func (d *Definitions) Operators() []string {
	ops := make([]string, 0, len(d.Exact))
	for op := range d.Exact {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		return d.Exact[ops[i]] < d.Exact[ops[j]]
	})
	return ops
}

const (
	kindWhiteSpace = "white_space"
	kindNewline    = "newline"
	kindComment    = "comment"
	kindOperator   = "operator"
	kindWord       = "word"
)

var (
	compileOnce  sync.Once
	compiledSpec *mlspec.CompiledLexSpec
	compileErr   error
)

func compiledLexSpec() (*mlspec.CompiledLexSpec, error) {
	compileOnce.Do(func() {
		s := &mlspec.LexSpec{
			Name: "tokens",
			Entries: []*mlspec.LexEntry{
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
					Kind:    kindOperator,
					Pattern: `'[^'\u{000A}]*'`,
				},
				{
					Kind:    kindWord,
					Pattern: `[^\u{0009}\u{000A}\u{000D}\u{0020}'#][^\u{0009}\u{000A}\u{000D}\u{0020}]*`,
				},
			},
		}
		cs, err, cErrs := mlcompiler.Compile(s, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
		if err != nil {
			var b strings.Builder
			fmt.Fprintf(&b, "cannot compile the lexical specification of token definitions: %v", err)
			for _, cErr := range cErrs {
				fmt.Fprintf(&b, "\n%v: %v", cErr.Kind, cErr.Cause)
			}
			compileErr = fmt.Errorf("%v", b.String())
			return
		}
		compiledSpec = cs
	})
	return compiledSpec, compileErr
}

type line struct {
	row    int
	pieces []string
}

// Read parses token definitions. An error is a *verr.SpecError pointing to the offending line.
func Read(r io.Reader) (*Definitions, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	defs := &Definitions{
		All:      map[int]string{},
		Exact:    map[string]int{},
		NonExact: map[string]struct{}{},
		types:    map[string]int{},
	}
	for num, l := range lines {
		name := l.pieces[0]
		if _, ok := defs.types[name]; ok {
			return nil, &verr.SpecError{
				Cause:  ErrDuplicateType,
				Detail: name,
				Row:    l.row,
			}
		}

		switch {
		case len(l.pieces) == 1 && !isQuoted(name):
			defs.NonExact[name] = struct{}{}
		case len(l.pieces) == 2 && !isQuoted(name):
			defs.Exact[strings.Trim(l.pieces[1], "'")] = num
		default:
			return nil, &verr.SpecError{
				Cause:  ErrUnexpectedLine,
				Detail: strings.Join(l.pieces, " "),
				Row:    l.row,
			}
		}
		defs.All[num] = name
		defs.types[name] = num
	}

	return defs, nil
}

func readLines(r io.Reader) ([]*line, error) {
	cs, err := compiledLexSpec()
	if err != nil {
		return nil, err
	}
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(cs), r)
	if err != nil {
		return nil, err
	}

	var lines []*line
	var cur *line
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			break
		}
		if tok.Invalid {
			return nil, &verr.SpecError{
				Cause:  ErrInvalidToken,
				Detail: string(tok.Lexeme),
				Row:    tok.Row + 1,
				Col:    tok.Col + 1,
			}
		}

		switch cs.KindNames[tok.KindID].String() {
		case kindWhiteSpace, kindComment:
		case kindNewline:
			cur = nil
		default:
			if cur == nil {
				cur = &line{
					row: tok.Row + 1,
				}
				lines = append(lines, cur)
			}
			cur.pieces = append(cur.pieces, string(tok.Lexeme))
		}
	}
	return lines, nil
}

func isQuoted(s string) bool {
	return strings.HasPrefix(s, "'")
}
