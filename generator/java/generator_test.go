package java

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/nihei9/jpegen/generator"
	"github.com/nihei9/jpegen/grammar"
	"github.com/nihei9/jpegen/spec"
	"github.com/nihei9/jpegen/tokens"
)

func readTokens(t *testing.T) *tokens.Definitions {
	t.Helper()
	f, err := os.Open("testdata/Tokens")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	defs, err := tokens.Read(f)
	if err != nil {
		t.Fatal(err)
	}
	return defs
}

func generate(t *testing.T, src string, opts ...Option) (string, error) {
	t.Helper()
	g, err := spec.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to parse a grammar: %v", err)
	}
	defs := readTokens(t)
	var b bytes.Buffer
	pg, err := NewParserGenerator(g, defs.All, defs.Exact, defs.NonExact, &b, opts...)
	if err != nil {
		return "", err
	}
	err = pg.Generate("calc.gram")
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func readGrammar(t *testing.T) string {
	t.Helper()
	src, err := os.ReadFile("testdata/calc.gram")
	if err != nil {
		t.Fatal(err)
	}
	return string(src)
}

func TestGenerate(t *testing.T) {
	out, err := generate(t, readGrammar(t))
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{
		"// @generated by pegen from calc.gram\n",
		"import java.util.ArrayList;\n",
		"import pegen.runtime.Tokenizer;\n",
		"import calc.ast.*;\n",
		"public class CalcParser extends pegen.runtime.Parser {\n",
		"    public static final int ENDMARKER = 0;\n",
		"    public static final int LPAR = 5;\n",
		"        \"EQUAL\",\n",
		"        KEYWORDS.put(\"print\", 500);\n",
		"        SOFT_KEYWORDS.add(\"neg\");\n",
		"    private static final int EXPR_TYPE = 1002;\n",
		"    public CalcParser(Tokenizer tokenizer) {\n",
		"    public Module parse() {\n        return start();\n    }\n",
		`    public Module start() {
        int _mark = mark();
        { // stmts=stmt* $ { new Module(stmts) }
            List<Stmt> stmts = null;
            Token endmarker_var = null;
            if (
                (stmts = _loop0_1()) != null  // stmt*
                &&
                (endmarker_var = expect(ENDMARKER)) != null  // token=ENDMARKER
            ) {
                return new Module(stmts);
            }
            reset(_mark);
        }
        return null;
    }
`,
		"    public Stmt stmt() {\n        return memoize(STMT_TYPE, this::stmt_raw);\n    }\n",
		"    private Stmt stmt_raw() {\n",
		"    // Left-recursive\n    public Expr expr() {\n        return memoizeLeftRec(EXPR_TYPE, this::expr_raw);\n    }\n",
		"(_keyword = expectKeyword(500)) != null  // keyword='print'\n",
		"(args = _gather_3()) != null  // ','.expr+\n",
		"    private List<Expr> _gather_3() {\n",
		"return insertInFront(elem, seq);\n",
		"    private List<Expr> _loop0_2() {\n",
		"_children.add(elem);\n",
		"int _start_lineno = _startToken.getLineno();\n",
		"return new Print(args, _start_lineno, _start_col_offset, _end_lineno, _end_col_offset);\n",
		"boolean _cut_var = false;\n",
		"(_cut_var = true)\n",
		"if (_cut_var) {\n",
		"(target = nameToken()) != null  // NAME\n",
		"(_literal = expect(EQUAL)) != null  // token='='\n",
		"(op = _tmp_4()) != null  // '+' | '-'\n",
		"    private Object _tmp_4() {\n",
		"(_literal_1 = expectForced(RPAR, \"')'\")) != null  // forced_token=')'\n",
		"(_keyword = expectSoftKeyword(\"neg\")) != null  // soft_keyword=\"neg\"\n",
		"negativeLookahead(() -> expect(LPAR))  // token='('\n",
		"    private List<Stmt> _loop0_1() {\n        int _mark = mark();\n        List<Stmt> _children = new ArrayList<>();\n",
	}
	for _, e := range expected {
		if !strings.Contains(out, e) {
			t.Errorf("the output doesn't contain:\n%v\noutput:\n%v", e, out)
		}
	}
	if !strings.HasSuffix(out, "    }\n}\n") {
		t.Errorf("the class isn't closed properly:\n%v", out)
	}
}

func TestGenerate_SkipActions(t *testing.T) {
	out, err := generate(t, readGrammar(t), SkipActions(true))
	if err != nil {
		t.Fatal(err)
	}

	for _, action := range []string{"new Module", "new Print", "new BinOp", "EXTRA", "_start_lineno", "insertInFront"} {
		if strings.Contains(out, action) {
			t.Errorf("the output must not contain %q", action)
		}
	}
	for _, e := range []string{
		"return (Module) dummyName(stmts, endmarker_var);\n",
		"    private List<Object> _loop0_1() {\n",
	} {
		if !strings.Contains(out, e) {
			t.Errorf("the output doesn't contain:\n%v\noutput:\n%v", e, out)
		}
	}
}

func TestGenerate_Options(t *testing.T) {
	tests := []struct {
		caption  string
		src      string
		opts     []Option
		expected []string
		absent   []string
	}{
		{
			caption: "options take precedence over meta directives",
			src: `@class CalcParser
@extends BaseParser
start: NAME
`,
			opts: []Option{
				ClassName("Other"),
				Package("com.example"),
				Extends("RuntimeParser"),
				Imports("com.example.ast.Node"),
			},
			expected: []string{
				"\npackage com.example;\n",
				"import com.example.ast.Node;\n",
				"public class Other extends RuntimeParser {\n",
			},
		},
		{
			caption: "meta directives take precedence over the fallback",
			src: `@class CalcParser
@extends BaseParser
@package calc
start: NAME
`,
			opts: []Option{
				FallbackClassName("Parser"),
			},
			expected: []string{
				"\npackage calc;\n",
				"public class CalcParser extends BaseParser {\n",
			},
		},
		{
			caption: "the fallback class name is used when nothing else gives one",
			src: `start: NAME
`,
			opts: []Option{
				FallbackClassName("Calc"),
			},
			expected: []string{
				"public class Calc extends pegen.runtime.Parser {\n",
			},
			absent: []string{
				"package ",
			},
		},
		{
			caption: "a header replaces the default imports",
			src: `@header 'import foo.*; // {filename}'
start: NAME
`,
			expected: []string{
				"import foo.*; // calc.gram\n",
			},
			absent: []string{
				"import java.util.ArrayList;",
			},
		},
		{
			caption: "a trailer goes inside the class and replaces the entry method",
			src: `@trailer 'public static void main(String[] args) {}'
expr: NAME
`,
			expected: []string{
				"    public Object expr() {\n",
			},
			absent: []string{
				"parse()",
			},
		},
		{
			caption: "repeated items share a loop rule and get unique variables",
			src: `start: NAME* NEWLINE NAME* NUMBER+
`,
			expected: []string{
				"(_loop0_1_var = _loop0_1()) != null",
				"(_loop0_1_var_1 = _loop0_1()) != null",
				"    private List<Token> _loop1_2() {\n",
				"if (_children.isEmpty()) {\n",
			},
			absent: []string{
				"_loop0_3",
			},
		},
		{
			caption: "an optional item always succeeds",
			src: `start: NAME? '(' [NUMBER NUMBER]
`,
			expected: []string{
				"((_opt_var = nameToken()) != null || true)  // NAME?\n",
				"((_opt_var_1 = _tmp_1()) != null || true)  // [NUMBER NUMBER]\n",
			},
		},
		{
			caption: "a rule named after a method of the parser is renamed",
			src: `start: mark reset=NAME
mark: NUMBER
`,
			expected: []string{
				"(mark_var = mark_()) != null  // mark\n",
				"(reset_ = nameToken()) != null",
				"    public Object mark_() {\n",
			},
			absent: []string{
				" mark() {",
			},
		},
		{
			caption: "a class named Parser extends the runtime class",
			src: `start: NAME
`,
			opts: []Option{
				FallbackClassName("Parser"),
			},
			expected: []string{
				"public class Parser extends pegen.runtime.Parser {\n",
			},
		},
		{
			caption: "a reserved word is escaped",
			src: `start: class=NAME int
int: NUMBER
`,
			expected: []string{
				"(class_ = nameToken()) != null",
				"(int_var = int_()) != null",
				"    public Object int_() {\n",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			out, err := generate(t, tt.src, tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			for _, e := range tt.expected {
				if !strings.Contains(out, e) {
					t.Errorf("the output doesn't contain:\n%v\noutput:\n%v", e, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("the output must not contain:\n%v\noutput:\n%v", a, out)
				}
			}
		})
	}
}

func TestGenerate_Trailer(t *testing.T) {
	out, err := generate(t, `@trailer 'public static void main(String[] args) {}'
expr: NAME
`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(out, "    }\n\npublic static void main(String[] args) {}\n}\n") {
		t.Fatalf("the trailer must close the class:\n%v", out)
	}
}

func TestNewParserGenerator_Error(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		cause   error
	}{
		{
			caption: "a literal must be a keyword or a known token",
			src:     "start: NAME '?'\n",
			cause:   generator.ErrUnknownLiteral,
		},
		{
			caption: "a grammar without a trailer needs a start rule",
			src:     "expr: NAME\n",
			cause:   generator.ErrNoStartRule,
		},
		{
			caption: "a reference must be a rule or a token",
			src:     "start: nam\n",
			cause:   grammar.ErrDanglingReference,
		},
		{
			caption: "the class must not extend itself",
			src:     "@class Calc\n@extends Calc\nstart: NAME\n",
			cause:   ErrClassExtendsItself,
		},
		{
			caption: "the class must not extend itself through its package",
			src:     "@class Calc\n@package calc\n@extends 'calc.Calc'\nstart: NAME\n",
			cause:   ErrClassExtendsItself,
		},
		{
			caption: "rule names differing only in case share a memo key",
			src:     "start: expr Expr\nexpr: NAME\nExpr: NUMBER\n",
			cause:   ErrNameCollision,
		},
		{
			caption: "an escaped rule name must not hit another rule",
			src:     "start: int int_\nint: NAME\nint_: NUMBER\n",
			cause:   ErrNameCollision,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := generate(t, tt.src)
			if !errors.Is(err, tt.cause) {
				t.Fatalf("unexpected error; want: %v, got: %v", tt.cause, err)
			}
		})
	}
}

func TestGenerate_Twice(t *testing.T) {
	g, err := spec.Parse(strings.NewReader(readGrammar(t)))
	if err != nil {
		t.Fatal(err)
	}
	defs := readTokens(t)
	var b bytes.Buffer
	pg, err := NewParserGenerator(g, defs.All, defs.Exact, defs.NonExact, &b)
	if err != nil {
		t.Fatal(err)
	}
	err = pg.Generate("calc.gram")
	if err != nil {
		t.Fatal(err)
	}
	first := b.String()
	b.Reset()
	err = pg.Generate("calc.gram")
	if err != nil {
		t.Fatal(err)
	}
	if b.String() != first {
		t.Fatalf("a second generation must write the same parser:\n%v", b.String())
	}
	if !strings.Contains(first, "    private List<Expr> _loop0_2() {\n") {
		t.Fatalf("unexpected output:\n%v", first)
	}
}
