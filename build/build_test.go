package build

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	verr "github.com/nihei9/jpegen/error"
	"github.com/nihei9/jpegen/generator"
	"github.com/nihei9/jpegen/generator/java"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestBuildParser(t *testing.T) {
	gram, p, tok, err := BuildParser("testdata/expr.gram", false, false)
	if err != nil {
		t.Fatal(err)
	}
	if p == nil || p.Tokenizer() != tok {
		t.Fatalf("the parser must read from the returned tokenizer")
	}

	var names []string
	for _, r := range gram.Rules {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"start", "expr", "term", "atom"}, names); diff != "" {
		t.Fatalf("unexpected rules (-want +got):\n%v", diff)
	}
	if tok.Count() == 0 || tok.Lines() < 10 {
		t.Fatalf("unexpected tokenizer state; tokens: %v, lines: %v", tok.Count(), tok.Lines())
	}
}

func TestBuildParser_Verbose(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	_, _, _, err := BuildParser("testdata/expr.gram", false, true, Logger(logger))
	if err != nil {
		t.Fatal(err)
	}
	if len(hook.AllEntries()) == 0 {
		t.Fatalf("the parser trace must be logged")
	}
}

func TestBuildParser_Error(t *testing.T) {
	t.Run("a missing grammar file", func(t *testing.T) {
		_, _, _, err := BuildParser("testdata/missing.gram", false, false)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("a syntax error points to the grammar file", func(t *testing.T) {
		_, _, _, err := BuildParser("testdata/syntax_error.gram", false, false)
		var specErr *verr.SpecError
		if !errors.As(err, &specErr) {
			t.Fatalf("unexpected error: %v", err)
		}
		if specErr.SourceName != "testdata/syntax_error.gram" || specErr.Row != 2 || specErr.Col != 3 {
			t.Fatalf("unexpected error position: %v", specErr)
		}
		if !strings.Contains(specErr.Error(), "\n      bad: NAME\n") {
			t.Fatalf("the error must quote the source line: %v", specErr)
		}
	})
}

func TestGenerateTokenDefinitions(t *testing.T) {
	f, err := os.Open("testdata/Tokens")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	all, exact, nonExact, err := GenerateTokenDefinitions(f)
	if err != nil {
		t.Fatal(err)
	}
	expectedAll := map[int]string{
		0: "ENDMARKER",
		1: "NAME",
		2: "NUMBER",
		3: "NEWLINE",
		4: "LPAR",
		5: "RPAR",
		6: "PLUS",
		7: "STAR",
	}
	if diff := cmp.Diff(expectedAll, all); diff != "" {
		t.Errorf("unexpected token types (-want +got):\n%v", diff)
	}
	expectedExact := map[string]int{
		"(": 4,
		")": 5,
		"+": 6,
		"*": 7,
	}
	if diff := cmp.Diff(expectedExact, exact); diff != "" {
		t.Errorf("unexpected exact tokens (-want +got):\n%v", diff)
	}
	expectedNonExact := map[string]struct{}{
		"ENDMARKER": {},
		"NAME":      {},
		"NUMBER":    {},
		"NEWLINE":   {},
	}
	if diff := cmp.Diff(expectedNonExact, nonExact); diff != "" {
		t.Errorf("unexpected non-exact tokens (-want +got):\n%v", diff)
	}
}

func TestBuildJavaParserAndGenerator(t *testing.T) {
	tests := []struct {
		caption  string
		output   string
		opts     []Option
		expected []string
		absent   []string
	}{
		{
			caption: "the class is named after the output file",
			output:  "ExprParser.java",
			expected: []string{
				"// @generated by pegen from testdata/expr.gram\n",
				"public class ExprParser extends pegen.runtime.Parser {\n",
				"return new Add(l, r);\n",
			},
		},
		{
			caption: "skipping actions",
			output:  "Parser.java",
			opts: []Option{
				JavaOptions(java.SkipActions(true)),
			},
			expected: []string{
				"public class Parser extends pegen.runtime.Parser {\n",
				"dummyName(",
			},
			absent: []string{
				"new Add",
				"new Var",
			},
		},
		{
			caption: "options name the class",
			output:  "Parser.java",
			opts: []Option{
				JavaOptions(java.ClassName("Expr"), java.Package("org.example")),
			},
			expected: []string{
				"package org.example;\n",
				"public class Expr extends pegen.runtime.Parser {\n",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			output := filepath.Join(t.TempDir(), tt.output)
			gram, _, _, gen, err := BuildJavaParserAndGenerator("testdata/expr.gram", "testdata/Tokens", output, false, false, tt.opts...)
			if err != nil {
				t.Fatal(err)
			}
			if gram == nil || gen == nil {
				t.Fatalf("a grammar and a generator must be returned")
			}

			b, err := os.ReadFile(output)
			if err != nil {
				t.Fatal(err)
			}
			out := string(b)
			for _, e := range tt.expected {
				if !strings.Contains(out, e) {
					t.Errorf("the output doesn't contain:\n%v\noutput:\n%v", e, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("the output must not contain:\n%v", a)
				}
			}
		})
	}
}

func TestBuildJavaParserAndGenerator_Error(t *testing.T) {
	t.Run("a missing tokens file", func(t *testing.T) {
		output := filepath.Join(t.TempDir(), "Parser.java")
		_, _, _, _, err := BuildJavaParserAndGenerator("testdata/expr.gram", "testdata/missing", output, false, false)
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(output); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("no output must be created: %v", err)
		}
	})

	t.Run("an unknown literal points to the grammar file", func(t *testing.T) {
		output := filepath.Join(t.TempDir(), "Parser.java")
		_, _, _, _, err := BuildJavaParserAndGenerator("testdata/unknown_literal.gram", "testdata/Tokens", output, false, false)
		if !errors.Is(err, generator.ErrUnknownLiteral) {
			t.Fatalf("unexpected error: %v", err)
		}
		var specErrs verr.SpecErrors
		if !errors.As(err, &specErrs) || specErrs[0].SourceName != "testdata/unknown_literal.gram" {
			t.Fatalf("the error must point to the grammar file: %v", err)
		}
	})
}
