package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nihei9/jpegen/log"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestReportError(t *testing.T) {
	err := pkgerrors.Wrap(fmt.Errorf("boom"), "cannot generate")

	var b strings.Builder
	reportError(&b, err, 0)
	expected := "*errors.errorString: cannot generate: boom\nFor full traceback, use -v\n"
	if diff := cmp.Diff(expected, b.String()); diff != "" {
		t.Fatalf("unexpected report (-want +got):\n%v", diff)
	}

	b.Reset()
	reportError(&b, err, 1)
	out := b.String()
	if !strings.HasPrefix(out, "boom\n") || !strings.Contains(out, "TestReportError") {
		t.Fatalf("a verbose report must contain the stack trace:\n%v", out)
	}
	if strings.Contains(out, "For full traceback") {
		t.Fatalf("a verbose report must not suggest -v:\n%v", out)
	}
}

func TestGenerateJava(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "ExprParser.java")
	var w strings.Builder
	err := generateJava(&w, log.Discard(), &javaParams{
		grammarFile: "testdata/expr.gram",
		tokensFile:  "testdata/Tokens",
		output:      output,
	})
	if err != nil {
		t.Fatal(err)
	}
	if w.Len() != 0 {
		t.Fatalf("nothing must be printed without -v:\n%v", w.String())
	}
	b, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "public class ExprParser extends pegen.runtime.Parser {\n") {
		t.Fatalf("unexpected output:\n%v", string(b))
	}
}

func TestGenerateJava_Verbose(t *testing.T) {
	output := filepath.Join(t.TempDir(), "Parser.java")
	var w strings.Builder
	err := generateJava(&w, log.Discard(), &javaParams{
		grammarFile: "testdata/expr.gram",
		tokensFile:  "testdata/Tokens",
		output:      output,
		verbosity:   1,
	})
	if err != nil {
		t.Fatal(err)
	}
	out := w.String()
	for _, s := range []string{
		"# Grammar\n",
		"# Rules\n",
		"  start -> expr\n",
		"  [expr]  # Left-recursive\n",
		"Total time: ",
		"Caches sizes:\n  token array : ",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("the report doesn't contain %#v:\n%v", s, out)
		}
	}
}

func TestGenerateJava_NoOpFlags(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	plain := filepath.Join(t.TempDir(), "ExprParser.java")
	err := generateJava(&strings.Builder{}, log.Discard(), &javaParams{
		grammarFile: "testdata/expr.gram",
		tokensFile:  "testdata/Tokens",
		output:      plain,
	})
	if err != nil {
		t.Fatal(err)
	}
	flagged := filepath.Join(t.TempDir(), "ExprParser.java")
	err = generateJava(&strings.Builder{}, logger, &javaParams{
		grammarFile:      "testdata/expr.gram",
		tokensFile:       "testdata/Tokens",
		output:           flagged,
		compileExtension: true,
		optimized:        true,
	})
	if err != nil {
		t.Fatal(err)
	}

	want, err := os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(flagged)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(string(want), string(got)); diff != "" {
		t.Fatalf("the flags must not change the output (-want +got):\n%v", diff)
	}

	var msgs []string
	for _, e := range hook.AllEntries() {
		if strings.HasPrefix(e.Message, "--") {
			msgs = append(msgs, e.Message)
		}
	}
	expected := []string{
		"--compile-extension has no effect on Java parsers",
		"--optimized has no effect on Java parsers",
	}
	if diff := cmp.Diff(expected, msgs); diff != "" {
		t.Fatalf("unexpected messages (-want +got):\n%v", diff)
	}
}

func TestGenerateJava_DefaultOutput(t *testing.T) {
	output := filepath.Join(t.TempDir(), defaultJavaOutput)
	err := generateJava(&strings.Builder{}, log.Discard(), &javaParams{
		grammarFile: "testdata/expr.gram",
		tokensFile:  "testdata/Tokens",
		output:      output,
	})
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "\npublic class Parser extends pegen.runtime.Parser {\n") {
		t.Fatalf("unexpected class declaration:\n%v", string(b))
	}
}

func TestGenerateJava_Config(t *testing.T) {
	tests := []struct {
		caption      string
		flagOutput   bool
		expectedFile string
	}{
		{
			caption:      "the configuration file names the output",
			expectedFile: "FromConfig.java",
		},
		{
			caption:      "the command line takes precedence over the configuration file",
			flagOutput:   true,
			expectedFile: "FromFlag.java",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			dir := t.TempDir()
			conf := fmt.Sprintf("output: %v\njava:\n  package: org.example\n  class: Expr\n", filepath.Join(dir, "FromConfig.java"))
			confFile := filepath.Join(dir, "pegen.yaml")
			err := os.WriteFile(confFile, []byte(conf), 0644)
			if err != nil {
				t.Fatal(err)
			}

			params := &javaParams{
				grammarFile: "testdata/expr.gram",
				tokensFile:  "testdata/Tokens",
				configFile:  confFile,
			}
			if tt.flagOutput {
				params.output = filepath.Join(dir, "FromFlag.java")
			}
			err = generateJava(&strings.Builder{}, log.Discard(), params)
			if err != nil {
				t.Fatal(err)
			}

			b, err := os.ReadFile(filepath.Join(dir, tt.expectedFile))
			if err != nil {
				t.Fatal(err)
			}
			out := string(b)
			for _, s := range []string{"package org.example;\n", "public class Expr extends pegen.runtime.Parser {\n"} {
				if !strings.Contains(out, s) {
					t.Errorf("the output doesn't contain %#v:\n%v", s, out)
				}
			}
		})
	}
}

func TestGenerateJava_Error(t *testing.T) {
	tests := []struct {
		caption string
		params  *javaParams
	}{
		{
			caption: "a missing grammar file",
			params: &javaParams{
				grammarFile: "testdata/missing.gram",
				tokensFile:  "testdata/Tokens",
			},
		},
		{
			caption: "a missing configuration file",
			params: &javaParams{
				grammarFile: "testdata/expr.gram",
				tokensFile:  "testdata/Tokens",
				configFile:  "testdata/missing.yaml",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tt.params.output = filepath.Join(t.TempDir(), "Parser.java")
			err := generateJava(&strings.Builder{}, log.Discard(), tt.params)
			if !errors.Is(err, fs.ErrNotExist) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAnalyzeGrammar(t *testing.T) {
	for _, tokensFile := range []string{"", "testdata/Tokens"} {
		t.Run(fmt.Sprintf("tokens file %#v", tokensFile), func(t *testing.T) {
			report, err := analyzeGrammar("testdata/expr.gram", tokensFile, log.Discard())
			if err != nil {
				t.Fatal(err)
			}
			var b strings.Builder
			err = writeGrammarReport(&b, report)
			if err != nil {
				t.Fatal(err)
			}
			out := b.String()
			for _, s := range []string{
				"  start -> expr\n",
				"  atom ->\n",
				"  [expr]  # Left-recursive\n",
				"  [term]  # Left-recursive\n",
				"  [atom]\n",
			} {
				if !strings.Contains(out, s) {
					t.Errorf("the report doesn't contain %#v:\n%v", s, out)
				}
			}
		})
	}
}

func TestParseSource(t *testing.T) {
	var w strings.Builder
	err := parseSource(&w, strings.NewReader("1 + a\n"), "testdata/expr.gram", "testdata/Tokens", log.Discard(), false)
	if err != nil {
		t.Fatal(err)
	}
	expected := `start
├─ expr
│  ├─ expr
│  │  └─ term
│  │     └─ atom
│  │        └─ NUMBER "1"
│  ├─ PLUS "+"
│  └─ term
│     └─ atom
│        └─ NAME "a"
├─ NEWLINE
└─ ENDMARKER
`
	if diff := cmp.Diff(expected, w.String()); diff != "" {
		t.Fatalf("unexpected tree (-want +got):\n%v", diff)
	}

	err = parseSource(&strings.Builder{}, strings.NewReader("1 +\n"), "testdata/expr.gram", "testdata/Tokens", log.Discard(), false)
	if err == nil {
		t.Fatal("a syntax error must be reported")
	}
}

func TestExecute_MissingGrammar(t *testing.T) {
	tests := []struct {
		caption  string
		args     []string
		expected []string
		absent   []string
	}{
		{
			caption: "a summary without -v",
			expected: []string{
				"*fs.PathError: open testdata/missing.gram: no such file or directory\n",
				"For full traceback, use -v\n",
			},
			absent: []string{
				"build.BuildParser",
			},
		},
		{
			caption: "a stack trace with -v",
			args:    []string{"-v"},
			expected: []string{
				"open testdata/missing.gram: no such file or directory\n",
				"github.com/nihei9/jpegen/build.BuildParser\n",
			},
			absent: []string{
				"For full traceback",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			*rootFlags.verbose = 0
			defer func() {
				*rootFlags.verbose = 0
			}()
			output := filepath.Join(t.TempDir(), "Parser.java")
			args := append([]string{"java", "testdata/missing.gram", "testdata/Tokens", "-o", output}, tt.args...)

			var stderr strings.Builder
			err := execute(args, &stderr)
			if !errors.Is(err, fs.ErrNotExist) {
				t.Fatalf("unexpected error: %v", err)
			}
			out := stderr.String()
			for _, e := range tt.expected {
				if !strings.Contains(out, e) {
					t.Errorf("the report doesn't contain %#v:\n%v", e, out)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(out, a) {
					t.Errorf("the report must not contain %#v:\n%v", a, out)
				}
			}
			if _, err := os.Stat(output); !errors.Is(err, fs.ErrNotExist) {
				t.Errorf("no output must be created: %v", err)
			}
		})
	}
}
