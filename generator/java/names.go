package java

import (
	"fmt"
	"strings"

	verr "github.com/nihei9/jpegen/error"
	"github.com/nihei9/jpegen/grammar"
)

var reservedWords = map[string]struct{}{
	"abstract": {}, "assert": {}, "boolean": {}, "break": {}, "byte": {}, "case": {}, "catch": {}, "char": {},
	"class": {}, "const": {}, "continue": {}, "default": {}, "do": {}, "double": {}, "else": {}, "enum": {},
	"extends": {}, "final": {}, "finally": {}, "float": {}, "for": {}, "goto": {}, "if": {}, "implements": {},
	"import": {}, "instanceof": {}, "int": {}, "interface": {}, "long": {}, "native": {}, "new": {},
	"package": {}, "private": {}, "protected": {}, "public": {}, "return": {}, "short": {}, "static": {},
	"strictfp": {}, "super": {}, "switch": {}, "synchronized": {}, "this": {}, "throw": {}, "throws": {},
	"transient": {}, "try": {}, "void": {}, "volatile": {}, "while": {}, "true": {}, "false": {}, "null": {},
	"var": {}, "yield": {}, "record": {},
}

// Methods of the runtime parser class and the generated entry method.
var parserMethods = map[string]struct{}{
	"parse": {}, "mark": {}, "reset": {}, "peekToken": {}, "lastToken": {}, "expect": {}, "expectKeyword": {},
	"expectSoftKeyword": {}, "expectForced": {}, "nameToken": {}, "numberToken": {}, "stringToken": {},
	"softKeywordToken": {}, "memoize": {}, "memoizeLeftRec": {}, "positiveLookahead": {},
	"negativeLookahead": {}, "dummyName": {}, "insertInFront": {},
}

// identifier turns a grammar name into a Java identifier. Reserved words and the names of the parser's own
// methods get a trailing underscore.
func identifier(name string) string {
	if _, ok := reservedWords[name]; ok {
		return name + "_"
	}
	if _, ok := parserMethods[name]; ok {
		return name + "_"
	}
	return name
}

func memoKey(ruleName string) string {
	return strings.ToUpper(ruleName) + "_TYPE"
}

func isMemoized(r *grammar.Rule) bool {
	return r.Leader || (r.Memo && !r.LeftRecursive)
}

// checkNames reports rules whose methods or memo keys would be declared twice, such as `expr` and `Expr`, or
// `int` and `int_`.
func checkNames(g *grammar.Grammar) error {
	var errs verr.SpecErrors
	methods := map[string]*grammar.Rule{}
	keys := map[string]*grammar.Rule{}
	collide := func(r, other *grammar.Rule, what string) {
		errs = append(errs, &verr.SpecError{
			Cause:  ErrNameCollision,
			Detail: fmt.Sprintf("'%v' and '%v' both make %v", other.Name, r.Name, what),
			Row:    r.Pos.Row,
			Col:    r.Pos.Col,
		})
	}
	for _, r := range g.Rules {
		names := []string{identifier(r.Name)}
		if isMemoized(r) {
			names = append(names, identifier(r.Name)+"_raw")
		}
		for _, name := range names {
			if other, ok := methods[name]; ok {
				collide(r, other, fmt.Sprintf("method %v()", name))
				continue
			}
			methods[name] = r
		}

		key := memoKey(r.Name)
		if other, ok := keys[key]; ok {
			collide(r, other, key)
			continue
		}
		keys[key] = r
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

var boxedTypes = map[string]string{
	"boolean": "Boolean",
	"byte":    "Byte",
	"char":    "Character",
	"double":  "Double",
	"float":   "Float",
	"int":     "Integer",
	"long":    "Long",
	"short":   "Short",
}

// referenceType boxes primitive types because every parse result can be null.
func referenceType(typ string) string {
	if b, ok := boxedTypes[typ]; ok {
		return b
	}
	return typ
}

// quote renders a Java string literal.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// comment makes text safe to put in a line comment.
func comment(text string) string {
	return strings.NewReplacer("\n", " ", "\r", " ").Replace(text)
}
