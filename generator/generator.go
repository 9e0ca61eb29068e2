// Package generator holds the part of parser generation that doesn't depend on a target language. It checks a
// grammar against token definitions, runs the analyses a generator needs, and invents the helper rules that
// groups, loops and gathers turn into.
package generator

import (
	"fmt"

	verr "github.com/nihei9/jpegen/error"
	"github.com/nihei9/jpegen/grammar"
	"github.com/nihei9/jpegen/log"
	"github.com/nihei9/jpegen/tokens"
	"github.com/sirupsen/logrus"
)

// keywordTypeBase is the token type of the first hard keyword. Keyword types follow the types in token
// definitions, so they start at a number no definitions file reaches.
const keywordTypeBase = 500

type Option func(g *Generator)

func Logger(l logrus.FieldLogger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

type Generator struct {
	Grammar       *grammar.Grammar
	Tokens        *tokens.Definitions
	LeftRecursion *grammar.LeftRecursion
	FirstSets     grammar.FirstSets

	// Keywords maps a hard keyword to its token type.
	Keywords map[string]int

	// KeywordList and SoftKeywords are ordered by the first appearance in the grammar.
	KeywordList  []string
	SoftKeywords []string

	todo       []*grammar.Rule
	counter    int
	artificial map[string]string
	logger     logrus.FieldLogger
}

// New checks a grammar and prepares its generation. Errors in the grammar are reported as verr.SpecErrors or
// *verr.SpecError values.
func New(gram *grammar.Grammar, defs *tokens.Definitions, opts ...Option) (*Generator, error) {
	g := &Generator{
		Grammar:    gram,
		Tokens:     defs,
		Keywords:   map[string]int{},
		artificial: map[string]string{},
		logger:     log.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}

	err := grammar.Validate(gram, defs.NonExact)
	if err != nil {
		return nil, err
	}
	if _, ok := gram.Meta("trailer"); !ok {
		if _, ok := gram.Rule("start"); !ok {
			return nil, &verr.SpecError{
				Cause: ErrNoStartRule,
			}
		}
	}

	grammar.ComputeNullables(gram)
	g.LeftRecursion, err = grammar.ComputeLeftRecursives(gram)
	if err != nil {
		return nil, err
	}
	g.FirstSets = grammar.ComputeFirstSets(gram)

	kws := grammar.CollectKeywords(gram)
	for i, kw := range kws.Hard {
		g.Keywords[kw] = keywordTypeBase + i
	}
	g.KeywordList = kws.Hard
	g.SoftKeywords = kws.Soft

	err = g.checkLiterals()
	if err != nil {
		return nil, err
	}

	g.todo = append(g.todo, gram.Rules...)

	g.logger.WithFields(logrus.Fields{
		"rules":         len(gram.Rules),
		"keywords":      len(g.KeywordList),
		"soft_keywords": len(g.SoftKeywords),
	}).Debug("grammar analyzed")

	return g, nil
}

// checkLiterals reports quoted literals that are neither keywords nor exact tokens.
func (g *Generator) checkLiterals() error {
	var errs verr.SpecErrors
	reported := map[string]struct{}{}
	grammar.InspectGrammar(g.Grammar, func(r *grammar.Rule, item grammar.Item) bool {
		l, ok := item.(*grammar.StringLeaf)
		if !ok || l.IsKeyword() {
			return true
		}
		if _, ok := g.Tokens.Exact[l.Literal()]; ok {
			return true
		}
		if _, ok := reported[l.Value]; ok {
			return true
		}
		reported[l.Value] = struct{}{}
		errs = append(errs, &verr.SpecError{
			Cause:  ErrUnknownLiteral,
			Detail: fmt.Sprintf("%v in rule '%v'", l.Value, r.Name),
			Row:    r.Pos.Row,
			Col:    r.Pos.Col,
		})
		return true
	})
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Next pops the next rule to generate. Rules of the grammar come first in definition order, followed by the
// artificial rules in the order they were invented.
func (g *Generator) Next() (*grammar.Rule, bool) {
	if len(g.todo) == 0 {
		return nil, false
	}
	r := g.todo[0]
	g.todo = g.todo[1:]
	return r, true
}

// ArtificialRuleFromRhs returns a `_tmp_N` rule matching a group or a multi-item alternative list. Identical
// right-hand sides share one rule.
func (g *Generator) ArtificialRuleFromRhs(rhs *grammar.Rhs) string {
	return g.invent("tmp", rhs.String(), func(name string) *grammar.Rule {
		return &grammar.Rule{
			Name: name,
			Rhs:  rhs,
		}
	})
}

// ArtificialRuleFromRepeat returns a `_loop0_N` or `_loop1_N` rule whose single alternative matches one
// repetition of node.
func (g *Generator) ArtificialRuleFromRepeat(node grammar.Item, repeat1 bool) string {
	prefix := "loop0"
	if repeat1 {
		prefix = "loop1"
	}
	return g.invent(prefix, node.String(), func(name string) *grammar.Rule {
		return &grammar.Rule{
			Name: name,
			Rhs: &grammar.Rhs{
				Alts: []*grammar.Alt{
					{
						Items: []*grammar.NamedItem{
							{Item: node},
						},
						Icut: -1,
					},
				},
			},
		}
	})
}

// ArtificialRuleFromGather returns a `_gather_N` rule. It matches `elem seq` where seq is a `_loop0_M` rule
// collecting the elements that follow a separator. The loop is numbered before the gather, so M is N-1.
func (g *Generator) ArtificialRuleFromGather(node *grammar.Gather) string {
	text := node.String()
	if name, ok := g.artificial[artificialKey("gather", text)]; ok {
		return name
	}
	g.counter++
	loopName := fmt.Sprintf("_loop0_%v", g.counter)
	g.add(&grammar.Rule{
		Name: loopName,
		Rhs: &grammar.Rhs{
			Alts: []*grammar.Alt{
				{
					Items: []*grammar.NamedItem{
						{Item: node.Separator},
						{Name: "elem", Item: node.Node},
					},
					Action: "elem",
					Icut:   -1,
				},
			},
		},
	})

	return g.invent("gather", text, func(name string) *grammar.Rule {
		return &grammar.Rule{
			Name: name,
			Rhs: &grammar.Rhs{
				Alts: []*grammar.Alt{
					{
						Items: []*grammar.NamedItem{
							{Name: "elem", Item: node.Node},
							{Name: "seq", Item: &grammar.NameLeaf{Value: loopName}},
						},
						Icut: -1,
					},
				},
			},
		}
	})
}

func artificialKey(prefix, text string) string {
	return prefix + ":" + text
}

func (g *Generator) invent(prefix, text string, newRule func(name string) *grammar.Rule) string {
	key := artificialKey(prefix, text)
	if name, ok := g.artificial[key]; ok {
		return name
	}
	g.counter++
	name := fmt.Sprintf("_%v_%v", prefix, g.counter)
	g.artificial[key] = name
	g.add(newRule(name))
	return name
}

func (g *Generator) add(r *grammar.Rule) {
	g.Grammar.AddRule(r)
	g.todo = append(g.todo, r)
	g.logger.WithFields(logrus.Fields{
		"rule": r.Name,
		"rhs":  r.Rhs.String(),
	}).Debug("artificial rule")
}

// KeywordType returns the token type of a hard keyword.
func (g *Generator) KeywordType(kw string) (int, bool) {
	t, ok := g.Keywords[kw]
	return t, ok
}

// IsSoftKeyword reports whether a keyword appears only in double quotes.
func (g *Generator) IsSoftKeyword(kw string) bool {
	for _, s := range g.SoftKeywords {
		if s == kw {
			return true
		}
	}
	return false
}

// Locals gives unique names to the variables of one alternative.
type Locals struct {
	names map[string]struct{}
}

func NewLocals() *Locals {
	return &Locals{
		names: map[string]struct{}{},
	}
}

// Dedupe returns name itself or, when it is taken, name with the smallest free numeric suffix.
func (l *Locals) Dedupe(name string) string {
	orig := name
	for n := 1; ; n++ {
		if _, ok := l.names[name]; !ok {
			break
		}
		name = fmt.Sprintf("%v_%v", orig, n)
	}
	l.names[name] = struct{}{}
	return name
}
