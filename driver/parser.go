// Package driver interprets a grammar directly so that it can be tried on inputs without generating a parser.
// It follows the semantics of generated parsers: ordered choice, memoization of rules that aren't
// left-recursive, and seed growing for left-recursion leaders.
package driver

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nihei9/jpegen/generator"
	"github.com/nihei9/jpegen/grammar"
	"github.com/nihei9/jpegen/log"
	"github.com/sirupsen/logrus"
)

// Node is a node of a syntax tree. A rule makes a node whose children are the tokens and rules its alternative
// matched; groups, loops and gathers don't make nodes of their own.
type Node struct {
	KindName string
	Text     string
	Row      int
	Col      int
	Children []*Node
}

func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, "", "")
}

func printTree(w io.Writer, node *Node, ruledLine string, childRuledLinePrefix string) {
	if node == nil {
		return
	}

	if node.Text != "" {
		fmt.Fprintf(w, "%v%v %#v\n", ruledLine, node.KindName, node.Text)
	} else {
		fmt.Fprintf(w, "%v%v\n", ruledLine, node.KindName)
	}

	num := len(node.Children)
	for i, child := range node.Children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, child, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}

type SyntaxError struct {
	Row               int
	Col               int
	Message           string
	Token             *Token
	ExpectedTerminals []string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v:%v: %v", e.Row, e.Col, e.Message)
	if e.Token != nil {
		fmt.Fprintf(&b, ": %v", e.Token)
	}
	if len(e.ExpectedTerminals) > 0 {
		fmt.Fprintf(&b, "; expected: %v", strings.Join(e.ExpectedTerminals, ", "))
	}
	return b.String()
}

const (
	msgInvalidToken    = "invalid token"
	msgUnexpectedToken = "unexpected token"
)

type ParserOption func(p *Parser)

// Logger sets the logger receiving the trace of rule invocations. The trace is logged at debug level.
func Logger(l logrus.FieldLogger) ParserOption {
	return func(p *Parser) {
		p.logger = l
	}
}

// Trace makes the parser log every rule invocation and its result.
func Trace(trace bool) ParserOption {
	return func(p *Parser) {
		p.trace = trace
	}
}

type memoKey struct {
	rule string
	pos  int
}

type memoEntry struct {
	node *Node
	end  int
	ok   bool
}

type Parser struct {
	gen    *generator.Generator
	stream *TokenStream
	logger logrus.FieldLogger
	trace  bool

	toks     []*Token
	memo     map[memoKey]*memoEntry
	farthest int
	expected map[string]struct{}
	level    int
}

// NewParser makes a parser from an analyzed grammar. The grammar must have gone through generator.New so
// that its left-recursion leaders and keywords are known.
func NewParser(gen *generator.Generator, opts ...ParserOption) (*Parser, error) {
	stream, err := NewTokenStream(gen.Tokens, gen.Keywords)
	if err != nil {
		return nil, err
	}
	p := &Parser{
		gen:    gen,
		stream: stream,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Parse matches src against the start rule. The whole input up to the ENDMARKER must be consumed.
func (p *Parser) Parse(src io.Reader) (tree *Node, retErr error) {
	toks, err := p.stream.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p.toks = toks
	p.memo = map[memoKey]*memoEntry{}
	p.farthest = 0
	p.expected = map[string]struct{}{}
	p.level = 0

	defer func() {
		v := recover()
		if v == nil {
			return
		}
		synErr, ok := v.(*SyntaxError)
		if !ok {
			panic(v)
		}
		tree = nil
		retErr = synErr
	}()

	start := p.gen.Grammar.StartRule()
	e := p.rule(start, 0)
	if e.ok && e.end >= len(p.toks)-1 {
		return e.node, nil
	}
	if e.ok && e.end > p.farthest {
		return nil, p.syntaxError(msgUnexpectedToken, e.end, nil)
	}

	var expected []string
	for t := range p.expected {
		expected = append(expected, t)
	}
	sort.Strings(expected)
	return nil, p.syntaxError(msgUnexpectedToken, p.farthest, expected)
}

func (p *Parser) syntaxError(msg string, pos int, expected []string) *SyntaxError {
	tok := p.toks[pos]
	return &SyntaxError{
		Row:               tok.Row,
		Col:               tok.Col,
		Message:           msg,
		Token:             tok,
		ExpectedTerminals: expected,
	}
}

func (p *Parser) rule(r *grammar.Rule, pos int) *memoEntry {
	if p.trace {
		p.logger.Debugf("%v%v() ... (looking at %v)", strings.Repeat("  ", p.level), r.Name, p.toks[pos])
		p.level++
		defer func() {
			p.level--
		}()
	}

	key := memoKey{rule: r.Name, pos: pos}
	var e *memoEntry
	switch {
	case r.Leader:
		if cached, ok := p.memo[key]; ok {
			return cached
		}

		// Grow the seed until an iteration stops consuming more tokens.
		e = &memoEntry{end: pos}
		p.memo[key] = e
		for {
			next := p.ruleBody(r, pos)
			if !next.ok || next.end <= e.end {
				break
			}
			e = next
			p.memo[key] = e
		}
	case r.LeftRecursive:
		e = p.ruleBody(r, pos)
	default:
		if cached, ok := p.memo[key]; ok {
			return cached
		}
		e = p.ruleBody(r, pos)
		p.memo[key] = e
	}

	if p.trace {
		if e.ok {
			p.logger.Debugf("%v%v() succeeded at %v", strings.Repeat("  ", p.level-1), r.Name, p.toks[e.end])
		} else {
			p.logger.Debugf("%v%v() failed", strings.Repeat("  ", p.level-1), r.Name)
		}
	}
	return e
}

func (p *Parser) ruleBody(r *grammar.Rule, pos int) *memoEntry {
	children, end, ok := p.rhs(r.Rhs, pos)
	if !ok {
		return &memoEntry{end: pos}
	}
	tok := p.toks[pos]
	return &memoEntry{
		node: &Node{
			KindName: r.Name,
			Row:      tok.Row,
			Col:      tok.Col,
			Children: children,
		},
		end: end,
		ok:  true,
	}
}

func (p *Parser) rhs(rhs *grammar.Rhs, pos int) ([]*Node, int, bool) {
	for _, alt := range rhs.Alts {
		children, end, ok, cut := p.alt(alt, pos)
		if ok {
			return children, end, true
		}
		if cut {
			break
		}
	}
	return nil, pos, false
}

// alt matches an alternative. cut reports whether the alternative failed after passing its cut, in which case
// the remaining alternatives must not be tried.
func (p *Parser) alt(alt *grammar.Alt, pos int) (children []*Node, end int, ok bool, cut bool) {
	cur := pos
	for _, ni := range alt.Items {
		if _, isCut := ni.Item.(*grammar.Cut); isCut {
			cut = true
			continue
		}
		nodes, next, matched := p.item(ni.Item, cur)
		if !matched {
			return nil, pos, false, cut
		}
		children = append(children, nodes...)
		cur = next
	}
	return children, cur, true, cut
}

func (p *Parser) item(item grammar.Item, pos int) ([]*Node, int, bool) {
	switch n := item.(type) {
	case *grammar.NameLeaf:
		if r, ok := p.gen.Grammar.Rule(n.Value); ok {
			e := p.rule(r, pos)
			if !e.ok {
				return nil, pos, false
			}
			return []*Node{e.node}, e.end, true
		}
		return p.nameToken(n.Value, pos)
	case *grammar.StringLeaf:
		return p.literal(n, pos)
	case *grammar.Rhs:
		return p.rhs(n, pos)
	case *grammar.Group:
		return p.rhs(n.Rhs, pos)
	case *grammar.Opt:
		nodes, end, ok := p.item(n.Node, pos)
		if !ok {
			return nil, pos, true
		}
		return nodes, end, true
	case *grammar.Repeat0:
		return p.repeat(n.Node, pos, 0)
	case *grammar.Repeat1:
		return p.repeat(n.Node, pos, 1)
	case *grammar.Gather:
		first, cur, ok := p.item(n.Node, pos)
		if !ok {
			return nil, pos, false
		}
		children := first
		for {
			sep, afterSep, ok := p.item(n.Separator, cur)
			if !ok {
				break
			}
			elem, afterElem, ok := p.item(n.Node, afterSep)
			if !ok {
				break
			}
			children = append(children, sep...)
			children = append(children, elem...)
			cur = afterElem
		}
		return children, cur, true
	case *grammar.PositiveLookahead:
		_, _, ok := p.item(n.Node, pos)
		return nil, pos, ok
	case *grammar.NegativeLookahead:
		_, _, ok := p.item(n.Node, pos)
		return nil, pos, !ok
	case *grammar.Forced:
		nodes, end, ok := p.item(n.Node, pos)
		if !ok {
			panic(p.syntaxError(fmt.Sprintf("expected %v", n.Node), pos, nil))
		}
		return nodes, end, true
	}
	return nil, pos, false
}

func (p *Parser) repeat(node grammar.Item, pos int, min int) ([]*Node, int, bool) {
	var children []*Node
	count := 0
	cur := pos
	for {
		nodes, end, ok := p.item(node, cur)
		if !ok || end == cur {
			break
		}
		children = append(children, nodes...)
		cur = end
		count++
	}
	if count < min {
		return nil, pos, false
	}
	return children, cur, true
}

// nameToken matches a token type named in a grammar. SOFT_KEYWORD matches a NAME token spelling a soft keyword.
func (p *Parser) nameToken(name string, pos int) ([]*Node, int, bool) {
	tok := p.toks[pos]
	if name == grammar.SoftKeywordName {
		return p.match(pos, name, tok.Name == "NAME" && p.gen.IsSoftKeyword(tok.Text))
	}
	typ, ok := p.gen.Tokens.TypeOf(name)
	return p.match(pos, name, ok && tok.Type == typ && tok.Name == name)
}

func (p *Parser) literal(l *grammar.StringLeaf, pos int) ([]*Node, int, bool) {
	tok := p.toks[pos]
	lit := l.Literal()
	switch {
	case l.IsSoftKeyword():
		return p.match(pos, l.Value, tok.Name == "NAME" && tok.Text == lit)
	case l.IsKeyword():
		typ, ok := p.gen.KeywordType(lit)
		return p.match(pos, l.Value, ok && tok.Type == typ)
	default:
		typ, ok := p.gen.Tokens.Exact[lit]
		return p.match(pos, l.Value, ok && tok.Type == typ && tok.Text == lit)
	}
}

// match consumes the token at pos when it matched. Otherwise it records what was expected at the farthest
// position that any token failed to match.
func (p *Parser) match(pos int, expected string, matched bool) ([]*Node, int, bool) {
	if !matched {
		if pos > p.farthest {
			p.farthest = pos
			p.expected = map[string]struct{}{}
		}
		if pos == p.farthest {
			p.expected[expected] = struct{}{}
		}
		return nil, pos, false
	}

	tok := p.toks[pos]
	node := &Node{
		KindName: tok.Name,
		Text:     tok.Text,
		Row:      tok.Row,
		Col:      tok.Col,
	}
	end := pos + 1
	if end >= len(p.toks) {
		end = len(p.toks) - 1
	}
	return []*Node{node}, end, true
}
