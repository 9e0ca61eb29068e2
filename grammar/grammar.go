package grammar

import (
	"fmt"
	"strings"
)

// Position is a 1-based location in a grammar file.
type Position struct {
	Row int
	Col int
}

type Meta struct {
	Name  string
	Value string
	Pos   Position
}

type Grammar struct {
	Rules []*Rule
	Metas []*Meta

	rules map[string]*Rule
}

func NewGrammar(rules []*Rule, metas []*Meta) *Grammar {
	g := &Grammar{
		Rules: rules,
		Metas: metas,
		rules: make(map[string]*Rule, len(rules)),
	}
	for _, r := range rules {
		g.rules[r.Name] = r
	}
	return g
}

// Rule returns a rule by its name.
func (g *Grammar) Rule(name string) (*Rule, bool) {
	r, ok := g.rules[name]
	return r, ok
}

// AddRule registers a rule that was not part of the grammar file, such as a rule invented by a generator.
func (g *Grammar) AddRule(r *Rule) {
	g.Rules = append(g.Rules, r)
	g.rules[r.Name] = r
}

// Meta returns the value of a meta directive such as `@class`. The second result reports whether the directive exists.
func (g *Grammar) Meta(name string) (string, bool) {
	for _, m := range g.Metas {
		if m.Name == name {
			return m.Value, true
		}
	}
	return "", false
}

// StartRule returns the rule named `start`, or the first rule when the grammar doesn't define it.
func (g *Grammar) StartRule() *Rule {
	if r, ok := g.rules["start"]; ok {
		return r
	}
	if len(g.Rules) == 0 {
		return nil
	}
	return g.Rules[0]
}

func (g *Grammar) String() string {
	var b strings.Builder
	for _, m := range g.Metas {
		fmt.Fprintf(&b, "%v\n", m)
	}
	for _, r := range g.Rules {
		fmt.Fprintf(&b, "%v\n", r)
	}
	return b.String()
}

func (m *Meta) String() string {
	if m.Value == "" {
		return "@" + m.Name
	}
	return fmt.Sprintf("@%v %q", m.Name, m.Value)
}

type Rule struct {
	Name string
	Type string
	Rhs  *Rhs
	Memo bool
	Pos  Position

	Nullable      bool
	LeftRecursive bool
	Leader        bool
}

// IsLoop reports whether a rule is an artificial `_loop0_N` or `_loop1_N` rule.
func (r *Rule) IsLoop() bool {
	return strings.HasPrefix(r.Name, "_loop")
}

// IsGather reports whether a rule is an artificial `_gather_N` rule.
func (r *Rule) IsGather() bool {
	return strings.HasPrefix(r.Name, "_gather")
}

const maxRuleLineWidth = 88

func (r *Rule) String() string {
	var head string
	if r.Type == "" {
		head = r.Name
	} else {
		head = fmt.Sprintf("%v[%v]", r.Name, r.Type)
	}
	if r.Memo {
		head += " (memo)"
	}

	line := fmt.Sprintf("%v: %v", head, r.Rhs)
	if len(line) <= maxRuleLineWidth {
		return line
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%v:", head)
	for _, alt := range r.Rhs.Alts {
		fmt.Fprintf(&b, "\n    | %v", alt)
	}
	return b.String()
}

// Item is an element of an alternative.
type Item interface {
	fmt.Stringer
	isItem()
}

type Rhs struct {
	Alts []*Alt
}

func (*Rhs) isItem() {}

func (r *Rhs) String() string {
	var b strings.Builder
	for i, alt := range r.Alts {
		if i > 0 {
			fmt.Fprintf(&b, " | ")
		}
		fmt.Fprintf(&b, "%v", alt)
	}
	return b.String()
}

type Alt struct {
	Items  []*NamedItem
	Action string

	// Icut is the index of the cut item, or -1 when the alternative has no cut.
	Icut int
}

func (a *Alt) String() string {
	var b strings.Builder
	for i, item := range a.Items {
		if i > 0 {
			fmt.Fprintf(&b, " ")
		}
		fmt.Fprintf(&b, "%v", item)
	}
	if a.Action != "" {
		fmt.Fprintf(&b, " { %v }", a.Action)
	}
	return b.String()
}

type NamedItem struct {
	Name string
	Type string
	Item Item
}

func (n *NamedItem) String() string {
	if n.Name == "" {
		return n.Item.String()
	}
	if n.Type != "" {
		return fmt.Sprintf("%v[%v]=%v", n.Name, n.Type, n.Item)
	}
	return fmt.Sprintf("%v=%v", n.Name, n.Item)
}

// NameLeaf refers to a rule or a token type.
type NameLeaf struct {
	Value string
}

func (*NameLeaf) isItem() {}

func (l *NameLeaf) String() string {
	if l.Value == "ENDMARKER" {
		return "$"
	}
	return l.Value
}

// StringLeaf is a quoted literal. Value keeps the quotes because they decide between hard and soft keywords.
type StringLeaf struct {
	Value string
}

func (*StringLeaf) isItem() {}

func (l *StringLeaf) String() string {
	return l.Value
}

// Literal returns the literal without quotes.
func (l *StringLeaf) Literal() string {
	return unquote(l.Value)
}

// IsKeyword reports whether the literal looks like an identifier. Such literals are keywords rather than operators.
func (l *StringLeaf) IsKeyword() bool {
	return isIdentifier(l.Literal())
}

// IsSoftKeyword reports whether the literal is a keyword written in double quotes.
func (l *StringLeaf) IsSoftKeyword() bool {
	return l.IsKeyword() && strings.HasPrefix(l.Value, `"`)
}

type Group struct {
	Rhs *Rhs
}

func (*Group) isItem() {}

func (g *Group) String() string {
	return fmt.Sprintf("(%v)", g.Rhs)
}

type Opt struct {
	Node Item
}

func (*Opt) isItem() {}

func (o *Opt) String() string {
	s := o.Node.String()
	if _, ok := o.Node.(*Group); ok {
		return s + "?"
	}
	if strings.Contains(s, " ") {
		return fmt.Sprintf("[%v]", s)
	}
	return s + "?"
}

type Repeat0 struct {
	Node Item
}

func (*Repeat0) isItem() {}

func (r *Repeat0) String() string {
	return repeatString(r.Node, "*")
}

type Repeat1 struct {
	Node Item
}

func (*Repeat1) isItem() {}

func (r *Repeat1) String() string {
	return repeatString(r.Node, "+")
}

type Gather struct {
	Separator Item
	Node      Item
}

func (*Gather) isItem() {}

func (g *Gather) String() string {
	return fmt.Sprintf("%v.%v", g.Separator, repeatString(g.Node, "+"))
}

func repeatString(node Item, op string) string {
	s := node.String()
	if _, ok := node.(*Group); ok {
		return s + op
	}
	if strings.Contains(s, " ") {
		return fmt.Sprintf("(%v)%v", s, op)
	}
	return s + op
}

type PositiveLookahead struct {
	Node Item
}

func (*PositiveLookahead) isItem() {}

func (l *PositiveLookahead) String() string {
	return "&" + l.Node.String()
}

type NegativeLookahead struct {
	Node Item
}

func (*NegativeLookahead) isItem() {}

func (l *NegativeLookahead) String() string {
	return "!" + l.Node.String()
}

// Forced is an item that must match once the parser reaches it; a failure is a syntax error rather than a backtrack.
type Forced struct {
	Node Item
}

func (*Forced) isItem() {}

func (f *Forced) String() string {
	return "&&" + f.Node.String()
}

type Cut struct{}

func (*Cut) isItem() {}

func (*Cut) String() string {
	return "~"
}

func unquote(s string) string {
	switch {
	case strings.HasPrefix(s, `"""`) || strings.HasPrefix(s, `'''`):
		if len(s) >= 6 {
			return s[3 : len(s)-3]
		}
	case strings.HasPrefix(s, `"`) || strings.HasPrefix(s, `'`):
		if len(s) >= 2 {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Unquote strips the quotes of a string literal written in a grammar file.
func Unquote(s string) string {
	return unquote(s)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z'):
		case i > 0 && '0' <= c && c <= '9':
		default:
			return false
		}
	}
	return true
}
