package java

import (
	"fmt"
	"strings"

	verr "github.com/nihei9/jpegen/error"
	"github.com/nihei9/jpegen/generator"
	"github.com/nihei9/jpegen/grammar"
)

type callKind int

const (
	// callValue succeeds when the expression isn't null.
	callValue callKind = iota

	// callOptional always succeeds.
	callOptional

	// callCondition is a boolean expression.
	callCondition

	// callCut sets the cut flag of an alternative.
	callCut
)

// call is the Java code matching one item.
type call struct {
	variable string
	typ      string
	expr     string
	comment  string
	kind     callKind
}

// condition renders the call as an operand of the `&&` chain of an alternative.
func (c *call) condition() string {
	var cond string
	switch c.kind {
	case callOptional:
		cond = fmt.Sprintf("((%v = %v) != null || true)", c.variable, c.expr)
	case callCondition:
		cond = c.expr
	case callCut:
		cond = "(_cut_var = true)"
	default:
		cond = fmt.Sprintf("(%v = %v) != null", c.variable, c.expr)
	}
	if c.comment != "" {
		cond = fmt.Sprintf("%v  // %v", cond, comment(c.comment))
	}
	return cond
}

// callMaker turns items into calls of the runtime parser or of rule methods. Calls are cached by the text of
// their item so that equal items share artificial rules.
type callMaker struct {
	gen   *generator.Generator
	cache map[string]*call
	types map[string]string
	skip  bool
}

func newCallMaker(gen *generator.Generator, skipActions bool) *callMaker {
	return &callMaker{
		gen:   gen,
		cache: map[string]*call{},
		types: map[string]string{},
		skip:  skipActions,
	}
}

func (m *callMaker) namedItem(ni *grammar.NamedItem) (*call, error) {
	c, err := m.item(ni.Item)
	if err != nil {
		return nil, err
	}
	cc := *c
	if ni.Name != "" && cc.kind != callCondition && cc.kind != callCut {
		cc.variable = identifier(ni.Name)
		if ni.Type != "" {
			cc.typ = referenceType(ni.Type)
		}
	}
	return &cc, nil
}

func (m *callMaker) item(item grammar.Item) (*call, error) {
	key := fmt.Sprintf("%T:%v", item, item)
	if c, ok := m.cache[key]; ok {
		return c, nil
	}
	c, err := m.makeCall(item)
	if err != nil {
		return nil, err
	}
	m.cache[key] = c
	return c, nil
}

func (m *callMaker) makeCall(item grammar.Item) (*call, error) {
	switch n := item.(type) {
	case *grammar.NameLeaf:
		return m.nameLeaf(n)
	case *grammar.StringLeaf:
		return m.stringLeaf(n)
	case *grammar.Rhs:
		if canBeInlined(n) {
			return m.item(n.Alts[0].Items[0].Item)
		}
		return m.artificialCall(m.gen.ArtificialRuleFromRhs(n), item)
	case *grammar.Group:
		return m.item(n.Rhs)
	case *grammar.Opt:
		c, err := m.item(n.Node)
		if err != nil {
			return nil, err
		}
		if c.kind != callValue {
			return c, nil
		}
		return &call{
			variable: "_opt_var",
			typ:      c.typ,
			expr:     c.expr,
			comment:  item.String(),
			kind:     callOptional,
		}, nil
	case *grammar.Repeat0:
		return m.artificialCall(m.gen.ArtificialRuleFromRepeat(n.Node, false), item)
	case *grammar.Repeat1:
		return m.artificialCall(m.gen.ArtificialRuleFromRepeat(n.Node, true), item)
	case *grammar.Gather:
		return m.artificialCall(m.gen.ArtificialRuleFromGather(n), item)
	case *grammar.PositiveLookahead:
		return m.lookahead(n.Node, "positiveLookahead")
	case *grammar.NegativeLookahead:
		return m.lookahead(n.Node, "negativeLookahead")
	case *grammar.Forced:
		return m.forced(n)
	case *grammar.Cut:
		return &call{
			kind: callCut,
		}, nil
	}
	return nil, fmt.Errorf("unexpected item: %v", item)
}

// canBeInlined reports whether a right-hand side is a single item that needs no rule of its own.
func canBeInlined(rhs *grammar.Rhs) bool {
	if len(rhs.Alts) != 1 {
		return false
	}
	alt := rhs.Alts[0]
	return len(alt.Items) == 1 && alt.Action == "" && alt.Items[0].Name == ""
}

var baseTokenMethods = map[string]string{
	"NAME":                   "nameToken",
	"NUMBER":                 "numberToken",
	"STRING":                 "stringToken",
	grammar.SoftKeywordName: "softKeywordToken",
}

func (m *callMaker) nameLeaf(n *grammar.NameLeaf) (*call, error) {
	if _, ok := m.gen.Grammar.Rule(n.Value); ok {
		return m.ruleCall(n.Value)
	}

	variable := strings.ToLower(n.Value) + "_var"
	if method, ok := baseTokenMethods[n.Value]; ok {
		return &call{
			variable: variable,
			typ:      "Token",
			expr:     method + "()",
			comment:  n.Value,
		}, nil
	}
	return &call{
		variable: variable,
		typ:      "Token",
		expr:     fmt.Sprintf("expect(%v)", n.Value),
		comment:  "token=" + n.Value,
	}, nil
}

func (m *callMaker) stringLeaf(n *grammar.StringLeaf) (*call, error) {
	lit := n.Literal()
	if n.IsKeyword() {
		if n.IsSoftKeyword() {
			return &call{
				variable: "_keyword",
				typ:      "Token",
				expr:     fmt.Sprintf("expectSoftKeyword(%v)", quote(lit)),
				comment:  "soft_keyword=" + n.Value,
			}, nil
		}
		kwType, ok := m.gen.KeywordType(lit)
		if !ok {
			return nil, &verr.SpecError{
				Cause:  generator.ErrUnknownLiteral,
				Detail: n.Value,
			}
		}
		return &call{
			variable: "_keyword",
			typ:      "Token",
			expr:     fmt.Sprintf("expectKeyword(%v)", kwType),
			comment:  "keyword=" + n.Value,
		}, nil
	}

	num, ok := m.gen.Tokens.Exact[lit]
	if !ok {
		return nil, &verr.SpecError{
			Cause:  generator.ErrUnknownLiteral,
			Detail: n.Value,
		}
	}
	return &call{
		variable: "_literal",
		typ:      "Token",
		expr:     fmt.Sprintf("expect(%v)", m.gen.Tokens.All[num]),
		comment:  "token=" + n.Value,
	}, nil
}

func (m *callMaker) ruleCall(name string) (*call, error) {
	r, _ := m.gen.Grammar.Rule(name)
	typ, err := m.ruleType(r)
	if err != nil {
		return nil, err
	}
	return &call{
		variable: name + "_var",
		typ:      typ,
		expr:     identifier(name) + "()",
		comment:  name,
	}, nil
}

// artificialCall calls a rule invented for item. The comment shows the item rather than the invented name.
func (m *callMaker) artificialCall(name string, item grammar.Item) (*call, error) {
	c, err := m.ruleCall(name)
	if err != nil {
		return nil, err
	}
	c.comment = item.String()
	return c, nil
}

func (m *callMaker) lookahead(node grammar.Item, method string) (*call, error) {
	c, err := m.item(node)
	if err != nil {
		return nil, err
	}
	return &call{
		expr:    fmt.Sprintf("%v(() -> %v)", method, c.expr),
		comment: c.comment,
		kind:    callCondition,
	}, nil
}

func (m *callMaker) forced(n *grammar.Forced) (*call, error) {
	if l, ok := n.Node.(*grammar.StringLeaf); ok && !l.IsKeyword() {
		num, ok := m.gen.Tokens.Exact[l.Literal()]
		if !ok {
			return nil, &verr.SpecError{
				Cause:  generator.ErrUnknownLiteral,
				Detail: l.Value,
			}
		}
		return &call{
			variable: "_literal",
			typ:      "Token",
			expr:     fmt.Sprintf("expectForced(%v, %v)", m.gen.Tokens.All[num], quote(l.Value)),
			comment:  "forced_token=" + l.Value,
		}, nil
	}

	c, err := m.item(n.Node)
	if err != nil {
		return nil, err
	}
	return &call{
		variable: c.variable,
		typ:      c.typ,
		expr:     fmt.Sprintf("expectForcedResult(%v, %v)", c.expr, quote(n.Node.String())),
		comment:  "forced=" + n.Node.String(),
	}, nil
}

// ruleType returns the Java type a rule method returns. Loops and gathers return lists of their elements.
func (m *callMaker) ruleType(r *grammar.Rule) (string, error) {
	if t, ok := m.types[r.Name]; ok {
		return t, nil
	}

	var typ string
	switch {
	case r.Type != "":
		typ = referenceType(r.Type)
	case r.IsLoop():
		elem, err := m.loopElemType(r)
		if err != nil {
			return "", err
		}
		typ = fmt.Sprintf("List<%v>", elem)
	case r.IsGather():
		elem := "Object"
		if !m.skip {
			c, err := m.namedItem(r.Rhs.Alts[0].Items[0])
			if err != nil {
				return "", err
			}
			elem = c.typ
		}
		typ = fmt.Sprintf("List<%v>", elem)
	default:
		typ = "Object"
	}

	m.types[r.Name] = typ
	return typ, nil
}

func (m *callMaker) loopElemType(r *grammar.Rule) (string, error) {
	if m.skip || len(r.Rhs.Alts) != 1 {
		return "Object", nil
	}
	alt := r.Rhs.Alts[0]
	var vars []*call
	for _, ni := range alt.Items {
		c, err := m.namedItem(ni)
		if err != nil {
			return "", err
		}
		if c.kind == callValue || c.kind == callOptional {
			vars = append(vars, c)
		}
	}
	if alt.Action == "" && len(vars) == 1 {
		return vars[0].typ, nil
	}
	for _, v := range vars {
		if alt.Action == v.variable {
			return v.typ, nil
		}
	}
	return "Object", nil
}
