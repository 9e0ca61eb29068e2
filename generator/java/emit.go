package java

import (
	"fmt"
	"strings"

	"github.com/nihei9/jpegen/generator"
	"github.com/nihei9/jpegen/grammar"
)

const extraPositions = "_start_lineno, _start_col_offset, _end_lineno, _end_col_offset"

type printer struct {
	b     strings.Builder
	level int
}

func (p *printer) print(format string, a ...interface{}) {
	if format == "" {
		p.b.WriteString("\n")
		return
	}
	p.b.WriteString(strings.Repeat("    ", p.level))
	fmt.Fprintf(&p.b, format, a...)
	p.b.WriteString("\n")
}

func (p *printer) indent(f func() error) error {
	p.level++
	defer func() {
		p.level--
	}()
	return f()
}

func (p *printer) String() string {
	return p.b.String()
}

func usesExtra(r *grammar.Rule) bool {
	for _, alt := range r.Rhs.Alts {
		if strings.Contains(alt.Action, "EXTRA") {
			return true
		}
	}
	return false
}

// genRule emits the methods of a rule. A memoized rule or a left-recursion leader gets a public method that
// delegates to the runtime's memo table and a `_raw` method holding the alternatives.
func (pg *ParserGenerator) genRule(p *printer, r *grammar.Rule) error {
	typ, err := pg.calls.ruleType(r)
	if err != nil {
		return err
	}
	method := identifier(r.Name)
	visibility := "public"
	if strings.HasPrefix(r.Name, "_") {
		visibility = "private"
	}

	p.print("// %v", comment(pg.ruleText(r)))
	if r.LeftRecursive {
		p.print("// Left-recursive")
	}

	if isMemoized(r) {
		memo := "memoize"
		if r.Leader {
			memo = "memoizeLeftRec"
		}
		p.print("%v %v %v() {", visibility, typ, method)
		p.indent(func() error {
			p.print("return %v(%v, this::%v_raw);", memo, memoKey(r.Name), method)
			return nil
		})
		p.print("}")
		p.print("")
		p.print("private %v %v_raw() {", typ, method)
	} else {
		p.print("%v %v %v() {", visibility, typ, method)
	}
	err = p.indent(func() error {
		if r.IsLoop() {
			return pg.genLoopBody(p, r, typ)
		}
		return pg.genRuleBody(p, r, typ)
	})
	if err != nil {
		return err
	}
	p.print("}")

	return nil
}

func (pg *ParserGenerator) genRuleBody(p *printer, r *grammar.Rule, typ string) error {
	p.print("int _mark = mark();")
	if !pg.skipActions && usesExtra(r) {
		p.print("Token _startToken = peekToken();")
		p.print("int _start_lineno = _startToken.getLineno();")
		p.print("int _start_col_offset = _startToken.getColOffset();")
	}
	for _, alt := range r.Rhs.Alts {
		err := pg.genAlt(p, r, alt, typ, false)
		if err != nil {
			return err
		}
	}
	p.print("return null;")
	return nil
}

func (pg *ParserGenerator) genLoopBody(p *printer, r *grammar.Rule, typ string) error {
	p.print("int _mark = mark();")
	p.print("%v _children = new ArrayList<>();", typ)
	for _, alt := range r.Rhs.Alts {
		err := pg.genAlt(p, r, alt, typ, true)
		if err != nil {
			return err
		}
	}
	if strings.HasPrefix(r.Name, "_loop1") {
		p.print("if (_children.isEmpty()) {")
		p.indent(func() error {
			p.print("return null;")
			return nil
		})
		p.print("}")
	}
	p.print("return _children;")
	return nil
}

// genAlt emits one alternative as a block. Outside loops the block returns its result when every item
// matches. Inside loops it collects results while the items keep matching.
func (pg *ParserGenerator) genAlt(p *printer, r *grammar.Rule, alt *grammar.Alt, typ string, loop bool) error {
	locals := generator.NewLocals()
	var calls []*call
	for _, ni := range alt.Items {
		c, err := pg.calls.namedItem(ni)
		if err != nil {
			return err
		}
		if c.kind == callValue || c.kind == callOptional {
			cc := *c
			cc.variable = locals.Dedupe(c.variable)
			c = &cc
		}
		calls = append(calls, c)
	}

	p.print("{ // %v", comment(pg.altText(alt)))
	err := p.indent(func() error {
		var vars []*call
		for _, c := range calls {
			if c.kind != callValue && c.kind != callOptional {
				continue
			}
			vars = append(vars, c)
			p.print("%v %v = null;", c.typ, c.variable)
		}
		if alt.Icut >= 0 {
			p.print("boolean _cut_var = false;")
		}

		keyword := "if"
		if loop {
			keyword = "while"
		}
		p.print("%v (", keyword)
		p.indent(func() error {
			for i, c := range calls {
				if i > 0 {
					p.print("&&")
				}
				p.print("%v", c.condition())
			}
			return nil
		})
		p.print(") {")
		p.indent(func() error {
			result := pg.result(r, alt, vars, typ, loop)
			if !pg.skipActions && strings.Contains(alt.Action, "EXTRA") {
				p.print("Token _endToken = lastToken();")
				p.print("int _end_lineno = _endToken.getEndLineno();")
				p.print("int _end_col_offset = _endToken.getEndColOffset();")
			}
			if loop {
				p.print("_children.add(%v);", result)
				p.print("_mark = mark();")
			} else {
				p.print("return %v;", result)
			}
			return nil
		})
		p.print("}")
		p.print("reset(_mark);")
		if alt.Icut >= 0 && !loop {
			p.print("if (_cut_var) {")
			p.indent(func() error {
				p.print("return null;")
				return nil
			})
			p.print("}")
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.print("}")

	return nil
}

// ruleText renders a rule for a comment. Actions are left out when they are skipped.
func (pg *ParserGenerator) ruleText(r *grammar.Rule) string {
	if !pg.skipActions {
		return r.String()
	}
	rr := *r
	rr.Rhs = &grammar.Rhs{}
	for _, alt := range r.Rhs.Alts {
		a := *alt
		a.Action = ""
		rr.Rhs.Alts = append(rr.Rhs.Alts, &a)
	}
	return rr.String()
}

func (pg *ParserGenerator) altText(alt *grammar.Alt) string {
	if !pg.skipActions {
		return alt.String()
	}
	a := *alt
	a.Action = ""
	return a.String()
}

// result returns the Java expression an alternative evaluates to.
func (pg *ParserGenerator) result(r *grammar.Rule, alt *grammar.Alt, vars []*call, typ string, loop bool) string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.variable
	}
	dummy := fmt.Sprintf("dummyName(%v)", strings.Join(names, ", "))

	var res string
	var resType string
	switch {
	case pg.skipActions:
		res, resType = dummy, "Object"
	case alt.Action != "":
		return strings.ReplaceAll(alt.Action, "EXTRA", extraPositions)
	case r.IsGather() && len(vars) == 2:
		return fmt.Sprintf("insertInFront(%v, %v)", vars[0].variable, vars[1].variable)
	case len(vars) == 1:
		res, resType = vars[0].variable, vars[0].typ
	default:
		res, resType = dummy, "Object"
	}

	// A loop collects its elements into a list typed after them, so only rule results need a cast.
	if loop || typ == "Object" || typ == resType {
		return res
	}
	return fmt.Sprintf("(%v) %v", typ, res)
}
