package grammar

import "sort"

// firstEntry is a set of terminals. A terminal is either a token name such as NAME or a quoted literal.
type firstEntry struct {
	symbols map[string]struct{}
	empty   bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: map[string]struct{}{},
		empty:   false,
	}
}

func (e *firstEntry) add(sym string) bool {
	if _, ok := e.symbols[sym]; ok {
		return false
	}
	e.symbols[sym] = struct{}{}
	return true
}

func (e *firstEntry) addEmpty() bool {
	if !e.empty {
		e.empty = true
		return true
	}
	return false
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	if target == nil {
		return false
	}
	changed := false
	for sym := range target.symbols {
		added := e.add(sym)
		if added {
			changed = true
		}
	}
	return changed
}

func (e *firstEntry) remove(target *firstEntry) {
	for sym := range target.symbols {
		delete(e.symbols, sym)
	}
}

func (e *firstEntry) sorted() []string {
	syms := make([]string, 0, len(e.symbols))
	for sym := range e.symbols {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// FirstSets maps a rule name to the sorted terminals that can start it.
type FirstSets map[string][]string

type firstSetCalculator struct {
	g         *Grammar
	set       map[string]*firstEntry
	inProcess map[string]struct{}
}

// ComputeFirstSets computes the terminals each rule can start with. ComputeNullables must run first.
func ComputeFirstSets(g *Grammar) FirstSets {
	c := &firstSetCalculator{
		g:         g,
		set:       map[string]*firstEntry{},
		inProcess: map[string]struct{}{},
	}
	fst := FirstSets{}
	for _, r := range g.Rules {
		fst[r.Name] = c.rule(r).sorted()
	}
	return fst
}

func (c *firstSetCalculator) rule(r *Rule) *firstEntry {
	if _, ok := c.inProcess[r.Name]; ok {
		return newFirstEntry()
	}
	if e, ok := c.set[r.Name]; ok {
		return e
	}

	c.inProcess[r.Name] = struct{}{}
	e := c.item(r.Rhs)
	if r.Nullable {
		e.addEmpty()
	}
	c.set[r.Name] = e
	delete(c.inProcess, r.Name)

	return e
}

func (c *firstSetCalculator) alt(alt *Alt) *firstEntry {
	result := newFirstEntry()
	toRemove := newFirstEntry()
	for _, item := range alt.Items {
		e := c.item(item.Item)
		if _, ok := item.Item.(*NegativeLookahead); ok {
			toRemove.mergeExceptEmpty(e)
		}
		result.mergeExceptEmpty(e)
		result.remove(toRemove)

		// When an item can match the empty input, the next item can also start the alternative.
		if e.empty {
			continue
		}
		switch item.Item.(type) {
		case *Opt, *NegativeLookahead, *Repeat0:
			continue
		}
		break
	}
	return result
}

func (c *firstSetCalculator) item(item Item) *firstEntry {
	switch n := item.(type) {
	case *Rhs:
		e := newFirstEntry()
		for _, alt := range n.Alts {
			e.mergeExceptEmpty(c.alt(alt))
		}
		return e
	case *NameLeaf:
		r, ok := c.g.Rule(n.Value)
		if !ok {
			e := newFirstEntry()
			e.add(n.Value)
			return e
		}
		return c.rule(r)
	case *StringLeaf:
		e := newFirstEntry()
		e.add(n.Value)
		return e
	case *Group:
		return c.item(n.Rhs)
	case *Opt:
		return c.item(n.Node)
	case *Repeat0:
		return c.item(n.Node)
	case *Repeat1:
		return c.item(n.Node)
	case *Gather:
		return c.item(n.Node)
	case *PositiveLookahead:
		return c.item(n.Node)
	case *NegativeLookahead:
		return c.item(n.Node)
	case *Forced:
		return c.item(n.Node)
	}
	return newFirstEntry()
}
