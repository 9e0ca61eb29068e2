package grammar

// ComputeNullables marks every rule that can succeed without consuming a token. Rules may refer to each other
// in cycles, so the marks are propagated until nothing changes.
func ComputeNullables(g *Grammar) {
	for {
		changed := false
		for _, r := range g.Rules {
			if r.Nullable {
				continue
			}
			if isNullable(g, r.Rhs) {
				r.Nullable = true
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// IsNullable reports whether an item can match the empty input. It relies on the marks set by ComputeNullables.
func IsNullable(g *Grammar, item Item) bool {
	return isNullable(g, item)
}

func isNullable(g *Grammar, item Item) bool {
	switch n := item.(type) {
	case *Rhs:
		for _, alt := range n.Alts {
			if isAltNullable(g, alt) {
				return true
			}
		}
		return false
	case *NameLeaf:
		r, ok := g.Rule(n.Value)
		if !ok {
			// Tokens always consume input.
			return false
		}
		return r.Nullable
	case *StringLeaf:
		return n.Literal() == ""
	case *Group:
		return isNullable(g, n.Rhs)
	case *Opt, *Repeat0, *PositiveLookahead, *NegativeLookahead, *Cut:
		return true
	case *Repeat1:
		return isNullable(g, n.Node)
	case *Gather:
		return isNullable(g, n.Node)
	case *Forced:
		return isNullable(g, n.Node)
	}
	return false
}

func isAltNullable(g *Grammar, alt *Alt) bool {
	for _, item := range alt.Items {
		if !isNullable(g, item.Item) {
			return false
		}
	}
	return true
}

func collectInitialNames(g *Grammar, item Item, names map[string]struct{}) {
	switch n := item.(type) {
	case *Rhs:
		for _, alt := range n.Alts {
			for _, it := range alt.Items {
				collectInitialNames(g, it.Item, names)
				if !isNullable(g, it.Item) {
					break
				}
			}
		}
	case *NameLeaf:
		names[n.Value] = struct{}{}
	case *Group:
		collectInitialNames(g, n.Rhs, names)
	case *Opt:
		collectInitialNames(g, n.Node, names)
	case *Repeat0:
		collectInitialNames(g, n.Node, names)
	case *Repeat1:
		collectInitialNames(g, n.Node, names)
	case *Gather:
		collectInitialNames(g, n.Node, names)
	case *PositiveLookahead:
		collectInitialNames(g, n.Node, names)
	case *NegativeLookahead:
		collectInitialNames(g, n.Node, names)
	case *Forced:
		collectInitialNames(g, n.Node, names)
	}
}

// InitialNames returns the names a rule may call before it consumes a token. Nullable items are looked past, so
// ComputeNullables must run first.
func (g *Grammar) InitialNames(r *Rule) map[string]struct{} {
	names := map[string]struct{}{}
	collectInitialNames(g, r.Rhs, names)
	return names
}
