package grammar

// Inspect traverses an item in depth-first order. It calls f for the item and, while f returns true, for each
// item nested in it.
func Inspect(item Item, f func(Item) bool) {
	if item == nil || !f(item) {
		return
	}

	switch n := item.(type) {
	case *Rhs:
		for _, alt := range n.Alts {
			for _, it := range alt.Items {
				Inspect(it.Item, f)
			}
		}
	case *Group:
		Inspect(n.Rhs, f)
	case *Opt:
		Inspect(n.Node, f)
	case *Repeat0:
		Inspect(n.Node, f)
	case *Repeat1:
		Inspect(n.Node, f)
	case *Gather:
		Inspect(n.Separator, f)
		Inspect(n.Node, f)
	case *PositiveLookahead:
		Inspect(n.Node, f)
	case *NegativeLookahead:
		Inspect(n.Node, f)
	case *Forced:
		Inspect(n.Node, f)
	}
}

// InspectGrammar runs Inspect over the right-hand side of every rule in definition order.
func InspectGrammar(g *Grammar, f func(r *Rule, item Item) bool) {
	for _, r := range g.Rules {
		Inspect(r.Rhs, func(item Item) bool {
			return f(r, item)
		})
	}
}
