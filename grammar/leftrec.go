package grammar

import (
	"sort"
	"strings"

	verr "github.com/nihei9/jpegen/error"
)

// FirstGraph maps a rule name to the rules it may call at its starting position.
type FirstGraph map[string][]string

// LeftRecursion is the result of the left-recursion analysis.
type LeftRecursion struct {
	Graph FirstGraph

	// SCCs holds the strongly connected components of Graph in reverse topological order. Names in a component
	// are sorted.
	SCCs [][]string
}

// ComputeLeftRecursives marks left-recursive rules and elects a leader for every cycle. A leader is the rule
// that grows its result while the other rules in the cycle are called through it. ComputeNullables must run
// first.
func ComputeLeftRecursives(g *Grammar) (*LeftRecursion, error) {
	graph := makeFirstGraph(g)
	sccs := stronglyConnectedComponents(g, graph)
	for _, scc := range sccs {
		if len(scc) > 1 {
			for _, name := range scc {
				r, _ := g.Rule(name)
				r.LeftRecursive = true
			}

			leaders := map[string]struct{}{}
			for _, name := range scc {
				leaders[name] = struct{}{}
			}
			for _, start := range scc {
				for _, cycle := range findCyclesInSCC(graph, scc, start) {
					inCycle := map[string]struct{}{}
					for _, name := range cycle {
						inCycle[name] = struct{}{}
					}
					for _, name := range scc {
						if _, ok := inCycle[name]; !ok {
							delete(leaders, name)
						}
					}
				}
			}
			if len(leaders) == 0 {
				r, _ := g.Rule(scc[0])
				return nil, &verr.SpecError{
					Cause:  semErrNoLeader,
					Detail: strings.Join(scc, ", "),
					Row:    r.Pos.Row,
				}
			}

			var leader string
			for name := range leaders {
				if leader == "" || name < leader {
					leader = name
				}
			}
			r, _ := g.Rule(leader)
			r.Leader = true

			continue
		}

		name := scc[0]
		for _, callee := range graph[name] {
			if callee == name {
				r, _ := g.Rule(name)
				r.LeftRecursive = true
				r.Leader = true
				break
			}
		}
	}

	return &LeftRecursion{
		Graph: graph,
		SCCs:  sccs,
	}, nil
}

func makeFirstGraph(g *Grammar) FirstGraph {
	graph := FirstGraph{}
	for _, r := range g.Rules {
		callees := []string{}
		for name := range g.InitialNames(r) {
			if _, ok := g.Rule(name); ok {
				callees = append(callees, name)
			}
		}
		sort.Strings(callees)
		graph[r.Name] = callees
	}
	return graph
}

// stronglyConnectedComponents implements Tarjan's algorithm. Rules are visited in definition order so the result
// is stable.
func stronglyConnectedComponents(g *Grammar, graph FirstGraph) [][]string {
	index := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	stack := []string{}
	sccs := [][]string{}

	var connect func(v string)
	connect = func(v string) {
		index[v] = len(index)
		lowlink[v] = index[v]
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := index[w]; !visited {
				connect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && index[w] < lowlink[v] {
				lowlink[v] = index[w]
			}
		}

		if lowlink[v] != index[v] {
			return
		}
		scc := []string{}
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		sort.Strings(scc)
		sccs = append(sccs, scc)
	}

	for _, r := range g.Rules {
		if _, visited := index[r.Name]; !visited {
			connect(r.Name)
		}
	}

	return sccs
}

// findCyclesInSCC enumerates the paths from start that revisit a node, staying within the component.
func findCyclesInSCC(graph FirstGraph, scc []string, start string) [][]string {
	inSCC := map[string]struct{}{}
	for _, name := range scc {
		inSCC[name] = struct{}{}
	}

	var cycles [][]string
	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		for _, p := range path {
			if p == node {
				cycle := make([]string, len(path), len(path)+1)
				copy(cycle, path)
				cycles = append(cycles, append(cycle, node))
				return
			}
		}
		path = append(path[:len(path):len(path)], node)
		for _, child := range graph[node] {
			if _, ok := inSCC[child]; !ok {
				continue
			}
			dfs(child, path)
		}
	}
	dfs(start, nil)

	return cycles
}
