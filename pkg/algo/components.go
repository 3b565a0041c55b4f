package algo

import (
	"fmt"
	"slices"

	"github.com/sbrg/gds/pkg/graph"
)

// Direction selects which edges a traversal follows.
type Direction int

const (
	// Out follows edges from source to target.
	Out Direction = iota
	// In follows edges backwards.
	In
	// Both ignores edge direction.
	Both
)

// ParseDirection converts "out", "in" or "both".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "out", "forward", "":
		return Out, nil
	case "in", "reverse":
		return In, nil
	case "both":
		return Both, nil
	}
	return Out, fmt.Errorf("invalid direction %q (must be one of: out, in, both)", s)
}

func neighbors(g *graph.Graph, id string, dir Direction) []string {
	switch dir {
	case In:
		return g.Predecessors(id)
	case Both:
		out := g.Successors(id)
		for _, p := range g.Predecessors(id) {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
		return out
	default:
		return g.Successors(id)
	}
}

// WeaklyConnectedComponents returns the node IDs of each weakly connected
// component, largest first. Ties keep the order in which components are
// first met while scanning nodes in insertion order.
func WeaklyConnectedComponents(g *graph.Graph) [][]string {
	seen := make(map[string]bool, g.NodeCount())
	var comps [][]string
	for _, start := range g.NodeIDs() {
		if seen[start] {
			continue
		}
		seen[start] = true
		comp := []string{start}
		for i := 0; i < len(comp); i++ {
			for _, next := range neighbors(g, comp[i], Both) {
				if !seen[next] {
					seen[next] = true
					comp = append(comp, next)
				}
			}
		}
		comps = append(comps, comp)
	}
	slices.SortStableFunc(comps, func(a, b []string) int { return len(b) - len(a) })
	return comps
}

// Neighborhood returns seeds plus every node within radius hops in the
// given direction, in breadth-first order. Unknown seeds are ignored;
// a negative radius means unbounded.
func Neighborhood(g *graph.Graph, seeds []string, radius int, dir Direction) []string {
	depth := make(map[string]int)
	var order []string
	for _, s := range seeds {
		if _, ok := depth[s]; ok || !g.HasNode(s) {
			continue
		}
		depth[s] = 0
		order = append(order, s)
	}
	for i := 0; i < len(order); i++ {
		id := order[i]
		if radius >= 0 && depth[id] >= radius {
			continue
		}
		for _, next := range neighbors(g, id, dir) {
			if _, ok := depth[next]; !ok {
				depth[next] = depth[id] + 1
				order = append(order, next)
			}
		}
	}
	return order
}
