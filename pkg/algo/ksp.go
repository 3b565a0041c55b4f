package algo

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/sbrg/gds/pkg/graph"
)

// KShortestPaths returns up to k loopless paths from s to t in order of
// increasing cost using Yen's algorithm. Parallel edges are collapsed to
// their cheapest member, so two returned paths always differ in their node
// sequence. Returns ErrNoPath when t is unreachable.
func KShortestPaths(g *graph.Graph, s, t string, k int, w WeightFunc) ([][]string, error) {
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	for _, id := range []string{s, t} {
		if !g.HasNode(id) {
			return nil, fmt.Errorf("%s: %w", id, graph.ErrNodeNotFound)
		}
	}
	w = orUnit(w)
	if err := checkWeights(g, w); err != nil {
		return nil, err
	}

	first := (&search{g: g, w: w}).shortest(s, t)
	if first == nil {
		return nil, fmt.Errorf("%s -> %s: %w", s, t, ErrNoPath)
	}
	accepted := [][]string{first}

	type candidate struct {
		path []string
		cost float64
	}
	var candidates []candidate
	known := map[string]bool{pathKey(first): true}

	for len(accepted) < k {
		last := accepted[len(accepted)-1]
		for i := 0; i < len(last)-1; i++ {
			spur := last[i]
			root := last[:i+1]

			sr := &search{
				g:            g,
				w:            w,
				blockedNodes: make(map[string]bool, i),
				blockedPairs: make(map[[2]string]bool),
			}
			for _, p := range accepted {
				if len(p) > i && slices.Equal(p[:i+1], root) {
					sr.blockedPairs[[2]string{p[i], p[i+1]}] = true
				}
			}
			for _, id := range root[:i] {
				sr.blockedNodes[id] = true
			}

			tail := sr.shortest(spur, t)
			if tail == nil {
				continue
			}
			full := append(slices.Clone(root[:i]), tail...)
			key := pathKey(full)
			if known[key] {
				continue
			}
			known[key] = true
			cost, err := PathCost(g, full, w)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, candidate{path: full, cost: cost})
		}
		if len(candidates) == 0 {
			break
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			if candidates[a].cost != candidates[b].cost {
				return candidates[a].cost < candidates[b].cost
			}
			return len(candidates[a].path) < len(candidates[b].path)
		})
		accepted = append(accepted, candidates[0].path)
		candidates = candidates[1:]
	}
	return accepted, nil
}

func pathKey(p []string) string { return strings.Join(p, "\x00") }
