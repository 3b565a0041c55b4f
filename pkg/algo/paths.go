package algo

import (
	"fmt"

	"github.com/sbrg/gds/pkg/graph"
)

// PathEdges expands a node path into the indices of every edge between
// consecutive nodes, including parallel edges, in path order.
func PathEdges(g *graph.Graph, path []string) ([]int, error) {
	var idx []int
	for i := 0; i+1 < len(path); i++ {
		between := g.EdgesBetween(path[i], path[i+1])
		if len(between) == 0 {
			return nil, fmt.Errorf("%s -> %s: %w", path[i], path[i+1], ErrNoEdge)
		}
		idx = append(idx, between...)
	}
	return idx, nil
}
