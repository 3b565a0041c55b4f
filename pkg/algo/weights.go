package algo

import (
	"math"

	"github.com/sbrg/gds/pkg/graph"
)

// WeightFunc returns the cost (for path searches) or the transition weight
// (for PageRank) of an edge. Nil means every edge weighs 1.
type WeightFunc func(e graph.Edge) float64

// Unweighted weighs every edge 1.
func Unweighted(graph.Edge) float64 { return 1 }

func orUnit(w WeightFunc) WeightFunc {
	if w == nil {
		return Unweighted
	}
	return w
}

// PropertyWeight reads the weight from an edge property, falling back to def
// when the property is missing or not numeric.
func PropertyWeight(key string, def float64) WeightFunc {
	return func(e graph.Edge) float64 {
		if v, ok := e.Props.Float(key); ok {
			return v
		}
		return def
	}
}

// HubPenalty makes edges into highly connected nodes expensive:
// 1 + ln(in-degree of the target). Shortest paths then avoid routing
// through hubs such as water or ATP in metabolic networks.
func HubPenalty(g *graph.Graph) WeightFunc {
	return func(e graph.Edge) float64 {
		return 1 + math.Log(math.Max(1, float64(g.InDegree(e.To))))
	}
}
