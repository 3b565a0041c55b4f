package algo

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/sbrg/gds/pkg/graph"
)

// PageRank defaults, matching networkx.
const (
	DefaultAlpha   = 0.85
	DefaultMaxIter = 100
	DefaultTol     = 1e-6
)

// PageRankOptions configures [PageRank]. Zero values select the defaults.
type PageRankOptions struct {
	// Alpha is the damping factor, in (0, 1].
	Alpha float64
	// MaxIter bounds the number of power iterations.
	MaxIter int
	// Tol is the per-node convergence tolerance; iteration stops when the
	// L1 change drops below N*Tol.
	Tol float64
	// Personalization biases the teleport (and dangling) distribution.
	// Keys are node IDs; values need not sum to 1. Nil means uniform.
	Personalization map[string]float64
	// Weight gives edge transition weights. Parallel edges add up.
	Weight WeightFunc
}

func (o *PageRankOptions) setDefaults() error {
	if o.Alpha == 0 {
		o.Alpha = DefaultAlpha
	}
	if o.MaxIter == 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Tol == 0 {
		o.Tol = DefaultTol
	}
	if o.Alpha <= 0 || o.Alpha > 1 {
		return fmt.Errorf("alpha must be in (0, 1], got %v", o.Alpha)
	}
	if o.MaxIter < 0 || o.Tol < 0 {
		return fmt.Errorf("max_iter and tol must be non-negative")
	}
	return nil
}

// PageRank computes (personalized) PageRank by power iteration.
//
// Dangling nodes (no outgoing weight) redistribute their rank according to
// the personalization vector, as networkx does by default. Returns
// ErrNoConvergence if MaxIter iterations are not enough, and
// ErrBadPersonalization if the personalization vector has no positive mass
// on nodes of g. An empty graph yields an empty map.
func PageRank(ctx context.Context, g *graph.Graph, opts PageRankOptions) (map[string]float64, error) {
	if err := opts.setDefaults(); err != nil {
		return nil, err
	}
	ids := g.NodeIDs()
	n := len(ids)
	if n == 0 {
		return map[string]float64{}, nil
	}
	index := make(map[string]int, n)
	for i, id := range ids {
		index[id] = i
	}

	p := make([]float64, n)
	if opts.Personalization == nil {
		for i := range p {
			p[i] = 1
		}
	} else {
		for id, v := range opts.Personalization {
			if i, ok := index[id]; ok && v > 0 {
				p[i] = v
			}
		}
	}
	sum := floats.Sum(p)
	if sum <= 0 {
		return nil, ErrBadPersonalization
	}
	floats.Scale(1/sum, p)

	// Row-stochastic transitions as (target, probability) lists.
	w := orUnit(opts.Weight)
	type step struct {
		to int
		p  float64
	}
	trans := make([][]step, n)
	var dangling []int
	for i, id := range ids {
		var total float64
		for _, idx := range g.OutEdges(id) {
			total += w(g.Edge(idx))
		}
		if total <= 0 {
			dangling = append(dangling, i)
			continue
		}
		for _, idx := range g.OutEdges(id) {
			e := g.Edge(idx)
			if wt := w(e); wt > 0 {
				trans[i] = append(trans[i], step{to: index[e.To], p: wt / total})
			}
		}
	}

	x := make([]float64, n)
	for i := range x {
		x[i] = 1 / float64(n)
	}
	last := make([]float64, n)

	for iter := 0; iter < opts.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		copy(last, x)
		var danglesum float64
		for _, i := range dangling {
			danglesum += last[i]
		}
		danglesum *= opts.Alpha

		for i := range x {
			x[i] = 0
		}
		for i, steps := range trans {
			for _, s := range steps {
				x[s.to] += opts.Alpha * last[i] * s.p
			}
		}
		floats.AddScaled(x, danglesum+(1-opts.Alpha), p)

		if floats.Distance(x, last, 1) < float64(n)*opts.Tol {
			out := make(map[string]float64, n)
			for i, id := range ids {
				out[id] = x[i]
			}
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w after %d iterations", ErrNoConvergence, opts.MaxIter)
}
