package algo

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sbrg/gds/pkg/graph"
)

// relTol is the relative tolerance used to treat two path costs as equal
// when collecting alternative predecessors.
const relTol = 1e-12

// ShortestPathTree holds single- or multi-source shortest path distances and
// every predecessor that lies on a minimum-cost path.
//
// Build one with [NewShortestPathTree] and query it for many targets; the
// trace analysis reuses a tree per source node instead of searching once per
// source/target pair.
type ShortestPathTree struct {
	sources []string
	dist    map[string]float64
	preds   map[string][]string
}

// NewShortestPathTree runs Dijkstra from every node in sources at once
// (distance 0 for each). A nil weight function counts hops, which makes the
// search equivalent to breadth-first search.
//
// Errors: ErrNoSources for an empty source list, graph.ErrNodeNotFound for
// an unknown source, ErrNegativeWeight if w returns a negative value for any
// edge.
func NewShortestPathTree(g *graph.Graph, sources []string, w WeightFunc) (*ShortestPathTree, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	for _, s := range sources {
		if !g.HasNode(s) {
			return nil, fmt.Errorf("source %s: %w", s, graph.ErrNodeNotFound)
		}
	}
	w = orUnit(w)
	if err := checkWeights(g, w); err != nil {
		return nil, err
	}
	s := search{g: g, w: w}
	dist, preds := s.run(sources)
	return &ShortestPathTree{sources: sources, dist: dist, preds: preds}, nil
}

// Dist returns the distance from the nearest source to id and whether id is
// reachable.
func (t *ShortestPathTree) Dist(id string) (float64, bool) {
	d, ok := t.dist[id]
	return d, ok
}

// Reachable returns every reached node ID, sources included.
func (t *ShortestPathTree) Reachable() map[string]float64 { return t.dist }

// Paths enumerates every minimum-cost path from a source to target, up to
// limit paths (0 means no limit). Paths start at a source and end at target.
// Returns nil when target is unreachable.
func (t *ShortestPathTree) Paths(target string, limit int) [][]string {
	if _, ok := t.dist[target]; !ok {
		return nil
	}
	var paths [][]string
	var stack []string
	onStack := make(map[string]bool)
	var walk func(id string) bool
	walk = func(id string) bool {
		stack = append(stack, id)
		onStack[id] = true
		defer func() {
			stack = stack[:len(stack)-1]
			onStack[id] = false
		}()

		preds := t.preds[id]
		if len(preds) == 0 {
			p := make([]string, len(stack))
			for i, v := range stack {
				p[len(stack)-1-i] = v
			}
			paths = append(paths, p)
			return limit > 0 && len(paths) >= limit
		}
		for _, p := range preds {
			// Zero-weight cycles make the predecessor graph cyclic.
			if onStack[p] {
				continue
			}
			if walk(p) {
				return true
			}
		}
		return false
	}
	walk(target)
	return paths
}

// AllShortestPaths returns every minimum-cost path from s to t, up to limit
// paths (0 means no limit). Returns ErrNoPath when t is unreachable.
func AllShortestPaths(g *graph.Graph, s, t string, w WeightFunc, limit int) ([][]string, error) {
	if !g.HasNode(t) {
		return nil, fmt.Errorf("target %s: %w", t, graph.ErrNodeNotFound)
	}
	tree, err := NewShortestPathTree(g, []string{s}, w)
	if err != nil {
		return nil, err
	}
	paths := tree.Paths(t, limit)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s -> %s: %w", s, t, ErrNoPath)
	}
	return paths, nil
}

// ShortestPathLengths returns the distance from the nearest of sources to
// every reachable node.
func ShortestPathLengths(g *graph.Graph, sources []string, w WeightFunc) (map[string]float64, error) {
	tree, err := NewShortestPathTree(g, sources, w)
	if err != nil {
		return nil, err
	}
	return tree.dist, nil
}

// PathCost sums the cheapest parallel edge weight along a node path.
func PathCost(g *graph.Graph, path []string, w WeightFunc) (float64, error) {
	w = orUnit(w)
	var total float64
	for i := 0; i+1 < len(path); i++ {
		best := math.Inf(1)
		for _, idx := range g.EdgesBetween(path[i], path[i+1]) {
			best = math.Min(best, w(g.Edge(idx)))
		}
		if math.IsInf(best, 1) {
			return 0, fmt.Errorf("%s -> %s: %w", path[i], path[i+1], ErrNoEdge)
		}
		total += best
	}
	return total, nil
}

func checkWeights(g *graph.Graph, w WeightFunc) error {
	for _, e := range g.Edges() {
		if wt := w(e); wt < 0 || math.IsNaN(wt) {
			return fmt.Errorf("%w: edge %s->%s weight=%v", ErrNegativeWeight, e.From, e.To, wt)
		}
	}
	return nil
}

// search is a Dijkstra run with optional blocked nodes and node pairs, as
// needed by Yen's algorithm.
type search struct {
	g            *graph.Graph
	w            WeightFunc
	blockedNodes map[string]bool
	blockedPairs map[[2]string]bool
}

func (s *search) run(sources []string) (map[string]float64, map[string][]string) {
	dist := make(map[string]float64)
	preds := make(map[string][]string)
	done := make(map[string]bool)

	isSource := make(map[string]bool, len(sources))
	pq := &queue{}
	heap.Init(pq)
	for _, src := range sources {
		if _, ok := dist[src]; ok || s.blockedNodes[src] {
			continue
		}
		isSource[src] = true
		dist[src] = 0
		heap.Push(pq, &item{id: src, dist: 0, seq: pq.next()})
	}

	for pq.Len() > 0 {
		it := heap.Pop(pq).(*item)
		if done[it.id] || it.dist > dist[it.id] {
			continue
		}
		done[it.id] = true

		for _, next := range s.g.Successors(it.id) {
			if isSource[next] || s.blockedNodes[next] || s.blockedPairs[[2]string{it.id, next}] {
				continue
			}
			wt := math.Inf(1)
			for _, idx := range s.g.EdgesBetween(it.id, next) {
				wt = math.Min(wt, s.w(s.g.Edge(idx)))
			}
			nd := it.dist + wt
			old, seen := dist[next]
			switch {
			case !seen || nd < old && !nearlyEqual(nd, old):
				dist[next] = nd
				preds[next] = []string{it.id}
				heap.Push(pq, &item{id: next, dist: nd, seq: pq.next()})
			case nearlyEqual(nd, old):
				// Zero-weight edges can reach a node that is already done.
				preds[next] = append(preds[next], it.id)
			}
		}
	}
	return dist, preds
}

// shortest returns one minimum-cost path from src to dst or nil.
func (s *search) shortest(src, dst string) []string {
	dist, preds := s.run([]string{src})
	if _, ok := dist[dst]; !ok {
		return nil
	}
	var rev []string
	for id := dst; ; id = preds[id][0] {
		rev = append(rev, id)
		if len(preds[id]) == 0 {
			break
		}
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

func nearlyEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= relTol*math.Max(math.Abs(a), math.Abs(b))
}

type item struct {
	id   string
	dist float64
	seq  int
}

// queue is a min-heap ordered by distance, then insertion sequence, so
// that ties resolve in graph order and results are deterministic.
type queue struct {
	items []*item
	seq   int
}

func (q *queue) next() int { q.seq++; return q.seq }

func (q *queue) Len() int { return len(q.items) }
func (q *queue) Less(i, j int) bool {
	if q.items[i].dist != q.items[j].dist {
		return q.items[i].dist < q.items[j].dist
	}
	return q.items[i].seq < q.items[j].seq
}
func (q *queue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }
func (q *queue) Push(x any)    { q.items = append(q.items, x.(*item)) }
func (q *queue) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	q.items = old[:n-1]
	return it
}
