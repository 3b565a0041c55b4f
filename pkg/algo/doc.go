// Package algo implements the graph algorithms behind trace and radiate
// analyses: shortest paths, k-shortest paths, personalized PageRank and
// connectivity.
//
// All algorithms operate on [graph.Graph] directed multigraphs. Edge costs
// and transition weights come from a [WeightFunc]; nil means unit weights.
// For path searches, parallel edges collapse to their cheapest member; for
// PageRank, parallel edge weights add up.
//
// Complexity:
//
//   - Shortest path tree: O((V + E) log V) per call, any number of sources.
//   - KShortestPaths: O(k · V · (V + E) log V).
//   - PageRank: O(MaxIter · (V + E)).
//
// Results are deterministic: ties are broken by node insertion order.
package algo

import "errors"

// Sentinel errors returned by the algorithms.
var (
	// ErrNoSources is returned when a multi-source search gets no sources.
	ErrNoSources = errors.New("algo: no source nodes")

	// ErrNoPath is returned when the target is unreachable from the source.
	ErrNoPath = errors.New("algo: no path")

	// ErrNoEdge is returned when a node path uses a pair with no edge.
	ErrNoEdge = errors.New("algo: no edge between consecutive path nodes")

	// ErrNegativeWeight is returned when a weight function yields a
	// negative or NaN cost.
	ErrNegativeWeight = errors.New("algo: negative edge weight")

	// ErrNoConvergence is returned when PageRank power iteration fails to
	// converge within MaxIter iterations.
	ErrNoConvergence = errors.New("algo: pagerank did not converge")

	// ErrBadPersonalization is returned when a personalization vector has
	// no positive weight on any node of the graph.
	ErrBadPersonalization = errors.New("algo: personalization has no positive mass")
)
