// Package graph provides the in-memory property multigraph that every
// analysis in gds operates on.
//
// # Overview
//
// Graphs are loaded from a graph database (see [graphdb]) or from a JSON
// node-link file (see [graphio]). Nodes carry labels and properties the way
// they exist in the database; edges carry a relationship type and
// properties. Parallel edges are allowed and are distinguished by a
// per-pair Key, matching the semantics of a directed multigraph.
//
// # Basic Usage
//
//	g := graph.New(nil)
//	_ = g.AddNode(graph.Node{ID: "g1", Labels: []string{"Gene"}, Props: graph.Properties{"name": "lacZ"}})
//	_ = g.AddNode(graph.Node{ID: "p1", Labels: []string{"Protein"}})
//	key, _ := g.AddEdge(graph.Edge{From: "g1", To: "p1", Type: "ENCODES"})
//
// Query with [Graph.Successors], [Graph.Predecessors], [Graph.OutEdges],
// [Graph.NodesWithLabel] and [Graph.NodesByProperty]. Derive new graphs
// with [Graph.Reverse], [Graph.Subgraph] and [Graph.Clone].
//
// # Node Sets
//
// A [NodeSet] names an ordered group of node IDs. Trace and radiate
// analyses take node sets as their sources and targets.
//
// # Concurrency
//
// Graph instances are not safe for concurrent mutation. Read-only use from
// several goroutines is safe.
//
// [graphdb]: github.com/sbrg/gds/pkg/graphdb
// [graphio]: github.com/sbrg/gds/pkg/graphio
package graph
