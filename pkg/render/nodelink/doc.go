// Package nodelink renders graphs and trace networks as node-link diagrams.
//
// # Overview
//
// [ToDOT] produces Graphviz DOT source where nodes are rounded boxes and
// relationships are labelled arrows. Source-set nodes are filled green,
// target-set nodes orange, and trace edges are drawn bold so that the
// paths of a trace network stand out against the rest of the graph.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, nodelink.Options{DisplayProperty: "displayName"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For a trace graph, [ForTrace] derives the options from its node sets
// and networks and restricts the drawing to the traced nodes:
//
//	dot := nodelink.ToDOT(tg.Graph, nodelink.ForTrace(tg))
//
// # Dependencies
//
// SVG rendering runs Graphviz in-process through
// [github.com/goccy/go-graphviz]; no system Graphviz is needed.
package nodelink
