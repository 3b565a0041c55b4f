package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/trace"
)

// Highlight colours.
const (
	sourceFill   = "#c8e6c9"
	sourceBorder = "#2e7d32"
	targetFill   = "#ffe0b2"
	targetBorder = "#ef6c00"
	traceColor   = "#1565c0"
)

// Options configures node-link diagram generation.
type Options struct {
	// Detailed adds labels and properties to node labels.
	Detailed bool
	// DisplayProperty names the node property used as the label.
	DisplayProperty string
	// Sources and Targets are highlighted node IDs.
	Sources []string
	Targets []string
	// Nodes restricts the diagram to these IDs; nil draws every node.
	Nodes []string
	// Bold lists edge indices drawn bold.
	Bold []int
}

// ForTrace returns options that draw the traced nodes and node set members
// of tg with every trace edge bold.
func ForTrace(tg *trace.TraceGraph) Options {
	opts := Options{DisplayProperty: tg.DisplayProperty, Bold: tg.TraceEdges()}
	nodes := tg.TraceNodes()
	for _, net := range tg.Networks {
		if s, ok := tg.NodeSet(net.Sources); ok {
			opts.Sources = append(opts.Sources, s.IDs...)
		}
		if s, ok := tg.NodeSet(net.Targets); ok {
			opts.Targets = append(opts.Targets, s.IDs...)
		}
	}
	nodes = append(nodes, opts.Sources...)
	nodes = append(nodes, opts.Targets...)
	slices.Sort(nodes)
	opts.Nodes = slices.Compact(nodes)
	return opts
}

// ToDOT converts g to Graphviz DOT. Nodes are emitted in graph order and
// edges in edge-index order so that output is deterministic. A node in
// both Sources and Targets is drawn as a source.
func ToDOT(g *graph.Graph, opts Options) string {
	var keep map[string]bool
	if opts.Nodes != nil {
		keep = make(map[string]bool, len(opts.Nodes))
		for _, id := range opts.Nodes {
			keep[id] = true
		}
	}
	drawn := func(id string) bool { return keep == nil || keep[id] }
	bold := make(map[int]bool, len(opts.Bold))
	for _, i := range opts.Bold {
		bold[i] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=12, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=9, color=\"#9e9e9e\", fontcolor=\"#616161\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		if !drawn(n.ID) {
			continue
		}
		attrs := []string{fmt.Sprintf("label=%q", fmtLabel(*n, opts))}
		switch {
		case slices.Contains(opts.Sources, n.ID):
			attrs = append(attrs, "fillcolor=\""+sourceFill+"\"", "color=\""+sourceBorder+"\"", "penwidth=2")
		case slices.Contains(opts.Targets, n.ID):
			attrs = append(attrs, "fillcolor=\""+targetFill+"\"", "color=\""+targetBorder+"\"", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i, e := range g.Edges() {
		if !drawn(e.From) || !drawn(e.To) {
			continue
		}
		attrs := []string{fmt.Sprintf("label=%q", e.Type)}
		if bold[i] {
			attrs = append(attrs, "style=bold", "penwidth=2.5", "color=\""+traceColor+"\"")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, opts Options) string {
	name := n.DisplayName(opts.DisplayProperty)
	if !opts.Detailed {
		return name
	}

	parts := []string{name}
	if len(n.Labels) > 0 {
		parts = append(parts, ":"+strings.Join(n.Labels, ":"))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Props)) {
		if k == opts.DisplayProperty {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Props[k]))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders DOT source to SVG using the embedded Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// unitless one that scales in a browser.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
