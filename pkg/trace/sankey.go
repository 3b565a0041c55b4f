package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/sbrg/gds/pkg/graph"
)

type sankeyDoc struct {
	Directed   bool             `json:"directed"`
	Multigraph bool             `json:"multigraph"`
	Graph      sankeyGraph      `json:"graph"`
	Nodes      []map[string]any `json:"nodes"`
	Links      []map[string]any `json:"links"`
}

type sankeyGraph struct {
	Name          string              `json:"name,omitempty"`
	Description   string              `json:"description,omitempty"`
	NodeSets      map[string][]string `json:"node_sets"`
	TraceNetworks []sankeyNetwork     `json:"trace_networks"`
	Sizing        map[string]Sizing   `json:"sizing,omitempty"`
}

type sankeyNetwork struct {
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	Sources       string        `json:"sources"`
	Targets       string        `json:"targets"`
	Method        string        `json:"method,omitempty"`
	DefaultSizing string        `json:"default_sizing,omitempty"`
	Traces        []sankeyTrace `json:"traces"`
}

type sankeyTrace struct {
	Source      string       `json:"source"`
	Target      string       `json:"target"`
	Group       int          `json:"group"`
	NodePaths   [][]string   `json:"node_paths"`
	Edges       []int        `json:"edges"`
	DetailEdges []detailEdge `json:"detail_edges"`
}

type detailEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Keys the Sankey format reserves on nodes and links. Properties with the
// same name are not written.
var (
	nodeKeys = []string{"id", "label", "displayName", "labels"}
	linkKeys = []string{"source", "target", "key", "label", "description"}
)

// Sankey returns the Lifelike Sankey document. Only nodes on a trace or in
// a node set and links on a trace are included; trace edge indices refer
// to the written links array.
func (tg *TraceGraph) Sankey() ([]byte, error) {
	var buf bytes.Buffer
	if err := tg.WriteSankey(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteSankey writes the Lifelike Sankey document to w.
func (tg *TraceGraph) WriteSankey(w io.Writer) error {
	g := tg.Graph
	keep := make(map[string]bool)
	for _, id := range tg.TraceNodes() {
		keep[id] = true
	}
	for _, s := range tg.NodeSets {
		for _, id := range s.IDs {
			keep[id] = true
		}
	}

	doc := sankeyDoc{
		Directed:   true,
		Multigraph: true,
		Graph: sankeyGraph{
			Name:          tg.Name,
			Description:   tg.Description,
			NodeSets:      make(map[string][]string, len(tg.NodeSets)),
			TraceNetworks: make([]sankeyNetwork, 0, len(tg.Networks)),
			Sizing:        tg.Sizing,
		},
		Nodes: []map[string]any{},
		Links: []map[string]any{},
	}
	for _, s := range tg.NodeSets {
		doc.Graph.NodeSets[s.Name] = s.IDs
	}

	for _, n := range g.Nodes() {
		if !keep[n.ID] {
			continue
		}
		out := withoutKeys(n.Props, nodeKeys)
		out["id"] = n.ID
		out["label"] = n.Label()
		out["labels"] = n.Labels
		out["displayName"] = n.DisplayName(tg.DisplayProperty)
		doc.Nodes = append(doc.Nodes, out)
	}

	linkIndex := make(map[int]int)
	for _, i := range tg.TraceEdges() {
		e := g.Edge(i)
		out := withoutKeys(e.Props, linkKeys)
		out["source"] = e.From
		out["target"] = e.To
		out["key"] = e.Key
		out["label"] = e.Type
		out["description"] = e.Type
		linkIndex[i] = len(doc.Links)
		doc.Links = append(doc.Links, out)
	}

	for _, net := range tg.Networks {
		sn := sankeyNetwork{
			Name:          net.Name,
			Description:   net.Description,
			Sources:       net.Sources,
			Targets:       net.Targets,
			Method:        net.Method,
			DefaultSizing: net.DefaultSizing,
			Traces:        make([]sankeyTrace, 0, len(net.Traces)),
		}
		for _, tr := range net.Traces {
			st := sankeyTrace{
				Source:      tr.Source,
				Target:      tr.Target,
				Group:       tr.Group,
				NodePaths:   tr.NodePaths,
				Edges:       make([]int, 0, len(tr.Edges)),
				DetailEdges: []detailEdge{},
			}
			for _, i := range tr.Edges {
				st.Edges = append(st.Edges, linkIndex[i])
				e := g.Edge(i)
				st.DetailEdges = append(st.DetailEdges, detailEdge{Source: e.From, Target: e.To, Label: e.Type})
			}
			sn.Traces = append(sn.Traces, st)
		}
		doc.Graph.TraceNetworks = append(doc.Graph.TraceNetworks, sn)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("trace: encode: %w", err)
	}
	return nil
}

func withoutKeys(props graph.Properties, reserved []string) map[string]any {
	out := make(map[string]any, len(props)+len(reserved))
	for k, v := range props {
		if !slices.Contains(reserved, k) {
			out[k] = v
		}
	}
	return out
}

// ExportSankey writes the Sankey document to a file.
func (tg *TraceGraph) ExportSankey(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tg.WriteSankey(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSankey reads a document written by WriteSankey. The returned graph
// contains exactly the written nodes and links; node sets are ordered by
// name.
func ReadSankey(r io.Reader) (*TraceGraph, error) {
	var doc sankeyDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("trace: decode: %w", err)
	}

	g := graph.New(nil)
	for i, raw := range doc.Nodes {
		id, _ := raw["id"].(string)
		n := graph.Node{ID: id, Labels: stringList(raw["labels"]), Props: withoutKeys(raw, nodeKeys)}
		if len(n.Labels) == 0 {
			if l, ok := raw["label"].(string); ok && l != "" {
				n.Labels = []string{l}
			}
		}
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("trace: node %d: %w", i, err)
		}
	}
	for i, raw := range doc.Links {
		src, _ := raw["source"].(string)
		dst, _ := raw["target"].(string)
		typ, _ := raw["label"].(string)
		e := graph.Edge{From: src, To: dst, Type: typ, Props: withoutKeys(raw, linkKeys)}
		var err error
		if key, ok := raw["key"].(float64); ok {
			e.Key = int(key)
			err = g.AddEdgeKeyed(e)
		} else {
			_, err = g.AddEdge(e)
		}
		if err != nil {
			return nil, fmt.Errorf("trace: link %d (%s->%s): %w", i, src, dst, err)
		}
	}

	tg := &TraceGraph{
		Name:        doc.Graph.Name,
		Description: doc.Graph.Description,
		Graph:       g,
		Sizing:      doc.Graph.Sizing,
	}
	for _, name := range slices.Sorted(maps.Keys(doc.Graph.NodeSets)) {
		if err := tg.AddNodeSet(graph.NewNodeSet(name, "", doc.Graph.NodeSets[name])); err != nil {
			return nil, err
		}
	}
	for _, sn := range doc.Graph.TraceNetworks {
		net := Network{
			Name:          sn.Name,
			Description:   sn.Description,
			Sources:       sn.Sources,
			Targets:       sn.Targets,
			Method:        sn.Method,
			DefaultSizing: sn.DefaultSizing,
		}
		for _, st := range sn.Traces {
			for _, i := range st.Edges {
				if i < 0 || i >= g.EdgeCount() {
					return nil, fmt.Errorf("trace: network %s: edge index %d out of range", sn.Name, i)
				}
			}
			net.Traces = append(net.Traces, Trace{
				Source:    st.Source,
				Target:    st.Target,
				Group:     st.Group,
				NodePaths: st.NodePaths,
				Edges:     st.Edges,
			})
		}
		tg.Networks = append(tg.Networks, net)
	}
	return tg, nil
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
