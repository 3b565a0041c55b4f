package graphio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sbrg/gds/pkg/graph"
)

type document struct {
	Directed   bool             `json:"directed"`
	Multigraph bool             `json:"multigraph"`
	Graph      graph.Properties `json:"graph,omitempty"`
	Nodes      []node           `json:"nodes"`
	Links      []link           `json:"links"`
}

type node struct {
	ID     string           `json:"id"`
	Labels []string         `json:"labels,omitempty"`
	Props  graph.Properties `json:"properties,omitempty"`
}

type link struct {
	Source string           `json:"source"`
	Target string           `json:"target"`
	Key    *int             `json:"key,omitempty"`
	Type   string           `json:"type,omitempty"`
	Props  graph.Properties `json:"properties,omitempty"`
}

// WriteJSON encodes g as node-link JSON and writes it to w.
func WriteJSON(g *graph.Graph, w io.Writer) error {
	out := document{
		Directed:   true,
		Multigraph: true,
		Nodes:      make([]node, 0, g.NodeCount()),
		Links:      make([]link, 0, g.EdgeCount()),
	}
	if len(g.Meta()) > 0 {
		out.Graph = g.Meta()
	}
	for _, n := range g.Nodes() {
		nd := node{ID: n.ID, Labels: n.Labels}
		if len(n.Props) > 0 {
			nd.Props = n.Props
		}
		out.Nodes = append(out.Nodes, nd)
	}
	for _, e := range g.Edges() {
		key := e.Key
		l := link{Source: e.From, Target: e.To, Key: &key, Type: e.Type}
		if len(e.Props) > 0 {
			l.Props = e.Props
		}
		out.Links = append(out.Links, l)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Marshal returns the node-link JSON encoding of g.
func Marshal(g *graph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteJSON(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportJSON writes g to a JSON file at path.
func ExportJSON(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(g, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON decodes a node-link JSON graph from r.
//
// Link keys are kept; links without a key get the next free one. ReadJSON
// returns an error if the JSON is malformed, a node ID is empty or
// duplicated, a link references an unknown node or repeats a key. Errors name the
// offending node or link and wrap the [graph] sentinel errors, so callers
// can use errors.Is. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var data document
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	g := graph.New(data.Graph)
	for _, n := range data.Nodes {
		if err := g.AddNode(graph.Node{ID: n.ID, Labels: n.Labels, Props: n.Props}); err != nil {
			return nil, fmt.Errorf("node %q: %w", n.ID, err)
		}
	}
	for i, l := range data.Links {
		e := graph.Edge{From: l.Source, To: l.Target, Type: l.Type, Props: l.Props}
		var err error
		if l.Key != nil {
			e.Key = *l.Key
			err = g.AddEdgeKeyed(e)
		} else {
			_, err = g.AddEdge(e)
		}
		if err != nil {
			return nil, fmt.Errorf("link %d (%s->%s): %w", i, l.Source, l.Target, err)
		}
	}
	return g, nil
}

// Unmarshal decodes node-link JSON bytes.
func Unmarshal(data []byte) (*graph.Graph, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ImportJSON reads a JSON file at path and returns the decoded graph.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
