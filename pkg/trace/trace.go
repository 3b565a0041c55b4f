// Package trace builds Lifelike trace graphs.
//
// A trace graph is a property graph plus named node sets and one or more
// trace networks. Each network connects a source node set to a target node
// set through traces: groups of paths between one source and one target.
// The Lifelike Sankey viewer reads the result from the JSON written by
// [TraceGraph.WriteSankey].
//
// # Modes
//
// [EachPair] produces one trace per (source, target) pair that has a path.
// [SetToSet] treats the sources as a single super-source and produces one
// trace per reachable target holding the shortest paths from the nearest
// sources.
package trace

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sbrg/gds/pkg/algo"
	"github.com/sbrg/gds/pkg/graph"
)

var (
	// ErrNoTraces is returned when a network would contain no trace.
	ErrNoTraces = errors.New("trace: no paths between sources and targets")

	// ErrUnknownNodeSet is returned when a network names a node set that
	// was not added.
	ErrUnknownNodeSet = errors.New("trace: unknown node set")

	// ErrDuplicateNodeSet is returned when a node set name is reused.
	ErrDuplicateNodeSet = errors.New("trace: duplicate node set")

	// ErrInvalidMode is returned for an unrecognised [Mode].
	ErrInvalidMode = errors.New("trace: invalid mode")
)

// Mode selects how sources and targets are paired.
type Mode string

const (
	EachPair Mode = "each-pair"
	SetToSet Mode = "set-to-set"
)

// ParseMode validates s; the empty string selects EachPair.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", EachPair:
		return EachPair, nil
	case SetToSet:
		return SetToSet, nil
	}
	return "", fmt.Errorf("%w %q (must be one of: %s, %s)", ErrInvalidMode, s, EachPair, SetToSet)
}

// Trace is a group of paths from one source to one target. Edges holds
// indices into the underlying graph's edge list.
type Trace struct {
	Source    string
	Target    string
	Group     int
	NodePaths [][]string
	Edges     []int
}

// Network is one named set of traces.
type Network struct {
	Name          string
	Description   string
	Sources       string
	Targets       string
	Method        string
	DefaultSizing string
	Traces        []Trace
	// Skipped counts source/target pairs without a path.
	Skipped int
}

// Sizing names the node and link properties the viewer uses to size
// elements.
type Sizing struct {
	LinkSizing string `json:"link_sizing,omitempty"`
	NodeSizing string `json:"node_sizing,omitempty"`
}

// TraceGraph is a graph annotated with node sets and trace networks.
type TraceGraph struct {
	Name        string
	Description string
	// DisplayProperty is the node property used for displayName; empty
	// falls back to "name" and then the node ID.
	DisplayProperty string
	Graph           *graph.Graph
	NodeSets        []graph.NodeSet
	Networks        []Network
	Sizing          map[string]Sizing
}

// New returns an empty trace graph over g.
func New(g *graph.Graph, name, description string) *TraceGraph {
	return &TraceGraph{Name: name, Description: description, Graph: g}
}

// AddNodeSet registers a named node set. Every member must exist in the
// graph.
func (tg *TraceGraph) AddNodeSet(s graph.NodeSet) error {
	if _, ok := tg.NodeSet(s.Name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNodeSet, s.Name)
	}
	if err := s.Validate(tg.Graph); err != nil {
		return err
	}
	tg.NodeSets = append(tg.NodeSets, s)
	return nil
}

// RemoveNodeSet drops the node set called name and reports whether it
// existed. Networks that name it are left as they are.
func (tg *TraceGraph) RemoveNodeSet(name string) bool {
	n := len(tg.NodeSets)
	tg.NodeSets = slices.DeleteFunc(tg.NodeSets, func(s graph.NodeSet) bool { return s.Name == name })
	return len(tg.NodeSets) != n
}

// NodeSet returns the node set called name.
func (tg *TraceGraph) NodeSet(name string) (graph.NodeSet, bool) {
	for _, s := range tg.NodeSets {
		if s.Name == name {
			return s, true
		}
	}
	return graph.NodeSet{}, false
}

func (tg *TraceGraph) sets(sources, targets string) (graph.NodeSet, graph.NodeSet, error) {
	src, ok := tg.NodeSet(sources)
	if !ok {
		return src, graph.NodeSet{}, fmt.Errorf("%w: %s", ErrUnknownNodeSet, sources)
	}
	dst, ok := tg.NodeSet(targets)
	if !ok {
		return src, dst, fmt.Errorf("%w: %s", ErrUnknownNodeSet, targets)
	}
	return src, dst, nil
}

// NetworkOptions configures [TraceGraph.AddShortestPaths].
type NetworkOptions struct {
	Name        string
	Description string
	Sources     string // node set name
	Targets     string // node set name
	Mode        Mode
	// K > 1 returns the K shortest loopless paths per pair instead of all
	// equal-cost shortest paths. Only valid with EachPair.
	K int
	// MaxPaths caps equal-cost paths per trace; 0 means no cap.
	MaxPaths      int
	Weight        algo.WeightFunc
	DefaultSizing string
}

// AddShortestPaths computes a shortest-path trace network, appends it and
// returns a copy. Pairs with no connecting path are skipped and counted in
// Network.Skipped; ErrNoTraces is returned when nothing connects.
func (tg *TraceGraph) AddShortestPaths(ctx context.Context, opts NetworkOptions) (Network, error) {
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return Network{}, err
	}
	if opts.K > 1 && mode != EachPair {
		return Network{}, fmt.Errorf("trace: k shortest paths require mode %s", EachPair)
	}
	src, dst, err := tg.sets(opts.Sources, opts.Targets)
	if err != nil {
		return Network{}, err
	}

	net := Network{
		Name:          opts.Name,
		Description:   opts.Description,
		Sources:       src.Name,
		Targets:       dst.Name,
		Method:        methodName(mode, opts.K),
		DefaultSizing: opts.DefaultSizing,
	}
	if net.Name == "" {
		net.Name = fmt.Sprintf("%s to %s", src.Name, dst.Name)
	}

	switch mode {
	case EachPair:
		err = tg.eachPair(ctx, &net, src, dst, opts)
	case SetToSet:
		err = tg.setToSet(ctx, &net, src, dst, opts)
	}
	if err != nil {
		return Network{}, err
	}
	if len(net.Traces) == 0 {
		return Network{}, fmt.Errorf("%w (%s -> %s)", ErrNoTraces, src.Name, dst.Name)
	}
	tg.Networks = append(tg.Networks, net)
	return net, nil
}

func methodName(mode Mode, k int) string {
	if k > 1 {
		return fmt.Sprintf("%d shortest paths", k)
	}
	return "shortest paths (" + string(mode) + ")"
}

func (tg *TraceGraph) eachPair(ctx context.Context, net *Network, src, dst graph.NodeSet, opts NetworkOptions) error {
	for _, s := range src.IDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		var tree *algo.ShortestPathTree
		if opts.K <= 1 {
			var err error
			if tree, err = algo.NewShortestPathTree(tg.Graph, []string{s}, opts.Weight); err != nil {
				return err
			}
		}
		for _, t := range dst.IDs {
			if t == s {
				continue
			}
			var paths [][]string
			if tree != nil {
				paths = tree.Paths(t, opts.MaxPaths)
			} else {
				var err error
				paths, err = algo.KShortestPaths(tg.Graph, s, t, opts.K, opts.Weight)
				if err != nil && !errors.Is(err, algo.ErrNoPath) {
					return err
				}
			}
			if len(paths) == 0 {
				net.Skipped++
				continue
			}
			if err := tg.appendTrace(net, s, t, paths); err != nil {
				return err
			}
		}
	}
	return nil
}

func (tg *TraceGraph) setToSet(ctx context.Context, net *Network, src, dst graph.NodeSet, opts NetworkOptions) error {
	tree, err := algo.NewShortestPathTree(tg.Graph, src.IDs, opts.Weight)
	if err != nil {
		return err
	}
	for _, t := range dst.IDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if src.Contains(t) {
			continue
		}
		paths := tree.Paths(t, opts.MaxPaths)
		if len(paths) == 0 {
			net.Skipped++
			continue
		}
		if err := tg.appendTrace(net, paths[0][0], t, paths); err != nil {
			return err
		}
	}
	return nil
}

func (tg *TraceGraph) appendTrace(net *Network, source, target string, paths [][]string) error {
	var edges []int
	for _, p := range paths {
		idx, err := algo.PathEdges(tg.Graph, p)
		if err != nil {
			return err
		}
		for _, i := range idx {
			if !slices.Contains(edges, i) {
				edges = append(edges, i)
			}
		}
	}
	net.Traces = append(net.Traces, Trace{
		Source:    source,
		Target:    target,
		Group:     len(net.Traces),
		NodePaths: paths,
		Edges:     edges,
	})
	return nil
}

// AddPaths appends a network built from externally computed node paths.
// Paths are grouped into traces by their first and last node, in order of
// first appearance.
func (tg *TraceGraph) AddPaths(name, sources, targets string, paths [][]string) (Network, error) {
	src, dst, err := tg.sets(sources, targets)
	if err != nil {
		return Network{}, err
	}
	net := Network{Name: name, Sources: src.Name, Targets: dst.Name, Method: "custom"}

	type pair struct{ s, t string }
	var order []pair
	grouped := make(map[pair][][]string)
	for i, p := range paths {
		if len(p) == 0 {
			return Network{}, fmt.Errorf("trace: path %d is empty", i)
		}
		k := pair{p[0], p[len(p)-1]}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], p)
	}
	for _, k := range order {
		if err := tg.appendTrace(&net, k.s, k.t, grouped[k]); err != nil {
			return Network{}, err
		}
	}
	if len(net.Traces) == 0 {
		return Network{}, ErrNoTraces
	}
	tg.Networks = append(tg.Networks, net)
	return net, nil
}

// TraceNodes returns every node on any trace, in graph order.
func (tg *TraceGraph) TraceNodes() []string {
	on := make(map[string]bool)
	for _, net := range tg.Networks {
		for _, tr := range net.Traces {
			for _, p := range tr.NodePaths {
				for _, id := range p {
					on[id] = true
				}
			}
		}
	}
	var out []string
	for _, id := range tg.Graph.NodeIDs() {
		if on[id] {
			out = append(out, id)
		}
	}
	return out
}

// TraceEdges returns the sorted graph edge indices used by any trace.
func (tg *TraceGraph) TraceEdges() []int {
	seen := make(map[int]bool)
	var out []int
	for _, net := range tg.Networks {
		for _, tr := range net.Traces {
			for _, i := range tr.Edges {
				if !seen[i] {
					seen[i] = true
					out = append(out, i)
				}
			}
		}
	}
	slices.Sort(out)
	return out
}
