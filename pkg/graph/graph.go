package graph

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] and [Graph.MergeNode]
	// when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists. Use [Graph.MergeNode] to upsert instead.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrNodeNotFound is returned by lookups that require an existing node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateEdgeKey is returned by [Graph.AddEdgeKeyed] when a
	// parallel edge already uses the key.
	ErrDuplicateEdgeKey = errors.New("duplicate edge key")
)

// Properties stores arbitrary key-value pairs attached to nodes, edges or
// the graph itself. Values are whatever the database driver or JSON decoder
// produced: strings, float64/int64, bools, lists and maps.
type Properties map[string]any

// String returns the property value formatted as a string, or "" when absent.
// Floats use the shortest decimal form without an exponent, so 1.0 and the
// integer 1 both read "1".
func (p Properties) String(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the numeric property value and true, or 0 and false when the
// property is missing or not a number.
func (p Properties) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Node is a vertex of the property graph.
type Node struct {
	ID     string     // Unique identifier (database element ID or user-supplied)
	Labels []string   // Node labels, e.g. ["Gene"] or ["Compound", "Metabolite"]
	Props  Properties // Arbitrary properties (never nil after AddNode)
}

// HasLabel reports whether the node carries the given label.
func (n Node) HasLabel(label string) bool { return slices.Contains(n.Labels, label) }

// Label returns the first label, or "" for unlabelled nodes.
func (n Node) Label() string {
	if len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// DisplayName returns the value of prop when it is a non-empty string,
// falling back to the "name" property and finally to the node ID.
func (n Node) DisplayName(prop string) string {
	if prop != "" {
		if s := n.Props.String(prop); s != "" {
			return s
		}
	}
	if s := n.Props.String("name"); s != "" {
		return s
	}
	return n.ID
}

// Edge is a directed relationship. Key distinguishes parallel edges between
// the same ordered pair of nodes and is assigned by [Graph.AddEdge].
type Edge struct {
	From  string
	To    string
	Key   int
	Type  string
	Props Properties
}

// Graph is a directed multigraph with insertion-ordered nodes.
//
// Edge indices (as returned by [Graph.OutEdges] and friends) are stable
// until a node or edge is removed. The zero value is not usable; use [New].
// Graph is not safe for concurrent mutation.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []Edge
	out   map[string][]int
	in    map[string][]int
	meta  Properties
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Properties) *Graph {
	if meta == nil {
		meta = Properties{}
	}
	return &Graph{
		nodes: make(map[string]*Node),
		out:   make(map[string][]int),
		in:    make(map[string][]int),
		meta:  meta,
	}
}

// Meta returns the graph-level metadata map. It is never nil.
func (g *Graph) Meta() Properties { return g.meta }

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Props == nil {
		n.Props = Properties{}
	}
	n.Labels = slices.Clone(n.Labels)
	g.nodes[n.ID] = &n
	g.order = append(g.order, n.ID)
	return nil
}

// MergeNode adds the node or, if it exists, unions its labels and
// overwrites the given properties.
func (g *Graph) MergeNode(n Node) error {
	existing, ok := g.nodes[n.ID]
	if !ok {
		return g.AddNode(n)
	}
	for _, l := range n.Labels {
		if !existing.HasLabel(l) {
			existing.Labels = append(existing.Labels, l)
		}
	}
	maps.Copy(existing.Props, n.Props)
	return nil
}

// AddEdge adds a directed edge between existing nodes and returns the key
// assigned to it. The edge's Key field is ignored on input.
func (g *Graph) AddEdge(e Edge) (int, error) {
	if _, ok := g.nodes[e.From]; !ok {
		return 0, ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return 0, ErrUnknownTargetNode
	}
	e.Key = 0
	for _, idx := range g.out[e.From] {
		if g.edges[idx].To == e.To && g.edges[idx].Key >= e.Key {
			e.Key = g.edges[idx].Key + 1
		}
	}
	g.appendEdge(e)
	return e.Key, nil
}

// AddEdgeKeyed adds e keeping its Key, as when reading a stored graph.
// Keys must be non-negative and unique among edges From→To.
func (g *Graph) AddEdgeKeyed(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if e.Key < 0 {
		return fmt.Errorf("edge %s->%s: negative key %d", e.From, e.To, e.Key)
	}
	for _, idx := range g.out[e.From] {
		if g.edges[idx].To == e.To && g.edges[idx].Key == e.Key {
			return fmt.Errorf("%w: %s->%s key %d", ErrDuplicateEdgeKey, e.From, e.To, e.Key)
		}
	}
	g.appendEdge(e)
	return nil
}

func (g *Graph) appendEdge(e Edge) {
	if e.Props == nil {
		e.Props = Properties{}
	}
	idx := len(g.edges)
	g.edges = append(g.edges, e)
	g.out[e.From] = append(g.out[e.From], idx)
	g.in[e.To] = append(g.in[e.To], idx)
}

// RemoveNode deletes the node and every incident edge. It is a no-op for
// unknown IDs.
func (g *Graph) RemoveNode(id string) {
	if _, ok := g.nodes[id]; !ok {
		return
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == id || e.To == id })
	g.reindex()
}

// RemoveEdges deletes every edge from→to.
func (g *Graph) RemoveEdges(from, to string) {
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool { return e.From == from && e.To == to })
	g.reindex()
}

func (g *Graph) reindex() {
	g.out = make(map[string][]int, len(g.nodes))
	g.in = make(map[string][]int, len(g.nodes))
	for i, e := range g.edges {
		g.out[e.From] = append(g.out[e.From], i)
		g.in[e.To] = append(g.in[e.To], i)
	}
}

// Node returns the node with the given ID. The pointer refers to the
// graph's own node, so property changes are visible to the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// NodeIDs returns all node IDs in insertion order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.order) }

// Edges returns a copy of the edge list in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Edge returns the edge at index i.
func (g *Graph) Edge(i int) Edge { return g.edges[i] }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges, counting parallel edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// OutEdges returns the indices of edges leaving id. Read-only.
func (g *Graph) OutEdges(id string) []int { return g.out[id] }

// InEdges returns the indices of edges entering id. Read-only.
func (g *Graph) InEdges(id string) []int { return g.in[id] }

// EdgesBetween returns the indices of all parallel edges from→to.
func (g *Graph) EdgesBetween(from, to string) []int {
	var idx []int
	for _, i := range g.out[from] {
		if g.edges[i].To == to {
			idx = append(idx, i)
		}
	}
	return idx
}

// HasEdge reports whether at least one edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	for _, i := range g.out[from] {
		if g.edges[i].To == to {
			return true
		}
	}
	return false
}

// Successors returns the distinct targets of edges leaving id, in edge order.
func (g *Graph) Successors(id string) []string {
	return g.distinct(g.out[id], func(e Edge) string { return e.To })
}

// Predecessors returns the distinct sources of edges entering id, in edge order.
func (g *Graph) Predecessors(id string) []string {
	return g.distinct(g.in[id], func(e Edge) string { return e.From })
}

func (g *Graph) distinct(idx []int, end func(Edge) string) []string {
	var ids []string
	seen := make(map[string]bool, len(idx))
	for _, i := range idx {
		id := end(g.edges[i])
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// OutDegree returns the number of edges leaving id.
func (g *Graph) OutDegree(id string) int { return len(g.out[id]) }

// InDegree returns the number of edges entering id.
func (g *Graph) InDegree(id string) int { return len(g.in[id]) }

// Reverse returns a copy of the graph with every edge flipped. Node and
// edge properties are shared shallow copies; edge keys are preserved.
func (g *Graph) Reverse() *Graph {
	r := g.emptyCopy()
	for _, e := range g.edges {
		e.From, e.To = e.To, e.From
		r.appendEdge(e)
	}
	return r
}

// Subgraph returns the subgraph induced by ids. Unknown IDs are ignored and
// node order follows the original graph.
func (g *Graph) Subgraph(ids []string) *Graph {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	s := New(maps.Clone(g.meta))
	for _, id := range g.order {
		if keep[id] {
			n := *g.nodes[id]
			_ = s.AddNode(n)
		}
	}
	for _, e := range g.edges {
		if keep[e.From] && keep[e.To] {
			s.appendEdge(e)
		}
	}
	return s
}

// Clone returns a deep copy of the graph structure with shallow-copied
// property maps.
func (g *Graph) Clone() *Graph {
	c := g.emptyCopy()
	for _, e := range g.edges {
		e.Props = maps.Clone(e.Props)
		c.appendEdge(e)
	}
	return c
}

func (g *Graph) emptyCopy() *Graph {
	c := New(maps.Clone(g.meta))
	for _, id := range g.order {
		n := *g.nodes[id]
		n.Props = maps.Clone(n.Props)
		_ = c.AddNode(n)
	}
	return c
}

// NodesWithLabel returns the nodes carrying label, in insertion order.
func (g *Graph) NodesWithLabel(label string) []*Node {
	var nodes []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.HasLabel(label) {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// NodesByProperty returns nodes whose property key, formatted as a string,
// equals one of values. Results follow the order of values, then insertion
// order; a node is returned at most once.
func (g *Graph) NodesByProperty(key string, values ...string) []*Node {
	byValue := make(map[string][]*Node)
	for _, id := range g.order {
		n := g.nodes[id]
		if _, ok := n.Props[key]; !ok {
			continue
		}
		v := n.Props.String(key)
		byValue[v] = append(byValue[v], n)
	}
	var nodes []*Node
	seen := make(map[string]bool)
	for _, v := range values {
		for _, n := range byValue[v] {
			if !seen[n.ID] {
				seen[n.ID] = true
				nodes = append(nodes, n)
			}
		}
	}
	return nodes
}

// Labels returns the number of nodes per label.
func (g *Graph) Labels() map[string]int {
	counts := make(map[string]int)
	for _, n := range g.nodes {
		for _, l := range n.Labels {
			counts[l]++
		}
	}
	return counts
}

// RelationshipTypes returns the number of edges per relationship type.
func (g *Graph) RelationshipTypes() map[string]int {
	counts := make(map[string]int)
	for _, e := range g.edges {
		counts[e.Type]++
	}
	return counts
}

// NodeIDs extracts the ID from each node in a slice.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
