package graphdb

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/graphio"
)

// Source supplies graphs and resolves node sets for analyses.
type Source interface {
	// Load returns the graph restricted by opts.
	Load(ctx context.Context, opts LoadOptions) (*graph.Graph, error)
	// MatchNodes resolves property values to node IDs; see Loader.MatchNodes.
	MatchNodes(ctx context.Context, label, property string, values []string) (ids, missing []string, err error)
	// Describe identifies the source for cache keys and logs.
	Describe() string
	// Close releases connections held by the source.
	Close(ctx context.Context) error
}

// DBSource reads from a Neo4j database.
type DBSource struct {
	*Loader
	client *Client
}

// Open connects to Neo4j and returns a database source.
func Open(ctx context.Context, cfg Config) (*DBSource, error) {
	c, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DBSource{Loader: NewLoader(c), client: c}, nil
}

// Describe implements Source.
func (s *DBSource) Describe() string { return s.client.Describe() }

// HealthCheck verifies database connectivity.
func (s *DBSource) HealthCheck(ctx context.Context) error { return s.client.HealthCheck(ctx) }

// Close implements Source.
func (s *DBSource) Close(ctx context.Context) error { return s.client.Close(ctx) }

// FileSource reads a node-link JSON file written by graphio.
type FileSource struct {
	Path string
}

// Load reads the file and applies opts in memory: label and type filters
// first, then Limit on nodes in file order.
func (s *FileSource) Load(_ context.Context, opts LoadOptions) (*graph.Graph, error) {
	full, err := graphio.ImportJSON(s.Path)
	if err != nil {
		return nil, err
	}
	return filter(full, opts), nil
}

func filter(g *graph.Graph, opts LoadOptions) *graph.Graph {
	if len(opts.NodeLabels) == 0 && len(opts.RelationshipTypes) == 0 && opts.Limit <= 0 {
		return g
	}
	var keep []string
	for _, n := range g.Nodes() {
		if opts.Limit > 0 && len(keep) >= opts.Limit {
			break
		}
		if len(opts.NodeLabels) == 0 || slices.ContainsFunc(n.Labels, func(l string) bool {
			return slices.Contains(opts.NodeLabels, l)
		}) {
			keep = append(keep, n.ID)
		}
	}
	sub := g.Subgraph(keep)
	if len(opts.RelationshipTypes) == 0 {
		return sub
	}
	out := graph.New(sub.Meta())
	for _, n := range sub.Nodes() {
		_ = out.AddNode(*n)
	}
	for _, e := range sub.Edges() {
		if slices.Contains(opts.RelationshipTypes, e.Type) {
			_ = out.AddEdgeKeyed(e)
		}
	}
	return out
}

// MatchNodes implements Source over the whole file.
func (s *FileSource) MatchNodes(_ context.Context, label, property string, values []string) (ids, missing []string, err error) {
	g, err := graphio.ImportJSON(s.Path)
	if err != nil {
		return nil, nil, err
	}
	return MatchInGraph(g, label, property, values)
}

// MatchInGraph resolves values against an in-memory graph with the same
// semantics as Loader.MatchNodes. An empty label matches any node.
func MatchInGraph(g *graph.Graph, label, property string, values []string) (ids, missing []string, err error) {
	if label != "" && !ValidIdentifier(label) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, label)
	}
	aliases := valueAliases(values)
	byValue := make(map[string][]string)
	for _, n := range g.NodesByProperty(property, withAliases(values, aliases)...) {
		if label == "" || n.HasLabel(label) {
			v := resolveAlias(aliases, n.Props.String(property))
			byValue[v] = append(byValue[v], n.ID)
		}
	}
	return orderMatches(values, byValue)
}

// Describe implements Source. The modification time is included so that
// cached results are invalidated when the file changes.
func (s *FileSource) Describe() string {
	if fi, err := os.Stat(s.Path); err == nil {
		return fmt.Sprintf("file:%s@%d", s.Path, fi.ModTime().UnixNano())
	}
	return "file:" + s.Path
}

// Close implements Source.
func (s *FileSource) Close(context.Context) error { return nil }

var (
	_ Source = (*DBSource)(nil)
	_ Source = (*FileSource)(nil)
)
