package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sbrg/gds/pkg/graph"
)

// LoadOptions restricts what is loaded. Empty slices mean no restriction.
type LoadOptions struct {
	NodeLabels        []string `json:"node_labels,omitempty"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
	// Limit caps nodes and relationships separately; 0 means no cap.
	Limit int `json:"limit,omitempty"`
}

// Loader builds graphs from query results.
type Loader struct {
	q Querier
}

// NewLoader returns a loader that runs its queries through q.
func NewLoader(q Querier) *Loader { return &Loader{q: q} }

// Load runs a node query and a relationship query. Relationships whose
// endpoints were not loaded (because of Limit) are dropped and counted in
// the graph's "dropped_relationships" meta entry.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (*graph.Graph, error) {
	nq, nparams, err := NodesQuery(opts.NodeLabels, opts.Limit)
	if err != nil {
		return nil, err
	}
	rq, rparams, err := RelationshipsQuery(opts.NodeLabels, opts.RelationshipTypes, opts.Limit)
	if err != nil {
		return nil, err
	}

	nodes, err := l.q.Query(ctx, nq, nparams)
	if err != nil {
		return nil, err
	}
	g := graph.New(graph.Properties{"source": "neo4j"})
	for _, rec := range nodes {
		n, err := recordValue[neo4j.Node](rec, "n")
		if err != nil {
			return nil, err
		}
		if err := g.MergeNode(NodeFromDriver(n)); err != nil {
			return nil, err
		}
	}

	rels, err := l.q.Query(ctx, rq, rparams)
	if err != nil {
		return nil, err
	}
	dropped := 0
	for _, rec := range rels {
		r, err := recordValue[neo4j.Relationship](rec, "r")
		if err != nil {
			return nil, err
		}
		e := EdgeFromDriver(r)
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			dropped++
			continue
		}
		if _, err := g.AddEdge(e); err != nil {
			return nil, fmt.Errorf("graphdb: relationship %s: %w", r.ElementId, err)
		}
	}
	if dropped > 0 {
		g.Meta()["dropped_relationships"] = dropped
	}
	return g, nil
}

// MatchNodes returns the element IDs of label nodes whose property matches
// one of values, ordered by values. Values with no match are returned in
// missing rather than as an error.
func (l *Loader) MatchNodes(ctx context.Context, label, property string, values []string) (ids, missing []string, err error) {
	cypher, params, err := MatchQuery(label, property, values)
	if err != nil {
		return nil, nil, err
	}
	recs, err := l.q.Query(ctx, cypher, params)
	if err != nil {
		return nil, nil, err
	}
	aliases := valueAliases(values)
	byValue := make(map[string][]string)
	for _, rec := range recs {
		id, err := recordValue[string](rec, "id")
		if err != nil {
			return nil, nil, err
		}
		v, err := recordValue[string](rec, "value")
		if err != nil {
			return nil, nil, err
		}
		v = resolveAlias(aliases, v)
		byValue[v] = append(byValue[v], id)
	}
	return orderMatches(values, byValue)
}

func orderMatches(values []string, byValue map[string][]string) (ids, missing []string, err error) {
	seen := make(map[string]bool)
	for _, v := range values {
		matched := byValue[v]
		if len(matched) == 0 {
			missing = append(missing, v)
			continue
		}
		for _, id := range matched {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, missing, nil
}
