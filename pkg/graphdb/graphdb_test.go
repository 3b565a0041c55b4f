package graphdb

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/graphio"
)

func TestNodesQuery(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		limit  int
		want   string
	}{
		{"all", nil, 0, "MATCH (n) RETURN n ORDER BY elementId(n)"},
		{"labels", []string{"Gene", "Protein"}, 0, "MATCH (n) WHERE (n:`Gene` OR n:`Protein`) RETURN n ORDER BY elementId(n)"},
		{"limit", []string{"Gene"}, 10, "MATCH (n) WHERE (n:`Gene`) RETURN n ORDER BY elementId(n) LIMIT $limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, params, err := NodesQuery(tt.labels, tt.limit)
			if err != nil {
				t.Fatalf("NodesQuery: %v", err)
			}
			if got != tt.want {
				t.Errorf("query = %q\nwant    %q", got, tt.want)
			}
			if tt.limit > 0 && params["limit"] != tt.limit {
				t.Errorf("params = %v", params)
			}
		})
	}
}

func TestRelationshipsQuery(t *testing.T) {
	got, _, err := RelationshipsQuery([]string{"Gene"}, []string{"ENCODES", "REGULATES"}, 0)
	if err != nil {
		t.Fatalf("RelationshipsQuery: %v", err)
	}
	want := "MATCH (a)-[r:`ENCODES`|`REGULATES`]->(b) WHERE (a:`Gene`) AND (b:`Gene`) RETURN r ORDER BY elementId(r)"
	if got != want {
		t.Errorf("query = %q\nwant    %q", got, want)
	}
}

func TestQueryRejectsInjection(t *testing.T) {
	if _, _, err := NodesQuery([]string{"Gene`) DETACH DELETE n //"}, 0); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("NodesQuery: %v", err)
	}
	if _, _, err := RelationshipsQuery(nil, []string{"A B"}, 0); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("RelationshipsQuery: %v", err)
	}
	if _, _, err := MatchQuery("Gene", "name;", nil); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("MatchQuery: %v", err)
	}
	q, params, err := MatchQuery("Gene", "name", []string{"lacZ' OR 1=1"})
	if err != nil {
		t.Fatalf("MatchQuery: %v", err)
	}
	if strings.Contains(q, "lacZ") || !reflect.DeepEqual(params["values"], []string{"lacZ' OR 1=1"}) {
		t.Errorf("values must be parameters: %q %v", q, params)
	}
}

func TestConvertValue(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := NodeFromDriver(neo4j.Node{
		ElementId: "4:abc:1",
		Labels:    []string{"Gene"},
		Props: map[string]any{
			"name":    "lacZ",
			"updated": ts,
			"aliases": []any{"b0344", ts},
			"meta":    map[string]any{"at": ts},
		},
	})
	if n.ID != "4:abc:1" || !n.HasLabel("Gene") {
		t.Errorf("node = %+v", n)
	}
	if n.Props["updated"] != "2024-05-01T12:00:00Z" {
		t.Errorf("updated = %v", n.Props["updated"])
	}
	if got := n.Props["aliases"].([]any)[1]; got != "2024-05-01T12:00:00Z" {
		t.Errorf("aliases[1] = %v", got)
	}
	if got := n.Props["meta"].(map[string]any)["at"]; got != "2024-05-01T12:00:00Z" {
		t.Errorf("meta.at = %v", got)
	}

	e := EdgeFromDriver(neo4j.Relationship{StartElementId: "a", EndElementId: "b", Type: "ENCODES"})
	if e.From != "a" || e.To != "b" || e.Type != "ENCODES" || e.Props == nil {
		t.Errorf("edge = %+v", e)
	}
}

// fakeQuerier answers queries by prefix.
type fakeQuerier struct {
	answers map[string][]*neo4j.Record
	queries []string
}

func (f *fakeQuerier) Query(_ context.Context, cypher string, _ map[string]any) ([]*neo4j.Record, error) {
	f.queries = append(f.queries, cypher)
	for prefix, recs := range f.answers {
		if strings.HasPrefix(cypher, prefix) {
			return recs, nil
		}
	}
	return nil, nil
}

func rec(key string, v any) *neo4j.Record {
	return &neo4j.Record{Keys: []string{key}, Values: []any{v}}
}

func TestLoaderLoad(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"MATCH (n)": {
			rec("n", neo4j.Node{ElementId: "g1", Labels: []string{"Gene"}}),
			rec("n", neo4j.Node{ElementId: "p1", Labels: []string{"Protein"}}),
		},
		"MATCH (a)": {
			rec("r", neo4j.Relationship{ElementId: "r1", StartElementId: "g1", EndElementId: "p1", Type: "ENCODES"}),
			rec("r", neo4j.Relationship{ElementId: "r2", StartElementId: "g1", EndElementId: "zz", Type: "ENCODES"}),
		},
	}}
	g, err := NewLoader(q).Load(context.Background(), LoadOptions{NodeLabels: []string{"Gene", "Protein"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("got %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
	if g.Meta()["dropped_relationships"] != 1 {
		t.Errorf("meta = %v", g.Meta())
	}
	if len(q.queries) != 2 {
		t.Errorf("queries = %v", q.queries)
	}
}

func TestLoaderRejectsNull(t *testing.T) {
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{"MATCH (n)": {rec("n", nil)}}}
	if _, err := NewLoader(q).Load(context.Background(), LoadOptions{}); !errors.Is(err, ErrNilValue) {
		t.Errorf("Load = %v, want ErrNilValue", err)
	}
}

func TestLoaderMatchNodes(t *testing.T) {
	row := func(id, value string) *neo4j.Record {
		return &neo4j.Record{Keys: []string{"id", "value"}, Values: []any{id, value}}
	}
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"MATCH (n:`Gene`)": {row("g1", "lacZ"), row("g2", "lacY"), row("g3", "lacZ")},
	}}
	ids, missing, err := NewLoader(q).MatchNodes(context.Background(), "Gene", "name", []string{"lacY", "lacZ", "lacA"})
	if err != nil {
		t.Fatalf("MatchNodes: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"g2", "g1", "g3"}) {
		t.Errorf("ids = %v", ids)
	}
	if !reflect.DeepEqual(missing, []string{"lacA"}) {
		t.Errorf("missing = %v", missing)
	}
}

func TestMatchQueryNumericSpellings(t *testing.T) {
	_, params, err := MatchQuery("Gene", "rank", []string{"1", "2.5", "3.0", "lacZ"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1", "2.5", "3.0", "lacZ", "1.0", "3"}
	if !reflect.DeepEqual(params["values"], want) {
		t.Errorf("values = %v, want %v", params["values"], want)
	}

	row := func(id, value string) *neo4j.Record {
		return &neo4j.Record{Keys: []string{"id", "value"}, Values: []any{id, value}}
	}
	q := &fakeQuerier{answers: map[string][]*neo4j.Record{
		"MATCH (n:`Gene`)": {row("g1", "1.0"), row("g2", "3")},
	}}
	ids, missing, err := NewLoader(q).MatchNodes(context.Background(), "Gene", "rank", []string{"1", "3.0", "4"})
	if err != nil {
		t.Fatalf("MatchNodes: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"g1", "g2"}) || !reflect.DeepEqual(missing, []string{"4"}) {
		t.Errorf("ids=%v missing=%v", ids, missing)
	}
}

func TestMatchInGraphNumeric(t *testing.T) {
	g := graph.New(nil)
	for _, n := range []graph.Node{
		{ID: "g1", Labels: []string{"Gene"}, Props: graph.Properties{"rank": 1.0}},
		{ID: "g2", Labels: []string{"Gene"}, Props: graph.Properties{"rank": int64(3)}},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	ids, missing, err := MatchInGraph(g, "Gene", "rank", []string{"1.0", "3", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"g1", "g2"}) || !reflect.DeepEqual(missing, []string{"2"}) {
		t.Errorf("ids=%v missing=%v", ids, missing)
	}
}

func writeGraph(t *testing.T) string {
	t.Helper()
	g := graph.New(nil)
	for _, n := range []graph.Node{
		{ID: "g1", Labels: []string{"Gene"}, Props: graph.Properties{"name": "lacZ"}},
		{ID: "g2", Labels: []string{"Gene"}, Props: graph.Properties{"name": "lacY"}},
		{ID: "p1", Labels: []string{"Protein"}, Props: graph.Properties{"name": "lacZ"}},
		{ID: "c1", Labels: []string{"Compound"}},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []graph.Edge{
		{From: "g1", To: "p1", Type: "ENCODES"},
		{From: "g2", To: "g1", Type: "REGULATES"},
		{From: "p1", To: "c1", Type: "PRODUCES"},
	} {
		if _, err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := graphio.ExportJSON(g, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource(t *testing.T) {
	src := &FileSource{Path: writeGraph(t)}
	ctx := context.Background()

	full, err := src.Load(ctx, LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if full.NodeCount() != 4 || full.EdgeCount() != 3 {
		t.Errorf("full = %d/%d", full.NodeCount(), full.EdgeCount())
	}

	genes, _ := src.Load(ctx, LoadOptions{NodeLabels: []string{"Gene", "Protein"}, RelationshipTypes: []string{"ENCODES"}})
	if genes.NodeCount() != 3 || genes.EdgeCount() != 1 {
		t.Errorf("filtered = %d/%d", genes.NodeCount(), genes.EdgeCount())
	}

	limited, _ := src.Load(ctx, LoadOptions{Limit: 2})
	if limited.NodeCount() != 2 || limited.EdgeCount() != 1 {
		t.Errorf("limited = %d/%d", limited.NodeCount(), limited.EdgeCount())
	}

	ids, missing, err := src.MatchNodes(ctx, "Gene", "name", []string{"lacZ", "nope"})
	if err != nil {
		t.Fatalf("MatchNodes: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"g1"}) || !reflect.DeepEqual(missing, []string{"nope"}) {
		t.Errorf("ids=%v missing=%v", ids, missing)
	}

	if !strings.HasPrefix(src.Describe(), "file:") {
		t.Errorf("Describe = %q", src.Describe())
	}
	if _, err := (&FileSource{Path: "missing.json"}).Load(ctx, LoadOptions{}); err == nil {
		t.Error("missing file should fail")
	}
}

func TestFileSourceTypeFilterKeepsKeys(t *testing.T) {
	g := graph.New(nil)
	for _, id := range []string{"g1", "p1"} {
		if err := g.AddNode(graph.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	for _, typ := range []string{"ENCODES", "REGULATES"} {
		if _, err := g.AddEdge(graph.Edge{From: "g1", To: "p1", Type: typ}); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "parallel.json")
	if err := graphio.ExportJSON(g, path); err != nil {
		t.Fatal(err)
	}

	sub, err := (&FileSource{Path: path}).Load(context.Background(), LoadOptions{RelationshipTypes: []string{"REGULATES"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if sub.EdgeCount() != 1 {
		t.Fatalf("edges = %d", sub.EdgeCount())
	}
	if e := sub.Edge(0); e.Type != "REGULATES" || e.Key != 1 {
		t.Errorf("edge = %+v, want REGULATES with key 1", e)
	}
}

func TestMatchInGraphAnyLabel(t *testing.T) {
	g, err := graphio.ImportJSON(writeGraph(t))
	if err != nil {
		t.Fatal(err)
	}
	ids, _, err := MatchInGraph(g, "", "name", []string{"lacZ"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"g1", "p1"}) {
		t.Errorf("ids = %v", ids)
	}
	if _, _, err := MatchInGraph(g, "Bad Label", "name", nil); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("invalid label: %v", err)
	}
}
