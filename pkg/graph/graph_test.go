package graph

import (
	"errors"
	"slices"
	"testing"
)

func buildPathway(t *testing.T) *Graph {
	t.Helper()
	g := New(nil)
	for _, n := range []Node{
		{ID: "g1", Labels: []string{"Gene"}, Props: Properties{"name": "lacZ"}},
		{ID: "p1", Labels: []string{"Protein"}, Props: Properties{"name": "LacZ"}},
		{ID: "r1", Labels: []string{"Reaction"}},
		{ID: "c1", Labels: []string{"Compound"}, Props: Properties{"name": "lactose", "biocyc_id": "LACTOSE"}},
		{ID: "c2", Labels: []string{"Compound"}, Props: Properties{"name": "glucose", "biocyc_id": "GLC"}},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, e := range []Edge{
		{From: "g1", To: "p1", Type: "ENCODES"},
		{From: "p1", To: "r1", Type: "CATALYZES"},
		{From: "c1", To: "r1", Type: "CONSUMED_BY"},
		{From: "r1", To: "c2", Type: "PRODUCES"},
	} {
		if _, err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%s->%s): %v", e.From, e.To, err)
		}
	}
	return g
}

func TestAddNodeErrors(t *testing.T) {
	g := New(nil)
	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty ID: got %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("duplicate: got %v, want ErrDuplicateNodeID", err)
	}
	n, _ := g.Node("a")
	if n.Props == nil {
		t.Error("Props should be initialised")
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	if _, err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("got %v, want ErrUnknownSourceNode", err)
	}
	if _, err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("got %v, want ErrUnknownTargetNode", err)
	}
}

func TestParallelEdgeKeys(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	var keys []int
	for i := 0; i < 3; i++ {
		k, err := g.AddEdge(Edge{From: "a", To: "b", Type: "REL"})
		if err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
		keys = append(keys, k)
	}
	if !slices.Equal(keys, []int{0, 1, 2}) {
		t.Errorf("keys = %v, want [0 1 2]", keys)
	}
	k, _ := g.AddEdge(Edge{From: "b", To: "a"})
	if k != 0 {
		t.Errorf("reverse pair key = %d, want 0", k)
	}
	if got := len(g.EdgesBetween("a", "b")); got != 3 {
		t.Errorf("EdgesBetween = %d, want 3", got)
	}
	if got := g.Successors("a"); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Successors = %v, want [b]", got)
	}
	if g.OutDegree("a") != 3 || g.InDegree("a") != 1 {
		t.Errorf("degrees = %d/%d, want 3/1", g.OutDegree("a"), g.InDegree("a"))
	}
}

func TestAddEdgeKeyed(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a"})
	_ = g.AddNode(Node{ID: "b"})

	for _, k := range []int{3, 1} {
		if err := g.AddEdgeKeyed(Edge{From: "a", To: "b", Key: k}); err != nil {
			t.Fatalf("AddEdgeKeyed(%d): %v", k, err)
		}
	}
	if err := g.AddEdgeKeyed(Edge{From: "a", To: "b", Key: 3}); !errors.Is(err, ErrDuplicateEdgeKey) {
		t.Errorf("duplicate key: %v", err)
	}
	if err := g.AddEdgeKeyed(Edge{From: "a", To: "b", Key: -1}); err == nil {
		t.Error("negative key should fail")
	}
	if err := g.AddEdgeKeyed(Edge{From: "a", To: "z"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("unknown target: %v", err)
	}
	if k, _ := g.AddEdge(Edge{From: "a", To: "b"}); k != 4 {
		t.Errorf("next free key = %d, want 4", k)
	}
	var keys []int
	for _, idx := range g.EdgesBetween("a", "b") {
		keys = append(keys, g.Edge(idx).Key)
	}
	if !slices.Equal(keys, []int{3, 1, 4}) {
		t.Errorf("keys = %v", keys)
	}
}

func TestMergeNode(t *testing.T) {
	g := New(nil)
	_ = g.AddNode(Node{ID: "a", Labels: []string{"Gene"}, Props: Properties{"name": "x"}})
	if err := g.MergeNode(Node{ID: "a", Labels: []string{"Gene", "Master"}, Props: Properties{"name": "y", "tax": 9606}}); err != nil {
		t.Fatalf("MergeNode: %v", err)
	}
	n, _ := g.Node("a")
	if !slices.Equal(n.Labels, []string{"Gene", "Master"}) {
		t.Errorf("Labels = %v", n.Labels)
	}
	if n.Props["name"] != "y" || n.Props["tax"] != 9606 {
		t.Errorf("Props = %v", n.Props)
	}
	if err := g.MergeNode(Node{ID: "b"}); err != nil || !g.HasNode("b") {
		t.Errorf("MergeNode should insert new nodes: %v", err)
	}
}

func TestRemoveNode(t *testing.T) {
	g := buildPathway(t)
	g.RemoveNode("r1")

	if g.HasNode("r1") {
		t.Error("r1 should be removed")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	if got := g.Successors("g1"); !slices.Equal(got, []string{"p1"}) {
		t.Errorf("Successors(g1) = %v", got)
	}
	if len(g.OutEdges("p1")) != 0 {
		t.Error("p1 should have no out edges")
	}
	g.RemoveNode("missing")
}

func TestReverse(t *testing.T) {
	g := buildPathway(t)
	r := g.Reverse()

	if r.NodeCount() != g.NodeCount() || r.EdgeCount() != g.EdgeCount() {
		t.Fatalf("size mismatch")
	}
	if !r.HasEdge("p1", "g1") || r.HasEdge("g1", "p1") {
		t.Error("edge g1->p1 should be flipped")
	}
	rr := r.Reverse()
	for i, e := range g.Edges() {
		got := rr.Edge(i)
		if got.From != e.From || got.To != e.To || got.Key != e.Key {
			t.Errorf("edge %d: got %+v, want %+v", i, got, e)
		}
	}
}

func TestSubgraph(t *testing.T) {
	g := buildPathway(t)
	s := g.Subgraph([]string{"r1", "p1", "g1", "unknown"})

	if got := s.NodeIDs(); !slices.Equal(got, []string{"g1", "p1", "r1"}) {
		t.Errorf("NodeIDs = %v", got)
	}
	if s.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", s.EdgeCount())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := buildPathway(t)
	c := g.Clone()
	c.RemoveNode("g1")
	n, _ := c.Node("c1")
	n.Props["name"] = "changed"

	if !g.HasNode("g1") {
		t.Error("original lost g1")
	}
	orig, _ := g.Node("c1")
	if orig.Props["name"] != "lactose" {
		t.Error("clone shares node properties")
	}
}

func TestNodesByProperty(t *testing.T) {
	g := buildPathway(t)
	got := NodeIDs(g.NodesByProperty("biocyc_id", "GLC", "LACTOSE", "GLC", "NONE"))
	if !slices.Equal(got, []string{"c2", "c1"}) {
		t.Errorf("NodesByProperty = %v, want [c2 c1]", got)
	}
	if got := NodeIDs(g.NodesWithLabel("Compound")); !slices.Equal(got, []string{"c1", "c2"}) {
		t.Errorf("NodesWithLabel = %v", got)
	}
}

func TestPropertiesString(t *testing.T) {
	p := Properties{
		"name":    "lacZ",
		"rank":    1.0,
		"big":     1234567.0,
		"weight":  0.25,
		"small":   float32(0.1),
		"count":   int64(3),
		"curated": true,
		"empty":   nil,
	}
	tests := map[string]string{
		"name":    "lacZ",
		"rank":    "1",
		"big":     "1234567",
		"weight":  "0.25",
		"small":   "0.1",
		"count":   "3",
		"curated": "true",
		"empty":   "",
		"missing": "",
	}
	for key, want := range tests {
		if got := p.String(key); got != want {
			t.Errorf("String(%q) = %q, want %q", key, got, want)
		}
	}
}

func TestNodesByPropertyNumeric(t *testing.T) {
	g := New(nil)
	for id, rank := range map[string]any{"a": 1.0, "b": int64(2), "c": 2.5} {
		if err := g.AddNode(Node{ID: id, Props: Properties{"rank": rank}}); err != nil {
			t.Fatal(err)
		}
	}
	got := NodeIDs(g.NodesByProperty("rank", "1", "2", "2.5"))
	slices.Sort(got)
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("NodesByProperty = %v, want [a b c]", got)
	}
}

func TestCounts(t *testing.T) {
	g := buildPathway(t)
	if got := g.Labels()["Compound"]; got != 2 {
		t.Errorf("Labels[Compound] = %d, want 2", got)
	}
	if got := g.RelationshipTypes()["PRODUCES"]; got != 1 {
		t.Errorf("RelationshipTypes[PRODUCES] = %d, want 1", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		node Node
		prop string
		want string
	}{
		{"preferred", Node{ID: "1", Props: Properties{"displayName": "A", "name": "B"}}, "displayName", "A"},
		{"fallback name", Node{ID: "1", Props: Properties{"name": "B"}}, "displayName", "B"},
		{"fallback id", Node{ID: "1", Props: Properties{}}, "", "1"},
		{"non-string", Node{ID: "1", Props: Properties{"displayName": 42}}, "displayName", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.DisplayName(tt.prop); got != tt.want {
				t.Errorf("DisplayName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNodeSet(t *testing.T) {
	g := buildPathway(t)
	s := NewNodeSet("sources", "", []string{"c1", "c2", "c1"})
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	if err := s.Validate(g); err != nil {
		t.Errorf("Validate: %v", err)
	}
	bad := NewNodeSet("bad", "", []string{"zz"})
	if err := bad.Validate(g); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("Validate = %v, want ErrNodeNotFound", err)
	}
}
