package cli

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sbrg/gds/pkg/config"
	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/graphio"
	"github.com/sbrg/gds/pkg/radiate"
	"github.com/sbrg/gds/pkg/table"
)

func writeTestGraph(t *testing.T) string {
	t.Helper()
	g := graph.New(nil)
	for _, n := range []graph.Node{
		{ID: "g1", Labels: []string{"Gene"}, Props: graph.Properties{"name": "lacZ"}},
		{ID: "p1", Labels: []string{"Protein"}, Props: graph.Properties{"name": "LacZ"}},
		{ID: "c1", Labels: []string{"Compound"}, Props: graph.Properties{"name": "lactose"}},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []graph.Edge{{From: "g1", To: "p1", Type: "ENCODES"}, {From: "p1", To: "c1", Type: "CATALYZES"}} {
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

// run executes the root command with an isolated config and cache.
func run(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.Execute()
}

func TestTraceCommand(t *testing.T) {
	graphPath := writeTestGraph(t)
	out := filepath.Join(t.TempDir(), "results", "lac")

	err := run(t, "trace", "--graph", graphPath,
		"-s", "Gene:name=lacZ", "-t", "Compound:name=lactose",
		"-f", "graph,json,dot", "-o", out)
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	for _, suffix := range []string{".graph.json", ".json", ".dot"} {
		if _, err := os.Stat(out + suffix); err != nil {
			t.Errorf("missing %s: %v", suffix, err)
		}
	}

	// The Sankey graph renders back to DOT.
	dot := filepath.Join(t.TempDir(), "lac.dot")
	if err := run(t, "render", out+".graph.json", "-f", "dot", "-o", dot); err != nil {
		t.Fatalf("render: %v", err)
	}
	if data, err := os.ReadFile(dot); err != nil || len(data) == 0 {
		t.Errorf("render output: %v", err)
	}
}

func TestRadiateAndExport(t *testing.T) {
	graphPath := writeTestGraph(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "rank")

	if err := run(t, "radiate", "--graph", graphPath, "--no-cache", "-s", "Gene=lacZ", "-f", "json", "-o", out); err != nil {
		t.Fatalf("radiate: %v", err)
	}
	tbl, err := readTable(out + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 3 {
		t.Errorf("ranked rows = %d, want 3", tbl.Len())
	}

	csv := filepath.Join(dir, "rank.csv")
	if err := run(t, "export", out+".json", "-o", csv); err != nil {
		t.Fatalf("export csv: %v", err)
	}
	if back, err := readTable(csv); err != nil || back.Len() != 3 {
		t.Errorf("csv round trip: %v", err)
	}
	if err := run(t, "export", out+".json", csv, "-o", filepath.Join(dir, "two.csv")); err == nil {
		t.Error("csv export of two tables should fail")
	}

	xlsx := filepath.Join(dir, "rank.xlsx")
	if err := run(t, "export", out+".json", "-o", xlsx); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := os.Stat(xlsx); err != nil {
		t.Error(err)
	}
}

func TestLoadAround(t *testing.T) {
	graphPath := writeTestGraph(t)
	out := filepath.Join(t.TempDir(), "lacz.json")

	if err := run(t, "load", "--graph", graphPath, "--around", "Gene=lacZ", "--radius", "1", "--direction", "out", "-o", out); err != nil {
		t.Fatalf("load: %v", err)
	}
	g, err := graphio.ImportJSON(out)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(g.NodeIDs(), []string{"g1", "p1"}) || g.EdgeCount() != 1 {
		t.Errorf("nodes = %v, edges = %d", g.NodeIDs(), g.EdgeCount())
	}

	if err := run(t, "stats", "--graph", graphPath); err != nil {
		t.Errorf("stats: %v", err)
	}
}

func TestAnalysisFlagErrors(t *testing.T) {
	graphPath := writeTestGraph(t)
	missing := filepath.Join(t.TempDir(), "missing.json")
	tests := []struct {
		name string
		args []string
	}{
		{"missing targets", []string{"trace", "--graph", graphPath, "-s", "Gene=lacZ"}},
		{"bad format", []string{"trace", "--graph", graphPath, "-s", "Gene=lacZ", "-t", "Compound=lactose", "-f", "pdf"}},
		{"alpha out of range", []string{"radiate", "--graph", graphPath, "-s", "Gene=lacZ", "--alpha", "1.5"}},
		{"invalid identifier", []string{"radiate", "--graph", graphPath, "-s", "Bad Label=lacZ"}},
		{"no graph", []string{"radiate", "--graph", missing, "-s", "Gene=lacZ"}},
		{"bad direction", []string{"radiate", "--graph", graphPath, "-s", "Gene=lacZ", "--direction", "undirected"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(t, tt.args...); err == nil {
				t.Errorf("%v: expected error", tt.args)
			}
		})
	}
}

func TestRadiateDirectionUsage(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	cmd, _, err := root.Find([]string{"radiate"})
	if err != nil {
		t.Fatal(err)
	}
	usage := cmd.Flags().Lookup("direction").Usage
	for _, d := range []radiate.Direction{radiate.Forward, radiate.Reverse, radiate.Both} {
		if !strings.Contains(usage, string(d)) {
			t.Errorf("--direction usage %q does not list %s", usage, d)
		}
	}
	if strings.Contains(usage, "undirected") {
		t.Errorf("--direction usage lists an unsupported value: %q", usage)
	}
}

func TestConfigDefaultsApply(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.Config = config.Default()
	c.Config.Analysis.Alpha = 0.5
	c.Config.Analysis.MaxPaths = 3

	if got := c.analysisDefaults("radiate"); got.Alpha != 0.5 || got.MaxPaths != 0 {
		t.Errorf("radiate defaults = %+v", got)
	}
	if got := c.analysisDefaults("trace"); got.MaxPaths != 3 || got.Alpha != 0 {
		t.Errorf("trace defaults = %+v", got)
	}
}

func TestCacheDir(t *testing.T) {
	c := New(io.Discard, LogInfo)

	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	dir, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}

	c.Config.Cache.Dir = "/srv/gds-cache"
	if dir, _ := c.cacheDir(); dir != "/srv/gds-cache" {
		t.Errorf("configured dir = %q", dir)
	}

	c.Config.Cache.Backend = config.BackendRedis
	if _, err := c.cacheDir(); err == nil {
		t.Error("redis backend should have no local directory")
	}
}

func TestArtifactPath(t *testing.T) {
	tests := []struct{ base, format, want string }{
		{"lac", "graph", "lac.graph.json"},
		{"lac", "json", "lac.json"},
		{"lac.graph.json", "xlsx", "lac.xlsx"},
		{"out/lac.json", "svg", "out/lac.svg"},
	}
	for _, tt := range tests {
		if got := artifactPath(tt.base, tt.format); got != tt.want {
			t.Errorf("artifactPath(%q, %q) = %q, want %q", tt.base, tt.format, got, tt.want)
		}
	}
}

func TestRenderPath(t *testing.T) {
	if got := renderPath("", "lac.graph.json", "svg", false); got != "lac.svg" {
		t.Errorf("default = %q", got)
	}
	if got := renderPath("out.svg", "lac.graph.json", "svg", false); got != "out.svg" {
		t.Errorf("single = %q", got)
	}
	if got := renderPath("out.svg", "lac.graph.json", "dot", true); got != "out.dot" {
		t.Errorf("multiple = %q", got)
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(" Gene, ,Protein,"); !reflect.DeepEqual(got, []string{"Gene", "Protein"}) {
		t.Errorf("splitList = %v", got)
	}
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v", got)
	}
}

func TestByCount(t *testing.T) {
	got := byCount(map[string]int{"Gene": 2, "Compound": 5, "Protein": 2})
	want := []keyCount{{"Compound", 5}, {"Gene", 2}, {"Protein", 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("byCount = %v", got)
	}
}

func TestTableModel(t *testing.T) {
	tbl, err := table.FromRows(
		[]table.Column{{Name: "name", Kind: table.String}, {Name: "score", Kind: table.Float}},
		[][]any{{"a", 0.5}, {"b", 0.25}, {"c", 0.125}},
	)
	if err != nil {
		t.Fatal(err)
	}
	m := NewTableModel("ranking", tbl)
	m.Height = 2

	key := func(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }
	step := func(msg tea.Msg) {
		next, _ := m.Update(msg)
		m = next.(TableModel)
	}

	step(key("j"))
	step(key("j"))
	step(key("j"))
	if m.Cursor != 2 || m.Offset != 1 {
		t.Errorf("cursor=%d offset=%d, want 2 and 1", m.Cursor, m.Offset)
	}
	step(key("g"))
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("home: cursor=%d offset=%d", m.Cursor, m.Offset)
	}
	step(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Selected != 0 || m.Rows[0][1] != "0.5" {
		t.Errorf("selected=%d rows=%v", m.Selected, m.Rows)
	}
}
