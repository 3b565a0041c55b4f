// Package radiate ranks nodes by their personalized PageRank relative to a
// set of source nodes.
//
// Forward radiate spreads rank along edge direction from the sources and
// finds what the sources influence. Reverse radiate runs on the reversed
// graph and finds what influences the sources. Both combines the two as
// the geometric mean of the forward and reverse scores.
package radiate

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/sbrg/gds/pkg/algo"
	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/table"
	"github.com/sbrg/gds/pkg/trace"
)

var (
	// ErrNoSources is returned when Options.Sources is empty.
	ErrNoSources = errors.New("radiate: no source nodes")

	// ErrInvalidDirection is returned for an unrecognised Direction.
	ErrInvalidDirection = errors.New("radiate: invalid direction")
)

// Direction selects which PageRank runs feed the score.
type Direction string

const (
	Forward Direction = "forward"
	Reverse Direction = "reverse"
	Both    Direction = "both"
)

// ParseDirection validates s; the empty string selects Forward.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case "", Forward:
		return Forward, nil
	case Reverse, Both:
		return Direction(s), nil
	}
	return "", fmt.Errorf("%w %q (must be one of: forward, reverse, both)", ErrInvalidDirection, s)
}

// Options configures Run.
type Options struct {
	Sources   []string
	Direction Direction
	Alpha     float64
	MaxIter   int
	Tol       float64
	Weight    algo.WeightFunc
	// Labels keeps only nodes carrying at least one of these labels.
	Labels []string
	// ExcludeSources drops the source nodes from the ranking.
	ExcludeSources bool
	// TopN truncates the ranking; 0 keeps every node.
	TopN int
	// DisplayProperty names the node property used for Row.Name.
	DisplayProperty string
}

// Row is one ranked node.
type Row struct {
	ID      string
	Name    string
	Labels  []string
	Forward float64
	Reverse float64
	Score   float64
	ZScore  float64
	Rank    int
}

// Result is a radiate ranking.
type Result struct {
	Direction Direction
	Sources   []string
	Rows      []Row
}

// Run computes the ranking. Z-scores are taken over every node of g before
// label filtering and source exclusion, so they stay comparable between
// filtered views of the same run.
func Run(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	if len(opts.Sources) == 0 {
		return nil, ErrNoSources
	}
	for _, s := range opts.Sources {
		if !g.HasNode(s) {
			return nil, fmt.Errorf("radiate: source %s: %w", s, graph.ErrNodeNotFound)
		}
	}
	dir, err := ParseDirection(string(opts.Direction))
	if err != nil {
		return nil, err
	}

	p := make(map[string]float64, len(opts.Sources))
	for _, s := range opts.Sources {
		p[s] = 1
	}
	pr := algo.PageRankOptions{
		Alpha:           opts.Alpha,
		MaxIter:         opts.MaxIter,
		Tol:             opts.Tol,
		Personalization: p,
		Weight:          opts.Weight,
	}

	var fwd, rev map[string]float64
	if dir != Reverse {
		if fwd, err = algo.PageRank(ctx, g, pr); err != nil {
			return nil, fmt.Errorf("radiate: forward: %w", err)
		}
	}
	if dir != Forward {
		if rev, err = algo.PageRank(ctx, g.Reverse(), pr); err != nil {
			return nil, fmt.Errorf("radiate: reverse: %w", err)
		}
	}

	nodes := g.Nodes()
	rows := make([]Row, len(nodes))
	scores := make([]float64, len(nodes))
	for i, n := range nodes {
		r := Row{
			ID:      n.ID,
			Name:    n.DisplayName(opts.DisplayProperty),
			Labels:  n.Labels,
			Forward: fwd[n.ID],
			Reverse: rev[n.ID],
		}
		switch dir {
		case Forward:
			r.Score = r.Forward
		case Reverse:
			r.Score = r.Reverse
		case Both:
			r.Score = math.Sqrt(r.Forward * r.Reverse)
		}
		rows[i] = r
		scores[i] = r.Score
	}

	mean, std := stat.MeanStdDev(scores, nil)
	for i := range rows {
		if std > 0 && !math.IsNaN(std) {
			rows[i].ZScore = (rows[i].Score - mean) / std
		}
	}

	rows = slices.DeleteFunc(rows, func(r Row) bool {
		if opts.ExcludeSources && slices.Contains(opts.Sources, r.ID) {
			return true
		}
		return len(opts.Labels) > 0 && !slices.ContainsFunc(r.Labels, func(l string) bool {
			return slices.Contains(opts.Labels, l)
		})
	})
	slices.SortStableFunc(rows, func(a, b Row) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if opts.TopN > 0 && len(rows) > opts.TopN {
		rows = rows[:opts.TopN]
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return &Result{Direction: dir, Sources: opts.Sources, Rows: rows}, nil
}

// Top returns the first n rows; n <= 0 returns all rows.
func (r *Result) Top(n int) []Row {
	if n <= 0 || n >= len(r.Rows) {
		return r.Rows
	}
	return r.Rows[:n]
}

// Table returns the ranking as a table.
func (r *Result) Table() (*table.Table, error) {
	rows := make([][]any, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = []any{
			row.Rank, row.ID, row.Name, strings.Join(row.Labels, ";"),
			row.Forward, row.Reverse, row.Score, row.ZScore,
		}
	}
	return table.FromRows([]table.Column{
		{Name: "rank", Kind: table.Int},
		{Name: "id", Kind: table.String},
		{Name: "name", Kind: table.String},
		{Name: "labels", Kind: table.String},
		{Name: "forward", Kind: table.Float},
		{Name: "reverse", Kind: table.Float},
		{Name: "score", Kind: table.Float},
		{Name: "zscore", Kind: table.Float},
	}, rows)
}

// TraceTo adds a trace network between the sources and the top n ranked
// nodes. sourceSet is reused when tg already has a node set of that name.
// Reverse rankings trace from the top nodes to the sources. On error tg is
// left as it was, so a failed call can be retried.
func (r *Result) TraceTo(ctx context.Context, tg *trace.TraceGraph, sourceSet string, n int, w algo.WeightFunc) (trace.Network, error) {
	var added []string
	rollback := func() {
		for _, name := range added {
			tg.RemoveNodeSet(name)
		}
	}

	if _, ok := tg.NodeSet(sourceSet); !ok {
		if err := tg.AddNodeSet(graph.NewNodeSet(sourceSet, "radiate sources", r.Sources)); err != nil {
			return trace.Network{}, err
		}
		added = append(added, sourceSet)
	}
	var ids []string
	for _, row := range r.Top(n) {
		if !slices.Contains(r.Sources, row.ID) {
			ids = append(ids, row.ID)
		}
	}
	topName := fmt.Sprintf("top %d %s", len(ids), r.Direction)
	if err := tg.AddNodeSet(graph.NewNodeSet(topName, "highest ranked nodes", ids)); err != nil {
		rollback()
		return trace.Network{}, err
	}
	added = append(added, topName)

	opts := trace.NetworkOptions{
		Name:    fmt.Sprintf("%s radiate", r.Direction),
		Sources: sourceSet,
		Targets: topName,
		Weight:  w,
	}
	if r.Direction == Reverse {
		opts.Sources, opts.Targets = topName, sourceSet
	}
	net, err := tg.AddShortestPaths(ctx, opts)
	if err != nil {
		rollback()
		return trace.Network{}, err
	}
	return net, nil
}
