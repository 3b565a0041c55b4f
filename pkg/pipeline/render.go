package pipeline

import (
	"bytes"
	"context"
	"fmt"

	gdserrors "github.com/sbrg/gds/pkg/errors"
	"github.com/sbrg/gds/pkg/export"
	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/radiate"
	"github.com/sbrg/gds/pkg/render/nodelink"
	"github.com/sbrg/gds/pkg/table"
	"github.com/sbrg/gds/pkg/trace"
)

// Render produces the artifacts for opts.Formats. tg may be nil for a
// radiate run without graph formats; ranking is nil for trace runs.
func (r *Runner) Render(ctx context.Context, g *graph.Graph, tg *trace.TraceGraph, ranking *radiate.Result, opts Options) (map[string][]byte, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	if tg == nil && opts.NeedsTraceGraph() {
		return nil, gdserrors.New(gdserrors.ErrCodeInvalidFormat, "formats %v need a trace graph", opts.Formats)
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var dot string
	for _, format := range opts.Formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatGraph:
			data, err = tg.Sankey()
		case FormatJSON:
			data, err = renderTable(tg, ranking)
		case FormatXLSX:
			data, err = renderWorkbook(g, tg, ranking, opts)
		case FormatDOT, FormatSVG:
			if dot == "" {
				o := nodelink.ForTrace(tg)
				o.Detailed = opts.Detailed
				dot = nodelink.ToDOT(tg.Graph, o)
			}
			if format == FormatDOT {
				data = []byte(dot)
			} else {
				data, err = nodelink.RenderSVG(ctx, dot)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
		r.Logger.Debug("rendered artifact", "format", format, "bytes", len(data))
	}
	return artifacts, nil
}

// resultTable is the ranking for radiate runs and the trace summary
// otherwise.
func resultTable(tg *trace.TraceGraph, ranking *radiate.Result) (*table.Table, error) {
	if ranking != nil {
		return ranking.Table()
	}
	return tg.Summary()
}

func renderTable(tg *trace.TraceGraph, ranking *radiate.Result) ([]byte, error) {
	t, err := resultTable(tg, ranking)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := t.WriteJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderWorkbook(g *graph.Graph, tg *trace.TraceGraph, ranking *radiate.Result, opts Options) ([]byte, error) {
	wb, err := export.NewWorkbook()
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if ranking != nil {
		t, err := ranking.Table()
		if err != nil {
			return nil, err
		}
		if _, err := wb.AddTable(string(ranking.Direction)+" radiate", t); err != nil {
			return nil, err
		}
	}
	if tg != nil && len(tg.Networks) > 0 {
		if _, err := wb.AddTraceSummary("traces", tg); err != nil {
			return nil, err
		}
	}

	var sets []graph.NodeSet
	if tg != nil {
		sets = tg.NodeSets
	} else if ranking != nil {
		sets = []graph.NodeSet{graph.NewNodeSet(opts.Sources.Name, opts.Sources.Description, ranking.Sources)}
	}
	if _, err := wb.AddNodeSets(g, sets, opts.DisplayProperty); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
