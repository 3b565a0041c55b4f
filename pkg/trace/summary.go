package trace

import (
	"github.com/sbrg/gds/pkg/table"
)

// Summary lists every trace with its path count and shortest path length
// in hops.
func (tg *TraceGraph) Summary() (*table.Table, error) {
	name := func(id string) string {
		if n, ok := tg.Graph.Node(id); ok {
			return n.DisplayName(tg.DisplayProperty)
		}
		return id
	}

	var rows [][]any
	for _, net := range tg.Networks {
		for _, tr := range net.Traces {
			length := 0
			for i, p := range tr.NodePaths {
				if i == 0 || len(p)-1 < length {
					length = len(p) - 1
				}
			}
			rows = append(rows, []any{
				net.Name,
				tr.Source, name(tr.Source),
				tr.Target, name(tr.Target),
				len(tr.NodePaths), length,
			})
		}
	}
	return table.FromRows([]table.Column{
		{Name: "network", Kind: table.String},
		{Name: "source", Kind: table.String},
		{Name: "source_name", Kind: table.String},
		{Name: "target", Kind: table.String},
		{Name: "target_name", Kind: table.String},
		{Name: "paths", Kind: table.Int},
		{Name: "length", Kind: table.Int},
	}, rows)
}
