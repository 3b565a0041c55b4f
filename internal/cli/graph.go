package cli

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sbrg/gds/pkg/algo"
	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/graphio"
	"github.com/sbrg/gds/pkg/pipeline"
)

// loadCommand creates the load command, which saves a subgraph as JSON.
func (c *CLI) loadCommand() *cobra.Command {
	var (
		flags  loadFlags
		output string
		around string
		radius int
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a subgraph from Neo4j and save it as a JSON node-link file",
		Example: `  gds load --labels Gene,Protein --types ENCODES -o genes.json
  gds load --around Gene:name=lacZ --radius 2 -o lacz.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close(ctx)

			var opts pipeline.Options
			flags.apply(&opts)
			g, cached, err := c.loadGraph(ctx, runner, opts)
			if err != nil {
				return err
			}
			if around != "" {
				if g, err = c.neighborhood(ctx, runner, g, around, radius, dir); err != nil {
					return err
				}
			}
			if err := graphio.ExportJSON(g, output); err != nil {
				return err
			}
			printSuccess("Loaded graph")
			printFacts(append(graphFacts(g.NodeCount(), g.EdgeCount()), cacheFact(cached))...)
			printFile(output)
			printNewline()
			printNextStep("Analyze it with", "gds radiate --graph "+output+" -s <label>:<property>=<values>")
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "graph.json", "output file")
	cmd.Flags().StringVar(&around, "around", "", "keep only the neighborhood of this node set (same forms as --sources)")
	cmd.Flags().IntVar(&radius, "radius", 1, "neighborhood radius in hops (-1 = unbounded)")
	cmd.Flags().StringVar(&dir, "direction", "both", "neighborhood direction: out, in or both")

	return cmd
}

// neighborhood restricts g to the nodes within radius hops of a node set.
func (c *CLI) neighborhood(ctx context.Context, runner *pipeline.Runner, g *graph.Graph, spec string, radius int, dir string) (*graph.Graph, error) {
	d, err := algo.ParseDirection(dir)
	if err != nil {
		return nil, err
	}
	ns, err := pipeline.ParseNodeSetSpec("around", spec)
	if err != nil {
		return nil, err
	}
	seeds, unmatched, err := runner.ResolveNodeSet(ctx, g, ns)
	if err != nil {
		return nil, err
	}
	printUnmatched(unmatched)
	sub := g.Subgraph(algo.Neighborhood(g, seeds.IDs, radius, d))
	c.Logger.Debug("neighborhood", "seeds", seeds.Len(), "radius", radius, "nodes", sub.NodeCount())
	return sub, nil
}

// statsCommand creates the stats command.
func (c *CLI) statsCommand() *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize node labels and relationship types of a graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close(ctx)

			var opts pipeline.Options
			flags.apply(&opts)
			g, cached, err := c.loadGraph(ctx, runner, opts)
			if err != nil {
				return err
			}
			printGraphStats(g, cached)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) loadGraph(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*graph.Graph, bool, error) {
	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Loading "+runner.Source.Describe())
	restore := spinner.FollowPipeline()
	spinner.Start()
	g, cached, err := runner.LoadGraphWithCacheInfo(ctx, opts)
	spinner.Stop()
	restore()
	if err != nil {
		return nil, false, err
	}
	prog.done(fmt.Sprintf("Loaded %d nodes, %d edges", g.NodeCount(), g.EdgeCount()))
	return g, cached, nil
}

func printGraphStats(g *graph.Graph, cached bool) {
	printFacts(append(graphFacts(g.NodeCount(), g.EdgeCount()), cacheFact(cached))...)
	if comps := algo.WeaklyConnectedComponents(g); len(comps) > 0 {
		printDetail("%d weakly connected component(s), largest has %d node(s)", len(comps), len(comps[0]))
	}
	printNewline()
	printCounts("Node labels", byCount(g.Labels()))
	printNewline()
	printCounts("Relationship types", byCount(g.RelationshipTypes()))
}

type keyCount struct {
	key string
	n   int
}

// byCount orders counts descending, then by key.
func byCount(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, keyCount{k, m[k]})
	}
	slices.SortStableFunc(out, func(a, b keyCount) int { return cmp.Compare(b.n, a.n) })
	return out
}
