package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sbrg/gds/pkg/pipeline"
)

// loadFlags are the subgraph restrictions shared by commands that load a
// graph.
type loadFlags struct {
	labels  string
	types   string
	limit   int
	refresh bool
}

func (f *loadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.labels, "labels", "", "only load nodes with these labels (comma-separated)")
	cmd.Flags().StringVar(&f.types, "types", "", "only load relationships of these types (comma-separated)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of nodes to load (0 = no limit)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "reload the graph even if it is cached")
}

func (f *loadFlags) apply(opts *pipeline.Options) {
	opts.NodeLabels = splitList(f.labels)
	opts.RelationshipTypes = splitList(f.types)
	opts.Limit = f.limit
	opts.Refresh = f.refresh
}

// analysisFlags are shared by trace and radiate.
type analysisFlags struct {
	loadFlags
	sources  string
	output   string
	formats  string
	detailed bool
}

func (f *analysisFlags) register(cmd *cobra.Command, opts *pipeline.Options) {
	f.loadFlags.register(cmd)
	cmd.Flags().StringVarP(&f.sources, "sources", "s", "", "source node set, e.g. Gene:name=lacZ,lacY or @genes.txt or id:4:abc:1")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output base path (default: analysis name)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output format(s): graph, json, xlsx, dot, svg (comma-separated)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "show labels and properties in dot/svg nodes")
	cmd.Flags().StringVar(&opts.Name, "name", "", "analysis name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "analysis description")
	cmd.Flags().StringVar(&opts.DisplayProperty, "display-property", opts.DisplayProperty, "node property used as display name")
	cmd.Flags().StringVarP(&opts.Weight, "weight", "w", opts.Weight, "edge weights: unit, hub or property:<key>")
	_ = cmd.MarkFlagRequired("sources")
}

// configFlags are the flags whose defaults come from the [analysis] config
// section.
var configFlags = []string{"display-property", "weight", "max-paths", "alpha", "max-iter", "tol"}

func (f *analysisFlags) apply(cmd *cobra.Command, cfg pipeline.Options, opts *pipeline.Options) error {
	// Flag defaults were bound before the config file was read.
	for _, name := range configFlags {
		if fl := cmd.Flags().Lookup(name); fl == nil || fl.Changed {
			continue
		}
		switch name {
		case "display-property":
			opts.DisplayProperty = cfg.DisplayProperty
		case "weight":
			opts.Weight = cfg.Weight
		case "max-paths":
			opts.MaxPaths = cfg.MaxPaths
		case "alpha":
			opts.Alpha = cfg.Alpha
		case "max-iter":
			opts.MaxIter = cfg.MaxIter
		case "tol":
			opts.Tol = cfg.Tol
		}
	}
	f.loadFlags.apply(opts)
	src, err := pipeline.ParseNodeSetSpec("sources", f.sources)
	if err != nil {
		return err
	}
	opts.Sources = src
	opts.Formats = splitList(f.formats)
	opts.Detailed = f.detailed
	return nil
}

// traceCommand creates the trace command.
func (c *CLI) traceCommand() *cobra.Command {
	var (
		flags   analysisFlags
		targets string
	)
	opts := c.analysisDefaults(pipeline.AnalysisTrace)

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Trace shortest paths from a source node set to a target node set",
		Example: `  gds trace -s Gene:name=lacZ,lacY -t Compound:name=lactose -f graph,xlsx
  gds trace -s @genes.txt -t @metabolites.txt --mode set-to-set -o lac`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, c.analysisDefaults(opts.Analysis), &opts); err != nil {
				return err
			}
			tgt, err := pipeline.ParseNodeSetSpec("targets", targets)
			if err != nil {
				return err
			}
			opts.Targets = &tgt
			return c.runAnalysis(cmd.Context(), opts, flags.output)
		},
	}

	flags.register(cmd, &opts)
	cmd.Flags().StringVarP(&targets, "targets", "t", "", "target node set (same forms as --sources)")
	cmd.Flags().StringVar(&opts.Mode, "mode", "", "each-pair (default) or set-to-set")
	cmd.Flags().IntVarP(&opts.K, "k", "k", 1, "shortest paths per pair (each-pair mode)")
	cmd.Flags().IntVar(&opts.MaxPaths, "max-paths", opts.MaxPaths, "maximum equal-length paths per pair (0 = all)")
	_ = cmd.MarkFlagRequired("targets")

	return cmd
}

// radiateCommand creates the radiate command.
func (c *CLI) radiateCommand() *cobra.Command {
	var (
		flags  analysisFlags
		labels string
	)
	opts := c.analysisDefaults(pipeline.AnalysisRadiate)

	cmd := &cobra.Command{
		Use:   "radiate",
		Short: "Rank nodes by personalized PageRank around a source node set",
		Example: `  gds radiate -s Gene:name=lacZ --direction reverse --only Compound --top 50
  gds radiate -s @genes.txt -f json,xlsx,graph --trace-top 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.apply(cmd, c.analysisDefaults(opts.Analysis), &opts); err != nil {
				return err
			}
			opts.Labels = splitList(labels)
			return c.runAnalysis(cmd.Context(), opts, flags.output)
		},
	}

	flags.register(cmd, &opts)
	cmd.Flags().StringVar(&opts.Direction, "direction", "", "forward (default), reverse or both")
	cmd.Flags().Float64Var(&opts.Alpha, "alpha", opts.Alpha, "damping factor in (0, 1]")
	cmd.Flags().IntVar(&opts.MaxIter, "max-iter", opts.MaxIter, "maximum power iterations")
	cmd.Flags().Float64Var(&opts.Tol, "tol", opts.Tol, "convergence tolerance")
	cmd.Flags().StringVar(&labels, "only", "", "only rank nodes with these labels (comma-separated)")
	cmd.Flags().BoolVar(&opts.ExcludeSources, "exclude-sources", false, "drop source nodes from the ranking")
	cmd.Flags().IntVar(&opts.TopN, "top", 0, "keep the top n rows (0 = all)")
	cmd.Flags().IntVar(&opts.TraceTop, "trace-top", 0, "trace paths to the top n ranked nodes (graph, dot and svg formats)")

	return cmd
}

// runAnalysis executes opts and writes one file per artifact.
func (c *CLI) runAnalysis(ctx context.Context, opts pipeline.Options, output string) error {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer runner.Close(ctx)

	spinner := newSpinner(ctx, fmt.Sprintf("Running %s on %s", opts.Analysis, runner.Source.Describe()))
	restore := spinner.FollowPipeline()
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	restore()
	switch {
	case err != nil && spinner.Cancelled():
		spinner.Stop()
		return err
	case err != nil:
		spinner.StopWithError(opts.Analysis + " failed")
		return err
	}
	spinner.Stop()

	printSuccess("%s %s", strings.ToUpper(opts.Analysis[:1])+opts.Analysis[1:], describeResult(opts.Analysis, res.Stats))
	printFacts(runFacts(res.Stats, res.CacheInfo.ResultHit)...)
	printUnmatched(res.Stats.Unmatched)

	base := output
	if base == "" {
		base = opts.Name
	}
	if base == "" {
		base = opts.Analysis
	}
	for _, format := range opts.Formats {
		path := artifactPath(base, format)
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

func describeResult(kind string, s pipeline.Stats) string {
	if kind == pipeline.AnalysisTrace {
		msg := fmt.Sprintf("found %d trace(s) between %d source and %d target node(s)", s.Traces, s.Sources, s.Targets)
		if s.Skipped > 0 {
			msg += fmt.Sprintf(", %d pair(s) without a path", s.Skipped)
		}
		return msg
	}
	return fmt.Sprintf("ranked %d node(s) from %d source(s)", s.Ranked, s.Sources)
}

// artifactExt maps formats to file suffixes. Sankey graphs and tables are
// both JSON, so the graph gets its own suffix.
var artifactExt = map[string]string{
	pipeline.FormatGraph: ".graph.json",
	pipeline.FormatJSON:  ".json",
	pipeline.FormatXLSX:  ".xlsx",
	pipeline.FormatDOT:   ".dot",
	pipeline.FormatSVG:   ".svg",
}

// knownSuffixes lists artifactExt values, longest match first.
var knownSuffixes = []string{".graph.json", ".json", ".xlsx", ".dot", ".svg"}

// artifactPath joins base and the format suffix, dropping a suffix base
// already carries.
func artifactPath(base, format string) string {
	for _, e := range knownSuffixes {
		if strings.HasSuffix(base, e) {
			base = strings.TrimSuffix(base, e)
			break
		}
	}
	return base + artifactExt[format]
}
