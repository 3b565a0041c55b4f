package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sbrg/gds/pkg/cache"
	gdserrors "github.com/sbrg/gds/pkg/errors"
	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/graphdb"
	"github.com/sbrg/gds/pkg/graphio"
	"github.com/sbrg/gds/pkg/observability"
	"github.com/sbrg/gds/pkg/radiate"
	"github.com/sbrg/gds/pkg/trace"
)

// formatStats is the artifact key under which run statistics are cached
// next to the rendered formats.
const formatStats = "stats"

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner holds no per-run state, so multiple goroutines can share one
// Runner with different options.
type Runner struct {
	Source graphdb.Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// TTL overrides the result and artifact TTL when positive.
	TTL time.Duration
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(src graphdb.Source, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

func (r *Runner) resultTTL() time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return cache.TTLResult
}

// Execute runs load → resolve node sets → analyse → render with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Load
	loadStart := time.Now()
	g, graphHit, err := r.LoadGraphWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.GraphHit = graphHit

	if data, err := graphio.Marshal(g); err == nil {
		result.GraphHash = cache.Hash(data)
	}
	result.ResultHash = r.Keyer.ResultKey(result.GraphHash, opts.resultKeyOpts())

	r.Logger.Info("loaded graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cached", graphHit,
		"duration", result.Stats.LoadTime)

	// Cached artifacts short-circuit analysis and render.
	if !opts.Refresh {
		if artifacts, stats, ok := r.cachedArtifacts(ctx, result.ResultHash, opts.Formats); ok {
			stats.LoadTime = result.Stats.LoadTime
			result.Artifacts = artifacts
			result.Stats = stats
			result.CacheInfo.ResultHit = true
			r.Logger.Info("served from cache", "analysis", opts.describe(), "formats", opts.Formats)
			return result, nil
		}
	}

	// Stage 2: Analyse
	analysisStart := time.Now()
	observability.Pipeline().OnAnalysisStart(ctx, opts.Analysis, g.NodeCount())
	switch opts.Analysis {
	case AnalysisTrace:
		result.Trace, err = r.Trace(ctx, g, opts, &result.Stats)
	case AnalysisRadiate:
		result.Ranking, result.Trace, err = r.Radiate(ctx, g, opts, &result.Stats)
	}
	result.Stats.AnalysisTime = time.Since(analysisStart)
	observability.Pipeline().OnAnalysisComplete(ctx, opts.Analysis, result.Stats.AnalysisTime, err)
	if err != nil {
		return nil, classify(err, gdserrors.ErrCodeInternal, "analysis")
	}

	r.Logger.Info("analysed",
		"analysis", opts.describe(),
		"traces", result.Stats.Traces,
		"skipped", result.Stats.Skipped,
		"ranked", result.Stats.Ranked,
		"duration", result.Stats.AnalysisTime)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, err := r.Render(ctx, g, result.Trace, result.Ranking, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, classify(err, gdserrors.ErrCodeInternal, "render")
	}
	result.Artifacts = artifacts

	for format, data := range artifacts {
		_ = r.Cache.Set(ctx, r.Keyer.ArtifactKey(result.ResultHash, format), data, r.resultTTL())
	}
	if data, err := MarshalStats(result.Stats); err == nil {
		_ = r.Cache.Set(ctx, r.Keyer.ArtifactKey(result.ResultHash, formatStats), data, r.resultTTL())
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// cachedArtifacts returns every requested format plus the stats of an
// earlier identical run, or false if any entry is missing.
func (r *Runner) cachedArtifacts(ctx context.Context, resultHash string, formats []string) (map[string][]byte, Stats, bool) {
	data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(resultHash, formatStats))
	if err != nil || !hit {
		return nil, Stats{}, false
	}
	stats, err := unmarshalStats(data)
	if err != nil {
		return nil, Stats{}, false
	}

	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(resultHash, format))
		if err != nil || !hit {
			return nil, Stats{}, false
		}
		artifacts[format] = data
	}
	return artifacts, stats, true
}

// LoadGraphWithCacheInfo loads the graph with caching and returns cache hit info.
func (r *Runner) LoadGraphWithCacheInfo(ctx context.Context, opts Options) (*graph.Graph, bool, error) {
	if r.Source == nil {
		return nil, false, gdserrors.New(gdserrors.ErrCodeInvalidInput, "no graph source configured")
	}
	desc := r.Source.Describe()
	cacheKey := r.Keyer.GraphKey(desc, opts.graphKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := graphio.ReadJSON(bytes.NewReader(data)); err == nil {
				return g, true, nil
			}
			// Unreadable entries fall through to a fresh load.
		} else if err != nil {
			r.Logger.Warn("cache read failed", "key", cacheKey, "err", err)
		}
	}

	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, desc)
	g, err := r.Source.Load(ctx, graphdb.LoadOptions{
		NodeLabels:        opts.NodeLabels,
		RelationshipTypes: opts.RelationshipTypes,
		Limit:             opts.Limit,
	})
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, desc, 0, 0, time.Since(start), err)
		return nil, false, classify(err, gdserrors.ErrCodeDatabase, "load graph")
	}
	observability.Pipeline().OnLoadComplete(ctx, desc, g.NodeCount(), g.EdgeCount(), time.Since(start), nil)

	if data, err := graphio.Marshal(g); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph); err != nil {
			r.Logger.Warn("cache write failed", "key", cacheKey, "err", err)
		}
	}
	return g, false, nil
}

// LoadGraph is a convenience wrapper that calls LoadGraphWithCacheInfo and discards the cache hit info.
func (r *Runner) LoadGraph(ctx context.Context, opts Options) (*graph.Graph, error) {
	g, _, err := r.LoadGraphWithCacheInfo(ctx, opts)
	return g, err
}

// Trace resolves the node sets of opts and computes a shortest-path trace
// network on g. stats may be nil.
func (r *Runner) Trace(ctx context.Context, g *graph.Graph, opts Options, stats *Stats) (*trace.TraceGraph, error) {
	if stats == nil {
		stats = &Stats{}
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Analysis != AnalysisTrace {
		return nil, gdserrors.New(gdserrors.ErrCodeInvalidAnalysis, "Trace called with analysis %q", opts.Analysis)
	}
	w, err := WeightFunc(opts.Weight, g)
	if err != nil {
		return nil, err
	}

	src, srcMissing, err := r.ResolveNodeSet(ctx, g, opts.Sources)
	if err != nil {
		return nil, err
	}
	dst, dstMissing, err := r.ResolveNodeSet(ctx, g, *opts.Targets)
	if err != nil {
		return nil, err
	}
	stats.Sources, stats.Targets = src.Len(), dst.Len()
	stats.Unmatched = append(srcMissing, dstMissing...)

	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("%s to %s", src.Name, dst.Name)
	}
	tg := trace.New(g, name, opts.Description)
	tg.DisplayProperty = opts.DisplayProperty
	if err := tg.AddNodeSet(src); err != nil {
		return nil, err
	}
	if err := tg.AddNodeSet(dst); err != nil {
		return nil, err
	}

	net, err := tg.AddShortestPaths(ctx, trace.NetworkOptions{
		Name:        name,
		Description: opts.Description,
		Sources:     src.Name,
		Targets:     dst.Name,
		Mode:        trace.Mode(opts.Mode),
		K:           opts.K,
		MaxPaths:    opts.MaxPaths,
		Weight:      w,
	})
	if err != nil {
		return nil, err
	}
	stats.Traces, stats.Skipped = len(net.Traces), net.Skipped
	return tg, nil
}

// Radiate ranks nodes by personalized PageRank from the source set. When
// opts.TraceTop is positive it also returns a trace graph connecting the
// sources and the top ranked nodes. stats may be nil.
func (r *Runner) Radiate(ctx context.Context, g *graph.Graph, opts Options, stats *Stats) (*radiate.Result, *trace.TraceGraph, error) {
	if stats == nil {
		stats = &Stats{}
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	if opts.Analysis != AnalysisRadiate {
		return nil, nil, gdserrors.New(gdserrors.ErrCodeInvalidAnalysis, "Radiate called with analysis %q", opts.Analysis)
	}
	w, err := WeightFunc(opts.Weight, g)
	if err != nil {
		return nil, nil, err
	}

	src, missing, err := r.ResolveNodeSet(ctx, g, opts.Sources)
	if err != nil {
		return nil, nil, err
	}
	stats.Sources, stats.Unmatched = src.Len(), missing

	res, err := radiate.Run(ctx, g, radiate.Options{
		Sources:         src.IDs,
		Direction:       radiate.Direction(opts.Direction),
		Alpha:           opts.Alpha,
		MaxIter:         opts.MaxIter,
		Tol:             opts.Tol,
		Weight:          w,
		Labels:          opts.Labels,
		ExcludeSources:  opts.ExcludeSources,
		TopN:            opts.TopN,
		DisplayProperty: opts.DisplayProperty,
	})
	if err != nil {
		return nil, nil, err
	}
	stats.Ranked = len(res.Rows)
	if opts.TraceTop == 0 {
		return res, nil, nil
	}

	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("%s radiate", src.Name)
	}
	tg := trace.New(g, name, opts.Description)
	tg.DisplayProperty = opts.DisplayProperty
	if err := tg.AddNodeSet(src); err != nil {
		return nil, nil, err
	}
	net, err := res.TraceTo(ctx, tg, src.Name, opts.TraceTop, w)
	switch {
	case errors.Is(err, trace.ErrNoTraces):
		// The ranking stands; the trace graph keeps only the source set.
		r.Logger.Warn("no path to the top ranked nodes", "sources", src.Name, "top", opts.TraceTop)
		return res, tg, nil
	case err != nil:
		return nil, nil, err
	}
	stats.Traces, stats.Skipped = len(net.Traces), net.Skipped
	return res, tg, nil
}

// Close releases resources held by the runner: the cache and the source.
func (r *Runner) Close(ctx context.Context) error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Source != nil {
		errs = append(errs, r.Source.Close(ctx))
	}
	return errors.Join(errs...)
}
