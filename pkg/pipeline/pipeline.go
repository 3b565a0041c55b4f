// Package pipeline runs gds analyses end to end.
//
// A run loads a graph from a [graphdb.Source], resolves the source and
// target node sets, runs a trace or radiate analysis and renders the
// requested artifacts. The CLI and the API server share this package so
// that both apply the same defaults, validation and caching.
//
// # Stages
//
//  1. Load: fetch the graph (cached by source and load options)
//  2. Analyse: trace shortest paths or rank nodes with radiate
//  3. Render: produce artifacts (graph, json, xlsx, dot, svg)
//
// Analysis and render are cached together: when every requested artifact
// of an identical run is in the cache, the analysis is skipped.
//
// # Usage
//
//	runner := pipeline.NewRunner(src, c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Analysis: pipeline.AnalysisTrace,
//	    Sources:  pipeline.NodeSetSpec{Label: "Gene", Property: "name", Values: []string{"lacZ"}},
//	    Targets:  &pipeline.NodeSetSpec{Label: "Compound", Property: "name", Values: []string{"lactose"}},
//	    Formats:  []string{pipeline.FormatGraph, pipeline.FormatSVG},
//	})
//	sankey := res.Artifacts[pipeline.FormatGraph]
package pipeline

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/sbrg/gds/pkg/cache"
	gdserrors "github.com/sbrg/gds/pkg/errors"
	"github.com/sbrg/gds/pkg/graph"
	"github.com/sbrg/gds/pkg/radiate"
	"github.com/sbrg/gds/pkg/trace"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultAlpha is the PageRank damping factor.
	DefaultAlpha = 0.85

	// DefaultMaxIter bounds PageRank power iterations.
	DefaultMaxIter = 100

	// DefaultTol is the PageRank L1 convergence threshold.
	DefaultTol = 1e-6

	// DefaultTraceTop is the number of ranked nodes traced when a radiate
	// run asks for a graph artifact without setting TraceTop.
	DefaultTraceTop = 10

	// DefaultDisplayProperty is the node property shown as a node's name.
	DefaultDisplayProperty = "displayName"

	// DefaultMatchProperty is the property node set values are matched on.
	DefaultMatchProperty = "name"
)

// Analysis kinds.
const (
	AnalysisTrace   = "trace"
	AnalysisRadiate = "radiate"
)

// Format constants for output formats.
const (
	FormatGraph = "graph" // Lifelike sankey trace graph JSON
	FormatJSON  = "json"  // result table as JSON
	FormatXLSX  = "xlsx"
	FormatDOT   = "dot"
	FormatSVG   = "svg"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatGraph: true,
	FormatJSON:  true,
	FormatXLSX:  true,
	FormatDOT:   true,
	FormatSVG:   true,
}

// ValidAnalyses is the set of supported analysis kinds.
var ValidAnalyses = map[string]bool{
	AnalysisTrace:   true,
	AnalysisRadiate: true,
}

// ContentType returns the MIME type of an artifact format.
func ContentType(format string) string {
	switch format {
	case FormatGraph, FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatDOT:
		return "text/vnd.graphviz; charset=utf-8"
	case FormatSVG:
		return "image/svg+xml"
	}
	return "application/octet-stream"
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It is also the API request body.
type Options struct {
	// Load options
	NodeLabels        []string `json:"node_labels,omitempty"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`
	Limit             int      `json:"limit,omitempty"`
	Refresh           bool     `json:"refresh,omitempty"` // bypass cache reads

	// Analysis options
	Analysis        string       `json:"analysis"`
	Name            string       `json:"name,omitempty"`
	Description     string       `json:"description,omitempty"`
	DisplayProperty string       `json:"display_property,omitempty"`
	Sources         NodeSetSpec  `json:"sources"`
	Targets         *NodeSetSpec `json:"targets,omitempty"` // trace only
	Weight          string       `json:"weight,omitempty"`  // unit, hub or property:<key>

	// Trace options
	Mode     string `json:"mode,omitempty"`
	K        int    `json:"k,omitempty"`
	MaxPaths int    `json:"max_paths,omitempty"`

	// Radiate options
	Direction      string   `json:"direction,omitempty"`
	Alpha          float64  `json:"alpha,omitempty"`
	MaxIter        int      `json:"max_iter,omitempty"`
	Tol            float64  `json:"tol,omitempty"`
	Labels         []string `json:"labels,omitempty"`
	ExcludeSources bool     `json:"exclude_sources,omitempty"`
	TopN           int      `json:"top_n,omitempty"`
	TraceTop       int      `json:"trace_top,omitempty"` // trace paths to the top n ranked nodes

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // property-rich node labels in dot/svg

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the loaded graph.
	GraphHash string

	// ResultHash identifies the analysis (graph plus analysis options).
	ResultHash string

	// Trace is the trace graph. It is nil for radiate runs without
	// TraceTop and for runs served from the cache.
	Trace *trace.TraceGraph

	// Ranking is the radiate result; nil for trace runs and cached runs.
	Ranking *radiate.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	NodeCount    int           `json:"nodes"`
	EdgeCount    int           `json:"edges"`
	Sources      int           `json:"sources"`
	Targets      int           `json:"targets,omitempty"`
	Unmatched    []string      `json:"unmatched,omitempty"` // node set values without a node
	Traces       int           `json:"traces,omitempty"`
	Skipped      int           `json:"skipped,omitempty"` // pairs without a path
	Ranked       int           `json:"ranked,omitempty"`
	LoadTime     time.Duration `json:"load_time"`
	AnalysisTime time.Duration `json:"analysis_time"`
	RenderTime   time.Duration `json:"render_time"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	GraphHit  bool `json:"graph_hit"`  // graph came from cache
	ResultHit bool `json:"result_hit"` // all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return gdserrors.New(gdserrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: graph, json, xlsx, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAnalysis checks that an analysis kind is valid.
func ValidateAnalysis(kind string) error {
	if !ValidAnalyses[kind] {
		return gdserrors.New(gdserrors.ErrCodeInvalidAnalysis,
			"invalid analysis: %q (must be one of: trace, radiate)", kind)
	}
	return nil
}

// ValidateMode checks a trace mode; empty selects each-pair.
func ValidateMode(mode string) error {
	if _, err := trace.ParseMode(mode); err != nil {
		return gdserrors.Wrap(gdserrors.ErrCodeInvalidInput, err, "invalid mode %q", mode)
	}
	return nil
}

// ValidateDirection checks a radiate direction; empty selects forward.
func ValidateDirection(dir string) error {
	if _, err := radiate.ParseDirection(dir); err != nil {
		return gdserrors.Wrap(gdserrors.ErrCodeInvalidInput, err, "invalid direction %q", dir)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := ValidateAnalysis(o.Analysis); err != nil {
		return err
	}
	if o.Limit < 0 {
		return gdserrors.New(gdserrors.ErrCodeInvalidInput, "limit must not be negative")
	}
	if o.DisplayProperty == "" {
		o.DisplayProperty = DefaultDisplayProperty
	}
	if err := ValidateWeight(o.Weight); err != nil {
		return err
	}

	if o.Sources.Name == "" {
		o.Sources.Name = "sources"
	}
	if err := o.Sources.Validate(); err != nil {
		return err
	}

	switch o.Analysis {
	case AnalysisTrace:
		if err := o.validateTrace(); err != nil {
			return err
		}
	case AnalysisRadiate:
		if err := o.validateRadiate(); err != nil {
			return err
		}
	}

	if len(o.Formats) == 0 {
		o.Formats = o.defaultFormats()
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	slices.Sort(o.Formats)
	o.Formats = slices.Compact(o.Formats)
	if o.Analysis == AnalysisRadiate && o.TraceTop == 0 && o.NeedsTraceGraph() {
		o.TraceTop = DefaultTraceTop
	}

	o.validated = true
	return nil
}

func (o *Options) validateTrace() error {
	if o.Targets == nil {
		return gdserrors.New(gdserrors.ErrCodeInvalidNodeSet, "trace requires a targets node set")
	}
	if o.Targets.Name == "" {
		o.Targets.Name = "targets"
	}
	if o.Targets.Name == o.Sources.Name {
		return gdserrors.New(gdserrors.ErrCodeInvalidNodeSet, "sources and targets must have different names")
	}
	if err := o.Targets.Validate(); err != nil {
		return err
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.Mode == "" {
		o.Mode = string(trace.EachPair)
	}
	if o.K < 0 || o.MaxPaths < 0 {
		return gdserrors.New(gdserrors.ErrCodeInvalidInput, "k and max_paths must not be negative")
	}
	if o.K > 1 && o.Mode != string(trace.EachPair) {
		return gdserrors.New(gdserrors.ErrCodeInvalidInput, "k shortest paths require mode %s", trace.EachPair)
	}
	return nil
}

func (o *Options) validateRadiate() error {
	if err := ValidateDirection(o.Direction); err != nil {
		return err
	}
	if o.Direction == "" {
		o.Direction = string(radiate.Forward)
	}
	if o.Alpha == 0 {
		o.Alpha = DefaultAlpha
	}
	if o.MaxIter == 0 {
		o.MaxIter = DefaultMaxIter
	}
	if o.Tol == 0 {
		o.Tol = DefaultTol
	}
	if o.Alpha <= 0 || o.Alpha > 1 {
		return gdserrors.New(gdserrors.ErrCodeInvalidInput, "alpha %v must be in (0, 1]", o.Alpha)
	}
	if o.MaxIter < 0 || o.Tol < 0 || o.TopN < 0 || o.TraceTop < 0 {
		return gdserrors.New(gdserrors.ErrCodeInvalidInput, "max_iter, tol, top_n and trace_top must not be negative")
	}
	return nil
}

func (o *Options) defaultFormats() []string {
	if o.Analysis == AnalysisRadiate {
		return []string{FormatJSON}
	}
	return []string{FormatGraph}
}

// NeedsTraceGraph reports whether a requested format renders a trace
// graph.
func (o *Options) NeedsTraceGraph() bool {
	return slices.ContainsFunc(o.Formats, func(f string) bool {
		return f == FormatGraph || f == FormatDOT || f == FormatSVG
	})
}

// graphKeyOpts returns cache key options for graph loading.
func (o *Options) graphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{
		NodeLabels:        o.NodeLabels,
		RelationshipTypes: o.RelationshipTypes,
		Limit:             o.Limit,
	}
}

// resultKeyOpts returns cache key options for the analysis. Load, format
// and refresh settings are excluded: they are covered by the graph hash
// and the artifact key.
func (o *Options) resultKeyOpts() cache.ResultKeyOpts {
	p := *o
	p.NodeLabels, p.RelationshipTypes, p.Limit = nil, nil, 0
	p.Refresh = false
	p.Formats = nil
	return cache.ResultKeyOpts{Analysis: o.Analysis, Params: p}
}

// MarshalStats encodes s for the artifact cache and API responses.
func MarshalStats(s Stats) ([]byte, error) { return json.Marshal(s) }

func unmarshalStats(data []byte) (Stats, error) {
	var s Stats
	err := json.Unmarshal(data, &s)
	return s, err
}

// describe renders option summaries for logs.
func (o *Options) describe() string {
	if o.Analysis == AnalysisTrace {
		return fmt.Sprintf("trace %s -> %s (%s)", o.Sources.Name, o.Targets.Name, o.Mode)
	}
	return fmt.Sprintf("radiate %s (%s)", o.Sources.Name, o.Direction)
}
