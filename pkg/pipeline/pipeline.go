// Package pipeline runs the load → project → analyze stages shared by the
// CLI and the HTTP server.
//
// # Stages
//
//  1. Load: read a membership relation from a file or take one in memory
//  2. Project: build the weighted co-membership graph
//  3. Analyze: compute the metric table and its summary
//
// Render turns a finished [Result] into artifacts (DOT, SVG, PNG, PDF,
// graph JSON, metrics CSV, GEXF).
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{InputPath: "membership.json"})
//	if err != nil {
//	    return err
//	}
//	top := result.Metrics.Top(centrality.MetricBetweenness, 10)
//
// Metric tables are cached under a hash of the canonical relation and the
// options that change metric values, so re-analyzing an unchanged file is
// a single cache read.
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/projection"
	"github.com/matzehuels/contribnet/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultTopK is the number of members listed per metric in summaries.
	DefaultTopK = 10

	// DefaultPNGScale is the resolution multiplier for PNG output.
	DefaultPNGScale = 2.0

	// MaxCachedEdges bounds the projections stored in the cache. Larger
	// graphs are faster to rebuild than to decode.
	MaxCachedEdges = 250_000
)

// Format constants for rendered artifacts.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatGEXF = "gexf"
)

// ValidFormats is the set of supported artifact formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatCSV:  true,
	FormatGEXF: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures a pipeline run. It is decoded from POST /v1/analyze
// bodies, so every public knob has a JSON name.
type Options struct {
	// Input: exactly one of InputPath and Relation.
	InputPath string              `json:"input_path,omitempty"`
	Relation  membership.Relation `json:"relation,omitempty"`

	// Analysis options
	Workers      int    `json:"workers,omitempty"`
	PairCounting string `json:"pair_counting,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
	Refresh      bool   `json:"refresh,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	SizeBy    string   `json:"size_by,omitempty"`
	MinWeight int      `json:"min_weight,omitempty"`
	LabelTop  int      `json:"label_top,omitempty"`
	Layout    string   `json:"layout,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger             `json:"-"`
	Progress centrality.ProgressFunc `json:"-"`

	pairCounting centrality.PairCounting
	sizeBy       centrality.Metric
	validated    bool
}

// Result is the outcome of [Runner.Execute].
type Result struct {
	// RunID identifies this run in logs and stored snapshots.
	RunID string

	// RelationHash is the content hash of the canonical relation.
	RelationHash string

	Relation membership.Relation
	Graph    *projection.Graph
	Metrics  *centrality.Table
	Summary  centrality.Summary

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats reports sizes and timings of a run.
type Stats struct {
	Groups      int           `json:"groups" bson:"groups"`
	Members     int           `json:"members" bson:"members"`
	Memberships int           `json:"memberships" bson:"memberships"`
	Nodes       int           `json:"nodes" bson:"nodes"`
	Edges       int           `json:"edges" bson:"edges"`
	InputBytes  int64         `json:"input_bytes" bson:"input_bytes"`
	LoadTime    time.Duration `json:"load_ns" bson:"load_ns"`
	ProjectTime time.Duration `json:"project_ns" bson:"project_ns"`
	AnalyzeTime time.Duration `json:"analyze_ns" bson:"analyze_ns"`
	HeapInUse   uint64        `json:"heap_in_use" bson:"heap_in_use"`
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	ProjectionHit bool `json:"projection_hit"`
	MetricsHit    bool `json:"metrics_hit"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: dot, svg, png, pdf, json, csv, gexf)", format)
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

// ValidateLayout checks that a Graphviz layout engine is supported.
func ValidateLayout(layout string) error {
	if !slices.Contains(nodelink.Layouts, layout) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid layout: %q (must be one of: %v)", layout, nodelink.Layouts)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the input and analysis options and fills
// in defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.InputPath == "" && o.Relation == nil {
		return errors.New(errors.ErrCodeInvalidInput, "input path or relation is required")
	}
	if o.InputPath != "" && o.Relation != nil {
		return errors.New(errors.ErrCodeInvalidInput, "input path and relation are mutually exclusive")
	}
	if err := o.ValidateForAnalysis(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForAnalysis checks the analysis options alone, for callers that
// bring their own graph.
func (o *Options) ValidateForAnalysis() error {
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "workers must not be negative, got %d", o.Workers)
	}
	pc, err := centrality.ParsePairCounting(o.PairCounting)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "pair counting")
	}
	o.pairCounting = pc
	o.PairCounting = pc.String()

	if o.TopK < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "top_k must not be negative, got %d", o.TopK)
	}
	if o.TopK == 0 {
		o.TopK = DefaultTopK
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.SizeBy == "" {
		o.SizeBy = string(centrality.MetricBetweenness)
	}
	if o.Layout == "" {
		o.Layout = "neato"
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	m, err := centrality.ParseMetric(o.SizeBy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "size_by")
	}
	o.sizeBy = m
	if o.MinWeight < 0 || o.LabelTop < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "min_weight and label_top must not be negative")
	}
	return ValidateLayout(o.Layout)
}

// CentralityOptions returns the options passed to [centrality.Compute].
// Call after validation.
func (o *Options) CentralityOptions() centrality.Options {
	return centrality.Options{
		Workers:      o.Workers,
		PairCounting: o.pairCounting,
		Progress:     o.Progress,
	}
}

// NodelinkOptions returns the diagram options. Call after
// [Options.ValidateForRender].
func (o *Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{
		SizeBy:    o.sizeBy,
		MinWeight: o.MinWeight,
		LabelTop:  o.LabelTop,
		Layout:    o.Layout,
	}
}

// MetricsKeyOpts returns cache key options for the metric table.
func (o *Options) MetricsKeyOpts() cache.MetricsKeyOpts {
	return cache.MetricsKeyOpts{PairCounting: o.pairCounting.String()}
}

func (o *Options) String() string {
	src := o.InputPath
	if src == "" {
		src = fmt.Sprintf("<%d groups>", len(o.Relation))
	}
	return fmt.Sprintf("%s workers=%d pair_counting=%s", src, o.Workers, o.pairCounting)
}
