package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
	contribio "github.com/matzehuels/contribnet/pkg/io"
	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/observability"
	"github.com/matzehuels/contribnet/pkg/projection"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
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
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs load → project → analyze with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{RunID: uuid.NewString()}
	logger := opts.Logger.With("run", result.RunID[:8])
	logger.Debug("starting run", "options", opts.String())

	// Stage 1: Load
	loadStart := time.Now()
	rel, size, err := r.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	canonical, err := membership.Marshal(rel)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if size == 0 {
		size = int64(len(canonical))
	}
	result.Relation = rel
	result.RelationHash = cache.Hash(canonical)
	rs := rel.Stats()
	result.Stats.Groups = rs.Groups
	result.Stats.Members = rs.Members
	result.Stats.Memberships = rs.Memberships
	result.Stats.InputBytes = size
	result.Stats.LoadTime = time.Since(loadStart)

	logger.Info("loaded membership",
		"groups", rs.Groups,
		"members", rs.Members,
		"memberships", rs.Memberships,
		"duration", result.Stats.LoadTime)

	// Stage 2: Project
	projectStart := time.Now()
	g, projectionHit, err := r.ProjectWithCacheInfo(ctx, rel, result.RelationHash, opts)
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	result.Graph = g
	result.Stats.Nodes = g.NodeCount()
	result.Stats.Edges = g.EdgeCount()
	result.Stats.ProjectTime = time.Since(projectStart)
	result.CacheInfo.ProjectionHit = projectionHit

	logger.Info("projected graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cached", projectionHit,
		"duration", result.Stats.ProjectTime)

	// Stage 3: Analyze
	analyzeStart := time.Now()
	t, metricsHit, err := r.AnalyzeWithCacheInfo(ctx, g, result.RelationHash, opts)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	result.Metrics = t
	result.Summary = centrality.Summarize(g, t, opts.TopK)
	result.Stats.AnalyzeTime = time.Since(analyzeStart)
	result.CacheInfo.MetricsHit = metricsHit

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	result.Stats.HeapInUse = mem.HeapInuse

	logger.Info("computed metrics",
		"members", t.Len(),
		"cached", metricsHit,
		"duration", result.Stats.AnalyzeTime)

	return result, nil
}

// Load reads the relation named by opts and reports the input size in
// bytes (zero for in-memory relations).
func (r *Runner) Load(opts Options) (membership.Relation, int64, error) {
	if opts.Relation != nil {
		if err := opts.Relation.Validate(); err != nil {
			return nil, 0, err
		}
		return opts.Relation, 0, nil
	}

	data, err := os.ReadFile(opts.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s does not exist", opts.InputPath)
		}
		return nil, 0, fmt.Errorf("read %s: %w", opts.InputPath, err)
	}
	rel, err := membership.Read(bytes.NewReader(data))
	if err != nil {
		return nil, 0, err
	}
	return rel, int64(len(data)), nil
}

// ProjectWithCacheInfo builds the projection of rel, reusing a cached copy
// for small graphs. hash is the content hash of the canonical relation.
func (r *Runner) ProjectWithCacheInfo(ctx context.Context, rel membership.Relation, hash string, opts Options) (g *projection.Graph, hit bool, err error) {
	r.applyLogger(&opts)
	hooks := observability.Pipeline()
	hooks.OnProjectStart(ctx, len(rel))
	start := time.Now()
	defer func() {
		nodes, edges := 0, 0
		if g != nil {
			nodes, edges = g.NodeCount(), g.EdgeCount()
		}
		hooks.OnProjectComplete(ctx, nodes, edges, time.Since(start), err)
	}()

	key := r.Keyer.ProjectionKey(hash)
	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			cached, _, err := contribio.ReadGraph(bytes.NewReader(data))
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "projection")
				return cached, true, nil
			}
			// If deserialization fails, fall through to rebuild
			opts.Logger.Debug("discarding cached projection", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "projection")
	}

	g, err = projection.BuildContext(ctx, rel, projection.Options{Workers: opts.Workers})
	if err != nil {
		return nil, false, err
	}

	if g.EdgeCount() <= MaxCachedEdges {
		var buf bytes.Buffer
		if err := contribio.WriteGraph(&buf, g, nil); err == nil {
			r.store(ctx, "projection", key, buf.Bytes(), cache.ProjectionTTL)
		}
	}
	return g, false, nil
}

// Project is a convenience wrapper that calls ProjectWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Project(ctx context.Context, rel membership.Relation, opts Options) (*projection.Graph, error) {
	data, err := membership.Marshal(rel)
	if err != nil {
		return nil, err
	}
	g, _, err := r.ProjectWithCacheInfo(ctx, rel, cache.Hash(data), opts)
	return g, err
}

// AnalyzeWithCacheInfo computes the metric table of g with caching. hash
// is the content hash of the relation g was projected from.
func (r *Runner) AnalyzeWithCacheInfo(ctx context.Context, g *projection.Graph, hash string, opts Options) (t *centrality.Table, hit bool, err error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForAnalysis(); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnAnalyzeStart(ctx, g.NodeCount())
	start := time.Now()
	defer func() { hooks.OnAnalyzeComplete(ctx, g.NodeCount(), time.Since(start), err) }()

	key := r.Keyer.MetricsKey(hash, opts.MetricsKeyOpts())
	if !opts.Refresh {
		if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
			cached, err := contribio.ReadMetricsJSON(bytes.NewReader(data))
			if err == nil && cached.Len() == g.NodeCount() {
				observability.Cache().OnCacheHit(ctx, "metrics")
				return cached, true, nil
			}
			opts.Logger.Debug("discarding cached metrics", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "metrics")
	}

	t, err = centrality.Compute(ctx, g, opts.CentralityOptions())
	if err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	if err := contribio.WriteMetricsJSON(&buf, t); err == nil {
		r.store(ctx, "metrics", key, buf.Bytes(), cache.MetricsTTL)
	}
	return t, false, nil
}

// Analyze is a convenience wrapper that calls AnalyzeWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Analyze(ctx context.Context, g *projection.Graph, hash string, opts Options) (*centrality.Table, error) {
	t, _, err := r.AnalyzeWithCacheInfo(ctx, g, hash, opts)
	return t, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) store(ctx context.Context, kind, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "type", kind, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, kind, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
