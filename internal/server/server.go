// Package server exposes a co-membership analysis over HTTP.
//
// The server is started with an optional dataset (a membership file that
// is analyzed once at startup) and additionally analyzes relations posted
// to /v1/analyze. Uploaded relations are cached under their own key scope
// in the server's in-memory cache.
//
// # Routes
//
//	GET  /healthz
//	GET  /v1/graph               node-link JSON; ?format=gexf|dot|svg
//	GET  /v1/metrics             member -> metrics; ?format=csv, ?top=<metric>&k=N
//	GET  /v1/metrics/{member}
//	GET  /v1/summary             summary and run statistics
//	POST /v1/analyze             body: membership JSON; ?pair_counting=, ?top_k=, ?save=true
//	GET  /v1/snapshots           saved snapshots, newest first
//	GET  /v1/snapshots/{id}
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/pipeline"
	"github.com/matzehuels/contribnet/pkg/store"
)

const (
	// DefaultMaxBodyBytes bounds POST /v1/analyze bodies.
	DefaultMaxBodyBytes = 32 << 20

	// DefaultAnalyzeTimeout bounds a single analysis request.
	DefaultAnalyzeTimeout = 5 * time.Minute

	uploadScope = "upload:"
)

// Config configures a Server.
type Config struct {
	// Runner analyzes the startup dataset. Uploads use a runner sharing
	// its cache under a separate key scope.
	Runner *pipeline.Runner

	// Options are the analysis defaults. When InputPath or Relation is
	// set, that dataset is analyzed by [New].
	Options pipeline.Options

	// Store, when set, receives snapshots of uploads analyzed with
	// ?save=true and serves /v1/snapshots.
	Store store.Store

	MaxBodyBytes   int64
	AnalyzeTimeout time.Duration
	Logger         *log.Logger
}

// Server serves one analyzed dataset and analyzes uploads.
type Server struct {
	runner  *pipeline.Runner
	uploads *pipeline.Runner
	store   store.Store
	opts    pipeline.Options
	result  *pipeline.Result
	logger  *log.Logger

	maxBody int64
	timeout time.Duration
}

// New builds a server, analyzing the configured dataset if any.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		c, err := cache.NewMemoryCache(cache.DefaultMemoryEntries)
		if err != nil {
			return nil, err
		}
		cfg.Runner = pipeline.NewRunner(c, nil, cfg.Logger)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.AnalyzeTimeout <= 0 {
		cfg.AnalyzeTimeout = DefaultAnalyzeTimeout
	}

	s := &Server{
		runner:  cfg.Runner,
		uploads: pipeline.NewRunner(cfg.Runner.Cache, cache.NewScopedKeyer(cfg.Runner.Keyer, uploadScope), cfg.Logger),
		store:   cfg.Store,
		logger:  cfg.Logger,
		maxBody: cfg.MaxBodyBytes,
		timeout: cfg.AnalyzeTimeout,
	}

	base := cfg.Options
	dataset := base.InputPath != "" || base.Relation != nil
	base.InputPath, base.Relation = "", nil
	if err := base.ValidateForAnalysis(); err != nil {
		return nil, err
	}
	base.Logger = cfg.Options.Logger
	s.opts = base

	if dataset {
		res, err := s.runner.Execute(ctx, cfg.Options)
		if err != nil {
			return nil, err
		}
		s.result = res
		s.logger.Info("dataset ready", "nodes", res.Stats.Nodes, "edges", res.Stats.Edges, "run", res.RunID)
	}
	return s, nil
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/graph", s.graph)
		r.Get("/metrics", s.metrics)
		r.Get("/metrics/{member}", s.member)
		r.Get("/summary", s.summary)
		r.Post("/analyze", s.analyze)

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.listSnapshots)
			r.Get("/{id}", s.getSnapshot)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return ctx.Err()
}

// Close releases the runner's cache and the store.
func (s *Server) Close() error {
	var first error
	if s.store != nil {
		first = s.store.Close()
	}
	if err := s.runner.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
