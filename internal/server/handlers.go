package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/contribnet/pkg/buildinfo"
	"github.com/matzehuels/contribnet/pkg/centrality"
	"github.com/matzehuels/contribnet/pkg/errors"
	contribio "github.com/matzehuels/contribnet/pkg/io"
	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/pipeline"
	"github.com/matzehuels/contribnet/pkg/store"
)

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatCSV:  "text/csv; charset=utf-8",
	pipeline.FormatGEXF: "application/xml",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

// AnalysisResponse is the body returned by POST /v1/analyze.
type AnalysisResponse struct {
	RunID        string             `json:"run_id"`
	RelationHash string             `json:"relation_hash"`
	Stats        pipeline.Stats     `json:"stats"`
	Cache        pipeline.CacheInfo `json:"cache"`
	Summary      centrality.Summary `json:"summary"`
	Metrics      *centrality.Table  `json:"metrics"`
	SnapshotID   string             `json:"snapshot_id,omitempty"`
}

// MemberResponse is the body returned by GET /v1/metrics/{member}.
type MemberResponse struct {
	Member    string             `json:"member"`
	Metrics   centrality.Metrics `json:"metrics"`
	Neighbors []Neighbor         `json:"neighbors"`
}

// Neighbor is a co-member and the number of groups shared with it.
type Neighbor struct {
	Member string `json:"member"`
	Weight int    `json:"weight"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"dataset": s.result != nil,
	})
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	res, ok := s.dataset(w)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if format == pipeline.FormatCSV {
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "csv is served by /v1/metrics"))
		return
	}

	opts := s.opts
	opts.Formats = []string{format}
	if v := r.URL.Query().Get("size_by"); v != "" {
		opts.SizeBy = v
	}
	if v := r.URL.Query().Get("layout"); v != "" {
		opts.Layout = v
	}
	artifacts, err := pipeline.RenderResult(r.Context(), res, opts)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondBytes(w, format, artifacts[format])
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) {
	res, ok := s.dataset(w)
	if !ok {
		return
	}
	q := r.URL.Query()

	if top := q.Get("top"); top != "" {
		m, err := centrality.ParseMetric(top)
		if err != nil {
			s.respondError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "top"))
			return
		}
		k, err := intParam(q.Get("k"), s.opts.TopK)
		if err != nil {
			s.respondError(w, err)
			return
		}
		s.respondJSON(w, http.StatusOK, res.Metrics.Top(m, k))
		return
	}

	switch q.Get("format") {
	case "", pipeline.FormatJSON:
		s.respondJSON(w, http.StatusOK, res.Metrics)
	case pipeline.FormatCSV:
		w.Header().Set("Content-Type", contentTypes[pipeline.FormatCSV])
		if err := contribio.WriteMetricsCSV(w, res.Metrics); err != nil {
			s.logger.Error("write csv", "error", err)
		}
	default:
		s.respondError(w, errors.New(errors.ErrCodeInvalidInput, "metrics format must be json or csv"))
	}
}

func (s *Server) member(w http.ResponseWriter, r *http.Request) {
	res, ok := s.dataset(w)
	if !ok {
		return
	}
	id := chi.URLParam(r, "member")
	m, found := res.Metrics.Get(id)
	if !found {
		s.respondError(w, errors.New(errors.ErrCodeMemberNotFound, "member %q is not in the graph", id))
		return
	}

	resp := MemberResponse{Member: id, Metrics: m, Neighbors: []Neighbor{}}
	for other, weight := range res.Graph.Neighbors(id) {
		resp.Neighbors = append(resp.Neighbors, Neighbor{Member: other, Weight: weight})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.dataset(w)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"run_id":  res.RunID,
		"stats":   res.Stats,
		"summary": res.Summary,
	})
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := s.opts
	if v := q.Get("pair_counting"); v != "" {
		opts.PairCounting = v
	}
	var err error
	if opts.TopK, err = intParam(q.Get("top_k"), opts.TopK); err != nil {
		s.respondError(w, err)
		return
	}
	opts.Refresh = q.Get("refresh") == "true"
	save := q.Get("save") == "true"
	if save && s.store == nil {
		s.respondError(w, errors.New(errors.ErrCodeUnsupported, "no snapshot store configured"))
		return
	}

	rel, err := membership.Read(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.respondJSON(w, http.StatusRequestEntityTooLarge, errorBody(errors.ErrCodeInvalidInput,
				"request body exceeds "+strconv.FormatInt(s.maxBody, 10)+" bytes"))
			return
		}
		s.respondError(w, err)
		return
	}
	if err := rel.ValidateExternal(); err != nil {
		s.respondError(w, err)
		return
	}
	opts.Relation = rel

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	res, err := s.uploads.Execute(ctx, opts)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = errors.Wrap(errors.ErrCodeTimeout, err, "analysis exceeded %s", s.timeout)
		}
		s.respondError(w, err)
		return
	}

	resp := AnalysisResponse{
		RunID:        res.RunID,
		RelationHash: res.RelationHash,
		Stats:        res.Stats,
		Cache:        res.CacheInfo,
		Summary:      res.Summary,
		Metrics:      res.Metrics,
	}
	if save {
		snap := store.NewSnapshot(res, "upload", opts.PairCounting)
		if err := s.store.Save(r.Context(), snap); err != nil {
			s.respondError(w, err)
			return
		}
		resp.SnapshotID = snap.ID
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	if !s.hasStore(w) {
		return
	}
	list, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) getSnapshot(w http.ResponseWriter, r *http.Request) {
	if !s.hasStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	snap, err := s.store.Load(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		err = errors.Wrap(errors.ErrCodeNotFound, err, "snapshot %s", id)
	}
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, snap)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) dataset(w http.ResponseWriter) (*pipeline.Result, bool) {
	if s.result == nil {
		s.respondError(w, errors.New(errors.ErrCodeNotFound, "server was started without a dataset; POST /v1/analyze instead"))
		return nil, false
	}
	return s.result, true
}

func (s *Server) hasStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.respondError(w, errors.New(errors.ErrCodeUnsupported, "no snapshot store configured"))
		return false
	}
	return true
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "expected a non-negative integer, got %q", v)
	}
	return n, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondBytes(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := httpStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "code", code, "error", err)
	}
	s.respondJSON(w, status, errorBody(code, errors.UserMessage(err)))
}

func errorBody(code errors.Code, message string) map[string]any {
	return map[string]any{"error": map[string]any{"code": code, "message": message}}
}

func httpStatus(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeMalformedInput, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidRepo, errors.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeMemberNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
