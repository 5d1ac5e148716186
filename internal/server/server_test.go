package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/centrality"
	contribio "github.com/matzehuels/contribnet/pkg/io"
	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/pipeline"
	"github.com/matzehuels/contribnet/pkg/store"
)

var sample = membership.Relation{
	"golang/go":    {"rsc", "robpike", "griesemer"},
	"golang/tools": {"rsc", "robpike"},
	"solo/project": {"gopher"},
}

const sampleJSON = `{"golang/go":["rsc","robpike","griesemer"],"golang/tools":["rsc","robpike"],"solo/project":["gopher"]}`

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	mem, err := cache.NewMemoryCache(64)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Logger = logger
	cfg.Runner = pipeline.NewRunner(mem, nil, logger)

	s, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func withDataset(t *testing.T) *httptest.Server {
	return newTestServer(t, Config{Options: pipeline.Options{Relation: sample}})
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("error body %q: %v", body, err)
	}
	return e.Error.Code
}

func TestHealth(t *testing.T) {
	srv := withDataset(t)
	resp, body := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var h map[string]any
	json.Unmarshal(body, &h)
	if h["status"] != "ok" || h["dataset"] != true {
		t.Errorf("health = %v", h)
	}
}

func TestWithoutDataset(t *testing.T) {
	srv := newTestServer(t, Config{})
	for _, path := range []string{"/v1/graph", "/v1/metrics", "/v1/metrics/rsc", "/v1/summary"} {
		resp, body := get(t, srv.URL+path)
		if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != "NOT_FOUND" {
			t.Errorf("GET %s = %d %s", path, resp.StatusCode, body)
		}
	}
}

func TestMetrics(t *testing.T) {
	srv := withDataset(t)

	resp, body := get(t, srv.URL+"/v1/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var table map[string]centrality.Metrics
	if err := json.Unmarshal(body, &table); err != nil {
		t.Fatal(err)
	}
	if len(table) != 4 || table["rsc"].Degree != 2 || table["gopher"].Degree != 0 {
		t.Errorf("metrics = %+v", table)
	}

	resp, body = get(t, srv.URL+"/v1/metrics?format=csv")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.HasPrefix(string(body), "member,degree,normalized_degree") {
		t.Errorf("csv = %q", body)
	}

	resp, _ = get(t, srv.URL+"/v1/metrics?format=xml")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("format=xml status = %d, want 400", resp.StatusCode)
	}
}

func TestMetricsTop(t *testing.T) {
	srv := withDataset(t)

	_, body := get(t, srv.URL+"/v1/metrics?top=degree&k=2")
	var top []centrality.Ranked
	if err := json.Unmarshal(body, &top); err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].Member != "griesemer" || top[0].Value != 2 {
		t.Errorf("top = %+v", top)
	}

	tests := []string{"?top=fame", "?top=degree&k=-1", "?top=degree&k=x"}
	for _, q := range tests {
		resp, body := get(t, srv.URL+"/v1/metrics"+q)
		if resp.StatusCode != http.StatusBadRequest || errorCode(t, body) != "INVALID_INPUT" {
			t.Errorf("GET %s = %d %s", q, resp.StatusCode, body)
		}
	}
}

func TestMember(t *testing.T) {
	srv := withDataset(t)

	resp, body := get(t, srv.URL+"/v1/metrics/rsc")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var m MemberResponse
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatal(err)
	}
	want := []Neighbor{{"griesemer", 1}, {"robpike", 2}}
	if m.Metrics.Degree != 2 || len(m.Neighbors) != 2 || m.Neighbors[0] != want[0] || m.Neighbors[1] != want[1] {
		t.Errorf("member = %+v", m)
	}

	_, body = get(t, srv.URL+"/v1/metrics/gopher")
	json.Unmarshal(body, &m)
	if m.Neighbors == nil || len(m.Neighbors) != 0 {
		t.Errorf("isolated member neighbors = %v, want empty list", m.Neighbors)
	}

	resp, body = get(t, srv.URL+"/v1/metrics/nobody")
	if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != "MEMBER_NOT_FOUND" {
		t.Errorf("unknown member = %d %s", resp.StatusCode, body)
	}
}

func TestSummary(t *testing.T) {
	srv := withDataset(t)
	_, body := get(t, srv.URL+"/v1/summary")
	var s struct {
		RunID   string             `json:"run_id"`
		Stats   pipeline.Stats     `json:"stats"`
		Summary centrality.Summary `json:"summary"`
	}
	if err := json.Unmarshal(body, &s); err != nil {
		t.Fatal(err)
	}
	if s.RunID == "" || s.Stats.Groups != 3 || s.Summary.Nodes != 4 || s.Summary.Components != 2 || s.Summary.Isolated != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestGraph(t *testing.T) {
	srv := withDataset(t)

	_, body := get(t, srv.URL+"/v1/graph")
	g, tbl, err := contribio.ReadGraph(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("ReadGraph() error: %v", err)
	}
	if g.NodeCount() != 4 || g.Weight("rsc", "robpike") != 2 || tbl == nil {
		t.Errorf("graph: %d nodes, table %v", g.NodeCount(), tbl != nil)
	}

	tests := []struct {
		format string
		ctype  string
		prefix string
	}{
		{"gexf", "application/xml", "<?xml"},
		{"dot", "text/vnd.graphviz", "graph G {"},
		{"svg", "image/svg+xml", ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp, body := get(t, srv.URL+"/v1/graph?format="+tt.format+"&layout=circo")
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d: %s", resp.StatusCode, body)
			}
			if resp.Header.Get("Content-Type") != tt.ctype {
				t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
			}
			if !strings.HasPrefix(string(body), tt.prefix) {
				t.Errorf("body starts with %q", body[:min(len(body), 20)])
			}
			if tt.format == "svg" && !bytes.Contains(body, []byte("<svg")) {
				t.Error("svg output lacks <svg> element")
			}
		})
	}

	for _, q := range []string{"?format=csv", "?format=bmp", "?layout=spiral"} {
		resp, _ := get(t, srv.URL+"/v1/graph"+q)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET /v1/graph%s status = %d, want 400", q, resp.StatusCode)
		}
	}
}

func TestAnalyze(t *testing.T) {
	srv := withDataset(t)

	resp, body := post(t, srv.URL+"/v1/analyze", sampleJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var first AnalysisResponse
	if err := json.Unmarshal(body, &first); err != nil {
		t.Fatal(err)
	}
	if first.Cache.MetricsHit {
		t.Error("uploads must not share cache entries with the startup dataset")
	}
	if m, _ := first.Metrics.Get("robpike"); m.Degree != 2 {
		t.Errorf("robpike = %+v", m)
	}
	if first.Stats.Edges != 3 || first.RunID == "" {
		t.Errorf("stats = %+v", first.Stats)
	}

	_, body = post(t, srv.URL+"/v1/analyze", sampleJSON)
	var second AnalysisResponse
	json.Unmarshal(body, &second)
	if !second.Cache.MetricsHit || second.RelationHash != first.RelationHash {
		t.Errorf("repeat upload cache = %+v", second.Cache)
	}

	_, body = post(t, srv.URL+"/v1/analyze?pair_counting=unordered", `{"x":["hub","a"],"y":["hub","b"]}`)
	var star AnalysisResponse
	json.Unmarshal(body, &star)
	if m, _ := star.Metrics.Get("hub"); m.Betweenness != 1 {
		t.Errorf("unordered hub betweenness = %v, want 1", m.Betweenness)
	}
}

func TestAnalyzeRejects(t *testing.T) {
	srv := newTestServer(t, Config{MaxBodyBytes: 64})

	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   string
	}{
		{"invalid json", "", `{"a":`, http.StatusBadRequest, "MALFORMED_INPUT"},
		{"empty member", "", `{"a":["x",""]}`, http.StatusBadRequest, "MALFORMED_INPUT"},
		{"blank member", "", `{"a":["x"," "]}`, http.StatusBadRequest, "MALFORMED_INPUT"},
		{"control character", "", `{"a":["x","y\u0001"]}`, http.StatusBadRequest, "MALFORMED_INPUT"},
		{"bad pair counting", "?pair_counting=both", `{"a":["x","y"]}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"too large", "", `{"a":["` + strings.Repeat("x", 100) + `"]}`, http.StatusRequestEntityTooLarge, "INVALID_INPUT"},
		{"save without store", "?save=true", `{"a":["x","y"]}`, http.StatusNotImplemented, "UNSUPPORTED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv.URL+"/v1/analyze"+tt.query, tt.body)
			if resp.StatusCode != tt.status || errorCode(t, body) != tt.code {
				t.Errorf("got %d %s, want %d %s", resp.StatusCode, body, tt.status, tt.code)
			}
		})
	}
}

func TestSnapshots(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, Config{Store: st})

	_, body := post(t, srv.URL+"/v1/analyze?save=true", sampleJSON)
	var res AnalysisResponse
	json.Unmarshal(body, &res)
	if res.SnapshotID == "" {
		t.Fatalf("no snapshot id in %s", body)
	}

	_, body = get(t, srv.URL+"/v1/snapshots")
	var list []store.Snapshot
	json.Unmarshal(body, &list)
	if len(list) != 1 || list[0].ID != res.SnapshotID || list[0].Source != "upload" || list[0].Metrics != nil {
		t.Errorf("list = %+v", list)
	}

	resp, body := get(t, srv.URL+"/v1/snapshots/"+res.SnapshotID)
	var snap store.Snapshot
	json.Unmarshal(body, &snap)
	if resp.StatusCode != http.StatusOK || len(snap.Metrics) != 4 || snap.PairCounting != "ordered" {
		t.Errorf("snapshot = %d %+v", resp.StatusCode, snap)
	}

	resp, body = get(t, srv.URL+"/v1/snapshots/6f1c1a52-0000-4000-8000-000000000000")
	if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != "NOT_FOUND" {
		t.Errorf("missing snapshot = %d %s", resp.StatusCode, body)
	}
	resp, _ = get(t, srv.URL+"/v1/snapshots/..%2Fetc")
	if resp.StatusCode != http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		t.Errorf("invalid id status = %d", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := withDataset(t)
	resp, body := get(t, srv.URL+"/v2/metrics")
	if resp.StatusCode != http.StatusNotFound || errorCode(t, body) != "NOT_FOUND" {
		t.Errorf("unknown route = %d %s", resp.StatusCode, body)
	}
}

func TestHTTPStatus(t *testing.T) {
	if httpStatus("") != http.StatusInternalServerError {
		t.Error("unknown codes should map to 500")
	}
	if httpStatus("RATE_LIMITED") != http.StatusTooManyRequests {
		t.Error("RATE_LIMITED should map to 429")
	}
}
