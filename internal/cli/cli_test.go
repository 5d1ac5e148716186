package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/contribnet/pkg/cache"
	"github.com/matzehuels/contribnet/pkg/errors"
	contribio "github.com/matzehuels/contribnet/pkg/io"
	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/observability"
	"github.com/matzehuels/contribnet/pkg/store"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "dot", []string{"dot"}},
		{"multiple formats", "svg,gexf,csv", []string{"svg", "gexf", "csv"}},
		{"spaces and case", " SVG , json ,", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "data/contributors.json", "data/contributors"},
		{"out/network.svg", "contributors.json", "out/network"},
		{"out/network.gexf", "contributors.json", "out/network"},
		{"out/network", "contributors.json", "out/network"},
		{"out/network.v2", "contributors.json", "out/network.v2"},
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	got := outputPaths("net.svg", "in.json", []string{"svg", "dot", "svg"})
	want := []outputPath{{"svg", "net.svg"}, {"dot", "net.dot"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("outputPaths = %v, want %v", got, want)
	}
}

func TestPluralize(t *testing.T) {
	if got := pluralize(1, "member", "members"); got != "1 member" {
		t.Errorf("got %q", got)
	}
	if got := pluralize(0, "member", "members"); got != "0 members" {
		t.Errorf("got %q", got)
	}
}

func TestNewCacheNoCache(t *testing.T) {
	c := New(io.Discard, LogInfo)
	c.noCache = true
	cc, err := c.newCache(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(cache.NullCache); !ok {
		t.Errorf("newCache() = %T, want cache.NullCache", cc)
	}
}

func TestNewCacheFile(t *testing.T) {
	dir := t.TempDir()
	c := New(io.Discard, LogInfo)
	c.Config.Cache.Dir = dir
	cc, err := c.newCache(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	fc, ok := cc.(*cache.FileCache)
	if !ok {
		t.Fatalf("newCache() = %T, want *cache.FileCache", cc)
	}
	if fc.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), dir)
	}
}

// isolate points every config, cache and data directory at t.TempDir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("CONTRIBNET_REDIS_ADDR", "")
	t.Setenv("CONTRIBNET_MONGO_URI", "")
	return dir
}

// run executes the root command with args on a fresh CLI.
func run(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func TestEndToEnd(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "complete.json")

	if err := run(t, "synth", "complete", "--repos", "3", "--users", "4", "-o", input); err != nil {
		t.Fatalf("synth: %v", err)
	}
	rel, err := membership.ReadFile(input)
	if err != nil {
		t.Fatal(err)
	}
	if st := rel.Stats(); st.Groups != 3 || st.Members != 4 || st.Memberships != 12 {
		t.Fatalf("synth stats = %+v", st)
	}

	metricsPath := filepath.Join(dir, "metrics.csv")
	if err := run(t, "analyze", input, "-o", metricsPath, "--quiet"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	table, err := contribio.ImportMetrics(metricsPath)
	if err != nil {
		t.Fatal(err)
	}
	if table.Len() != 4 {
		t.Fatalf("metrics rows = %d, want 4", table.Len())
	}
	m, _ := table.Get("user_00001")
	if m.Degree != 3 || m.Betweenness != 0 || m.Clustering != 1 {
		t.Errorf("user_00001 = %+v, want degree 3, betweenness 0, clustering 1", m)
	}

	base := filepath.Join(dir, "out", "network")
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := run(t, "render", input, "-f", "dot,json", "-o", base); err != nil {
		t.Fatalf("render: %v", err)
	}
	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), "user_00004") {
		t.Error("dot output is missing a member")
	}
	g, _, err := contribio.ImportGraph(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != 6 {
		t.Errorf("rendered graph has %d edges, want 6", g.EdgeCount())
	}

	projected := filepath.Join(dir, "projection.gexf")
	if err := run(t, "project", input, "-f", "gexf", "-o", projected); err != nil {
		t.Fatalf("project: %v", err)
	}
	if _, err := os.Stat(projected); err != nil {
		t.Error(err)
	}
}

func TestAnalyzeSave(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "random.json")

	if err := run(t, "synth", "random", "--repos", "10", "--users", "30", "-p", "0.2", "-o", input); err != nil {
		t.Fatalf("synth: %v", err)
	}
	if err := run(t, "analyze", input, "--quiet", "--save", "--pair-counting", "unordered"); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	st, err := store.NewFileStore("")
	if err != nil {
		t.Fatal(err)
	}
	list, err := st.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("snapshots = %d, want 1", len(list))
	}
	if list[0].Source != input || list[0].PairCounting != "unordered" {
		t.Errorf("snapshot = %+v", list[0])
	}

	if err := run(t, "top", "--snapshot", list[0].ID, "--plain", "-k", "3"); err != nil {
		t.Errorf("top --snapshot: %v", err)
	}
	if err := run(t, "snapshot", "rm", list[0].ID); err != nil {
		t.Fatalf("snapshot rm: %v", err)
	}
	err = run(t, "snapshot", "show", list[0].ID)
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("show after rm: got %v, want NOT_FOUND", err)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing input", []string{"analyze", filepath.Join(dir, "missing.json")}, errors.ErrCodeFileNotFound},
		{"bad sort metric", []string{"analyze", "x.json", "--sort", "pagerank"}, errors.ErrCodeInvalidInput},
		{"bad metrics extension", []string{"analyze", "x.json", "-o", "metrics.txt"}, errors.ErrCodeInvalidInput},
		{"bad render format", []string{"render", "x.json", "-f", "bmp"}, errors.ErrCodeInvalidInput},
		{"bad project format", []string{"project", "x.json", "-f", "graphml"}, errors.ErrCodeInvalidInput},
		{"bad probability", []string{"synth", "random", "-p", "2"}, errors.ErrCodeInvalidInput},
		{"top without input", []string{"top", "--plain"}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("got %v, want %s", err, tt.code)
			}
		})
	}
}

func TestConfigFileApplies(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "contribnet.toml")
	if err := os.WriteFile(cfgPath, []byte("[analysis]\npair_counting = \"sideways\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(dir, "in.json")
	if err := os.WriteFile(input, []byte(`{"a/b":["x","y"]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	err := run(t, "--config", cfgPath, "analyze", input, "--quiet")
	if err == nil {
		t.Fatal("expected the configured pair counting to be rejected")
	}
	if err := run(t, "--config", cfgPath, "analyze", input, "--quiet", "--pair-counting", "ordered"); err != nil {
		t.Errorf("flag should override the config file: %v", err)
	}
}

func TestLoggerLevelFromVerbose(t *testing.T) {
	isolate(t)
	t.Cleanup(observability.Reset)
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"-v", "cache", "path"})
	root.SetOut(io.Discard)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}
