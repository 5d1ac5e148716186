package centrality

import (
	"encoding/json"
	"testing"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    Metric
		wantErr bool
	}{
		{"degree", MetricDegree, false},
		{"normalized-degree", MetricNormalizedDegree, false},
		{" Betweenness ", MetricBetweenness, false},
		{"clustering", MetricClustering, false},
		{"pagerank", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMetric(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMetric(%q) = %q, %v; want %q, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestParsePairCounting(t *testing.T) {
	tests := []struct {
		in      string
		want    PairCounting
		wantErr bool
	}{
		{"", OrderedPairs, false},
		{"ordered", OrderedPairs, false},
		{"UNORDERED", UnorderedPairs, false},
		{"halved", UnorderedPairs, false},
		{"both", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePairCounting(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePairCounting(%q) = %v, %v; want %v, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestTableTop(t *testing.T) {
	tab := compute(t, build(t, star(3)), Options{})

	top := tab.Top(MetricDegree, 2)
	if len(top) != 2 {
		t.Fatalf("Top() returned %d entries", len(top))
	}
	if top[0].Member != "c" || top[0].Value != 3 {
		t.Errorf("Top()[0] = %+v, want c/3", top[0])
	}
	// Ties keep member order.
	if top[1].Member != "l1" {
		t.Errorf("Top()[1] = %+v, want l1", top[1])
	}

	if all := tab.Top(MetricBetweenness, 0); len(all) != 4 {
		t.Errorf("Top(k=0) returned %d entries, want 4", len(all))
	}
}

func TestTableSetAndGet(t *testing.T) {
	tab := NewTable([]string{"b", "a"})
	if got := tab.Members(); got[0] != "a" || got[1] != "b" {
		t.Errorf("Members() = %v, want sorted", got)
	}
	if !tab.Set("a", Metrics{Degree: 3, Betweenness: 1.5}) {
		t.Fatal("Set(a) failed")
	}
	if tab.Set("zz", Metrics{}) {
		t.Error("Set on unknown member should report false")
	}
	m, ok := tab.Get("a")
	if !ok || m.Degree != 3 || m.Betweenness != 1.5 {
		t.Errorf("Get(a) = %+v, %v", m, ok)
	}
	if _, ok := tab.Get("zz"); ok {
		t.Error("Get on unknown member should fail")
	}
	if col := tab.Column(MetricDegree); col[0] != 3 || col[1] != 0 {
		t.Errorf("Column(degree) = %v", col)
	}
}

func TestTableJSONKeyedByMember(t *testing.T) {
	tab := compute(t, build(t, path(3)), Options{})

	data, err := json.Marshal(tab)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["p1"]["betweenness"] != 2 || raw["p1"]["degree"] != 2 {
		t.Errorf("p1 record = %v", raw["p1"])
	}

	var back Table
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Len() != 3 {
		t.Fatalf("decoded table has %d rows", back.Len())
	}
	got, _ := back.Get("p1")
	want, _ := tab.Get("p1")
	if got != want {
		t.Errorf("decoded p1 = %+v, want %+v", got, want)
	}
}

func TestSummarize(t *testing.T) {
	g := build(t, star(4))
	tab := compute(t, g, Options{})
	s := Summarize(g, tab, 1)

	if s.Nodes != 5 || s.Edges != 4 || s.Components != 1 || s.LargestComp != 5 || s.Isolated != 0 {
		t.Errorf("Summarize() shape = %+v", s)
	}
	if !near(s.Density, 0.4) {
		t.Errorf("Density = %v, want 0.4", s.Density)
	}

	d, ok := s.Distribution(MetricDegree)
	if !ok {
		t.Fatal("degree distribution missing")
	}
	if d.Min != 1 || d.Max != 4 || !near(d.Mean, 1.6) {
		t.Errorf("degree distribution = %+v", d)
	}
	if d.Median != 1 || d.P90 != 4 {
		t.Errorf("degree median/p90 = %v/%v, want 1/4", d.Median, d.P90)
	}
	if len(d.Top) != 1 || d.Top[0].Member != "c" {
		t.Errorf("degree top = %+v", d.Top)
	}
}

func TestSummarizeWithoutGraph(t *testing.T) {
	tab := compute(t, build(t, path(2)), Options{})
	s := Summarize(nil, tab, 3)
	if s.Nodes != 2 || s.Edges != 0 {
		t.Errorf("Summarize(nil) = %+v", s)
	}
	if len(s.Distributions) != len(AllMetrics) {
		t.Errorf("got %d distributions", len(s.Distributions))
	}
}

func TestSummarizeEmpty(t *testing.T) {
	g := build(t, pairs())
	tab := compute(t, g, Options{})
	s := Summarize(g, tab, 3)
	for _, d := range s.Distributions {
		if d.StdDev != 0 || d.Mean != 0 {
			t.Errorf("%s on empty table = %+v", d.Metric, d)
		}
	}
}
