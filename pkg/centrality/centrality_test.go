package centrality

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/contribnet/pkg/errors"
	"github.com/matzehuels/contribnet/pkg/membership"
	"github.com/matzehuels/contribnet/pkg/projection"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) <= eps }

func build(t *testing.T, rel membership.Relation) *projection.Graph {
	t.Helper()
	g, err := projection.Build(rel)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return g
}

func compute(t *testing.T, g *projection.Graph, opts Options) *Table {
	t.Helper()
	tab, err := Compute(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	return tab
}

// pairs turns a list of edges into two-member groups.
func pairs(edges ...[2]string) membership.Relation {
	rel := membership.Relation{}
	for i, e := range edges {
		rel[fmt.Sprintf("g%03d", i)] = []string{e[0], e[1]}
	}
	return rel
}

func star(k int) membership.Relation {
	var edges [][2]string
	for i := range k {
		edges = append(edges, [2]string{"c", fmt.Sprintf("l%d", i+1)})
	}
	return pairs(edges...)
}

func path(n int) membership.Relation {
	var edges [][2]string
	for i := 0; i+1 < n; i++ {
		edges = append(edges, [2]string{fmt.Sprintf("p%d", i), fmt.Sprintf("p%d", i+1)})
	}
	return pairs(edges...)
}

func assertMetrics(t *testing.T, tab *Table, member string, want Metrics) {
	t.Helper()
	got, ok := tab.Get(member)
	if !ok {
		t.Fatalf("member %q missing from table", member)
	}
	if got.Degree != want.Degree ||
		!near(got.NormalizedDegree, want.NormalizedDegree) ||
		!near(got.Closeness, want.Closeness) ||
		!near(got.Betweenness, want.Betweenness) ||
		!near(got.Clustering, want.Clustering) {
		t.Errorf("%s = %+v, want %+v", member, got, want)
	}
}

func TestTriangleFromTwoGroups(t *testing.T) {
	tab := compute(t, build(t, membership.Relation{
		"A": {"x", "y", "z"},
		"B": {"x", "y"},
	}), Options{})

	want := Metrics{Degree: 2, NormalizedDegree: 1, Closeness: 1, Betweenness: 0, Clustering: 1}
	for _, m := range []string{"x", "y", "z"} {
		assertMetrics(t, tab, m, want)
	}
}

func TestSinglePair(t *testing.T) {
	tab := compute(t, build(t, membership.Relation{"A": {"u", "v"}}), Options{})
	want := Metrics{Degree: 1, NormalizedDegree: 1, Closeness: 1}
	assertMetrics(t, tab, "u", want)
	assertMetrics(t, tab, "v", want)
}

func TestSingleNode(t *testing.T) {
	tab := compute(t, build(t, membership.Relation{"A": {"x"}}), Options{})
	assertMetrics(t, tab, "x", Metrics{})
	if !tab.Finite() {
		t.Error("single node table contains non-finite values")
	}
}

func TestIsolatedNode(t *testing.T) {
	tab := compute(t, build(t, membership.Relation{
		"A": {"x", "y"},
		"B": {"w"},
	}), Options{})

	assertMetrics(t, tab, "w", Metrics{})
	assertMetrics(t, tab, "x", Metrics{Degree: 1, NormalizedDegree: 0.5, Closeness: 1})
}

func TestEmptyGraph(t *testing.T) {
	tab := compute(t, build(t, membership.Relation{}), Options{})
	if tab.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tab.Len())
	}
}

func TestStar(t *testing.T) {
	const k = 4
	g := build(t, star(k))

	tests := []struct {
		name   string
		pc     PairCounting
		center float64
	}{
		{"ordered", OrderedPairs, k * (k - 1)},
		{"unordered", UnorderedPairs, k * (k - 1) / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tab := compute(t, g, Options{PairCounting: tt.pc})
			assertMetrics(t, tab, "c", Metrics{
				Degree:           k,
				NormalizedDegree: 1,
				Closeness:        1,
				Betweenness:      tt.center,
				Clustering:       0,
			})
			for i := range k {
				assertMetrics(t, tab, fmt.Sprintf("l%d", i+1), Metrics{
					Degree:           1,
					NormalizedDegree: 0.25,
					Closeness:        4.0 / 7.0,
				})
			}
		})
	}
}

func TestPathBetweenness(t *testing.T) {
	g := build(t, path(5))
	ctx := context.Background()

	unordered, err := Betweenness(ctx, g, Options{PairCounting: UnorderedPairs})
	if err != nil {
		t.Fatal(err)
	}
	ordered, err := Betweenness(ctx, g, Options{})
	if err != nil {
		t.Fatal(err)
	}

	// Every pair straddling p_i has a unique shortest path through it.
	for i := range 5 {
		id, _ := g.Lookup(fmt.Sprintf("p%d", i))
		want := float64(i * (4 - i))
		if !near(unordered[id], want) {
			t.Errorf("unordered p%d = %v, want %v", i, unordered[id], want)
		}
		if !near(ordered[id], 2*want) {
			t.Errorf("ordered p%d = %v, want %v", i, ordered[id], 2*want)
		}
	}
}

func TestPathCloseness(t *testing.T) {
	g := build(t, path(3))
	c, err := Closeness(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"p0": 2.0 / 3.0, "p1": 1, "p2": 2.0 / 3.0}
	for name, w := range want {
		id, _ := g.Lookup(name)
		if !near(c[id], w) {
			t.Errorf("closeness %s = %v, want %v", name, c[id], w)
		}
	}
}

func TestClosenessIsLocalToComponent(t *testing.T) {
	// A lone pair scores 1 even though a larger component exists.
	rel := path(4)
	rel["solo"] = []string{"q0", "q1"}
	tab := compute(t, build(t, rel), Options{})

	q, _ := tab.Get("q0")
	if !near(q.Closeness, 1) {
		t.Errorf("q0 closeness = %v, want 1", q.Closeness)
	}
	p, _ := tab.Get("p0")
	if !near(p.Closeness, 3.0/6.0) {
		t.Errorf("p0 closeness = %v, want 0.5", p.Closeness)
	}
}

func TestClustering(t *testing.T) {
	// Square a-b-c-d with diagonal a-c.
	g := build(t, pairs(
		[2]string{"a", "b"},
		[2]string{"b", "c"},
		[2]string{"c", "d"},
		[2]string{"d", "a"},
		[2]string{"a", "c"},
	))
	c, err := Clustering(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{"a": 2.0 / 3.0, "b": 1, "c": 2.0 / 3.0, "d": 1}
	for name, w := range want {
		id, _ := g.Lookup(name)
		if !near(c[id], w) {
			t.Errorf("clustering %s = %v, want %v", name, c[id], w)
		}
	}
}

func TestCompleteGraph(t *testing.T) {
	members := []string{"a", "b", "c", "d", "e", "f"}
	tab := compute(t, build(t, membership.Relation{"all": members}), Options{})
	for _, m := range members {
		assertMetrics(t, tab, m, Metrics{
			Degree:           5,
			NormalizedDegree: 1,
			Closeness:        1,
			Betweenness:      0,
			Clustering:       1,
		})
	}
}

func TestDegreeMatchesNeighbors(t *testing.T) {
	g := build(t, randomRelation(11, 15, 60, 0.12))
	for i, d := range Degree(g) {
		distinct := map[int32]bool{}
		for _, v := range g.NeighborIDs(i) {
			distinct[v] = true
		}
		if d != len(distinct) {
			t.Fatalf("Degree(%d) = %d, want %d", i, d, len(distinct))
		}
	}
}

func TestClosenessPositiveWhenConnected(t *testing.T) {
	g := build(t, path(6))
	c, err := Closeness(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range c {
		if v <= 0 {
			t.Errorf("closeness[%d] = %v, want > 0", i, v)
		}
	}
}

func TestClusteringBounds(t *testing.T) {
	g := build(t, randomRelation(5, 20, 50, 0.15))
	c, err := Clustering(context.Background(), g, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range c {
		if g.Degree(i) < 2 && v != 0 {
			t.Errorf("node %d with degree %d has clustering %v", i, g.Degree(i), v)
		}
		if v < 0 || v > 1 {
			t.Errorf("clustering[%d] = %v out of [0, 1]", i, v)
		}
	}
}

func TestBetweennessMatchesPairCounting(t *testing.T) {
	for seed := range uint64(4) {
		g := build(t, randomRelation(seed, 10, 35, 0.12))
		got, err := Betweenness(context.Background(), g, Options{Workers: 3})
		if err != nil {
			t.Fatal(err)
		}
		want := bruteBetweenness(g)
		for i := range want {
			if math.Abs(got[i]-want[i]) > 1e-6 {
				t.Fatalf("seed %d: betweenness[%d] = %v, want %v", seed, i, got[i], want[i])
			}
		}
	}
}

func TestBetweennessSumInvariantUnderRelabeling(t *testing.T) {
	rel := randomRelation(9, 12, 40, 0.15)
	relabeled := membership.Relation{}
	for g, ms := range rel {
		for _, m := range ms {
			// m%03d -> r%03d with the numbering reversed.
			num, err := strconv.Atoi(m[1:])
			if err != nil {
				t.Fatal(err)
			}
			relabeled[g] = append(relabeled[g], fmt.Sprintf("r%03d", 999-num))
		}
	}

	sum := func(rel membership.Relation) float64 {
		b, err := Betweenness(context.Background(), build(t, rel), Options{})
		if err != nil {
			t.Fatal(err)
		}
		total := 0.0
		for _, v := range b {
			total += v
		}
		return total
	}

	a, b := sum(rel), sum(relabeled)
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("betweenness sum changed under relabeling: %v vs %v", a, b)
	}
}

func TestWorkerCountIndependent(t *testing.T) {
	g := build(t, randomRelation(21, 25, 80, 0.08))
	one := compute(t, g, Options{Workers: 1})
	many := compute(t, g, Options{Workers: 7})

	for _, m := range one.Members() {
		a, _ := one.Get(m)
		b, _ := many.Get(m)
		if a.Degree != b.Degree || !near(a.Closeness, b.Closeness) ||
			math.Abs(a.Betweenness-b.Betweenness) > 1e-6 || !near(a.Clustering, b.Clustering) {
			t.Fatalf("%s differs: %+v vs %+v", m, a, b)
		}
	}
}

func TestNoNaNOrInf(t *testing.T) {
	rel := randomRelation(3, 8, 30, 0.1)
	rel["lonely"] = []string{"zz-isolated"}
	tab := compute(t, build(t, rel), Options{PairCounting: UnorderedPairs})
	if !tab.Finite() {
		t.Error("table contains NaN or Inf")
	}
}

func TestComputeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compute(ctx, build(t, path(10)), Options{})
	if !errors.Is(err, errors.ErrCodeCanceled) {
		t.Errorf("Compute() error = %v, want canceled", err)
	}
}

func TestProgress(t *testing.T) {
	g := build(t, path(200))
	var final atomic.Int64
	opts := Options{
		Workers: 4,
		Progress: func(metric Metric, done, total int) {
			if metric == MetricBetweenness && done == total {
				final.Add(1)
			}
		},
	}
	if _, err := Betweenness(context.Background(), g, opts); err != nil {
		t.Fatal(err)
	}
	if final.Load() != 1 {
		t.Errorf("final progress reported %d times, want 1", final.Load())
	}
}

// bruteBetweenness sums sigma_st(v)/sigma_st over ordered pairs s != t.
func bruteBetweenness(g *projection.Graph) []float64 {
	n := g.NodeCount()
	dist := make([][]int, n)
	sigma := make([][]float64, n)
	for s := range n {
		dist[s] = make([]int, n)
		sigma[s] = make([]float64, n)
		for i := range dist[s] {
			dist[s][i] = -1
		}
		dist[s][s], sigma[s][s] = 0, 1
		queue := []int{s}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			for _, w := range g.NeighborIDs(v) {
				if dist[s][w] < 0 {
					dist[s][w] = dist[s][v] + 1
					queue = append(queue, int(w))
				}
				if dist[s][w] == dist[s][v]+1 {
					sigma[s][w] += sigma[s][v]
				}
			}
		}
	}

	out := make([]float64, n)
	for s := range n {
		for t := range n {
			if s == t || dist[s][t] < 0 {
				continue
			}
			for v := range n {
				if v == s || v == t || dist[s][v] < 0 || dist[v][t] < 0 {
					continue
				}
				if dist[s][v]+dist[v][t] == dist[s][t] {
					out[v] += sigma[s][v] * sigma[v][t] / sigma[s][t]
				}
			}
		}
	}
	return out
}

func randomRelation(seed uint64, groups, members int, p float64) membership.Relation {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	rel := membership.Relation{}
	for gi := range groups {
		name := fmt.Sprintf("g%02d", gi)
		for m := range members {
			if rng.Float64() < p {
				rel[name] = append(rel[name], fmt.Sprintf("m%03d", m))
			}
		}
	}
	return rel
}
