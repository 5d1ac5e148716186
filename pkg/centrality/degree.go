package centrality

import "github.com/matzehuels/contribnet/pkg/projection"

// Degree returns the number of distinct neighbors of every node, indexed by
// node id. Edge weights are ignored.
func Degree(g *projection.Graph) []int {
	out := make([]int, g.NodeCount())
	for i := range out {
		out[i] = g.Degree(i)
	}
	return out
}

// NormalizedDegree returns degree/(N-1) for every node. A graph with a
// single node uses a denominator of 1.
func NormalizedDegree(g *projection.Graph) []float64 {
	n := g.NodeCount()
	denom := float64(n - 1)
	if n <= 1 {
		denom = 1
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(g.Degree(i)) / denom
	}
	return out
}
