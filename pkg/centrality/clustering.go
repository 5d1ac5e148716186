package centrality

import (
	"context"
	"sort"

	"github.com/matzehuels/contribnet/pkg/projection"
)

// Clustering returns the local clustering coefficient of every node:
// 2*links/(k(k-1)), where k is the node's degree and links the number of
// edges among its neighbors. Nodes with fewer than two neighbors score 0.
// Edge weights are ignored.
func Clustering(ctx context.Context, g *projection.Graph, opts Options) ([]float64, error) {
	n := g.NodeCount()
	out := make([]float64, n)

	newState := func() *marker { return newMarker(n) }
	visit := func(m *marker, v int) {
		k := g.Degree(v)
		if k < 2 {
			return
		}
		links := m.neighborLinks(g, v)
		out[v] = 2 * float64(links) / (float64(k) * float64(k-1))
	}
	if _, err := forEachSource(ctx, n, MetricClustering, opts, newState, visit); err != nil {
		return nil, err
	}
	return out, nil
}

// marker flags the neighborhood of the node being scored. Stamps avoid
// clearing the array between nodes.
type marker struct {
	stamp []int32
}

func newMarker(n int) *marker {
	return &marker{stamp: make([]int32, n)}
}

// neighborLinks counts edges {u, w} with u < w and both in N(v).
func (m *marker) neighborLinks(g *projection.Graph, v int) int {
	tag := int32(v) + 1
	nb := g.NeighborIDs(v)
	for _, u := range nb {
		m.stamp[u] = tag
	}

	links := 0
	for _, u := range nb {
		row := g.NeighborIDs(int(u))
		start := sort.Search(len(row), func(i int) bool { return row[i] > u })
		for _, w := range row[start:] {
			if m.stamp[w] == tag {
				links++
			}
		}
	}
	return links
}
