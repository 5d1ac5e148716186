package centrality

import (
	"context"

	"github.com/matzehuels/contribnet/pkg/projection"
)

// Closeness returns r/D(s) for every node s, where r is the number of other
// nodes reachable from s and D(s) the sum of their hop distances. Nodes that
// reach nobody score 0. Edge weights are ignored.
//
// The value is local to the component: it is not scaled by the fraction of
// the graph that is reachable, so members of small components can outscore
// members of large ones.
func Closeness(ctx context.Context, g *projection.Graph, opts Options) ([]float64, error) {
	n := g.NodeCount()
	out := make([]float64, n)

	newState := func() *bfs { return newBFS(n) }
	visit := func(b *bfs, s int) {
		reached, total := b.distances(g, s)
		if reached > 0 {
			out[s] = float64(reached) / float64(total)
		}
	}
	if _, err := forEachSource(ctx, n, MetricCloseness, opts, newState, visit); err != nil {
		return nil, err
	}
	return out, nil
}

// bfs is per-worker scratch space for unweighted single-source searches.
type bfs struct {
	dist  []int32
	queue []int32
}

func newBFS(n int) *bfs {
	b := &bfs{dist: make([]int32, n), queue: make([]int32, 0, n)}
	for i := range b.dist {
		b.dist[i] = -1
	}
	return b
}

// distances runs a BFS from s and returns the number of other nodes reached
// and the sum of their distances. Only touched entries are reset afterwards.
func (b *bfs) distances(g *projection.Graph, s int) (reached int, total int64) {
	b.queue = append(b.queue[:0], int32(s))
	b.dist[s] = 0
	for head := 0; head < len(b.queue); head++ {
		v := b.queue[head]
		dv := b.dist[v]
		for _, w := range g.NeighborIDs(int(v)) {
			if b.dist[w] < 0 {
				b.dist[w] = dv + 1
				total += int64(dv + 1)
				b.queue = append(b.queue, w)
			}
		}
	}
	reached = len(b.queue) - 1
	for _, v := range b.queue {
		b.dist[v] = -1
	}
	return reached, total
}
