package centrality

import (
	"context"

	"github.com/matzehuels/contribnet/pkg/projection"
)

// Betweenness computes shortest-path betweenness with Brandes' algorithm on
// the unweighted projection.
//
// For every source s a BFS records hop distances, shortest-path counts
// sigma and the edges of the shortest-path DAG. Dependencies are then
// accumulated in reverse BFS order:
//
//	delta(v) = sum over DAG successors w of sigma(v)/sigma(w) * (1 + delta(w))
//
// and delta(v) is credited to v for every v != s. With the default
// [OrderedPairs] the per-source dependencies are summed as is; with
// [UnorderedPairs] the totals are halved.
//
// Sources are processed in parallel. Each worker keeps a private partial
// accumulator; the partials are summed once all sources are done.
func Betweenness(ctx context.Context, g *projection.Graph, opts Options) ([]float64, error) {
	n := g.NodeCount()
	out := make([]float64, n)

	newState := func() *brandes { return newBrandes(n) }
	visit := func(b *brandes, s int) { b.accumulate(g, s) }
	states, err := forEachSource(ctx, n, MetricBetweenness, opts, newState, visit)
	if err != nil {
		return nil, err
	}

	for _, b := range states {
		if b == nil {
			continue
		}
		for i, v := range b.partial {
			out[i] += v
		}
	}
	if opts.PairCounting == UnorderedPairs {
		for i := range out {
			out[i] /= 2
		}
	}
	return out, nil
}

// brandes is per-worker scratch space. Arrays are indexed by node id and
// reset lazily: only nodes reached from the last source are cleared.
//
// The shortest-path DAG is stored as one flat slice of successor ids. The
// successors of order[k] occupy succ[succEnd[k-1]:succEnd[k]], so each
// node's range is fixed when the BFS dequeues it.
type brandes struct {
	dist    []int32
	sigma   []float64
	delta   []float64
	order   []int32
	succ    []int32
	succEnd []int32
	partial []float64
}

func newBrandes(n int) *brandes {
	b := &brandes{
		dist:    make([]int32, n),
		sigma:   make([]float64, n),
		delta:   make([]float64, n),
		order:   make([]int32, 0, n),
		succEnd: make([]int32, 0, n),
		partial: make([]float64, n),
	}
	for i := range b.dist {
		b.dist[i] = -1
	}
	return b
}

func (b *brandes) accumulate(g *projection.Graph, s int) {
	b.order = append(b.order[:0], int32(s))
	b.succ = b.succ[:0]
	b.succEnd = b.succEnd[:0]
	b.dist[s] = 0
	b.sigma[s] = 1

	for head := 0; head < len(b.order); head++ {
		v := b.order[head]
		next := b.dist[v] + 1
		for _, w := range g.NeighborIDs(int(v)) {
			if b.dist[w] < 0 {
				b.dist[w] = next
				b.order = append(b.order, w)
			}
			if b.dist[w] == next {
				b.sigma[w] += b.sigma[v]
				b.succ = append(b.succ, w)
			}
		}
		b.succEnd = append(b.succEnd, int32(len(b.succ)))
	}

	for k := len(b.order) - 1; k >= 0; k-- {
		v := b.order[k]
		start := int32(0)
		if k > 0 {
			start = b.succEnd[k-1]
		}
		sv := b.sigma[v]
		var d float64
		for _, w := range b.succ[start:b.succEnd[k]] {
			d += sv / b.sigma[w] * (1 + b.delta[w])
		}
		b.delta[v] = d
		if int(v) != s {
			b.partial[v] += d
		}
	}

	for _, v := range b.order {
		b.dist[v] = -1
		b.sigma[v] = 0
		b.delta[v] = 0
	}
}
