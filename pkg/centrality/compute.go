package centrality

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/contribnet/pkg/projection"
)

// Compute fills a [Table] with all metrics for g. The four metric families
// run concurrently and write disjoint columns; the per-source families are
// parallel internally as well. If ctx is cancelled the first error is
// returned and no table is produced.
func Compute(ctx context.Context, g *projection.Graph, opts Options) (*Table, error) {
	t := newTableFor(g)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		for i, d := range Degree(g) {
			t.degree[i] = d
		}
		copy(t.normalized, NormalizedDegree(g))
		return nil
	})
	eg.Go(func() error {
		c, err := Closeness(ctx, g, opts)
		if err != nil {
			return err
		}
		copy(t.closeness, c)
		return nil
	})
	eg.Go(func() error {
		b, err := Betweenness(ctx, g, opts)
		if err != nil {
			return err
		}
		copy(t.betweenness, b)
		return nil
	})
	eg.Go(func() error {
		c, err := Clustering(ctx, g, opts)
		if err != nil {
			return err
		}
		copy(t.clustering, c)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}
