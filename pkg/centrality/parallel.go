package centrality

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/contribnet/pkg/errors"
)

// progressEvery is how many sources a worker completes between progress
// notifications.
const progressEvery = 64

// forEachSource calls visit for every node id in [0, n). Sources are handed
// out through an atomic counter to opts.workers(n) goroutines, each owning
// the state returned by newState. The states are returned so callers can
// merge per-worker partial results. The context is checked before every
// source; a cancelled run returns an ErrCodeCanceled error and no states.
func forEachSource[S any](ctx context.Context, n int, metric Metric, opts Options, newState func() S, visit func(st S, s int)) ([]S, error) {
	if n == 0 {
		return nil, nil
	}

	workers := opts.workers(n)
	states := make([]S, workers)
	var next, done atomic.Int64

	eg, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		eg.Go(func() error {
			st := newState()
			states[w] = st
			for {
				if err := ctx.Err(); err != nil {
					return errors.Canceled(err, "%s canceled", metric)
				}
				s := int(next.Add(1) - 1)
				if s >= n {
					return nil
				}
				visit(st, s)

				if d := done.Add(1); opts.Progress != nil && (d%progressEvery == 0 || int(d) == n) {
					opts.Progress(metric, int(d), n)
				}
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}
