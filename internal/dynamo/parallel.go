package dynamo

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs independent simulations on a bounded number of goroutines.
// Results are addressed by originating index, never by completion order.
type Pool struct {
	workers int
}

// NewPool returns a pool; workers <= 1 runs jobs sequentially on the caller.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run calls fn for every index in [0, n) and returns the per-index errors.
// A failing job does not stop its siblings. Jobs not yet started when ctx is
// done record ctx.Err().
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, idx int) error) []error {
	errs := make([]error, n)
	if p.workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				continue
			}
			errs[i] = fn(ctx, i)
		}
		return errs
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		idx := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return nil
			}
			errs[idx] = fn(ctx, idx)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// ParallelFor executes fn over disjoint chunks of [0, n). Chunks never
// shrink below minChunk rows, and small ranges run on the caller.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if minChunk < 1 {
		minChunk = 1
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			fn(start, end)
			return nil
		})
	}
	_ = g.Wait()
}
