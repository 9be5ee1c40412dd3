package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs indexed jobs on a bounded number of goroutines.
type Pool struct {
	workerCount int
}

// NewPool creates a pool. A workerCount below one runs jobs one at a time.
func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

// Size returns the number of concurrent workers.
func (p *Pool) Size() int {
	return p.workerCount
}

// Map calls fn for every index in [0, n) and returns the results in index order.
// The first error cancels the context passed to the remaining jobs and is returned.
func Map[T any](ctx context.Context, p *Pool, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	if n == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workerCount)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := fn(gctx, i)
			if err != nil {
				return err
			}
			// Each job owns its slot, so no locking is needed.
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
