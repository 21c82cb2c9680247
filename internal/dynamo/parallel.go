package dynamo

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelFor executes fn over contiguous chunks of [0, n) using at most
// workers goroutines. The first error returned by any chunk is returned.
func ParallelFor(ctx context.Context, n, workers int, fn func(start, end int) error) error {
	if n == 0 {
		return nil
	}
	if workers <= 1 || n == 1 {
		return fn(0, n)
	}
	if workers > n {
		workers = n
	}

	chunkSize := (n + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		s, e := start, end
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(s, e)
		})
	}

	return g.Wait()
}
