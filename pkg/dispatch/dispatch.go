// Package dispatch runs batches of jobs on a bounded worker pool, collecting a
// result for every job. A failing job never discards its siblings: callers get
// the full per-item picture and decide what to retry.
package dispatch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result pairs a dispatched item with its worker outcome.
type Result[T any] struct {
	Item T
	Err  error
}

// Run executes worker for every item with at most workers running
// concurrently. All items are submitted up front; results arrive in completion
// order. Workers share no state beyond their own item, so a sequential caller
// can safely mutate its own bookkeeping once Run returns.
func Run[T any](ctx context.Context, workers int, items []T, worker func(context.Context, T) error) []Result[T] {
	if len(items) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	results := make(chan Result[T], len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, item := range items {
		g.Go(func() error {
			results <- Result[T]{Item: item, Err: worker(ctx, item)}
			return nil
		})
	}

	_ = g.Wait() // workers report through results, never through the group
	close(results)

	collected := make([]Result[T], 0, len(items))
	for res := range results {
		collected = append(collected, res)
	}
	return collected
}

// Failed counts results carrying an error.
func Failed[T any](results []Result[T]) int {
	count := 0
	for _, res := range results {
		if res.Err != nil {
			count++
		}
	}
	return count
}

// Succeeded counts results without an error.
func Succeeded[T any](results []Result[T]) int {
	return len(results) - Failed(results)
}
