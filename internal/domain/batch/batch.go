// Package batch runs bulk work in fixed-size concurrent batches with a pause
// between batches. It is cooperative backpressure against upstream rate
// limits, not a token bucket.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/tourcheck/pkg/metrics"
)

// Config sets the batch size and the pause between batches.
type Config struct {
	Size  int
	Pause time.Duration
	// Name labels batch latency metrics. Optional.
	Name string
}

// Result is the outcome of one item.
type Result[T any] struct {
	Value T
	Err   error
}

// Run applies fn to every item and returns one result per item in input
// order. A failing or panicking item does not affect the others. Once ctx
// is done, remaining items are marked with the context error and skipped.
func Run[In, Out any](ctx context.Context, cfg Config, items []In, fn func(context.Context, In) (Out, error)) []Result[Out] {
	size := cfg.Size
	if size <= 0 {
		size = 1
	}
	results := make([]Result[Out], len(items))

	for start := 0; start < len(items); start += size {
		if start > 0 && cfg.Pause > 0 {
			timer := time.NewTimer(cfg.Pause)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				results[i].Err = err
			}
			break
		}

		end := min(start+size, len(items))
		began := time.Now()
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = runOne(ctx, items[i], fn)
			}(i)
		}
		wg.Wait()
		if cfg.Name != "" {
			metrics.RecordBatchLatency(cfg.Name, float64(time.Since(began).Milliseconds()))
		}
	}
	return results
}

func runOne[In, Out any](ctx context.Context, item In, fn func(context.Context, In) (Out, error)) (res Result[Out]) {
	defer func() {
		if p := recover(); p != nil {
			res = Result[Out]{Err: fmt.Errorf("%w: %v", ErrItemPanic, p)}
		}
	}()
	v, err := fn(ctx, item)
	return Result[Out]{Value: v, Err: err}
}
