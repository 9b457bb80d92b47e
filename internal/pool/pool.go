// Package pool runs fixed-size worker pools over contiguous chunks of a work list.
package pool

import (
	"context"
	"sync"
)

// Bounds returns the index range [start, stop) of chunk i when a list of the
// given length is split across workers chunks.
func Bounds(length, workers, i int) (start, stop int) {
	if workers < 1 || length <= 0 {
		return 0, 0
	}
	start = length * i / workers
	stop = length * (i + 1) / workers
	return start, stop
}

// Func processes a single item. It reports zero or more results; a failing
// item returns nothing and never aborts its chunk.
type Func[T, R any] func(ctx context.Context, item T) []R

// Run splits items into workers contiguous chunks and runs one goroutine per
// chunk. Each worker accumulates results in its own buffer; buffers are merged
// in chunk order once every worker has returned, so callers only ever see the
// complete result of the stage. tick, if non-nil, is called after each item.
func Run[T, R any](ctx context.Context, items []T, workers int, fn Func[T, R], tick func()) []R {
	if len(items) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	buffers := make([][]R, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start, stop := Bounds(len(items), workers, i)
		if start == stop {
			continue
		}
		wg.Add(1)
		go func(i int, chunk []T) {
			defer wg.Done()
			var local []R
			for _, item := range chunk {
				select {
				case <-ctx.Done():
					buffers[i] = local
					return
				default:
				}

				local = append(local, fn(ctx, item)...)
				if tick != nil {
					tick()
				}
			}
			buffers[i] = local
		}(i, items[start:stop])
	}
	wg.Wait()

	var total int
	for _, b := range buffers {
		total += len(b)
	}
	merged := make([]R, 0, total)
	for _, b := range buffers {
		merged = append(merged, b...)
	}
	return merged
}
