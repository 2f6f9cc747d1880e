package streaming

import (
	"context"
	"sort"
	"sync"
)

// ProcessFunc runs one unit of work for a streamed batch (typically a
// single URL through the pipeline) and returns whatever payload belongs
// in that item's result event.
type ProcessFunc func(ctx context.Context, item string) (interface{}, error)

// BatchConfig controls one RunBatch invocation.
type BatchConfig struct {
	Concurrency   int
	PreserveOrder bool // insertion order vs completion order, per spec §4.9 Ordering
}

// RunBatch dispatches work concurrently across items (spec's "bounded
// fan-out"), emitting the full lifecycle sequence into s. Cancellation
// via ctx propagates to in-flight work and is reported as
// StreamTerminated rather than StreamCompleted.
func RunBatch(ctx context.Context, s *Stream, items []string, cfg BatchConfig, process ProcessFunc) error {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	cadence := ProgressCadence(len(items))

	_ = s.Send(ctx, NewEvent(EventConnectionEstablished, -1, nil))
	_ = s.Send(ctx, NewEvent(EventStreamStarted, -1, map[string]int{"total": len(items)}))

	type outcome struct {
		index int
		data  interface{}
		err   error
	}
	results := make(chan outcome, len(items))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, url string) {
			defer wg.Done()
			defer func() { <-sem }()
			data, err := process(ctx, url)
			results <- outcome{index: idx, data: data, err: err}
		}(i, item)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	completions := 0
	terminated := false
	pending := make(map[int]outcome)
	nextExpected := 0

	emit := func(o outcome) error {
		completions++
		var err error
		if o.err != nil {
			err = s.Send(ctx, NewErrorEvent(o.index, o.err))
		} else {
			err = s.Send(ctx, NewEvent(EventResult, o.index, o.data))
		}
		if err != nil {
			return err
		}
		if completions%cadence == 0 {
			_ = s.Send(ctx, NewEvent(EventProgressUpdate, o.index, map[string]int{
				"completed": completions,
				"total":     len(items),
			}))
		}
		return nil
	}

	for o := range results {
		select {
		case <-ctx.Done():
			terminated = true
		default:
		}

		if !cfg.PreserveOrder {
			if err := emit(o); err != nil {
				terminated = true
			}
			continue
		}

		pending[o.index] = o
		for {
			next, ok := pending[nextExpected]
			if !ok {
				break
			}
			delete(pending, nextExpected)
			nextExpected++
			if err := emit(next); err != nil {
				terminated = true
			}
		}
	}

	// Flush anything still buffered out of order (can happen if an
	// earlier index's goroutine never reported, e.g. panic recovery
	// elsewhere); emit in index order so result_index stays monotonic.
	if cfg.PreserveOrder && len(pending) > 0 {
		remaining := make([]int, 0, len(pending))
		for idx := range pending {
			remaining = append(remaining, idx)
		}
		sort.Ints(remaining)
		for _, idx := range remaining {
			_ = emit(pending[idx])
		}
	}

	if terminated || ctx.Err() != nil {
		s.metrics.Complete(false)
		_ = s.Send(ctx, NewEvent(EventStreamTerminated, -1, nil))
	} else {
		s.metrics.Complete(true)
		_ = s.Send(ctx, NewEvent(EventStreamCompleted, -1, nil))
	}
	_ = s.Send(ctx, NewEvent(EventConnectionClosed, -1, nil))
	return ctx.Err()
}
