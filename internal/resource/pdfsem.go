package resource

import (
	"context"
	"time"
)

// PDFSemaphore bounds concurrent PDF extraction operations (default 2,
// per spec §4.4), a plain counting semaphore rather than a checkout
// pool since PDF extraction holds no reusable handle between calls.
type PDFSemaphore struct {
	tokens chan struct{}
}

func NewPDFSemaphore(maxConcurrent int) *PDFSemaphore {
	if maxConcurrent < 1 {
		maxConcurrent = 2
	}
	tokens := make(chan struct{}, maxConcurrent)
	for i := 0; i < maxConcurrent; i++ {
		tokens <- struct{}{}
	}
	return &PDFSemaphore{tokens: tokens}
}

// PDFGuard releases one semaphore slot on Release.
type PDFGuard struct {
	sem      *PDFSemaphore
	released bool
}

func (g *PDFGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.sem.tokens <- struct{}{}
}

// Acquire blocks until a slot is available, ctx is cancelled, or
// timeout elapses.
func (s *PDFSemaphore) Acquire(ctx context.Context, timeout time.Duration) (*PDFGuard, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.tokens:
		return &PDFGuard{sem: s}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrExhausted
	}
}
