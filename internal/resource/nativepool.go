package resource

import (
	"context"
	"time"
)

// NativeWorker is a pooled CSS/Regex extractor instance. Extractors
// are stateless in this domain, so the "instance" is really just a
// slot token plus its usage bookkeeping; the pool still follows the
// C3 shape (state per instance, checkout/return, circuit breaker) per
// spec §4.3's "both follow the same pattern".
type NativeWorker struct {
	ID         int
	CreatedAt  time.Time
	LastUsedAt time.Time
	UseCount   int
	FailCount  int
}

type NativePoolConfig struct {
	MinSize         int
	InitialWarmup   int
	MaxSize         int
	AcquireTimeout  time.Duration
	IdleTimeout     time.Duration
	MaxReuseCount   int
	MaxFailureCount int
	Breaker         CircuitBreakerConfig
}

func DefaultNativePoolConfig() NativePoolConfig {
	return NativePoolConfig{
		MinSize:         1,
		InitialWarmup:   2,
		MaxSize:         8,
		AcquireTimeout:  5 * time.Second,
		IdleTimeout:     5 * time.Minute,
		MaxReuseCount:   0, // unbounded: extractors carry no per-call state
		MaxFailureCount: 5,
		Breaker:         DefaultCircuitBreakerConfig(),
	}
}

type NativeGuard struct {
	worker   *NativeWorker
	pool     *NativePool
	released bool
}

func (g *NativeGuard) Worker() *NativeWorker { return g.worker }

func (g *NativeGuard) Release(outcome BrowserOutcome) {
	if g.released {
		return
	}
	g.released = true
	g.pool.returnWorker(g.worker, outcome)
}

// NativePool bounds concurrent CSS/Regex extraction with a semaphore
// of reusable worker slots, generalized from the same checkout/return
// idiom as BrowserPool (C3) but without any external process to
// manage — generalized from teacher's page_pool.go shape applied to a
// lighter-weight resource, per spec §4.3.
type NativePool struct {
	cfg       NativePoolConfig
	breaker   *CircuitBreaker
	available chan *NativeWorker
	nextID    int
}

func NewNativePool(cfg NativePoolConfig) *NativePool {
	np := &NativePool{
		cfg:       cfg,
		breaker:   NewCircuitBreaker(cfg.Breaker),
		available: make(chan *NativeWorker, cfg.MaxSize),
	}
	for i := 0; i < cfg.InitialWarmup && i < cfg.MaxSize; i++ {
		np.nextID++
		np.available <- &NativeWorker{ID: np.nextID, CreatedAt: time.Now(), LastUsedAt: time.Now()}
	}
	for i := cfg.InitialWarmup; i < cfg.MaxSize; i++ {
		np.nextID++
		np.available <- &NativeWorker{ID: np.nextID, CreatedAt: time.Now(), LastUsedAt: time.Now()}
	}
	return np
}

func (np *NativePool) Checkout(ctx context.Context) (*NativeGuard, error) {
	if !np.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	timeout := np.cfg.AcquireTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case w := <-np.available:
		w.LastUsedAt = time.Now()
		return &NativeGuard{worker: w, pool: np}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrExhausted
	}
}

func (np *NativePool) returnWorker(w *NativeWorker, outcome BrowserOutcome) {
	w.UseCount++
	if outcome == OutcomeUnhealthy {
		w.FailCount++
		np.breaker.RecordFailure()
	} else {
		np.breaker.RecordSuccess()
	}

	if w.FailCount >= np.cfg.MaxFailureCount {
		w.FailCount = 0
		w.UseCount = 0
	}
	np.available <- w
}

func (np *NativePool) CircuitState() CircuitState {
	return np.breaker.State()
}

// Size returns the total number of worker slots configured.
func (np *NativePool) Size() int {
	return np.cfg.MaxSize
}
