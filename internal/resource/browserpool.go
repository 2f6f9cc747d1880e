package resource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/webforge/crawlkit/internal/obslog"
)

// BrowserHandle is one pooled headless browser page, tracked the way
// the teacher's PageHealthStatus tracked a rod.Page: use-count,
// failure-count, timestamps.
type BrowserHandle struct {
	Page        *rod.Page
	ID          int
	CreatedAt   time.Time
	LastUsedAt  time.Time
	UseCount    int
	FailCount   int
	MemEstimate int64 // MB, advisory
}

// BrowserPoolConfig mirrors spec §4.3's tunables, shared in shape with
// NativePoolConfig.
type BrowserPoolConfig struct {
	MinSize           int
	InitialWarmup     int
	MaxSize           int
	AcquireTimeout    time.Duration
	IdleTimeout       time.Duration
	MaxLifetime       time.Duration
	MaxReuseCount     int
	MaxFailureCount   int
	HealthCheckPeriod time.Duration
	Breaker           CircuitBreakerConfig
}

func DefaultBrowserPoolConfig() BrowserPoolConfig {
	return BrowserPoolConfig{
		MinSize:           1,
		InitialWarmup:     1,
		MaxSize:           3,
		AcquireTimeout:    10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxLifetime:       30 * time.Minute,
		MaxReuseCount:     200,
		MaxFailureCount:   3,
		HealthCheckPeriod: 30 * time.Second,
		Breaker:           DefaultCircuitBreakerConfig(),
	}
}

// BrowserOutcome tells Return what to do with a checked-out handle,
// generalized from the teacher's three-way clean/retry/destroy ladder
// in PagePool.ReleasePage.
type BrowserOutcome int

const (
	OutcomeHealthy BrowserOutcome = iota
	OutcomeUnhealthy
)

// BrowserGuard is a RAII-style checkout: the caller must call Release
// exactly once, mirroring the teacher's defer-based release discipline
// used throughout page_pool.go.
type BrowserGuard struct {
	handle   *BrowserHandle
	pool     *BrowserPool
	released bool
}

func (g *BrowserGuard) Handle() *BrowserHandle { return g.handle }

func (g *BrowserGuard) Release(outcome BrowserOutcome) {
	if g.released {
		return
	}
	g.released = true
	g.pool.returnHandle(g.handle, outcome)
}

// BrowserPool pools headless-browser page handles over a shared
// *rod.Browser, generalized from the teacher's single-browser
// PagePool into the spec's pool-with-circuit-breaker shape (C3).
type BrowserPool struct {
	mu      sync.Mutex
	browser *rod.Browser
	cfg     BrowserPoolConfig
	mem     *MemoryManager
	breaker *CircuitBreaker

	all       []*BrowserHandle
	available chan *BrowserHandle
	nextID    int
	closed    bool
}

func NewBrowserPool(browser *rod.Browser, mem *MemoryManager, cfg BrowserPoolConfig) *BrowserPool {
	return &BrowserPool{
		browser:   browser,
		cfg:       cfg,
		mem:       mem,
		breaker:   NewCircuitBreaker(cfg.Breaker),
		available: make(chan *BrowserHandle, cfg.MaxSize),
	}
}

// Warmup creates up to InitialWarmup handles eagerly.
func (bp *BrowserPool) Warmup() error {
	for i := 0; i < bp.cfg.InitialWarmup; i++ {
		h, err := bp.createHandle()
		if err != nil {
			return fmt.Errorf("browser pool warmup: %w", err)
		}
		bp.available <- h
	}
	return nil
}

// Checkout returns a guard for an available or newly created browser
// handle, or ErrExhausted if the pool is at capacity and no handle
// frees up before ctx or the configured acquire timeout elapses. It
// short-circuits immediately if the circuit breaker is open.
func (bp *BrowserPool) Checkout(ctx context.Context) (*BrowserGuard, error) {
	if !bp.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	select {
	case h := <-bp.available:
		h.LastUsedAt = time.Now()
		return &BrowserGuard{handle: h, pool: bp}, nil
	default:
	}

	bp.mu.Lock()
	canCreate := len(bp.all) < bp.cfg.MaxSize && !bp.closed
	bp.mu.Unlock()

	if canCreate {
		h, err := bp.createHandle()
		if err != nil {
			bp.breaker.RecordFailure()
			return nil, fmt.Errorf("creating browser handle: %w", err)
		}
		h.LastUsedAt = time.Now()
		return &BrowserGuard{handle: h, pool: bp}, nil
	}

	timeout := bp.cfg.AcquireTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrExhausted
	case h := <-bp.available:
		h.LastUsedAt = time.Now()
		return &BrowserGuard{handle: h, pool: bp}, nil
	}
}

func (bp *BrowserPool) createHandle() (*BrowserHandle, error) {
	page, err := bp.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	bp.mu.Lock()
	bp.nextID++
	h := &BrowserHandle{Page: page, ID: bp.nextID, CreatedAt: time.Now(), LastUsedAt: time.Now()}
	bp.all = append(bp.all, h)
	bp.mu.Unlock()

	if bp.mem != nil {
		bp.mem.TrackAllocation(100) // 100MB estimate per tab, matching teacher's TabMemoryUsage default
	}
	return h, nil
}

// returnHandle decides whether to return the handle to the pool,
// retire it (stale/over-capped), or discard it (unhealthy), following
// the teacher's PagePool.ReleasePage ladder.
func (bp *BrowserPool) returnHandle(h *BrowserHandle, outcome BrowserOutcome) {
	h.UseCount++

	if outcome == OutcomeUnhealthy {
		h.FailCount++
		bp.breaker.RecordFailure()
	} else {
		bp.breaker.RecordSuccess()
	}

	if bp.shouldDiscard(h) {
		bp.destroyHandle(h)
		return
	}

	if err := bp.cleanPage(h.Page); err != nil {
		obslog.Warnf("browser handle %d clean failed, destroying: %v", h.ID, err)
		bp.destroyHandle(h)
		return
	}

	select {
	case bp.available <- h:
	default:
		bp.destroyHandle(h)
	}
}

func (bp *BrowserPool) shouldDiscard(h *BrowserHandle) bool {
	if h.FailCount >= bp.cfg.MaxFailureCount {
		return true
	}
	if bp.cfg.MaxReuseCount > 0 && h.UseCount >= bp.cfg.MaxReuseCount {
		return true
	}
	if bp.cfg.MaxLifetime > 0 && time.Since(h.CreatedAt) >= bp.cfg.MaxLifetime {
		return true
	}
	return false
}

func (bp *BrowserPool) cleanPage(page *rod.Page) error {
	_, err := page.Evaluate(&rod.EvalOptions{JS: `() => {
		try { localStorage.clear(); } catch (e) {}
		try { sessionStorage.clear(); } catch (e) {}
		try {
			document.cookie.split(";").forEach(function(c) {
				var eq = c.indexOf("=");
				var name = eq > -1 ? c.substr(0, eq) : c;
				document.cookie = name.replace(/^ +/, "") + "=;expires=Thu, 01 Jan 1970 00:00:00 UTC;path=/";
			});
		} catch (e) {}
		return true;
	}`})
	return err
}

func (bp *BrowserPool) destroyHandle(h *BrowserHandle) {
	bp.mu.Lock()
	for i, p := range bp.all {
		if p == h {
			bp.all = append(bp.all[:i], bp.all[i+1:]...)
			break
		}
	}
	bp.mu.Unlock()

	if err := h.Page.Close(); err != nil {
		obslog.Warnf("closing browser handle %d: %v", h.ID, err)
	}
	if bp.mem != nil {
		bp.mem.Release(100)
	}
}

// IdleEvict closes handles that have sat idle beyond IdleTimeout,
// intended to run from a periodic background task.
func (bp *BrowserPool) IdleEvict() int {
	bp.mu.Lock()
	stale := make([]*BrowserHandle, 0)
	now := time.Now()
	for _, h := range bp.all {
		if now.Sub(h.LastUsedAt) >= bp.cfg.IdleTimeout {
			stale = append(stale, h)
		}
	}
	bp.mu.Unlock()

	evicted := 0
	for _, h := range stale {
		select {
		case picked := <-bp.available:
			if picked == h {
				bp.destroyHandle(h)
				evicted++
			} else {
				bp.available <- picked
			}
		default:
		}
	}
	return evicted
}

// CurrentSize returns the number of live handles.
func (bp *BrowserPool) CurrentSize() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.all)
}

// CircuitState exposes the breaker's state for telemetry (C13).
func (bp *BrowserPool) CircuitState() CircuitState {
	return bp.breaker.State()
}

// Close shuts down every pooled handle.
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	if bp.closed {
		bp.mu.Unlock()
		return nil
	}
	bp.closed = true
	handles := bp.all
	bp.all = nil
	bp.mu.Unlock()

	close(bp.available)
	for _, h := range handles {
		if err := h.Page.Close(); err != nil {
			obslog.Warnf("closing browser handle %d during pool close: %v", h.ID, err)
		}
	}
	return nil
}
