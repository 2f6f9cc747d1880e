package resource

import (
	"context"
	"net/url"
	"runtime"
	"time"

	"github.com/webforge/crawlkit/internal/models"
	"github.com/webforge/crawlkit/internal/obslog"
)

// renderMemoryUnitMB and pdfMemoryUnitMB are the per-operation memory
// budget units charged against the MemoryManager, per spec §4.4.
const (
	renderMemoryUnitMB = 256
	pdfMemoryUnitMB    = 128
)

// Manager is the composition-root façade over C1-C4 plus the WASM pool
// and PDF semaphore, generalized from the teacher's Crawler struct
// (internal/core/crawler.go), which likewise owned every sub-resource
// and coordinated access through a single entry point, but here the
// coordination is expressed as explicit acquire/release guards instead
// of an in-process crawl loop.
type Manager struct {
	RateLimiter *RateLimiter
	Memory      *MemoryManager
	Browsers    *BrowserPool
	Native      *NativePool
	Wasm        *WasmPool
	PDF         *PDFSemaphore

	timeouts int
}

// RenderGuard composes the four resources a headless render needs and
// releases all of them on Release, per spec §4.4 step 6.
type RenderGuard struct {
	browser  *BrowserGuard
	wasm     *WasmInstance
	wasmPool *WasmPool
	mem      *MemoryManager
	released bool
}

func (g *RenderGuard) Browser() *BrowserGuard { return g.browser }
func (g *RenderGuard) Wasm() *WasmInstance     { return g.wasm }

func (g *RenderGuard) Release(outcome BrowserOutcome) {
	if g.released {
		return
	}
	g.released = true
	g.browser.Release(outcome)
	g.wasmPool.Release(g.wasm)
	g.mem.Release(renderMemoryUnitMB)
}

// PDFResourceGuard composes the PDF semaphore slot and its memory
// tracking unit.
type PDFResourceGuard struct {
	guard    *PDFGuard
	mem      *MemoryManager
	released bool
}

func (g *PDFResourceGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.guard.Release()
	g.mem.Release(pdfMemoryUnitMB)
}

// AcquireRenderResources implements spec §4.4's
// acquire_render_resources(url): memory-pressure check, rate-limit
// check, browser checkout, WASM acquisition, memory tracking, and a
// composite guard.
func (m *Manager) AcquireRenderResources(ctx context.Context, rawURL string, workerID int) (*RenderGuard, error) {
	if m.Memory.IsUnderPressure() {
		return nil, models.NewError(models.ErrMemoryPressure, "memory pressure too high to render", nil)
	}

	host, err := hostOf(rawURL)
	if err != nil {
		return nil, models.NewError(models.ErrInvalidURL, "cannot extract host", err)
	}

	if ok, retryAfter := m.RateLimiter.CheckRateLimit(host); !ok {
		return nil, models.RateLimitedError(retryAfter)
	}

	browserGuard, err := m.Browsers.Checkout(ctx)
	if err != nil {
		switch err {
		case ErrExhausted:
			return nil, models.NewError(models.ErrResourceExhausted, "browser pool exhausted", err)
		case ErrCircuitOpen:
			return nil, models.NewError(models.ErrCircuitOpen, "browser pool circuit open", err)
		default:
			return nil, models.NewError(models.ErrTimeout, "browser checkout failed", err)
		}
	}

	wasmInst, err := m.Wasm.Acquire(workerID)
	if err != nil {
		browserGuard.Release(OutcomeHealthy)
		return nil, models.NewError(models.ErrResourceExhausted, "wasm instance unavailable", err)
	}

	m.Memory.TrackAllocation(renderMemoryUnitMB)

	return &RenderGuard{browser: browserGuard, wasm: wasmInst, wasmPool: m.Wasm, mem: m.Memory}, nil
}

// AcquirePDFResources implements spec §4.4's acquire_pdf_resources():
// memory-pressure check, semaphore acquire with timeout, 128MB
// tracking unit, composite guard.
func (m *Manager) AcquirePDFResources(ctx context.Context, timeout time.Duration) (*PDFResourceGuard, error) {
	if m.Memory.IsUnderPressure() {
		return nil, models.NewError(models.ErrMemoryPressure, "memory pressure too high for PDF extraction", nil)
	}

	guard, err := m.PDF.Acquire(ctx, timeout)
	if err != nil {
		return nil, models.NewError(models.ErrResourceExhausted, "PDF semaphore exhausted", err)
	}

	m.Memory.TrackAllocation(pdfMemoryUnitMB)
	return &PDFResourceGuard{guard: guard, mem: m.Memory}, nil
}

// CleanupOnTimeout is invoked by callers on their own operation
// timeouts (the manager imposes none itself, per spec §4.4): it
// triggers the memory manager's advisory cleanup, records the timeout,
// and forces a GC pass if pressure warrants it.
func (m *Manager) CleanupOnTimeout(operation string) {
	m.timeouts++
	obslog.Warnf("resource manager: timeout during %q (total timeouts: %d)", operation, m.timeouts)
	m.Memory.TriggerCleanup()
	if m.Memory.ShouldTriggerGC() {
		obslog.Debugf("resource manager: forcing GC after timeout, pressure=%.2f", m.Memory.Pressure())
		forceGC()
	}
}

// TimeoutCount reports how many CleanupOnTimeout calls have occurred,
// for the performance-stats surface.
func (m *Manager) TimeoutCount() int {
	return m.timeouts
}

func forceGC() {
	runtime.GC()
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", models.NewError(models.ErrInvalidURL, "URL has no host", nil)
	}
	return u.Hostname(), nil
}
