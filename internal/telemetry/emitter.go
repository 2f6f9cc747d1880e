package telemetry

import (
	"sync"
	"time"
)

// Emitter is the concrete capability backing emit_event / record_metric /
// record_histogram: it owns a registered handler set and fans each call out
// to every handler whose CanHandle/MinSeverity gate passes. Metrics and
// histograms carry no severity of their own, so they pass the gate as long
// as the handler accepts CategorySystem (Tags are not consulted for
// routing) — SeverityInfo is used as a fixed floor for them so a handler
// scoped to warnings-and-above never sees metric noise.
const metricHistogramSeverity = SeverityInfo

// Emitter dispatches telemetry to its registered handlers.
type Emitter struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewEmitter(handlers ...Handler) *Emitter {
	return &Emitter{handlers: append([]Handler(nil), handlers...)}
}

func (e *Emitter) Register(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

func (e *Emitter) snapshot() []Handler {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Handler(nil), e.handlers...)
}

func (e *Emitter) EmitEvent(ev Event) {
	for _, h := range e.snapshot() {
		if h.CanHandle(ev.Category) && ev.Severity >= h.MinSeverity() {
			h.HandleEvent(ev)
		}
	}
}

func (e *Emitter) RecordMetric(name string, value float64, typ MetricType, tags map[string]string) {
	m := Metric{Name: name, Value: value, Type: typ, Tags: tags, Timestamp: time.Now()}
	for _, h := range e.snapshot() {
		if h.CanHandle(CategorySystem) && metricHistogramSeverity >= h.MinSeverity() {
			h.HandleMetric(m)
		}
	}
}

func (e *Emitter) RecordHistogram(name string, seconds float64, tags map[string]string) {
	hg := Histogram{Name: name, Seconds: seconds, Tags: tags, Timestamp: time.Now()}
	for _, h := range e.snapshot() {
		if h.CanHandle(CategorySystem) && metricHistogramSeverity >= h.MinSeverity() {
			h.HandleHistogram(hg)
		}
	}
}
