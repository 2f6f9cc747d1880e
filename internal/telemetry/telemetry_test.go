package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	CategoryFilter
	events     []Event
	metrics    []Metric
	histograms []Histogram
}

func newRecordingHandler(minSev Severity, categories ...Category) *recordingHandler {
	return &recordingHandler{CategoryFilter: NewCategoryFilter(minSev, categories...)}
}

func (r *recordingHandler) HandleEvent(ev Event)         { r.events = append(r.events, ev) }
func (r *recordingHandler) HandleMetric(m Metric)        { r.metrics = append(r.metrics, m) }
func (r *recordingHandler) HandleHistogram(h Histogram)  { r.histograms = append(r.histograms, h) }

func TestCategoryFilterWithNoCategoriesAcceptsEverything(t *testing.T) {
	f := NewCategoryFilter(SeverityDebug)
	assert.True(t, f.CanHandle(CategoryLifecycle))
	assert.True(t, f.CanHandle(CategorySecurityAudit))
}

func TestCategoryFilterRestrictsToConfiguredCategories(t *testing.T) {
	f := NewCategoryFilter(SeverityDebug, CategorySecurityAudit)
	assert.True(t, f.CanHandle(CategorySecurityAudit))
	assert.False(t, f.CanHandle(CategoryLifecycle))
}

func TestEmitterSkipsHandlerBelowMinSeverity(t *testing.T) {
	h := newRecordingHandler(SeverityError)
	e := NewEmitter(h)

	e.EmitEvent(NewEvent(CategorySystem, "heartbeat", SeverityInfo, "tick"))
	assert.Empty(t, h.events)

	e.EmitEvent(NewEvent(CategorySystem, "panic", SeverityCritical, "boom"))
	assert.Len(t, h.events, 1)
	assert.Equal(t, "panic", h.events[0].Type)
}

func TestEmitterSkipsHandlerForUnhandledCategory(t *testing.T) {
	h := newRecordingHandler(SeverityDebug, CategorySecurityAudit)
	e := NewEmitter(h)

	e.EmitEvent(NewEvent(CategoryLifecycle, "stream_started", SeverityInfo, "go"))
	assert.Empty(t, h.events)

	e.EmitEvent(NewEvent(CategorySecurityAudit, "auth_denied", SeverityWarn, "denied"))
	assert.Len(t, h.events, 1)
}

func TestEmitterFansOutToMultipleHandlers(t *testing.T) {
	a := newRecordingHandler(SeverityDebug)
	b := newRecordingHandler(SeverityDebug)
	e := NewEmitter(a, b)

	e.EmitEvent(NewEvent(CategoryResource, "pool_exhausted", SeverityWarn, "no slots"))
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestEmitterRecordMetricReachesHandlersAcceptingSystemCategory(t *testing.T) {
	h := newRecordingHandler(SeverityDebug, CategorySystem)
	e := NewEmitter(h)

	e.RecordMetric("queue_depth", 42, MetricGauge, map[string]string{"host": "a"})
	require := assert.New(t)
	require.Len(h.metrics, 1)
	require.Equal("queue_depth", h.metrics[0].Name)
	require.Equal(42.0, h.metrics[0].Value)
}

func TestEmitterRecordMetricSkipsHandlerRestrictedToOtherCategory(t *testing.T) {
	h := newRecordingHandler(SeverityDebug, CategorySecurityAudit)
	e := NewEmitter(h)

	e.RecordMetric("queue_depth", 1, MetricCounter, nil)
	assert.Empty(t, h.metrics)
}

func TestEmitterRecordHistogramReachesEligibleHandler(t *testing.T) {
	h := newRecordingHandler(SeverityDebug)
	e := NewEmitter(h)

	e.RecordHistogram("fetch_duration", 0.42, nil)
	assert.Len(t, h.histograms, 1)
	assert.Equal(t, 0.42, h.histograms[0].Seconds)
}

func TestEmitterRegisterAddsHandlerAfterConstruction(t *testing.T) {
	e := NewEmitter()
	h := newRecordingHandler(SeverityDebug)
	e.Register(h)

	e.EmitEvent(NewEvent(CategoryLifecycle, "started", SeverityInfo, "go"))
	assert.Len(t, h.events, 1)
}

func TestSeverityStringCoversAllLevels(t *testing.T) {
	assert.Equal(t, "debug", SeverityDebug.String())
	assert.Equal(t, "critical", SeverityCritical.String())
}
