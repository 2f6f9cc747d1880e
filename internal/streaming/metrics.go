package streaming

import (
	"sync"
	"sync/atomic"
	"time"
)

// ErrorClass buckets stream errors for the per-stream metrics spec'd in
// §4.9: connection|timeout|backpressure|pipeline|serialization|other.
type ErrorClass string

const (
	ErrorClassConnection    ErrorClass = "connection"
	ErrorClassTimeout       ErrorClass = "timeout"
	ErrorClassBackpressure  ErrorClass = "backpressure"
	ErrorClassPipeline      ErrorClass = "pipeline"
	ErrorClassSerialization ErrorClass = "serialization"
	ErrorClassOther         ErrorClass = "other"
)

// Metrics tracks one stream's lifecycle counters. Byte and message
// counters are updated via atomics and error counts and completion
// state under mu, so the transport writer goroutine and the producer
// goroutine can both update them.
type Metrics struct {
	startedAt   time.Time
	bytesOut    int64
	messagesOut int64

	mu          sync.Mutex
	errorCounts map[ErrorClass]int64
	completed   bool
	success     bool
	endedAt     time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now(), errorCounts: make(map[ErrorClass]int64)}
}

func (m *Metrics) RecordBytes(n int) {
	atomic.AddInt64(&m.bytesOut, int64(n))
}

func (m *Metrics) RecordMessage() {
	atomic.AddInt64(&m.messagesOut, 1)
}

func (m *Metrics) RecordError(class ErrorClass) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCounts[class]++
}

// Complete marks the stream finished, recording whether it succeeded
// and when it ended.
func (m *Metrics) Complete(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = true
	m.success = success
	m.endedAt = time.Now()
}

// Snapshot is a point-in-time, immutable view suitable for a status
// response or a telemetry emission.
type Snapshot struct {
	StartedAt    time.Time
	Duration     time.Duration
	BytesOut     int64
	MessagesOut  int64
	ThroughputBs float64
	Errors       map[ErrorClass]int64
	Completed    bool
	Success      bool
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := time.Now()
	if m.completed {
		end = m.endedAt
	}
	duration := end.Sub(m.startedAt)

	errs := make(map[ErrorClass]int64, len(m.errorCounts))
	for k, v := range m.errorCounts {
		errs[k] = v
	}

	bytesOut := atomic.LoadInt64(&m.bytesOut)
	var throughput float64
	if secs := duration.Seconds(); secs > 0 {
		throughput = float64(bytesOut) / secs
	}

	return Snapshot{
		StartedAt:    m.startedAt,
		Duration:     duration,
		BytesOut:     bytesOut,
		MessagesOut:  atomic.LoadInt64(&m.messagesOut),
		ThroughputBs: throughput,
		Errors:       errs,
		Completed:    m.completed,
		Success:      m.success,
	}
}
