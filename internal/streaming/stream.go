package streaming

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BackpressureExceededError is raised when the bounded channel between
// producer and transport writer stays full past Config.BackpressureDeadline.
type BackpressureExceededError struct {
	Deadline time.Duration
}

func (e *BackpressureExceededError) Error() string {
	return fmt.Sprintf("streaming: backpressure exceeded deadline %s", e.Deadline)
}

// Config bounds one stream's scheduling and resume behavior.
type Config struct {
	ChannelCapacity       int
	BackpressureDeadline  time.Duration
	HeartbeatInterval     time.Duration
	ResumeBufferSize      int
	AllowHeartbeatDrop    bool // SSE: true (comment heartbeats may be dropped); NDJSON/WS: false
}

func DefaultConfig() Config {
	return Config{
		ChannelCapacity:      64,
		BackpressureDeadline: 10 * time.Second,
		HeartbeatInterval:    30 * time.Second,
		ResumeBufferSize:     256,
	}
}

// Stream is the protocol-agnostic producer/consumer core: a single
// logical producer pushes Events into a bounded channel; a transport
// writer (NDJSON/SSE/WebSocket) drains it. Mirrors the teacher's
// bounded-channel pool (acquire/release over a fixed-capacity channel)
// generalized from a resource pool to an event pipe.
type Stream struct {
	cfg     Config
	ch      chan Event
	metrics *Metrics

	mu        sync.Mutex
	resumeBuf []Event
	lastSend  time.Time
	closeOnce sync.Once
	closed    chan struct{}
}

func NewStream(cfg Config) *Stream {
	return &Stream{
		cfg:      cfg,
		ch:       make(chan Event, cfg.ChannelCapacity),
		metrics:  NewMetrics(),
		lastSend: time.Now(),
		closed:   make(chan struct{}),
	}
}

func (s *Stream) Metrics() *Metrics { return s.metrics }

// Send pushes an event into the bounded channel, waiting cooperatively
// for space up to BackpressureDeadline. Drops are never silent: the
// caller gets BackpressureExceededError and decides whether that's
// fatal (NDJSON/WS, per spec, must not drop) or tolerable (SSE comment
// heartbeats only).
func (s *Stream) Send(ctx context.Context, ev Event) error {
	timer := time.NewTimer(s.cfg.BackpressureDeadline)
	defer timer.Stop()

	select {
	case s.ch <- ev:
		s.recordSent(ev)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return fmt.Errorf("streaming: stream closed")
	case <-timer.C:
		s.metrics.RecordError(ErrorClassBackpressure)
		return &BackpressureExceededError{Deadline: s.cfg.BackpressureDeadline}
	}
}

// TrySend attempts a non-blocking send, used by heartbeat emission where
// a full channel just means skip this tick rather than backpressure-fail.
func (s *Stream) TrySend(ev Event) bool {
	select {
	case s.ch <- ev:
		s.recordSent(ev)
		return true
	default:
		return false
	}
}

func (s *Stream) recordSent(ev Event) {
	s.mu.Lock()
	s.lastSend = time.Now()
	s.resumeBuf = append(s.resumeBuf, ev)
	if len(s.resumeBuf) > s.cfg.ResumeBufferSize {
		s.resumeBuf = s.resumeBuf[len(s.resumeBuf)-s.cfg.ResumeBufferSize:]
	}
	s.mu.Unlock()
}

// Events exposes the consumer side for a transport writer to drain.
func (s *Stream) Events() <-chan Event { return s.ch }

// IdleFor reports how long it has been since the last successful send,
// used by transport writers to decide whether to emit a heartbeat.
func (s *Stream) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastSend)
}

// Close shuts the stream down; safe to call multiple times.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		close(s.ch)
	})
}

// ResumeFrom returns buffered events with ResultIndex > lastEventID, per
// spec's "server resumes at id + 1" reconnection contract. Events older
// than the resume buffer's capacity are unrecoverable; callers should
// treat a gap as a full resync signal.
func (s *Stream) ResumeFrom(lastEventID int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.resumeBuf))
	for _, ev := range s.resumeBuf {
		if ev.ResultIndex > lastEventID {
			out = append(out, ev)
		}
	}
	return out
}
