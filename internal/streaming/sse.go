package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SSEWriter drains a Stream as text/event-stream frames: `id`, `event`,
// `data` per message; a `: heartbeat` comment line every
// Config.HeartbeatInterval when no data is flowing; an optional `retry`
// directive on connect. Heartbeats are the one thing allowed to drop
// under backpressure per spec; data events are not.
type SSEWriter struct {
	w       io.Writer
	flusher http.Flusher
	s       *Stream
	retryMs int
}

func NewSSEWriter(w io.Writer, s *Stream, retryMs int) *SSEWriter {
	sw := &SSEWriter{w: w, s: s, retryMs: retryMs}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// Run drains events, interleaving heartbeat comments during idle
// periods, until the stream closes or ctx is cancelled.
func (s *SSEWriter) Run(ctx context.Context) error {
	if s.retryMs > 0 {
		if _, err := fmt.Fprintf(s.w, "retry: %d\n\n", s.retryMs); err != nil {
			return fmt.Errorf("writing SSE retry directive: %w", err)
		}
		s.flush()
	}

	ticker := time.NewTicker(s.s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-s.s.Events():
			if !ok {
				return nil
			}
			if err := s.writeEvent(ev); err != nil {
				s.s.metrics.RecordError(ErrorClassSerialization)
				return err
			}
			if ev.Type == EventStreamCompleted || ev.Type == EventStreamTerminated {
				return nil
			}
		case <-ticker.C:
			if s.s.IdleFor() >= s.s.cfg.HeartbeatInterval {
				s.writeHeartbeat()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *SSEWriter) writeEvent(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling SSE event data: %w", err)
	}
	n, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", ev.ResultIndex, ev.Type, data)
	if err != nil {
		return fmt.Errorf("writing SSE frame: %w", err)
	}
	s.s.metrics.RecordBytes(n)
	s.s.metrics.RecordMessage()
	s.flush()
	return nil
}

func (s *SSEWriter) writeHeartbeat() {
	n, err := fmt.Fprint(s.w, ": heartbeat\n\n")
	if err != nil {
		// Heartbeat comments may be dropped under pressure; a write
		// failure here is reported but not fatal to the stream.
		s.s.metrics.RecordError(ErrorClassConnection)
		return
	}
	s.s.metrics.RecordBytes(n)
	s.flush()
}

func (s *SSEWriter) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}
