package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// NDJSONWriter drains a Stream's events to w, one JSON object per line,
// per spec's "order matches result_index" NDJSON contract. NDJSON never
// drops: backpressure failures propagate as a hard stream error.
type NDJSONWriter struct {
	w io.Writer
	s *Stream
}

func NewNDJSONWriter(w io.Writer, s *Stream) *NDJSONWriter {
	return &NDJSONWriter{w: w, s: s}
}

// Run drains events until the context is cancelled or the stream closes,
// writing each as a JSON line terminated by \n.
func (n *NDJSONWriter) Run(ctx context.Context) error {
	for {
		select {
		case ev, ok := <-n.s.Events():
			if !ok {
				return nil
			}
			if err := n.writeLine(ev); err != nil {
				n.s.metrics.RecordError(ErrorClassSerialization)
				return err
			}
			if ev.Type == EventStreamCompleted || ev.Type == EventStreamTerminated {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (n *NDJSONWriter) writeLine(ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling NDJSON event: %w", err)
	}
	b = append(b, '\n')
	written, err := n.w.Write(b)
	if err != nil {
		return fmt.Errorf("writing NDJSON line: %w", err)
	}
	n.s.metrics.RecordBytes(written)
	n.s.metrics.RecordMessage()
	return nil
}
