package streaming

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// wsMessage is the wire envelope spec'd for WebSocket frames:
// `{ message_type, data, timestamp }`.
type wsMessage struct {
	MessageType EventType   `json:"message_type"`
	Data        interface{} `json:"data,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// WebSocketWriter drains a Stream over a gorilla/websocket connection,
// pinging every Config.HeartbeatInterval and closing with code 1001 if
// no pong arrives within twice that interval.
type WebSocketWriter struct {
	conn *websocket.Conn
	s    *Stream

	lastPong int64 // unix nano, updated by the pong handler
}

func NewWebSocketWriter(conn *websocket.Conn, s *Stream) *WebSocketWriter {
	w := &WebSocketWriter{conn: conn, s: s}
	atomic.StoreInt64(&w.lastPong, time.Now().UnixNano())
	conn.SetPongHandler(func(string) error {
		atomic.StoreInt64(&w.lastPong, time.Now().UnixNano())
		return nil
	})
	return w
}

// Run drains events to the socket and drives the ping/pong keepalive
// concurrently until the stream closes, ctx is cancelled, or the pong
// deadline expires.
func (w *WebSocketWriter) Run(ctx context.Context) error {
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := w.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := w.s.cfg.HeartbeatInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-w.s.Events():
			if !ok {
				return nil
			}
			if err := w.writeEvent(ev); err != nil {
				w.s.metrics.RecordError(ErrorClassSerialization)
				return err
			}
			if ev.Type == EventStreamCompleted || ev.Type == EventStreamTerminated {
				w.close(websocket.CloseNormalClosure, "stream complete")
				return nil
			}
		case <-ticker.C:
			sincePong := time.Since(time.Unix(0, atomic.LoadInt64(&w.lastPong)))
			if sincePong >= 2*interval {
				w.s.metrics.RecordError(ErrorClassTimeout)
				w.close(websocket.CloseGoingAway, "pong timeout")
				return fmt.Errorf("streaming: websocket pong timeout after %s", sincePong)
			}
			if err := w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				w.s.metrics.RecordError(ErrorClassConnection)
				return fmt.Errorf("writing websocket ping: %w", err)
			}
		case <-readDone:
			return fmt.Errorf("streaming: websocket read loop ended")
		case <-ctx.Done():
			w.close(websocket.CloseNormalClosure, "context cancelled")
			return ctx.Err()
		}
	}
}

func (w *WebSocketWriter) writeEvent(ev Event) error {
	msg := wsMessage{MessageType: ev.Type, Data: ev, Timestamp: ev.Timestamp}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling websocket message: %w", err)
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("writing websocket message: %w", err)
	}
	w.s.metrics.RecordBytes(len(b))
	w.s.metrics.RecordMessage()
	return nil
}

func (w *WebSocketWriter) close(code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}
