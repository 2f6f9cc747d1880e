// Package streaming implements the protocol-agnostic stream lifecycle
// shared by NDJSON, SSE and WebSocket transports: a bounded producer
// channel, heartbeats, backpressure, and Last-Event-ID resume, generalized
// from the teacher's bounded-channel worker-pool idiom (the same shape as
// its `availablePages chan *rod.Page` pool) into an event stream.
package streaming

import "time"

// EventType enumerates the lifecycle sequence spec'd for every stream:
// ConnectionEstablished -> StreamStarted -> ProgressUpdate* ->
// (StreamError|StreamCompleted|StreamTerminated) -> ConnectionClosed.
type EventType string

const (
	EventConnectionEstablished EventType = "connection_established"
	EventStreamStarted         EventType = "stream_started"
	EventProgressUpdate        EventType = "progress_update"
	EventResult                EventType = "result"
	EventStreamError           EventType = "stream_error"
	EventStreamCompleted       EventType = "stream_completed"
	EventStreamTerminated      EventType = "stream_terminated"
	EventConnectionClosed      EventType = "connection_closed"
)

// Event is one item flowing through a Stream. ResultIndex is the stable
// ordering key (spec's `result_index`) used both for reconstructing
// insertion order and as the SSE `id` field for Last-Event-ID resume.
type Event struct {
	Type        EventType   `json:"type"`
	ResultIndex int         `json:"result_index"`
	Timestamp   time.Time   `json:"timestamp"`
	Data        interface{} `json:"data,omitempty"`
	Err         string      `json:"error,omitempty"`
}

func NewEvent(typ EventType, resultIndex int, data interface{}) Event {
	return Event{Type: typ, ResultIndex: resultIndex, Timestamp: time.Now(), Data: data}
}

func NewErrorEvent(resultIndex int, err error) Event {
	return Event{Type: EventStreamError, ResultIndex: resultIndex, Timestamp: time.Now(), Err: err.Error()}
}

// ProgressCadence returns how many completions should elapse between
// ProgressUpdate events for a batch of the given size: at least 1, at
// most total/20, so a 10000-URL batch doesn't emit 10000 progress events.
func ProgressCadence(total int) int {
	if total <= 0 {
		return 1
	}
	cadence := total / 20
	if cadence < 1 {
		return 1
	}
	return cadence
}
