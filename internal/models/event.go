package models

import "time"

// Severity orders event/metric importance, mirroring zerolog's level scale
// so C13's telemetry contract maps onto the logger without translation.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

// EventType enumerates the lifecycle/system/search/security-audit/resource
// event families described in spec §4.12.
type EventType string

const (
	EventConnectionEstablished EventType = "connection_established"
	EventStreamStarted         EventType = "stream_started"
	EventProgressUpdate        EventType = "progress_update"
	EventStreamError           EventType = "stream_error"
	EventStreamCompleted       EventType = "stream_completed"
	EventStreamTerminated      EventType = "stream_terminated"
	EventConnectionClosed      EventType = "connection_closed"
	EventSystem                EventType = "system"
	EventSearch                EventType = "search"
	EventSecurityAudit         EventType = "security_audit"
	EventResource              EventType = "resource"
)

// Event is a typed, immutable telemetry value. Handlers are selected by
// capability (Type, minimum Severity), never by mutating the event.
type Event struct {
	Type      EventType
	Payload   map[string]any
	Severity  Severity
	Timestamp time.Time
	Source    string // emitting component, e.g. "pipeline", "spider"
}

// NewEvent stamps the timestamp so callers don't each reimplement it.
func NewEvent(typ EventType, source string, severity Severity, payload map[string]any) Event {
	return Event{
		Type:      typ,
		Payload:   payload,
		Severity:  severity,
		Timestamp: time.Now(),
		Source:    source,
	}
}
