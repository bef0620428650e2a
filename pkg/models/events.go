package models

import "time"

type EventType string

const (
	EventTypeMetricsSampled  EventType = "metrics_sampled"
	EventTypeTriggerFired    EventType = "trigger_fired"
	EventTypeScalingStarted  EventType = "scaling_started"
	EventTypeScalingComplete EventType = "scaling_complete"
	EventTypeScalingFailed   EventType = "scaling_failed"
	EventTypeNodeAdded       EventType = "node_added"
	EventTypeNodeRemoved     EventType = "node_removed"
	EventTypeNodeDegraded    EventType = "node_degraded"
	EventTypeNodeRestored    EventType = "node_restored"
	EventTypeNodeFailed      EventType = "node_failed"
	EventTypeAlert           EventType = "alert"
	EventTypeError           EventType = "error"
)

type EventSeverity string

const (
	EventSeverityInfo     EventSeverity = "info"
	EventSeverityWarning  EventSeverity = "warning"
	EventSeverityCritical EventSeverity = "critical"
)

// Event represents an internal system event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	NodeID    string        `json:"node_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, nodeID, message string) *Event {
	return &Event{
		ID:        NewUUID(),
		Type:      eventType,
		Severity:  EventSeverityInfo,
		NodeID:    nodeID,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}
