package domain

import "time"

// EventType identifies what happened in an execution
type EventType string

const (
	EventTypeSpellSubmitted EventType = "spell.submitted"
	EventTypeSpellStarted   EventType = "spell.started"
	EventTypeSpellCompleted EventType = "spell.completed"
	EventTypeSpellFailed    EventType = "spell.failed"
	EventTypeSpellCancelled EventType = "spell.cancelled"

	EventTypeNodeStarted   EventType = "node.started"
	EventTypeNodeCompleted EventType = "node.completed"
	EventTypeNodeFailed    EventType = "node.failed"
	EventTypeNodeSkipped   EventType = "node.skipped"
)

// Event topics
const (
	TopicSpellEvents = "spell.events"
	TopicNodeEvents  = "node.events"
)

// Event is published on the event bus for every execution transition
type Event struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	ExecutionID string         `json:"execution_id"`
	NodeID      string         `json:"node_id,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Data        map[string]any `json:"data,omitempty"`
}
