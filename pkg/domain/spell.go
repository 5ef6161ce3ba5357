// Package domain holds the serializable types exchanged between the API,
// the orchestrator and the storage and event adapters.
package domain

import "time"

// Spell is a node graph submitted for execution
type Spell struct {
	ID          string               `json:"id"`
	Name        string               `json:"name,omitempty"`
	Version     string               `json:"version"`
	Nodes       map[string]SpellNode `json:"nodes"`
	Connections []Connection         `json:"connections,omitempty"`
}

// SpellNode places a registered component in the graph
type SpellNode struct {
	ID        string         `json:"id"`
	Component string         `json:"component"`
	Data      map[string]any `json:"data,omitempty"`
}

// Connection links an output socket of one node to an input socket of another
type Connection struct {
	From       string `json:"from"`
	FromOutput string `json:"from_output"`
	To         string `json:"to"`
	ToInput    string `json:"to_input"`
}

// ExecutionStatus is the lifecycle state of a spell or node execution
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusSubmitted ExecutionStatus = "submitted"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
	ExecutionStatusSkipped   ExecutionStatus = "skipped"
)

// IsTerminal reports whether no further transitions can happen
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled, ExecutionStatusSkipped:
		return true
	}
	return false
}

// SpellState is the persisted state of one spell execution
type SpellState struct {
	ExecutionID string                `json:"execution_id"`
	Spell       *Spell                `json:"spell"`
	Status      ExecutionStatus       `json:"status"`
	Inputs      map[string]any        `json:"inputs,omitempty"`
	NodeStates  map[string]*NodeState `json:"node_states"`
	Error       string                `json:"error,omitempty"`
	SubmittedAt time.Time             `json:"submitted_at"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	CompletedAt *time.Time            `json:"completed_at,omitempty"`
}

// NodeState is the execution state of a single node
type NodeState struct {
	NodeID      string          `json:"node_id"`
	Component   string          `json:"component"`
	Status      ExecutionStatus `json:"status"`
	Output      map[string]any  `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Clone returns a deep enough copy for storage: node states are copied so
// callers can keep mutating their own instance
func (s *SpellState) Clone() *SpellState {
	c := *s
	c.NodeStates = make(map[string]*NodeState, len(s.NodeStates))
	for id, ns := range s.NodeStates {
		n := *ns
		c.NodeStates[id] = &n
	}
	return &c
}
