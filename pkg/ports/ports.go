// Package ports declares the interfaces the application core depends on.
// Adapters under pkg/adapters implement them.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aescanero/spellforge/pkg/domain"
)

// ErrStateNotFound is returned by StateStorage when no state exists for an id
var ErrStateNotFound = errors.New("state not found")

// EventHandler processes one event
type EventHandler func(ctx context.Context, event domain.Event) error

// EventBus publishes and delivers execution events
type EventBus interface {
	Publish(ctx context.Context, topic string, event domain.Event) error
	// Subscribe registers handler until ctx is cancelled
	Subscribe(ctx context.Context, topic string, handler EventHandler) error
	Close() error
}

// StateStorage persists spell execution state
type StateStorage interface {
	SaveState(ctx context.Context, state *domain.SpellState) error
	GetState(ctx context.Context, executionID string) (*domain.SpellState, error)
	DeleteState(ctx context.Context, executionID string) error
	ListStates(ctx context.Context) ([]*domain.SpellState, error)
}

// MetricsCollector records execution metrics
type MetricsCollector interface {
	RecordSpellSubmitted(status string)
	RecordSpellCompleted(status string, duration time.Duration)
	RecordNodeExecuted(component, status string, duration time.Duration)
	RecordWorkerPoolStatus(idle, busy, stopped int)
	SetActiveExecutions(count int)
}
