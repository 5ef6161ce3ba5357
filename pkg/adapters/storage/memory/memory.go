package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/ports"
)

// InMemoryStateStorage implements StateStorage using an in-memory map.
// It is meant for development and tests; state does not survive restarts.
type InMemoryStateStorage struct {
	states map[string]*domain.SpellState
	mu     sync.RWMutex
}

// NewInMemoryStateStorage creates a new in-memory state storage
func NewInMemoryStateStorage() *InMemoryStateStorage {
	return &InMemoryStateStorage{
		states: make(map[string]*domain.SpellState),
	}
}

// SaveState stores a copy of state
func (s *InMemoryStateStorage) SaveState(ctx context.Context, state *domain.SpellState) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[state.ExecutionID] = state.Clone()
	return nil
}

// GetState returns a copy of the stored state
func (s *InMemoryStateStorage) GetState(ctx context.Context, executionID string) (*domain.SpellState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[executionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrStateNotFound, executionID)
	}

	return state.Clone(), nil
}

// DeleteState removes state for an execution
func (s *InMemoryStateStorage) DeleteState(ctx context.Context, executionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, executionID)
	return nil
}

// ListStates returns all states ordered by submission time
func (s *InMemoryStateStorage) ListStates(ctx context.Context) ([]*domain.SpellState, error) {
	s.mu.RLock()
	states := make([]*domain.SpellState, 0, len(s.states))
	for _, st := range s.states {
		states = append(states, st.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		return states[i].SubmittedAt.Before(states[j].SubmittedAt)
	})
	return states, nil
}
