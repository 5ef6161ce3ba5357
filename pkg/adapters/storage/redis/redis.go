package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "spellforge:state:"

// StateStorage implements StateStorage using Redis
type StateStorage struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewStateStorage creates a new Redis state storage
func NewStateStorage(client *redis.Client, ttl time.Duration, logger *zap.Logger) *StateStorage {
	return &StateStorage{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// SaveState saves spell state to Redis with the configured TTL
func (s *StateStorage) SaveState(ctx context.Context, state *domain.SpellState) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}

	key := getStateKey(state.ExecutionID)

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	s.logger.Debug("state saved",
		zap.String("execution_id", state.ExecutionID),
		zap.String("status", string(state.Status)))

	return nil
}

// GetState retrieves spell state from Redis
func (s *StateStorage) GetState(ctx context.Context, executionID string) (*domain.SpellState, error) {
	data, err := s.client.Get(ctx, getStateKey(executionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ports.ErrStateNotFound, executionID)
		}
		return nil, fmt.Errorf("failed to get state: %w", err)
	}

	var state domain.SpellState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return &state, nil
}

// DeleteState deletes spell state from Redis
func (s *StateStorage) DeleteState(ctx context.Context, executionID string) error {
	if err := s.client.Del(ctx, getStateKey(executionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}

	s.logger.Debug("state deleted",
		zap.String("execution_id", executionID))

	return nil
}

// ListStates lists all stored spell states ordered by submission time
func (s *StateStorage) ListStates(ctx context.Context) ([]*domain.SpellState, error) {
	var cursor uint64
	var keys []string

	for {
		var batch []string
		var err error

		batch, cursor, err = s.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	states := make([]*domain.SpellState, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// expired between SCAN and GET
				continue
			}
			return nil, fmt.Errorf("failed to get state %s: %w", key, err)
		}

		var state domain.SpellState
		if err := json.Unmarshal(data, &state); err != nil {
			s.logger.Warn("skipping unreadable state",
				zap.String("key", key),
				zap.Error(err))
			continue
		}

		states = append(states, &state)
	}

	sort.Slice(states, func(i, j int) bool {
		return states[i].SubmittedAt.Before(states[j].SubmittedAt)
	})
	return states, nil
}

// getStateKey returns the Redis key for a spell state
func getStateKey(executionID string) string {
	return keyPrefix + executionID
}
