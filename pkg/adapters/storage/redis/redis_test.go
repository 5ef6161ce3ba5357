package redis

import (
	"context"
	"testing"
	"time"

	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/aescanero/spellforge/pkg/ports"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newStorage(t *testing.T) (*StateStorage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStateStorage(client, time.Hour, zaptest.NewLogger(t)), mr
}

func sampleState(id string, submitted time.Time) *domain.SpellState {
	return &domain.SpellState{
		ExecutionID: id,
		Spell:       &domain.Spell{ID: "spell", Version: "1"},
		Status:      domain.ExecutionStatusRunning,
		NodeStates: map[string]*domain.NodeState{
			"a": {NodeID: "a", Component: "Echo", Status: domain.ExecutionStatusCompleted, Output: map[string]any{"output": "hi"}},
		},
		SubmittedAt: submitted,
	}
}

func TestSaveAndGetState(t *testing.T) {
	s, mr := newStorage(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.SaveState(ctx, sampleState("x1", now)))

	got, err := s.GetState(ctx, "x1")
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusRunning, got.Status)
	assert.Equal(t, "hi", got.NodeStates["a"].Output["output"])
	assert.True(t, now.Equal(got.SubmittedAt))

	ttl := mr.TTL(getStateKey("x1"))
	assert.Equal(t, time.Hour, ttl)
}

func TestGetMissingState(t *testing.T) {
	s, _ := newStorage(t)

	_, err := s.GetState(context.Background(), "nope")
	require.ErrorIs(t, err, ports.ErrStateNotFound)
}

func TestListAndDeleteStates(t *testing.T) {
	s, _ := newStorage(t)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, s.SaveState(ctx, sampleState("late", base.Add(time.Minute))))
	require.NoError(t, s.SaveState(ctx, sampleState("early", base)))

	states, err := s.ListStates(ctx)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, "early", states[0].ExecutionID)
	assert.Equal(t, "late", states[1].ExecutionID)

	require.NoError(t, s.DeleteState(ctx, "early"))
	_, err = s.GetState(ctx, "early")
	require.ErrorIs(t, err, ports.ErrStateNotFound)
}

func TestSaveNilState(t *testing.T) {
	s, _ := newStorage(t)
	require.Error(t, s.SaveState(context.Background(), nil))
}

func TestListStatesReturnsReadErrors(t *testing.T) {
	s, mr := newStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveState(ctx, sampleState("ok", time.Now().UTC())))
	_, err := mr.Lpush(getStateKey("wrongtype"), "x")
	require.NoError(t, err)

	_, err = s.ListStates(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get state")
}
