package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var spellEvents, nodeEvents []domain.Event
	require.NoError(t, bus.Subscribe(ctx, domain.TopicSpellEvents, func(ctx context.Context, e domain.Event) error {
		spellEvents = append(spellEvents, e)
		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx, domain.TopicNodeEvents, func(ctx context.Context, e domain.Event) error {
		nodeEvents = append(nodeEvents, e)
		return errors.New("ignored")
	}))

	require.NoError(t, bus.Publish(ctx, domain.TopicSpellEvents, domain.Event{ID: "1", Type: domain.EventTypeSpellSubmitted}))
	require.NoError(t, bus.Publish(ctx, domain.TopicNodeEvents, domain.Event{ID: "2", Type: domain.EventTypeNodeStarted}))

	require.Len(t, spellEvents, 1)
	assert.Equal(t, "1", spellEvents[0].ID)
	require.Len(t, nodeEvents, 1)
	assert.Equal(t, domain.EventTypeNodeStarted, nodeEvents[0].Type)
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, bus.Subscribe(ctx, "t", func(ctx context.Context, e domain.Event) error { return nil }))
	require.NoError(t, bus.Subscribe(context.Background(), "t", func(ctx context.Context, e domain.Event) error { return nil }))
	assert.Equal(t, 2, bus.SubscriberCount("t"))

	cancel()
	assert.Eventually(t, func() bool { return bus.SubscriberCount("t") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, bus.Close())
	assert.Equal(t, 0, bus.SubscriberCount("t"))
}
