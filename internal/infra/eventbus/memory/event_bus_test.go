package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironhive/provisiond/internal/domain/events"
)

const testEventType events.EventType = "TestEvent"

func TestEventBus_PublishDeliversToSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	ctx := context.Background()

	var received []events.EventEnvelope
	err := bus.Subscribe(ctx, []events.EventType{testEventType}, func(_ context.Context, evt events.EventEnvelope) error {
		received = append(received, evt)
		return nil
	})
	require.NoError(t, err)

	err = bus.Publish(ctx, events.EventEnvelope{Type: testEventType, Payload: "hello"}, events.WithKey("k1"))
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, "hello", received[0].Payload)
	assert.Equal(t, "k1", received[0].Key)
	assert.Len(t, bus.Published(), 1)
}

func TestEventBus_HandlerErrorPropagates(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	ctx := context.Background()

	sentinel := errors.New("handler failed")
	require.NoError(t, bus.Subscribe(ctx, []events.EventType{testEventType}, func(context.Context, events.EventEnvelope) error {
		return sentinel
	}))

	err := bus.Publish(ctx, events.EventEnvelope{Type: testEventType})
	require.ErrorIs(t, err, sentinel)
}

func TestEventBus_NoSubscribersIsFine(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	err := bus.Publish(context.Background(), events.EventEnvelope{Type: "Nobody"})
	require.NoError(t, err)
}

func TestEventBus_CloseDropsSubscriptions(t *testing.T) {
	t.Parallel()

	bus := NewEventBus()
	ctx := context.Background()

	calls := 0
	require.NoError(t, bus.Subscribe(ctx, []events.EventType{testEventType}, func(context.Context, events.EventEnvelope) error {
		calls++
		return nil
	}))
	require.NoError(t, bus.Close())

	require.NoError(t, bus.Publish(ctx, events.EventEnvelope{Type: testEventType}))
	assert.Zero(t, calls)
}
