// Package memory provides an in-process implementation of the event bus for
// testing and single-node development setups.
package memory

import (
	"context"
	"sync"

	"github.com/ironhive/provisiond/internal/domain/events"
)

var _ events.EventBus = (*EventBus)(nil)

// EventBus delivers events synchronously to in-process subscribers. Publish
// blocks until every matching handler has run, which makes test assertions
// deterministic.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[events.EventType][]events.HandlerFunc
	closed   bool

	published []events.EventEnvelope
}

// NewEventBus creates an in-memory event bus with no subscribers.
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[events.EventType][]events.HandlerFunc)}
}

// Publish delivers the event to every handler subscribed to its type. The
// first handler error aborts delivery and is returned to the caller.
func (b *EventBus) Publish(ctx context.Context, event events.EventEnvelope, opts ...events.PublishOption) error {
	var pParams events.PublishParams
	for _, opt := range opts {
		opt(&pParams)
	}
	if pParams.Key != "" {
		event.Key = pParams.Key
	}

	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := append([]events.HandlerFunc(nil), b.handlers[event.Type]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe registers a handler for the given event types.
func (b *EventBus) Subscribe(_ context.Context, eventTypes []events.EventType, handler events.HandlerFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, et := range eventTypes {
		b.handlers[et] = append(b.handlers[et], handler)
	}
	return nil
}

// Close drops all subscriptions.
func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[events.EventType][]events.HandlerFunc)
	b.closed = true
	return nil
}

// Published returns a copy of every envelope published so far. Test helper.
func (b *EventBus) Published() []events.EventEnvelope {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.EventEnvelope(nil), b.published...)
}
