// Package events provides domain event handling capabilities for communicating state changes
// and important activities across system boundaries in a decoupled way.
package events

import "time"

// DomainEvent is implemented by all domain-level events. It exposes the
// minimal metadata the event infrastructure needs for routing and ordering.
type DomainEvent interface {
	// EventType identifies the category of this event for routing and handling.
	EventType() EventType

	// OccurredAt reports when the event happened in the domain.
	OccurredAt() time.Time
}

// EventEnvelope encapsulates all event data flowing through the system, providing
// a standardized format for event processing and distribution.
type EventEnvelope struct {
	// Type identifies the category of this event for routing and handling.
	Type EventType

	// Key enables consistent event routing, typically containing a business identifier
	// like a host or cluster ID that events can be grouped or partitioned by.
	Key string

	// Headers contain metadata key-value pairs attached to the event.
	Headers map[string]string

	// Timestamp records when this event was created, enabling temporal tracking
	// and debugging of event flows.
	Timestamp time.Time

	// Payload contains the actual event data. The concrete type depends on the
	// EventType.
	Payload any
}
