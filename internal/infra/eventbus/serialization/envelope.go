package serialization

import (
	"encoding/json"
	"fmt"

	"github.com/ironhive/provisiond/internal/domain/events"
)

// universalEnvelope is the wire format wrapping every published event. The
// event type travels with the payload so consumers can dispatch without
// out-of-band knowledge of the topic's contents.
type universalEnvelope struct {
	Type    events.EventType `json:"type"`
	Payload json.RawMessage  `json:"payload"`
}

// SerializeEventEnvelope serializes a payload and wraps it with its event
// type for transport.
func SerializeEventEnvelope(eventType events.EventType, payload any) ([]byte, error) {
	payloadBytes, err := SerializePayload(eventType, payload)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(universalEnvelope{Type: eventType, Payload: payloadBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event envelope: %w", err)
	}
	return data, nil
}

// UnmarshalUniversalEnvelope splits a wire message into its event type and
// raw payload bytes. The payload is deserialized separately via
// DeserializePayload.
func UnmarshalUniversalEnvelope(data []byte) (events.EventType, []byte, error) {
	var env universalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	if env.Type == "" {
		return "", nil, fmt.Errorf("event envelope missing type")
	}
	return env.Type, env.Payload, nil
}
