package serialization

import (
	"encoding/json"
	"fmt"

	"github.com/ironhive/provisiond/internal/domain/provisioning"
)

// RegisterEventSerializers registers handlers for all supported event types.
// This must run during startup before any event processing can occur.
func RegisterEventSerializers() {
	RegisterSerializeFunc(provisioning.EventTypeHostStateChanged, serializeHostStateChanged)
	RegisterDeserializeFunc(provisioning.EventTypeHostStateChanged, deserializeHostStateChanged)

	RegisterSerializeFunc(provisioning.EventTypeMembershipStateChanged, serializeMembershipStateChanged)
	RegisterDeserializeFunc(provisioning.EventTypeMembershipStateChanged, deserializeMembershipStateChanged)

	RegisterSerializeFunc(provisioning.EventTypeClusterStateChanged, serializeClusterStateChanged)
	RegisterDeserializeFunc(provisioning.EventTypeClusterStateChanged, deserializeClusterStateChanged)

	RegisterSerializeFunc(provisioning.EventTypeReinstallRequested, serializeReinstallRequested)
	RegisterDeserializeFunc(provisioning.EventTypeReinstallRequested, deserializeReinstallRequested)

	RegisterSerializeFunc(provisioning.EventTypeConfigUpdated, serializeConfigUpdated)
	RegisterDeserializeFunc(provisioning.EventTypeConfigUpdated, deserializeConfigUpdated)
}

func serializeHostStateChanged(payload any) ([]byte, error) {
	evt, ok := payload.(provisioning.HostStateChangedEvent)
	if !ok {
		return nil, fmt.Errorf("serializeHostStateChanged: payload is not HostStateChangedEvent")
	}
	return json.Marshal(evt)
}

func deserializeHostStateChanged(data []byte) (any, error) {
	var evt provisioning.HostStateChangedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("unmarshal HostStateChangedEvent: %w", err)
	}
	return evt, nil
}

func serializeMembershipStateChanged(payload any) ([]byte, error) {
	evt, ok := payload.(provisioning.MembershipStateChangedEvent)
	if !ok {
		return nil, fmt.Errorf("serializeMembershipStateChanged: payload is not MembershipStateChangedEvent")
	}
	return json.Marshal(evt)
}

func deserializeMembershipStateChanged(data []byte) (any, error) {
	var evt provisioning.MembershipStateChangedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("unmarshal MembershipStateChangedEvent: %w", err)
	}
	return evt, nil
}

func serializeClusterStateChanged(payload any) ([]byte, error) {
	evt, ok := payload.(provisioning.ClusterStateChangedEvent)
	if !ok {
		return nil, fmt.Errorf("serializeClusterStateChanged: payload is not ClusterStateChangedEvent")
	}
	return json.Marshal(evt)
}

func deserializeClusterStateChanged(data []byte) (any, error) {
	var evt provisioning.ClusterStateChangedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("unmarshal ClusterStateChangedEvent: %w", err)
	}
	return evt, nil
}

func serializeReinstallRequested(payload any) ([]byte, error) {
	evt, ok := payload.(provisioning.ReinstallRequestedEvent)
	if !ok {
		return nil, fmt.Errorf("serializeReinstallRequested: payload is not ReinstallRequestedEvent")
	}
	return json.Marshal(evt)
}

func deserializeReinstallRequested(data []byte) (any, error) {
	var evt provisioning.ReinstallRequestedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("unmarshal ReinstallRequestedEvent: %w", err)
	}
	return evt, nil
}

func serializeConfigUpdated(payload any) ([]byte, error) {
	evt, ok := payload.(provisioning.ConfigUpdatedEvent)
	if !ok {
		return nil, fmt.Errorf("serializeConfigUpdated: payload is not ConfigUpdatedEvent")
	}
	return json.Marshal(evt)
}

func deserializeConfigUpdated(data []byte) (any, error) {
	var evt provisioning.ConfigUpdatedEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("unmarshal ConfigUpdatedEvent: %w", err)
	}
	return evt, nil
}
