package provisioning

import (
	"time"

	"github.com/ironhive/provisiond/internal/domain/events"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// Event types emitted by the provisioning core:
const (
	EventTypeHostStateChanged       events.EventType = "HostStateChanged"
	EventTypeMembershipStateChanged events.EventType = "MembershipStateChanged"
	EventTypeClusterStateChanged    events.EventType = "ClusterStateChanged"
	EventTypeReinstallRequested     events.EventType = "ReinstallRequested"
	EventTypeConfigUpdated          events.EventType = "ConfigUpdated"
)

// HostStateChangedEvent signals that a host's OS-install state moved.
type HostStateChangedEvent struct {
	occurredAt time.Time
	HostID     uuid.UUID
	Previous   DeployState
	Current    DeployState
	Percentage float64
	Severity   Severity
}

// NewHostStateChangedEvent creates a new host state changed event.
func NewHostStateChangedEvent(hostID uuid.UUID, previous DeployState, record StateRecord) HostStateChangedEvent {
	return HostStateChangedEvent{
		occurredAt: time.Now(),
		HostID:     hostID,
		Previous:   previous,
		Current:    record.State(),
		Percentage: record.Percentage(),
		Severity:   record.Severity(),
	}
}

func (e HostStateChangedEvent) EventType() events.EventType { return EventTypeHostStateChanged }
func (e HostStateChangedEvent) OccurredAt() time.Time       { return e.occurredAt }

// MembershipStateChangedEvent signals that a cluster host membership's
// distributed-system install state moved.
type MembershipStateChangedEvent struct {
	occurredAt time.Time
	ClusterID  uuid.UUID
	HostID     uuid.UUID
	Previous   DeployState
	Current    DeployState
	Percentage float64
	Severity   Severity
}

// NewMembershipStateChangedEvent creates a new membership state changed event.
func NewMembershipStateChangedEvent(clusterID, hostID uuid.UUID, previous DeployState, record StateRecord) MembershipStateChangedEvent {
	return MembershipStateChangedEvent{
		occurredAt: time.Now(),
		ClusterID:  clusterID,
		HostID:     hostID,
		Previous:   previous,
		Current:    record.State(),
		Percentage: record.Percentage(),
		Severity:   record.Severity(),
	}
}

func (e MembershipStateChangedEvent) EventType() events.EventType {
	return EventTypeMembershipStateChanged
}
func (e MembershipStateChangedEvent) OccurredAt() time.Time { return e.occurredAt }

// ClusterStateChangedEvent signals that a cluster's aggregate state moved or
// its counters were re-derived.
type ClusterStateChangedEvent struct {
	occurredAt      time.Time
	ClusterID       uuid.UUID
	Previous        DeployState
	Current         DeployState
	Percentage      float64
	Severity        Severity
	TotalHosts      int
	InstallingHosts int
	CompletedHosts  int
	FailedHosts     int
}

// NewClusterStateChangedEvent creates a new cluster state changed event.
func NewClusterStateChangedEvent(clusterID uuid.UUID, previous DeployState, cluster *Cluster) ClusterStateChangedEvent {
	return ClusterStateChangedEvent{
		occurredAt:      time.Now(),
		ClusterID:       clusterID,
		Previous:        previous,
		Current:         cluster.State().State(),
		Percentage:      cluster.State().Percentage(),
		Severity:        cluster.State().Severity(),
		TotalHosts:      cluster.Status().TotalHosts(),
		InstallingHosts: cluster.Status().InstallingHosts(),
		CompletedHosts:  cluster.Status().CompletedHosts(),
		FailedHosts:     cluster.Status().FailedHosts(),
	}
}

func (e ClusterStateChangedEvent) EventType() events.EventType { return EventTypeClusterStateChanged }
func (e ClusterStateChangedEvent) OccurredAt() time.Time       { return e.occurredAt }

// ReinstallRequestedEvent signals that a reinstall was requested for a host
// or a cluster.
type ReinstallRequestedEvent struct {
	occurredAt time.Time
	EntityKind string
	EntityID   uuid.UUID
}

// NewReinstallRequestedEvent creates a new reinstall requested event.
// entityKind is "host" or "cluster".
func NewReinstallRequestedEvent(entityKind string, entityID uuid.UUID) ReinstallRequestedEvent {
	return ReinstallRequestedEvent{
		occurredAt: time.Now(),
		EntityKind: entityKind,
		EntityID:   entityID,
	}
}

func (e ReinstallRequestedEvent) EventType() events.EventType { return EventTypeReinstallRequested }
func (e ReinstallRequestedEvent) OccurredAt() time.Time       { return e.occurredAt }

// ConfigUpdatedEvent signals that an entity's configuration blob was written,
// invalidating its prior validation.
type ConfigUpdatedEvent struct {
	occurredAt time.Time
	EntityKind string
	EntityID   uuid.UUID
	Mode       string // "patch" or "put"
}

// NewConfigUpdatedEvent creates a new config updated event.
func NewConfigUpdatedEvent(entityKind string, entityID uuid.UUID, mode string) ConfigUpdatedEvent {
	return ConfigUpdatedEvent{
		occurredAt: time.Now(),
		EntityKind: entityKind,
		EntityID:   entityID,
		Mode:       mode,
	}
}

func (e ConfigUpdatedEvent) EventType() events.EventType { return EventTypeConfigUpdated }
func (e ConfigUpdatedEvent) OccurredAt() time.Time       { return e.occurredAt }
