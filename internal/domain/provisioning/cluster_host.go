package provisioning

import (
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// ClusterHost is the membership of a Host in a Cluster. It carries its own
// StateRecord for distributed-system install progress and its own deploy
// configuration, independent of the host's OS-level state and config.
type ClusterHost struct {
	id        uuid.UUID
	clusterID uuid.UUID
	hostID    uuid.UUID

	configValidated bool
	deployConfig    ConfigBlob

	state    *StateRecord
	timeline *Timeline
}

// NewClusterHost adds a host to a cluster. The membership's StateRecord is
// created atomically with it. Uniqueness per (cluster, host) pair is enforced
// by the store.
func NewClusterHost(id, clusterID, hostID uuid.UUID) *ClusterHost {
	return &ClusterHost{
		id:           id,
		clusterID:    clusterID,
		hostID:       hostID,
		deployConfig: ConfigBlob{},
		state:        NewStateRecord(),
		timeline:     NewTimeline(new(realTimeProvider)),
	}
}

// ReconstructClusterHost creates a ClusterHost from stored fields, bypassing
// creation invariants. This should only be used by repositories when loading
// from the DB.
func ReconstructClusterHost(
	id, clusterID, hostID uuid.UUID,
	configValidated bool,
	deployConfig ConfigBlob,
	state *StateRecord,
	timeline *Timeline,
) *ClusterHost {
	return &ClusterHost{
		id:              id,
		clusterID:       clusterID,
		hostID:          hostID,
		configValidated: configValidated,
		deployConfig:    deployConfig,
		state:           state,
		timeline:        timeline,
	}
}

// ID returns the unique identifier for this membership.
func (ch *ClusterHost) ID() uuid.UUID { return ch.id }

// ClusterID returns the identifier of the owning cluster.
func (ch *ClusterHost) ClusterID() uuid.UUID { return ch.clusterID }

// HostID returns the identifier of the member host.
func (ch *ClusterHost) HostID() uuid.UUID { return ch.hostID }

// ConfigValidated reports whether the current deploy config passed the
// external validation pass since its last write.
func (ch *ClusterHost) ConfigValidated() bool { return ch.configValidated }

// DeployConfig returns the membership's deploy configuration blob.
func (ch *ClusterHost) DeployConfig() ConfigBlob { return ch.deployConfig }

// State returns the membership's distributed-system install state record.
func (ch *ClusterHost) State() *StateRecord { return ch.state }

// Timeline provides access to the membership's timestamps.
func (ch *ClusterHost) Timeline() *Timeline { return ch.timeline }

// DistributedSystemInstalled reports whether the distributed-system install
// on this membership has completed.
func (ch *ClusterHost) DistributedSystemInstalled() bool {
	return ch.state.State() == StateSuccessful
}

// PatchDeployConfig deep-merges partial into the membership's deploy config
// and invalidates prior validation.
func (ch *ClusterHost) PatchDeployConfig(partial ConfigBlob) {
	ch.deployConfig = ch.deployConfig.Patch(partial)
	ch.configValidated = false
}

// PutDeployConfig overwrites top-level keys of the membership's deploy config
// and invalidates prior validation.
func (ch *ClusterHost) PutDeployConfig(update ConfigBlob) {
	ch.deployConfig = ch.deployConfig.Put(update)
	ch.configValidated = false
}

// MarkConfigValidated records that the external validation pass accepted the
// current deploy config. It stays true until the next config write.
func (ch *ClusterHost) MarkConfigValidated() { ch.configValidated = true }

// Roles returns the role names assigned to this membership in its deploy
// config, or nil when none are assigned.
func (ch *ClusterHost) Roles() []string {
	raw, ok := ch.deployConfig["roles"]
	if !ok {
		return nil
	}
	switch vs := raw.(type) {
	case []string:
		return vs
	case []any:
		roles := make([]string, 0, len(vs))
		for _, v := range vs {
			if s, ok := v.(string); ok {
				roles = append(roles, s)
			}
		}
		return roles
	default:
		return nil
	}
}
