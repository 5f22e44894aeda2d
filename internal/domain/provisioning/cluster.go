package provisioning

import (
	"fmt"
	"strings"

	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// Cluster is a set of hosts assembled to run a distributed software stack.
// It owns a StateRecord with aggregate counters derived from its memberships,
// two configuration blobs (OS-level and deploy-level), and the flag gating
// distributed-system reinstalls.
//
// A cluster without a distributed-system adapter only tracks the OS-install
// progress of its member hosts; membership-level progress does not apply.
type Cluster struct {
	id        uuid.UUID
	name      string
	createdBy string

	osName                string
	adapterName           string
	distributedSystemName string

	reinstallDistributedSystem bool
	configValidated            bool
	osConfig                   ConfigBlob
	deployConfig               ConfigBlob

	state    *StateRecord
	status   *ClusterStatus
	timeline *Timeline
}

// NewCluster creates a cluster. Its StateRecord and counters are created
// atomically with it. A creator is required; the adapter and distributed
// system names come from the externally supplied adapter catalog and may be
// empty for adapter-less clusters.
func NewCluster(id uuid.UUID, name, createdBy, osName, adapterName, distributedSystemName string) (*Cluster, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is not set in cluster %s", ErrInvalidParameter, id)
	}
	if strings.TrimSpace(createdBy) == "" {
		return nil, fmt.Errorf("%w: creator is not set in cluster %s", ErrInvalidParameter, id)
	}
	return &Cluster{
		id:                         id,
		name:                       name,
		createdBy:                  createdBy,
		osName:                     osName,
		adapterName:                adapterName,
		distributedSystemName:      distributedSystemName,
		reinstallDistributedSystem: true,
		osConfig:                   ConfigBlob{},
		deployConfig:               ConfigBlob{},
		state:                      NewStateRecord(),
		status:                     NewClusterStatus(),
		timeline:                   NewTimeline(new(realTimeProvider)),
	}, nil
}

// ReconstructCluster creates a Cluster from stored fields, bypassing creation
// invariants. This should only be used by repositories when loading from the DB.
func ReconstructCluster(
	id uuid.UUID,
	name, createdBy, osName, adapterName, distributedSystemName string,
	reinstallDistributedSystem, configValidated bool,
	osConfig, deployConfig ConfigBlob,
	state *StateRecord,
	status *ClusterStatus,
	timeline *Timeline,
) *Cluster {
	return &Cluster{
		id:                         id,
		name:                       name,
		createdBy:                  createdBy,
		osName:                     osName,
		adapterName:                adapterName,
		distributedSystemName:      distributedSystemName,
		reinstallDistributedSystem: reinstallDistributedSystem,
		configValidated:            configValidated,
		osConfig:                   osConfig,
		deployConfig:               deployConfig,
		state:                      state,
		status:                     status,
		timeline:                   timeline,
	}
}

// ID returns the unique identifier for this cluster.
func (c *Cluster) ID() uuid.UUID { return c.id }

// Name returns the cluster's name.
func (c *Cluster) Name() string { return c.name }

// CreatedBy returns who created the cluster.
func (c *Cluster) CreatedBy() string { return c.createdBy }

// OSName returns the operating system the cluster's hosts install.
func (c *Cluster) OSName() string { return c.osName }

// AdapterName returns the name of the adapter deploying this cluster's
// distributed system, or empty for adapter-less clusters.
func (c *Cluster) AdapterName() string { return c.adapterName }

// DistributedSystemName returns the distributed system this cluster deploys,
// or empty for adapter-less clusters.
func (c *Cluster) DistributedSystemName() string { return c.distributedSystemName }

// HasAdapter reports whether a distributed-system adapter is associated with
// this cluster. Without one, cluster progress degenerates to tracking member
// hosts' OS installs.
func (c *Cluster) HasAdapter() bool { return c.distributedSystemName != "" }

// ReinstallDistributedSystem reports whether a distributed-system reinstall
// has been requested.
func (c *Cluster) ReinstallDistributedSystem() bool { return c.reinstallDistributedSystem }

// ConfigValidated reports whether the current configs passed the external
// validation pass since their last write.
func (c *Cluster) ConfigValidated() bool { return c.configValidated }

// OSConfig returns the cluster's OS configuration blob.
func (c *Cluster) OSConfig() ConfigBlob { return c.osConfig }

// DeployConfig returns the cluster's deploy configuration blob.
func (c *Cluster) DeployConfig() ConfigBlob { return c.deployConfig }

// State returns the cluster's aggregate state record.
func (c *Cluster) State() *StateRecord { return c.state }

// Status returns the cluster's membership counters.
func (c *Cluster) Status() *ClusterStatus { return c.status }

// Timeline provides access to the cluster's timestamps.
func (c *Cluster) Timeline() *Timeline { return c.timeline }

// DistributedSystemInstalled reports whether the cluster-wide install has
// completed.
func (c *Cluster) DistributedSystemInstalled() bool { return c.state.State() == StateSuccessful }

// RequestReinstall flags the cluster for a distributed-system reinstall. The
// flag takes effect through ApplyPendingReinstall once the current install
// has finished.
func (c *Cluster) RequestReinstall() { c.reinstallDistributedSystem = true }

// ClearReinstall drops the reinstall flag. Called when the install actually
// begins, so a finished install does not restart itself.
func (c *Cluster) ClearReinstall() { c.reinstallDistributedSystem = false }

// ApplyPendingReinstall re-enters the install lifecycle when a reinstall has
// been requested and the previous install is finished. A validated config
// resumes at INITIALIZED; an unvalidated one restarts at UNINITIALIZED.
// Returns true if the cluster's state changed.
func (c *Cluster) ApplyPendingReinstall() bool {
	if !c.reinstallDistributedSystem || !c.state.State().IsTerminal() {
		return false
	}
	if c.configValidated {
		c.state.ForceState(StateInitialized)
	} else {
		c.state.ForceState(StateUninitialized)
	}
	return true
}

// RecomputeProgress re-derives the cluster's counters, percentage, message,
// and severity from the effective states of its members. Callers classify
// each member per the adapter rule: the membership's own state when the
// cluster has an adapter, the member host's state otherwise.
//
// An INSTALLING cluster consumes the reinstall flag: the install is underway,
// so a finished one must not restart itself. A cluster with no members never
// divides by zero; its percentage is 0.
func (c *Cluster) RecomputeProgress(memberStates []DeployState) {
	total := len(memberStates)
	c.status.reset(total)

	switch st := c.state.State(); {
	case st == StateUninitialized || st == StateInitialized:
		// Counters stay zeroed until an install is underway.

	case st == StateInstalling:
		c.reinstallDistributedSystem = false
		for _, ms := range memberStates {
			switch ms {
			case StateInstalling:
				c.status.installingHosts++
			case StateError:
				c.status.failedHosts++
			case StateSuccessful:
				c.status.completedHosts++
			}
		}

		percentage := 0.0
		if total > 0 {
			percentage = float64(c.status.completedHosts) / float64(total)
		}
		c.state.percentage = percentage
		c.state.message = fmt.Sprintf(
			"total: %d, installing: %d, completed: %d, failed: %d",
			total, c.status.installingHosts, c.status.completedHosts, c.status.failedHosts,
		)
		if c.status.failedHosts > 0 {
			c.state.severity = SeverityError
		}
	}

	c.state.Update()
}

// PatchOSConfig deep-merges partial into the cluster's OS config and
// invalidates prior validation.
func (c *Cluster) PatchOSConfig(partial ConfigBlob) {
	c.osConfig = c.osConfig.Patch(partial)
	c.configValidated = false
}

// PutOSConfig overwrites top-level keys of the cluster's OS config and
// invalidates prior validation.
func (c *Cluster) PutOSConfig(update ConfigBlob) {
	c.osConfig = c.osConfig.Put(update)
	c.configValidated = false
}

// PatchDeployConfig deep-merges partial into the cluster's deploy config and
// invalidates prior validation.
func (c *Cluster) PatchDeployConfig(partial ConfigBlob) {
	c.deployConfig = c.deployConfig.Patch(partial)
	c.configValidated = false
}

// PutDeployConfig overwrites top-level keys of the cluster's deploy config
// and invalidates prior validation.
func (c *Cluster) PutDeployConfig(update ConfigBlob) {
	c.deployConfig = c.deployConfig.Put(update)
	c.configValidated = false
}

// MarkConfigValidated records that the external validation pass accepted the
// current configs. It stays true until the next config write.
func (c *Cluster) MarkConfigValidated() { c.configValidated = true }

// SeedRoles writes the adapter's role list into the cluster's deploy config.
// Called once at creation so memberships can pick roles from a known set.
func (c *Cluster) SeedRoles(roles []string) {
	if len(roles) == 0 {
		return
	}
	c.deployConfig = c.deployConfig.Put(ConfigBlob{"roles": roles})
}
