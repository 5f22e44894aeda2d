package provisioning

import (
	"context"

	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// MachineRepository provides persistent storage for machines.
type MachineRepository interface {
	// CreateMachine persists a new machine.
	CreateMachine(ctx context.Context, machine *Machine) error

	// GetMachine retrieves a machine by id.
	// Returns ErrMachineNotFound if it does not exist.
	GetMachine(ctx context.Context, id uuid.UUID) (*Machine, error)

	// GetMachineByHardwareAddr retrieves a machine by its hardware address.
	// Returns ErrMachineNotFound if it does not exist.
	GetMachineByHardwareAddr(ctx context.Context, addr string) (*Machine, error)
}

// HostRepository provides persistent storage for hosts and their state
// records. A host's state record is written atomically with the host.
type HostRepository interface {
	// CreateHost persists a new host and its state record.
	CreateHost(ctx context.Context, host *Host) error

	// GetHost retrieves a host by id.
	// Returns ErrHostNotFound if it does not exist.
	GetHost(ctx context.Context, id uuid.UUID) (*Host, error)

	// GetHostByMachine retrieves the host claimed on a machine, if any.
	// Returns ErrHostNotFound if the machine has no host.
	GetHostByMachine(ctx context.Context, machineID uuid.UUID) (*Host, error)

	// UpdateHost persists a host's mutated fields and state record.
	// Returns ErrHostNotFound if it does not exist.
	UpdateHost(ctx context.Context, host *Host) error

	// DeleteHost removes a host, its state record, and all its memberships.
	// Returns ErrHostNotFound if it does not exist.
	DeleteHost(ctx context.Context, id uuid.UUID) error
}

// ClusterHostRepository provides persistent storage for cluster memberships
// and their state records.
type ClusterHostRepository interface {
	// CreateClusterHost persists a new membership and its state record.
	// The (cluster, host) pair is unique.
	CreateClusterHost(ctx context.Context, membership *ClusterHost) error

	// GetClusterHost retrieves a membership by the (cluster, host) pair.
	// Returns ErrMembershipNotFound if it does not exist.
	GetClusterHost(ctx context.Context, clusterID, hostID uuid.UUID) (*ClusterHost, error)

	// ListClusterHostsByHost retrieves every membership of a host.
	ListClusterHostsByHost(ctx context.Context, hostID uuid.UUID) ([]*ClusterHost, error)

	// ListClusterHostsByCluster retrieves every membership of a cluster.
	ListClusterHostsByCluster(ctx context.Context, clusterID uuid.UUID) ([]*ClusterHost, error)

	// UpdateClusterHost persists a membership's mutated fields and state record.
	// Returns ErrMembershipNotFound if it does not exist.
	UpdateClusterHost(ctx context.Context, membership *ClusterHost) error

	// DeleteClusterHost removes a membership and its state record.
	// Returns ErrMembershipNotFound if it does not exist.
	DeleteClusterHost(ctx context.Context, clusterID, hostID uuid.UUID) error
}

// ClusterRepository provides persistent storage for clusters, their state
// records, and their counters.
type ClusterRepository interface {
	// CreateCluster persists a new cluster, its state record, and counters.
	CreateCluster(ctx context.Context, cluster *Cluster) error

	// GetCluster retrieves a cluster by id.
	// Returns ErrClusterNotFound if it does not exist.
	GetCluster(ctx context.Context, id uuid.UUID) (*Cluster, error)

	// UpdateCluster persists a cluster's mutated fields, state record, and counters.
	// Returns ErrClusterNotFound if it does not exist.
	UpdateCluster(ctx context.Context, cluster *Cluster) error

	// DeleteCluster removes a cluster, its state record, and all its memberships.
	// Returns ErrClusterNotFound if it does not exist.
	DeleteCluster(ctx context.Context, id uuid.UUID) error
}

// Store aggregates the provisioning repositories and provides transactional
// execution. Every externally triggered mutation runs inside WithinTx so a
// whole cascade commits atomically or not at all; no reader ever observes a
// partially applied cascade.
type Store interface {
	MachineRepository
	HostRepository
	ClusterHostRepository
	ClusterRepository

	// WithinTx executes fn against a transaction-scoped view of the store.
	// If fn returns an error the transaction rolls back and nothing fn wrote
	// is visible to anyone.
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
