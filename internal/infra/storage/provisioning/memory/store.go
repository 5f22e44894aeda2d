// Package memory provides an in-memory implementation of the provisioning
// store for testing and development.
package memory

import (
	"context"
	"sync"

	"github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

var _ provisioning.Store = (*Store)(nil)

// Store keeps every aggregate in process memory. Reads hand out the stored
// aggregate pointers, so mutating a returned aggregate mutates the store;
// there is no snapshotting and no rollback. WithinTx does not serialize
// concurrent callers either: isolation comes from the caller holding the
// per-cluster locks around each transaction, which the tests and development
// setups this backend serves already do.
type Store struct {
	mu           sync.Mutex
	machines     map[uuid.UUID]*provisioning.Machine
	hosts        map[uuid.UUID]*provisioning.Host
	clusterHosts map[uuid.UUID]*provisioning.ClusterHost
	clusters     map[uuid.UUID]*provisioning.Cluster

	// inTx only prevents a WithinTx callback that calls back into the store
	// from deadlocking on itself; it is not a transaction boundary.
	inTx bool
}

// NewStore creates an empty in-memory provisioning store.
func NewStore() *Store {
	return &Store{
		machines:     make(map[uuid.UUID]*provisioning.Machine),
		hosts:        make(map[uuid.UUID]*provisioning.Host),
		clusterHosts: make(map[uuid.UUID]*provisioning.ClusterHost),
		clusters:     make(map[uuid.UUID]*provisioning.Cluster),
	}
}

// WithinTx executes fn against the store. Mutations are applied immediately;
// an error from fn does not undo them.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st provisioning.Store) error) error {
	s.mu.Lock()
	if s.inTx {
		s.mu.Unlock()
		return fn(ctx, s)
	}
	s.inTx = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inTx = false
		s.mu.Unlock()
	}()
	return fn(ctx, s)
}

// CreateMachine persists a new machine.
func (s *Store) CreateMachine(_ context.Context, machine *provisioning.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machines[machine.ID()] = machine
	return nil
}

// GetMachine retrieves a machine by id.
func (s *Store) GetMachine(_ context.Context, id uuid.UUID) (*provisioning.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	machine, ok := s.machines[id]
	if !ok {
		return nil, provisioning.ErrMachineNotFound
	}
	return machine, nil
}

// GetMachineByHardwareAddr retrieves a machine by its hardware address.
func (s *Store) GetMachineByHardwareAddr(_ context.Context, addr string) (*provisioning.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, machine := range s.machines {
		if machine.HardwareAddr() == addr {
			return machine, nil
		}
	}
	return nil, provisioning.ErrMachineNotFound
}

// CreateHost persists a new host and its state record.
func (s *Store) CreateHost(_ context.Context, host *provisioning.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts[host.ID()] = host
	return nil
}

// GetHost retrieves a host by id.
func (s *Store) GetHost(_ context.Context, id uuid.UUID) (*provisioning.Host, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	host, ok := s.hosts[id]
	if !ok {
		return nil, provisioning.ErrHostNotFound
	}
	return host, nil
}

// GetHostByMachine retrieves the host claimed on a machine, if any.
func (s *Store) GetHostByMachine(_ context.Context, machineID uuid.UUID) (*provisioning.Host, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, host := range s.hosts {
		if host.MachineID() == machineID {
			return host, nil
		}
	}
	return nil, provisioning.ErrHostNotFound
}

// UpdateHost persists a host's mutated fields and state record.
func (s *Store) UpdateHost(_ context.Context, host *provisioning.Host) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hosts[host.ID()]; !ok {
		return provisioning.ErrHostNotFound
	}
	host.Timeline().UpdateLastUpdate()
	s.hosts[host.ID()] = host
	return nil
}

// DeleteHost removes a host, its state record, and all its memberships.
func (s *Store) DeleteHost(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hosts[id]; !ok {
		return provisioning.ErrHostNotFound
	}
	delete(s.hosts, id)
	for chID, ch := range s.clusterHosts {
		if ch.HostID() == id {
			delete(s.clusterHosts, chID)
		}
	}
	return nil
}

// CreateClusterHost persists a new membership and its state record.
func (s *Store) CreateClusterHost(_ context.Context, membership *provisioning.ClusterHost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusterHosts[membership.ID()] = membership
	return nil
}

// GetClusterHost retrieves a membership by the (cluster, host) pair.
func (s *Store) GetClusterHost(_ context.Context, clusterID, hostID uuid.UUID) (*provisioning.ClusterHost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clusterHosts {
		if ch.ClusterID() == clusterID && ch.HostID() == hostID {
			return ch, nil
		}
	}
	return nil, provisioning.ErrMembershipNotFound
}

// ListClusterHostsByHost retrieves every membership of a host.
func (s *Store) ListClusterHostsByHost(_ context.Context, hostID uuid.UUID) ([]*provisioning.ClusterHost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var memberships []*provisioning.ClusterHost
	for _, ch := range s.clusterHosts {
		if ch.HostID() == hostID {
			memberships = append(memberships, ch)
		}
	}
	return memberships, nil
}

// ListClusterHostsByCluster retrieves every membership of a cluster.
func (s *Store) ListClusterHostsByCluster(_ context.Context, clusterID uuid.UUID) ([]*provisioning.ClusterHost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var memberships []*provisioning.ClusterHost
	for _, ch := range s.clusterHosts {
		if ch.ClusterID() == clusterID {
			memberships = append(memberships, ch)
		}
	}
	return memberships, nil
}

// UpdateClusterHost persists a membership's mutated fields and state record.
func (s *Store) UpdateClusterHost(_ context.Context, membership *provisioning.ClusterHost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clusterHosts[membership.ID()]; !ok {
		return provisioning.ErrMembershipNotFound
	}
	membership.Timeline().UpdateLastUpdate()
	s.clusterHosts[membership.ID()] = membership
	return nil
}

// DeleteClusterHost removes a membership and its state record.
func (s *Store) DeleteClusterHost(_ context.Context, clusterID, hostID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for chID, ch := range s.clusterHosts {
		if ch.ClusterID() == clusterID && ch.HostID() == hostID {
			delete(s.clusterHosts, chID)
			return nil
		}
	}
	return provisioning.ErrMembershipNotFound
}

// CreateCluster persists a new cluster, its state record, and counters.
func (s *Store) CreateCluster(_ context.Context, cluster *provisioning.Cluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters[cluster.ID()] = cluster
	return nil
}

// GetCluster retrieves a cluster by id.
func (s *Store) GetCluster(_ context.Context, id uuid.UUID) (*provisioning.Cluster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cluster, ok := s.clusters[id]
	if !ok {
		return nil, provisioning.ErrClusterNotFound
	}
	return cluster, nil
}

// UpdateCluster persists a cluster's mutated fields, state record, and counters.
func (s *Store) UpdateCluster(_ context.Context, cluster *provisioning.Cluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clusters[cluster.ID()]; !ok {
		return provisioning.ErrClusterNotFound
	}
	cluster.Timeline().UpdateLastUpdate()
	s.clusters[cluster.ID()] = cluster
	return nil
}

// DeleteCluster removes a cluster, its state record, and all its memberships.
func (s *Store) DeleteCluster(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clusters[id]; !ok {
		return provisioning.ErrClusterNotFound
	}
	delete(s.clusters, id)
	for chID, ch := range s.clusterHosts {
		if ch.ClusterID() == id {
			delete(s.clusterHosts, chID)
		}
	}
	return nil
}
