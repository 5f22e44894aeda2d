// Package provisioning implements the application services that drive the
// deployment-progress tracking core: entity lifecycle, config writes,
// progress reports, reinstall requests, and the cascade engine that keeps
// hosts, memberships, and clusters consistent with each other.
package provisioning

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ironhive/provisiond/internal/config"
	"github.com/ironhive/provisiond/internal/domain/events"
	domain "github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/pkg/common/logger"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// Entity kinds used in events, metrics, and log fields.
const (
	kindMachine     = "machine"
	kindHost        = "host"
	kindClusterHost = "cluster_host"
	kindCluster     = "cluster"
)

// pendingEvent is a domain event collected during a transaction, published
// only after the transaction commits so subscribers never observe a state
// that was rolled back.
type pendingEvent struct {
	event events.DomainEvent
	key   string
}

// Service implements the externally visible provisioning operations. Every
// mutation runs inside a store transaction together with its full cascade,
// serialized against other mutations touching the same clusters.
type Service struct {
	store     domain.Store
	publisher events.DomainEventPublisher
	catalog   *config.Catalog

	locks *keyedMutex

	logger  *logger.Logger
	tracer  trace.Tracer
	metrics ProvisioningMetrics
}

// NewService returns a Service wired to its persistence, catalog, and event
// publishing dependencies.
func NewService(
	store domain.Store,
	publisher events.DomainEventPublisher,
	catalog *config.Catalog,
	log *logger.Logger,
	tracer trace.Tracer,
	metrics ProvisioningMetrics,
) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		catalog:   catalog,
		locks:     newKeyedMutex(),
		logger:    log.With("component", "provisioning_service"),
		tracer:    tracer,
		metrics:   metrics,
	}
}

// publishAll publishes events collected during a committed transaction.
// Publishing is best-effort: the mutation already committed, so a transport
// failure is logged rather than surfaced to the caller.
func (s *Service) publishAll(ctx context.Context, pending []pendingEvent) {
	for _, p := range pending {
		if err := s.publisher.PublishDomainEvent(ctx, p.event, events.WithKey(p.key)); err != nil {
			s.logger.Error(ctx, "failed to publish domain event",
				"event_type", p.event.EventType(), "key", p.key, "error", err)
		}
	}
}

// clusterIDsOfHost returns the ids of every cluster the host belongs to.
// Used to pick the lock set for host-scoped mutations before the transaction
// starts.
func (s *Service) clusterIDsOfHost(ctx context.Context, hostID uuid.UUID) ([]uuid.UUID, error) {
	memberships, err := s.store.ListClusterHostsByHost(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships of host %s: %w", hostID, err)
	}
	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ClusterID())
	}
	return ids, nil
}

// RegisterMachine records a discovered machine by its hardware address.
// Registration is idempotent: re-announcing a known address returns the
// existing machine.
func (s *Service) RegisterMachine(ctx context.Context, hardwareAddr string) (*domain.Machine, error) {
	logger := s.logger.With("operation", "register_machine", "hardware_addr", hardwareAddr)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.register_machine",
		trace.WithAttributes(attribute.String("hardware_addr", hardwareAddr)))
	defer span.End()

	existing, err := s.store.GetMachineByHardwareAddr(ctx, hardwareAddr)
	if err == nil {
		span.AddEvent("machine_already_registered")
		span.SetStatus(codes.Ok, "machine already registered")
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to look up machine")
		return nil, fmt.Errorf("looking up machine by hardware address: %w", err)
	}

	machine, err := domain.NewMachine(uuid.New(), hardwareAddr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid machine")
		return nil, err
	}

	if err := s.store.CreateMachine(ctx, machine); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create machine")
		return nil, fmt.Errorf("creating machine: %w", err)
	}

	logger.Info(ctx, "machine registered", "machine_id", machine.ID())
	span.SetStatus(codes.Ok, "machine registered")
	return machine, nil
}

// GetMachine retrieves a machine by id.
func (s *Service) GetMachine(ctx context.Context, id uuid.UUID) (*domain.Machine, error) {
	return s.store.GetMachine(ctx, id)
}

// GetMachineByHardwareAddr retrieves a machine by its hardware address.
func (s *Service) GetMachineByHardwareAddr(ctx context.Context, addr string) (*domain.Machine, error) {
	return s.store.GetMachineByHardwareAddr(ctx, addr)
}

// CreateHost claims a machine for an OS install. The machine must not
// already be claimed.
func (s *Service) CreateHost(ctx context.Context, machineID uuid.UUID, name, osName string) (*domain.Host, error) {
	logger := s.logger.With("operation", "create_host", "machine_id", machineID, "os_name", osName)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.create_host",
		trace.WithAttributes(
			attribute.String("machine_id", machineID.String()),
			attribute.String("os_name", osName),
		))
	defer span.End()

	var host *domain.Host
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.GetMachine(ctx, machineID); err != nil {
			return fmt.Errorf("looking up machine: %w", err)
		}

		switch _, err := tx.GetHostByMachine(ctx, machineID); {
		case err == nil:
			return fmt.Errorf("machine %s already claimed: %w", machineID, domain.ErrInvalidState)
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("checking machine claim: %w", err)
		}

		h, err := domain.NewHost(uuid.New(), machineID, name, osName)
		if err != nil {
			return err
		}
		if err := tx.CreateHost(ctx, h); err != nil {
			return fmt.Errorf("creating host: %w", err)
		}
		host = h
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create host")
		return nil, err
	}

	logger.Info(ctx, "host created", "host_id", host.ID())
	span.SetStatus(codes.Ok, "host created")
	return host, nil
}

// GetHost retrieves a host by id.
func (s *Service) GetHost(ctx context.Context, id uuid.UUID) (*domain.Host, error) {
	return s.store.GetHost(ctx, id)
}

// DeleteHost releases a host's machine and removes the host together with
// every membership it held. Clusters that contained the host re-derive their
// counters against the shrunken member set.
func (s *Service) DeleteHost(ctx context.Context, id uuid.UUID) error {
	logger := s.logger.With("operation", "delete_host", "host_id", id)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.delete_host",
		trace.WithAttributes(attribute.String("host_id", id.String())))
	defer span.End()

	clusterIDs, err := s.clusterIDsOfHost(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve lock set")
		return err
	}
	unlock := s.locks.Lock(clusterIDs...)
	defer unlock()

	var pending []pendingEvent
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		memberships, err := tx.ListClusterHostsByHost(ctx, id)
		if err != nil {
			return fmt.Errorf("listing memberships: %w", err)
		}

		if err := tx.DeleteHost(ctx, id); err != nil {
			return fmt.Errorf("deleting host: %w", err)
		}

		for _, m := range memberships {
			if err := s.recomputeCluster(ctx, tx, m.ClusterID(), &pending); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete host")
		return err
	}
	s.publishAll(ctx, pending)

	logger.Info(ctx, "host deleted")
	span.SetStatus(codes.Ok, "host deleted")
	return nil
}

// CreateCluster creates a cluster targeting an OS and, optionally, a
// distributed-system adapter. Both must be deployable catalog entries; an
// adapter additionally seeds the cluster's deploy config with its role list.
func (s *Service) CreateCluster(ctx context.Context, name, createdBy, osName, adapterName string) (*domain.Cluster, error) {
	logger := s.logger.With("operation", "create_cluster", "cluster_name", name)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.create_cluster",
		trace.WithAttributes(
			attribute.String("cluster_name", name),
			attribute.String("os_name", osName),
			attribute.String("adapter_name", adapterName),
		))
	defer span.End()

	if err := s.requireDeployableOS(osName); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "os not deployable")
		return nil, err
	}

	var adapter config.Adapter
	if adapterName != "" {
		a, ok := s.catalog.Adapter(adapterName)
		if !ok || !a.Deployable {
			err := fmt.Errorf("adapter %q is not a deployable catalog entry: %w", adapterName, domain.ErrInvalidParameter)
			span.RecordError(err)
			span.SetStatus(codes.Error, "adapter not deployable")
			return nil, err
		}
		adapter = a
	}

	cluster, err := domain.NewCluster(uuid.New(), name, createdBy, osName, adapterName, adapter.DistributedSystemName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid cluster")
		return nil, err
	}
	cluster.SeedRoles(adapter.Roles)

	if err := s.store.CreateCluster(ctx, cluster); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cluster")
		return nil, fmt.Errorf("creating cluster: %w", err)
	}

	logger.Info(ctx, "cluster created", "cluster_id", cluster.ID())
	span.SetStatus(codes.Ok, "cluster created")
	return cluster, nil
}

// GetCluster retrieves a cluster by id.
func (s *Service) GetCluster(ctx context.Context, id uuid.UUID) (*domain.Cluster, error) {
	return s.store.GetCluster(ctx, id)
}

// DeleteCluster removes a cluster and all its memberships. Member hosts keep
// their own OS-install state.
func (s *Service) DeleteCluster(ctx context.Context, id uuid.UUID) error {
	logger := s.logger.With("operation", "delete_cluster", "cluster_id", id)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.delete_cluster",
		trace.WithAttributes(attribute.String("cluster_id", id.String())))
	defer span.End()

	unlock := s.locks.Lock(id)
	defer unlock()

	if err := s.store.DeleteCluster(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete cluster")
		return err
	}

	logger.Info(ctx, "cluster deleted")
	span.SetStatus(codes.Ok, "cluster deleted")
	return nil
}

// AddClusterHost enrolls a host into a cluster. The (cluster, host) pair is
// unique; enrolling an already enrolled host is an invalid-state error.
func (s *Service) AddClusterHost(ctx context.Context, clusterID, hostID uuid.UUID) (*domain.ClusterHost, error) {
	logger := s.logger.With("operation", "add_cluster_host", "cluster_id", clusterID, "host_id", hostID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.add_cluster_host",
		trace.WithAttributes(
			attribute.String("cluster_id", clusterID.String()),
			attribute.String("host_id", hostID.String()),
		))
	defer span.End()

	unlock := s.locks.Lock(clusterID)
	defer unlock()

	var (
		membership *domain.ClusterHost
		pending    []pendingEvent
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.GetCluster(ctx, clusterID); err != nil {
			return fmt.Errorf("looking up cluster: %w", err)
		}
		if _, err := tx.GetHost(ctx, hostID); err != nil {
			return fmt.Errorf("looking up host: %w", err)
		}

		switch _, err := tx.GetClusterHost(ctx, clusterID, hostID); {
		case err == nil:
			return fmt.Errorf("host %s already enrolled in cluster %s: %w", hostID, clusterID, domain.ErrInvalidState)
		case !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("checking enrollment: %w", err)
		}

		m := domain.NewClusterHost(uuid.New(), clusterID, hostID)
		if err := tx.CreateClusterHost(ctx, m); err != nil {
			return fmt.Errorf("creating membership: %w", err)
		}
		membership = m

		return s.recomputeCluster(ctx, tx, clusterID, &pending)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to add cluster host")
		return nil, err
	}
	s.publishAll(ctx, pending)

	logger.Info(ctx, "cluster host added", "cluster_host_id", membership.ID())
	span.SetStatus(codes.Ok, "cluster host added")
	return membership, nil
}

// RemoveClusterHost withdraws a host from a cluster. The host itself is
// untouched; the cluster re-derives its counters.
func (s *Service) RemoveClusterHost(ctx context.Context, clusterID, hostID uuid.UUID) error {
	logger := s.logger.With("operation", "remove_cluster_host", "cluster_id", clusterID, "host_id", hostID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.remove_cluster_host",
		trace.WithAttributes(
			attribute.String("cluster_id", clusterID.String()),
			attribute.String("host_id", hostID.String()),
		))
	defer span.End()

	unlock := s.locks.Lock(clusterID)
	defer unlock()

	var pending []pendingEvent
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if err := tx.DeleteClusterHost(ctx, clusterID, hostID); err != nil {
			return fmt.Errorf("deleting membership: %w", err)
		}
		return s.recomputeCluster(ctx, tx, clusterID, &pending)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to remove cluster host")
		return err
	}
	s.publishAll(ctx, pending)

	logger.Info(ctx, "cluster host removed")
	span.SetStatus(codes.Ok, "cluster host removed")
	return nil
}

func (s *Service) requireDeployableOS(osName string) error {
	os, ok := s.catalog.OS(osName)
	if !ok || !os.Deployable {
		return fmt.Errorf("os %q is not a deployable catalog entry: %w", osName, domain.ErrInvalidParameter)
	}
	return nil
}
