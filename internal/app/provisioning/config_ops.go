package provisioning

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// Config write modes recorded on ConfigUpdated events.
const (
	modePatch = "patch"
	modePut   = "put"
)

// writeHostConfig runs a config mutation against a host inside a transaction
// and emits the ConfigUpdated event after commit.
func (s *Service) writeHostConfig(ctx context.Context, hostID uuid.UUID, mode string, mutate func(*domain.Host)) error {
	ctx, span := s.tracer.Start(ctx, "provisioning_service.write_host_config",
		trace.WithAttributes(
			attribute.String("host_id", hostID.String()),
			attribute.String("mode", mode),
		))
	defer span.End()

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		host, err := tx.GetHost(ctx, hostID)
		if err != nil {
			return fmt.Errorf("looking up host: %w", err)
		}
		mutate(host)
		if err := tx.UpdateHost(ctx, host); err != nil {
			return fmt.Errorf("updating host: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write host config")
		return err
	}
	s.metrics.IncConfigWrite(ctx, kindHost)
	s.publishAll(ctx, []pendingEvent{{
		event: domain.NewConfigUpdatedEvent(kindHost, hostID, mode),
		key:   hostID.String(),
	}})

	span.SetStatus(codes.Ok, "host config written")
	return nil
}

// PatchHostOSConfig deep-merges partial into a host's OS config. Any write
// invalidates the host's prior config validation.
func (s *Service) PatchHostOSConfig(ctx context.Context, hostID uuid.UUID, partial domain.ConfigBlob) error {
	return s.writeHostConfig(ctx, hostID, modePatch, func(h *domain.Host) { h.PatchOSConfig(partial) })
}

// PutHostOSConfig overwrites top-level keys of a host's OS config. Any write
// invalidates the host's prior config validation.
func (s *Service) PutHostOSConfig(ctx context.Context, hostID uuid.UUID, update domain.ConfigBlob) error {
	return s.writeHostConfig(ctx, hostID, modePut, func(h *domain.Host) { h.PutOSConfig(update) })
}

// writeClusterConfig runs a config mutation against a cluster inside a
// transaction and emits the ConfigUpdated event after commit.
func (s *Service) writeClusterConfig(ctx context.Context, clusterID uuid.UUID, mode string, mutate func(*domain.Cluster)) error {
	ctx, span := s.tracer.Start(ctx, "provisioning_service.write_cluster_config",
		trace.WithAttributes(
			attribute.String("cluster_id", clusterID.String()),
			attribute.String("mode", mode),
		))
	defer span.End()

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		cluster, err := tx.GetCluster(ctx, clusterID)
		if err != nil {
			return fmt.Errorf("looking up cluster: %w", err)
		}
		mutate(cluster)
		if err := tx.UpdateCluster(ctx, cluster); err != nil {
			return fmt.Errorf("updating cluster: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write cluster config")
		return err
	}
	s.metrics.IncConfigWrite(ctx, kindCluster)
	s.publishAll(ctx, []pendingEvent{{
		event: domain.NewConfigUpdatedEvent(kindCluster, clusterID, mode),
		key:   clusterID.String(),
	}})

	span.SetStatus(codes.Ok, "cluster config written")
	return nil
}

// PatchClusterOSConfig deep-merges partial into a cluster's OS config.
func (s *Service) PatchClusterOSConfig(ctx context.Context, clusterID uuid.UUID, partial domain.ConfigBlob) error {
	return s.writeClusterConfig(ctx, clusterID, modePatch, func(c *domain.Cluster) { c.PatchOSConfig(partial) })
}

// PutClusterOSConfig overwrites top-level keys of a cluster's OS config.
func (s *Service) PutClusterOSConfig(ctx context.Context, clusterID uuid.UUID, update domain.ConfigBlob) error {
	return s.writeClusterConfig(ctx, clusterID, modePut, func(c *domain.Cluster) { c.PutOSConfig(update) })
}

// PatchClusterDeployConfig deep-merges partial into a cluster's deploy config.
func (s *Service) PatchClusterDeployConfig(ctx context.Context, clusterID uuid.UUID, partial domain.ConfigBlob) error {
	return s.writeClusterConfig(ctx, clusterID, modePatch, func(c *domain.Cluster) { c.PatchDeployConfig(partial) })
}

// PutClusterDeployConfig overwrites top-level keys of a cluster's deploy config.
func (s *Service) PutClusterDeployConfig(ctx context.Context, clusterID uuid.UUID, update domain.ConfigBlob) error {
	return s.writeClusterConfig(ctx, clusterID, modePut, func(c *domain.Cluster) { c.PutDeployConfig(update) })
}

// writeClusterHostConfig runs a config mutation against a membership inside
// a transaction and emits the ConfigUpdated event after commit.
func (s *Service) writeClusterHostConfig(ctx context.Context, clusterID, hostID uuid.UUID, mode string, mutate func(*domain.ClusterHost)) error {
	ctx, span := s.tracer.Start(ctx, "provisioning_service.write_cluster_host_config",
		trace.WithAttributes(
			attribute.String("cluster_id", clusterID.String()),
			attribute.String("host_id", hostID.String()),
			attribute.String("mode", mode),
		))
	defer span.End()

	var membershipID uuid.UUID
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		membership, err := tx.GetClusterHost(ctx, clusterID, hostID)
		if err != nil {
			return fmt.Errorf("looking up membership: %w", err)
		}
		mutate(membership)
		if err := tx.UpdateClusterHost(ctx, membership); err != nil {
			return fmt.Errorf("updating membership: %w", err)
		}
		membershipID = membership.ID()
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write membership config")
		return err
	}
	s.metrics.IncConfigWrite(ctx, kindClusterHost)
	s.publishAll(ctx, []pendingEvent{{
		event: domain.NewConfigUpdatedEvent(kindClusterHost, membershipID, mode),
		key:   clusterID.String(),
	}})

	span.SetStatus(codes.Ok, "membership config written")
	return nil
}

// PatchClusterHostDeployConfig deep-merges partial into a membership's deploy
// config.
func (s *Service) PatchClusterHostDeployConfig(ctx context.Context, clusterID, hostID uuid.UUID, partial domain.ConfigBlob) error {
	return s.writeClusterHostConfig(ctx, clusterID, hostID, modePatch, func(m *domain.ClusterHost) { m.PatchDeployConfig(partial) })
}

// PutClusterHostDeployConfig overwrites top-level keys of a membership's
// deploy config.
func (s *Service) PutClusterHostDeployConfig(ctx context.Context, clusterID, hostID uuid.UUID, update domain.ConfigBlob) error {
	return s.writeClusterHostConfig(ctx, clusterID, hostID, modePut, func(m *domain.ClusterHost) { m.PutDeployConfig(update) })
}

// PatchClusterHostOSConfig writes OS config through a membership to its
// underlying host. The membership only proxies; the host owns the blob and
// its validation flag.
func (s *Service) PatchClusterHostOSConfig(ctx context.Context, clusterID, hostID uuid.UUID, partial domain.ConfigBlob) error {
	if _, err := s.store.GetClusterHost(ctx, clusterID, hostID); err != nil {
		return fmt.Errorf("looking up membership: %w", err)
	}
	return s.PatchHostOSConfig(ctx, hostID, partial)
}

// PutClusterHostOSConfig is the put-mode counterpart of
// PatchClusterHostOSConfig.
func (s *Service) PutClusterHostOSConfig(ctx context.Context, clusterID, hostID uuid.UUID, update domain.ConfigBlob) error {
	if _, err := s.store.GetClusterHost(ctx, clusterID, hostID); err != nil {
		return fmt.Errorf("looking up membership: %w", err)
	}
	return s.PutHostOSConfig(ctx, hostID, update)
}

// MarkHostConfigValidated records that an external validation pass accepted
// the host's current OS config. An UNINITIALIZED host becomes INITIALIZED,
// ready to receive progress, and the change cascades.
func (s *Service) MarkHostConfigValidated(ctx context.Context, hostID uuid.UUID) error {
	logger := s.logger.With("operation", "mark_host_config_validated", "host_id", hostID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.mark_host_config_validated",
		trace.WithAttributes(attribute.String("host_id", hostID.String())))
	defer span.End()

	clusterIDs, err := s.clusterIDsOfHost(ctx, hostID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve lock set")
		return err
	}
	unlock := s.locks.Lock(clusterIDs...)
	defer unlock()

	var pending []pendingEvent
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		host, err := tx.GetHost(ctx, hostID)
		if err != nil {
			return fmt.Errorf("looking up host: %w", err)
		}

		prev := host.State().State()
		host.MarkConfigValidated()
		changed := false
		if prev == domain.StateUninitialized {
			host.State().ForceState(domain.StateInitialized)
			changed = true
		}

		if err := tx.UpdateHost(ctx, host); err != nil {
			return fmt.Errorf("updating host: %w", err)
		}
		if !changed {
			return nil
		}

		pending = append(pending, pendingEvent{
			event: domain.NewHostStateChangedEvent(hostID, prev, host.State().Snapshot()),
			key:   hostID.String(),
		})
		return s.afterHostStateChange(ctx, tx, host, &pending)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark host config validated")
		return err
	}
	s.publishAll(ctx, pending)

	logger.Info(ctx, "host config validated")
	span.SetStatus(codes.Ok, "host config validated")
	return nil
}

// MarkClusterHostConfigValidated records that an external validation pass
// accepted the membership's deploy config. An UNINITIALIZED membership
// becomes INITIALIZED, which promotes its host out of UNINITIALIZED.
func (s *Service) MarkClusterHostConfigValidated(ctx context.Context, clusterID, hostID uuid.UUID) error {
	logger := s.logger.With("operation", "mark_cluster_host_config_validated", "cluster_id", clusterID, "host_id", hostID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.mark_cluster_host_config_validated",
		trace.WithAttributes(
			attribute.String("cluster_id", clusterID.String()),
			attribute.String("host_id", hostID.String()),
		))
	defer span.End()

	clusterIDs, err := s.clusterIDsOfHost(ctx, hostID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve lock set")
		return err
	}
	unlock := s.locks.Lock(append(clusterIDs, clusterID)...)
	defer unlock()

	var pending []pendingEvent
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		membership, err := tx.GetClusterHost(ctx, clusterID, hostID)
		if err != nil {
			return fmt.Errorf("looking up membership: %w", err)
		}

		prev := membership.State().State()
		membership.MarkConfigValidated()
		changed := false
		if prev == domain.StateUninitialized {
			membership.State().ForceState(domain.StateInitialized)
			changed = true
		}

		if err := tx.UpdateClusterHost(ctx, membership); err != nil {
			return fmt.Errorf("updating membership: %w", err)
		}
		if !changed {
			return nil
		}

		pending = append(pending, pendingEvent{
			event: domain.NewMembershipStateChangedEvent(clusterID, hostID, prev, membership.State().Snapshot()),
			key:   clusterID.String(),
		})
		return s.afterMembershipStateChange(ctx, tx, membership, &pending)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark membership config validated")
		return err
	}
	s.publishAll(ctx, pending)

	logger.Info(ctx, "membership config validated")
	span.SetStatus(codes.Ok, "membership config validated")
	return nil
}

// MarkClusterConfigValidated records that an external validation pass
// accepted the cluster's current configs. An UNINITIALIZED cluster becomes
// INITIALIZED, ready to receive progress.
func (s *Service) MarkClusterConfigValidated(ctx context.Context, clusterID uuid.UUID) error {
	logger := s.logger.With("operation", "mark_cluster_config_validated", "cluster_id", clusterID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.mark_cluster_config_validated",
		trace.WithAttributes(attribute.String("cluster_id", clusterID.String())))
	defer span.End()

	unlock := s.locks.Lock(clusterID)
	defer unlock()

	var pending []pendingEvent
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		cluster, err := tx.GetCluster(ctx, clusterID)
		if err != nil {
			return fmt.Errorf("looking up cluster: %w", err)
		}

		prev := cluster.State().State()
		cluster.MarkConfigValidated()
		if prev == domain.StateUninitialized {
			cluster.State().ForceState(domain.StateInitialized)
			pending = append(pending, pendingEvent{
				event: domain.NewClusterStateChangedEvent(clusterID, prev, cluster),
				key:   clusterID.String(),
			})
		}

		if err := tx.UpdateCluster(ctx, cluster); err != nil {
			return fmt.Errorf("updating cluster: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to mark cluster config validated")
		return err
	}
	s.publishAll(ctx, pending)

	logger.Info(ctx, "cluster config validated")
	span.SetStatus(codes.Ok, "cluster config validated")
	return nil
}
