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

// ReportHostProgress applies an installer progress report to a host's
// OS-install state and cascades the result into the host's memberships and
// clusters. A report against an INITIALIZED host begins the install and
// consumes any pending reinstall flag.
func (s *Service) ReportHostProgress(ctx context.Context, hostID uuid.UUID, percentage float64, message string, severity domain.Severity) error {
	logger := s.logger.With("operation", "report_host_progress", "host_id", hostID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.report_host_progress",
		trace.WithAttributes(
			attribute.String("host_id", hostID.String()),
			attribute.Float64("percentage", percentage),
			attribute.String("severity", severity.String()),
		))
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
		if err := host.State().ApplyProgress(percentage, message, severity); err != nil {
			return err
		}
		if prev != domain.StateInstalling && host.State().State() == domain.StateInstalling {
			host.ClearReinstall()
		}

		if err := tx.UpdateHost(ctx, host); err != nil {
			return fmt.Errorf("updating host: %w", err)
		}
		pending = append(pending, pendingEvent{
			event: domain.NewHostStateChangedEvent(hostID, prev, host.State().Snapshot()),
			key:   hostID.String(),
		})

		return s.afterHostStateChange(ctx, tx, host, &pending)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to report host progress")
		return err
	}
	s.metrics.IncProgressReport(ctx, kindHost)
	s.publishAll(ctx, pending)

	logger.Debug(ctx, "host progress applied", "percentage", percentage, "severity", severity)
	span.SetStatus(codes.Ok, "host progress applied")
	return nil
}

// ReportMembershipProgress applies a deploy-adapter progress report to a
// cluster membership's distributed-system install state. A membership
// beginning work promotes its host out of UNINITIALIZED, which may reach the
// host's other clusters.
func (s *Service) ReportMembershipProgress(ctx context.Context, clusterID, hostID uuid.UUID, percentage float64, message string, severity domain.Severity) error {
	logger := s.logger.With("operation", "report_membership_progress", "cluster_id", clusterID, "host_id", hostID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.report_membership_progress",
		trace.WithAttributes(
			attribute.String("cluster_id", clusterID.String()),
			attribute.String("host_id", hostID.String()),
			attribute.Float64("percentage", percentage),
			attribute.String("severity", severity.String()),
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
		if err := membership.State().ApplyProgress(percentage, message, severity); err != nil {
			return err
		}

		if err := tx.UpdateClusterHost(ctx, membership); err != nil {
			return fmt.Errorf("updating membership: %w", err)
		}
		pending = append(pending, pendingEvent{
			event: domain.NewMembershipStateChangedEvent(clusterID, hostID, prev, membership.State().Snapshot()),
			key:   clusterID.String(),
		})

		return s.afterMembershipStateChange(ctx, tx, membership, &pending)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to report membership progress")
		return err
	}
	s.metrics.IncProgressReport(ctx, kindClusterHost)
	s.publishAll(ctx, pending)

	logger.Debug(ctx, "membership progress applied", "percentage", percentage, "severity", severity)
	span.SetStatus(codes.Ok, "membership progress applied")
	return nil
}

// ReportClusterProgress applies a deploy-adapter progress report to a
// cluster's own aggregate record. A report against an INITIALIZED cluster
// begins the distributed-system install and consumes any pending reinstall
// flag. Member-driven recomputes later overwrite the reported figures.
func (s *Service) ReportClusterProgress(ctx context.Context, clusterID uuid.UUID, percentage float64, message string, severity domain.Severity) error {
	logger := s.logger.With("operation", "report_cluster_progress", "cluster_id", clusterID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.report_cluster_progress",
		trace.WithAttributes(
			attribute.String("cluster_id", clusterID.String()),
			attribute.Float64("percentage", percentage),
			attribute.String("severity", severity.String()),
		))
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
		if err := cluster.State().ApplyProgress(percentage, message, severity); err != nil {
			return err
		}
		if prev != domain.StateInstalling && cluster.State().State() == domain.StateInstalling {
			cluster.ClearReinstall()
		}

		if err := tx.UpdateCluster(ctx, cluster); err != nil {
			return fmt.Errorf("updating cluster: %w", err)
		}
		pending = append(pending, pendingEvent{
			event: domain.NewClusterStateChangedEvent(clusterID, prev, cluster),
			key:   clusterID.String(),
		})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to report cluster progress")
		return err
	}
	s.metrics.IncProgressReport(ctx, kindCluster)
	s.publishAll(ctx, pending)

	logger.Debug(ctx, "cluster progress applied", "percentage", percentage, "severity", severity)
	span.SetStatus(codes.Ok, "cluster progress applied")
	return nil
}

// RequestHostReinstall flags a host for an OS reinstall. A host whose
// previous install has finished re-enters the lifecycle immediately, at
// INITIALIZED when its config is still validated and at UNINITIALIZED
// otherwise; the reset cascades into its memberships. A host mid-install
// keeps the flag until the install finishes.
func (s *Service) RequestHostReinstall(ctx context.Context, hostID uuid.UUID) error {
	logger := s.logger.With("operation", "request_host_reinstall", "host_id", hostID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.request_host_reinstall",
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
		host.RequestReinstall()
		changed := host.ApplyPendingReinstall()

		if err := tx.UpdateHost(ctx, host); err != nil {
			return fmt.Errorf("updating host: %w", err)
		}
		pending = append(pending, pendingEvent{
			event: domain.NewReinstallRequestedEvent(kindHost, hostID),
			key:   hostID.String(),
		})
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
		span.SetStatus(codes.Error, "failed to request host reinstall")
		return err
	}
	s.metrics.IncReinstallRequest(ctx, kindHost)
	s.publishAll(ctx, pending)

	logger.Info(ctx, "host reinstall requested")
	span.SetStatus(codes.Ok, "host reinstall requested")
	return nil
}

// RequestClusterReinstall flags a cluster for a distributed-system
// reinstall. A cluster whose previous install has finished re-enters the
// lifecycle immediately under the same validation gating as a host. Member
// hosts and memberships are untouched until the install actually restarts.
func (s *Service) RequestClusterReinstall(ctx context.Context, clusterID uuid.UUID) error {
	logger := s.logger.With("operation", "request_cluster_reinstall", "cluster_id", clusterID)
	ctx, span := s.tracer.Start(ctx, "provisioning_service.request_cluster_reinstall",
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
		cluster.RequestReinstall()
		changed := cluster.ApplyPendingReinstall()

		if err := tx.UpdateCluster(ctx, cluster); err != nil {
			return fmt.Errorf("updating cluster: %w", err)
		}
		pending = append(pending, pendingEvent{
			event: domain.NewReinstallRequestedEvent(kindCluster, clusterID),
			key:   clusterID.String(),
		})
		if changed {
			pending = append(pending, pendingEvent{
				event: domain.NewClusterStateChangedEvent(clusterID, prev, cluster),
				key:   clusterID.String(),
			})
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to request cluster reinstall")
		return err
	}
	s.metrics.IncReinstallRequest(ctx, kindCluster)
	s.publishAll(ctx, pending)

	logger.Info(ctx, "cluster reinstall requested")
	span.SetStatus(codes.Ok, "cluster reinstall requested")
	return nil
}
