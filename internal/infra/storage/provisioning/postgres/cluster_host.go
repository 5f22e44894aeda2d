package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ironhive/provisiond/internal/db"
	"github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/internal/infra/storage"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// CreateClusterHost persists a new membership and its state record.
func (s *Store) CreateClusterHost(ctx context.Context, membership *provisioning.ClusterHost) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("cluster_id", membership.ClusterID().String()),
		attribute.String("host_id", membership.HostID().String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.create_cluster_host", dbAttrs, func(ctx context.Context) error {
		deployConfig, err := marshalConfig(membership.DeployConfig())
		if err != nil {
			return err
		}

		state, percentage, message, severity := stateRecordColumns(membership.State())
		err = s.q.CreateClusterHost(ctx, db.CreateClusterHostParams{
			ID:              pgUUID(membership.ID()),
			ClusterID:       pgUUID(membership.ClusterID()),
			HostID:          pgUUID(membership.HostID()),
			ConfigValidated: membership.ConfigValidated(),
			DeployConfig:    deployConfig,
			State:           state,
			Percentage:      percentage,
			Message:         message,
			Severity:        severity,
			CreatedAt:       pgTime(membership.Timeline().CreatedAt()),
			UpdatedAt:       pgTime(membership.Timeline().LastUpdate()),
		})
		if err != nil {
			return fmt.Errorf("failed to create cluster host: %w", err)
		}
		return nil
	})
}

// GetClusterHost retrieves a membership by the (cluster, host) pair.
func (s *Store) GetClusterHost(ctx context.Context, clusterID, hostID uuid.UUID) (*provisioning.ClusterHost, error) {
	var membership *provisioning.ClusterHost
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("cluster_id", clusterID.String()),
		attribute.String("host_id", hostID.String()),
	)
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_cluster_host", dbAttrs, func(ctx context.Context) error {
		row, err := s.q.GetClusterHost(ctx, db.GetClusterHostParams{
			ClusterID: pgUUID(clusterID),
			HostID:    pgUUID(hostID),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return provisioning.ErrMembershipNotFound
			}
			return fmt.Errorf("failed to get cluster host: %w", err)
		}
		membership, err = clusterHostFromRow(row)
		return err
	})
	return membership, err
}

// ListClusterHostsByHost retrieves every membership of a host.
func (s *Store) ListClusterHostsByHost(ctx context.Context, hostID uuid.UUID) ([]*provisioning.ClusterHost, error) {
	var memberships []*provisioning.ClusterHost
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("host_id", hostID.String()),
	)
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.list_cluster_hosts_by_host", dbAttrs, func(ctx context.Context) error {
		rows, err := s.q.ListClusterHostsByHost(ctx, pgUUID(hostID))
		if err != nil {
			return fmt.Errorf("failed to list cluster hosts by host: %w", err)
		}
		memberships, err = clusterHostsFromRows(rows)
		return err
	})
	return memberships, err
}

// ListClusterHostsByCluster retrieves every membership of a cluster.
func (s *Store) ListClusterHostsByCluster(ctx context.Context, clusterID uuid.UUID) ([]*provisioning.ClusterHost, error) {
	var memberships []*provisioning.ClusterHost
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("cluster_id", clusterID.String()),
	)
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.list_cluster_hosts_by_cluster", dbAttrs, func(ctx context.Context) error {
		rows, err := s.q.ListClusterHostsByCluster(ctx, pgUUID(clusterID))
		if err != nil {
			return fmt.Errorf("failed to list cluster hosts by cluster: %w", err)
		}
		memberships, err = clusterHostsFromRows(rows)
		return err
	})
	return memberships, err
}

// UpdateClusterHost persists a membership's mutated fields and state record.
func (s *Store) UpdateClusterHost(ctx context.Context, membership *provisioning.ClusterHost) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("cluster_host_id", membership.ID().String()),
		attribute.String("state", membership.State().State().String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.update_cluster_host", dbAttrs, func(ctx context.Context) error {
		deployConfig, err := marshalConfig(membership.DeployConfig())
		if err != nil {
			return err
		}

		membership.Timeline().UpdateLastUpdate()
		state, percentage, message, severity := stateRecordColumns(membership.State())
		rows, err := s.q.UpdateClusterHost(ctx, db.UpdateClusterHostParams{
			ID:              pgUUID(membership.ID()),
			ConfigValidated: membership.ConfigValidated(),
			DeployConfig:    deployConfig,
			State:           state,
			Percentage:      percentage,
			Message:         message,
			Severity:        severity,
			UpdatedAt:       pgTime(membership.Timeline().LastUpdate()),
		})
		if err != nil {
			return fmt.Errorf("failed to update cluster host: %w", err)
		}
		if rows == 0 {
			return provisioning.ErrMembershipNotFound
		}
		return nil
	})
}

// DeleteClusterHost removes a membership and its state record.
func (s *Store) DeleteClusterHost(ctx context.Context, clusterID, hostID uuid.UUID) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("cluster_id", clusterID.String()),
		attribute.String("host_id", hostID.String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.delete_cluster_host", dbAttrs, func(ctx context.Context) error {
		rows, err := s.q.DeleteClusterHost(ctx, db.DeleteClusterHostParams{
			ClusterID: pgUUID(clusterID),
			HostID:    pgUUID(hostID),
		})
		if err != nil {
			return fmt.Errorf("failed to delete cluster host: %w", err)
		}
		if rows == 0 {
			return provisioning.ErrMembershipNotFound
		}
		return nil
	})
}

func clusterHostFromRow(row db.ClusterHost) (*provisioning.ClusterHost, error) {
	deployConfig, err := unmarshalConfig(row.DeployConfig)
	if err != nil {
		return nil, err
	}
	return provisioning.ReconstructClusterHost(
		row.ID.Bytes,
		row.ClusterID.Bytes,
		row.HostID.Bytes,
		row.ConfigValidated,
		deployConfig,
		reconstructStateRecord(row.State, row.Percentage, row.Message, row.Severity),
		provisioning.ReconstructTimeline(row.CreatedAt.Time, row.UpdatedAt.Time),
	), nil
}

func clusterHostsFromRows(rows []db.ClusterHost) ([]*provisioning.ClusterHost, error) {
	memberships := make([]*provisioning.ClusterHost, 0, len(rows))
	for _, row := range rows {
		m, err := clusterHostFromRow(row)
		if err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, nil
}
