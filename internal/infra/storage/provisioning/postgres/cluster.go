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

// CreateCluster persists a new cluster, its state record, and counters.
func (s *Store) CreateCluster(ctx context.Context, cluster *provisioning.Cluster) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("cluster_id", cluster.ID().String()),
		attribute.String("cluster_name", cluster.Name()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.create_cluster", dbAttrs, func(ctx context.Context) error {
		osConfig, err := marshalConfig(cluster.OSConfig())
		if err != nil {
			return err
		}
		deployConfig, err := marshalConfig(cluster.DeployConfig())
		if err != nil {
			return err
		}

		state, percentage, message, severity := stateRecordColumns(cluster.State())
		err = s.q.CreateCluster(ctx, db.CreateClusterParams{
			ID:                         pgUUID(cluster.ID()),
			Name:                       cluster.Name(),
			CreatedBy:                  cluster.CreatedBy(),
			OsName:                     cluster.OSName(),
			AdapterName:                cluster.AdapterName(),
			DistributedSystemName:      cluster.DistributedSystemName(),
			ReinstallDistributedSystem: cluster.ReinstallDistributedSystem(),
			ConfigValidated:            cluster.ConfigValidated(),
			OsConfig:                   osConfig,
			DeployConfig:               deployConfig,
			State:                      state,
			Percentage:                 percentage,
			Message:                    message,
			Severity:                   severity,
			TotalHosts:                 int32(cluster.Status().TotalHosts()),
			InstallingHosts:            int32(cluster.Status().InstallingHosts()),
			CompletedHosts:             int32(cluster.Status().CompletedHosts()),
			FailedHosts:                int32(cluster.Status().FailedHosts()),
			CreatedAt:                  pgTime(cluster.Timeline().CreatedAt()),
			UpdatedAt:                  pgTime(cluster.Timeline().LastUpdate()),
		})
		if err != nil {
			return fmt.Errorf("failed to create cluster: %w", err)
		}
		return nil
	})
}

// GetCluster retrieves a cluster by id.
func (s *Store) GetCluster(ctx context.Context, id uuid.UUID) (*provisioning.Cluster, error) {
	var cluster *provisioning.Cluster
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("cluster_id", id.String()),
	)
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_cluster", dbAttrs, func(ctx context.Context) error {
		row, err := s.q.GetCluster(ctx, pgUUID(id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return provisioning.ErrClusterNotFound
			}
			return fmt.Errorf("failed to get cluster: %w", err)
		}
		cluster, err = clusterFromRow(row)
		return err
	})
	return cluster, err
}

// UpdateCluster persists a cluster's mutated fields, state record, and counters.
func (s *Store) UpdateCluster(ctx context.Context, cluster *provisioning.Cluster) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("cluster_id", cluster.ID().String()),
		attribute.String("state", cluster.State().State().String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.update_cluster", dbAttrs, func(ctx context.Context) error {
		osConfig, err := marshalConfig(cluster.OSConfig())
		if err != nil {
			return err
		}
		deployConfig, err := marshalConfig(cluster.DeployConfig())
		if err != nil {
			return err
		}

		cluster.Timeline().UpdateLastUpdate()
		state, percentage, message, severity := stateRecordColumns(cluster.State())
		rows, err := s.q.UpdateCluster(ctx, db.UpdateClusterParams{
			ID:                         pgUUID(cluster.ID()),
			Name:                       cluster.Name(),
			OsName:                     cluster.OSName(),
			AdapterName:                cluster.AdapterName(),
			DistributedSystemName:      cluster.DistributedSystemName(),
			ReinstallDistributedSystem: cluster.ReinstallDistributedSystem(),
			ConfigValidated:            cluster.ConfigValidated(),
			OsConfig:                   osConfig,
			DeployConfig:               deployConfig,
			State:                      state,
			Percentage:                 percentage,
			Message:                    message,
			Severity:                   severity,
			TotalHosts:                 int32(cluster.Status().TotalHosts()),
			InstallingHosts:            int32(cluster.Status().InstallingHosts()),
			CompletedHosts:             int32(cluster.Status().CompletedHosts()),
			FailedHosts:                int32(cluster.Status().FailedHosts()),
			UpdatedAt:                  pgTime(cluster.Timeline().LastUpdate()),
		})
		if err != nil {
			return fmt.Errorf("failed to update cluster: %w", err)
		}
		if rows == 0 {
			return provisioning.ErrClusterNotFound
		}
		return nil
	})
}

// DeleteCluster removes a cluster, its state record, and all its memberships.
func (s *Store) DeleteCluster(ctx context.Context, id uuid.UUID) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("cluster_id", id.String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.delete_cluster", dbAttrs, func(ctx context.Context) error {
		rows, err := s.q.DeleteCluster(ctx, pgUUID(id))
		if err != nil {
			return fmt.Errorf("failed to delete cluster: %w", err)
		}
		if rows == 0 {
			return provisioning.ErrClusterNotFound
		}
		return nil
	})
}

func clusterFromRow(row db.Cluster) (*provisioning.Cluster, error) {
	osConfig, err := unmarshalConfig(row.OsConfig)
	if err != nil {
		return nil, err
	}
	deployConfig, err := unmarshalConfig(row.DeployConfig)
	if err != nil {
		return nil, err
	}
	return provisioning.ReconstructCluster(
		row.ID.Bytes,
		row.Name,
		row.CreatedBy,
		row.OsName,
		row.AdapterName,
		row.DistributedSystemName,
		row.ReinstallDistributedSystem,
		row.ConfigValidated,
		osConfig,
		deployConfig,
		reconstructStateRecord(row.State, row.Percentage, row.Message, row.Severity),
		provisioning.ReconstructClusterStatus(
			int(row.TotalHosts),
			int(row.InstallingHosts),
			int(row.CompletedHosts),
			int(row.FailedHosts),
		),
		provisioning.ReconstructTimeline(row.CreatedAt.Time, row.UpdatedAt.Time),
	), nil
}
