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

// CreateHost persists a new host and its state record.
func (s *Store) CreateHost(ctx context.Context, host *provisioning.Host) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("host_id", host.ID().String()),
		attribute.String("machine_id", host.MachineID().String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.create_host", dbAttrs, func(ctx context.Context) error {
		osConfig, err := marshalConfig(host.OSConfig())
		if err != nil {
			return err
		}

		state, percentage, message, severity := stateRecordColumns(host.State())
		err = s.q.CreateHost(ctx, db.CreateHostParams{
			ID:              pgUUID(host.ID()),
			MachineID:       pgUUID(host.MachineID()),
			Name:            host.Name(),
			OsName:          host.OSName(),
			ReinstallOs:     host.ReinstallOS(),
			ConfigValidated: host.ConfigValidated(),
			OsConfig:        osConfig,
			State:           state,
			Percentage:      percentage,
			Message:         message,
			Severity:        severity,
			CreatedAt:       pgTime(host.Timeline().CreatedAt()),
			UpdatedAt:       pgTime(host.Timeline().LastUpdate()),
		})
		if err != nil {
			return fmt.Errorf("failed to create host: %w", err)
		}
		return nil
	})
}

// GetHost retrieves a host by id.
func (s *Store) GetHost(ctx context.Context, id uuid.UUID) (*provisioning.Host, error) {
	var host *provisioning.Host
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("host_id", id.String()),
	)
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_host", dbAttrs, func(ctx context.Context) error {
		row, err := s.q.GetHost(ctx, pgUUID(id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return provisioning.ErrHostNotFound
			}
			return fmt.Errorf("failed to get host: %w", err)
		}
		host, err = hostFromRow(row)
		return err
	})
	return host, err
}

// GetHostByMachine retrieves the host claimed on a machine, if any.
func (s *Store) GetHostByMachine(ctx context.Context, machineID uuid.UUID) (*provisioning.Host, error) {
	var host *provisioning.Host
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("machine_id", machineID.String()),
	)
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_host_by_machine", dbAttrs, func(ctx context.Context) error {
		row, err := s.q.GetHostByMachine(ctx, pgUUID(machineID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return provisioning.ErrHostNotFound
			}
			return fmt.Errorf("failed to get host by machine: %w", err)
		}
		host, err = hostFromRow(row)
		return err
	})
	return host, err
}

// UpdateHost persists a host's mutated fields and state record.
func (s *Store) UpdateHost(ctx context.Context, host *provisioning.Host) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("host_id", host.ID().String()),
		attribute.String("state", host.State().State().String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.update_host", dbAttrs, func(ctx context.Context) error {
		osConfig, err := marshalConfig(host.OSConfig())
		if err != nil {
			return err
		}

		host.Timeline().UpdateLastUpdate()
		state, percentage, message, severity := stateRecordColumns(host.State())
		rows, err := s.q.UpdateHost(ctx, db.UpdateHostParams{
			ID:              pgUUID(host.ID()),
			Name:            host.Name(),
			OsName:          host.OSName(),
			ReinstallOs:     host.ReinstallOS(),
			ConfigValidated: host.ConfigValidated(),
			OsConfig:        osConfig,
			State:           state,
			Percentage:      percentage,
			Message:         message,
			Severity:        severity,
			UpdatedAt:       pgTime(host.Timeline().LastUpdate()),
		})
		if err != nil {
			return fmt.Errorf("failed to update host: %w", err)
		}
		if rows == 0 {
			return provisioning.ErrHostNotFound
		}
		return nil
	})
}

// DeleteHost removes a host, its state record, and all its memberships.
func (s *Store) DeleteHost(ctx context.Context, id uuid.UUID) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("host_id", id.String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.delete_host", dbAttrs, func(ctx context.Context) error {
		rows, err := s.q.DeleteHost(ctx, pgUUID(id))
		if err != nil {
			return fmt.Errorf("failed to delete host: %w", err)
		}
		if rows == 0 {
			return provisioning.ErrHostNotFound
		}
		return nil
	})
}

func hostFromRow(row db.Host) (*provisioning.Host, error) {
	osConfig, err := unmarshalConfig(row.OsConfig)
	if err != nil {
		return nil, err
	}
	return provisioning.ReconstructHost(
		row.ID.Bytes,
		row.MachineID.Bytes,
		row.Name,
		row.OsName,
		row.ReinstallOs,
		row.ConfigValidated,
		osConfig,
		reconstructStateRecord(row.State, row.Percentage, row.Message, row.Severity),
		provisioning.ReconstructTimeline(row.CreatedAt.Time, row.UpdatedAt.Time),
	), nil
}
