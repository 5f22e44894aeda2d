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

// CreateMachine persists a new machine.
func (s *Store) CreateMachine(ctx context.Context, machine *provisioning.Machine) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("machine_id", machine.ID().String()),
	)
	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.create_machine", dbAttrs, func(ctx context.Context) error {
		err := s.q.CreateMachine(ctx, db.CreateMachineParams{
			ID:           pgUUID(machine.ID()),
			HardwareAddr: machine.HardwareAddr(),
			CreatedAt:    pgTime(machine.Timeline().CreatedAt()),
			UpdatedAt:    pgTime(machine.Timeline().LastUpdate()),
		})
		if err != nil {
			return fmt.Errorf("failed to create machine: %w", err)
		}
		return nil
	})
}

// GetMachine retrieves a machine by id.
func (s *Store) GetMachine(ctx context.Context, id uuid.UUID) (*provisioning.Machine, error) {
	var machine *provisioning.Machine
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("machine_id", id.String()),
	)
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_machine", dbAttrs, func(ctx context.Context) error {
		row, err := s.q.GetMachine(ctx, pgUUID(id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return provisioning.ErrMachineNotFound
			}
			return fmt.Errorf("failed to get machine: %w", err)
		}
		machine = machineFromRow(row)
		return nil
	})
	return machine, err
}

// GetMachineByHardwareAddr retrieves a machine by its hardware address.
func (s *Store) GetMachineByHardwareAddr(ctx context.Context, addr string) (*provisioning.Machine, error) {
	var machine *provisioning.Machine
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("hardware_addr", addr),
	)
	err := storage.ExecuteAndTrace(ctx, s.tracer, "postgres.get_machine_by_hardware_addr", dbAttrs, func(ctx context.Context) error {
		row, err := s.q.GetMachineByHardwareAddr(ctx, addr)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return provisioning.ErrMachineNotFound
			}
			return fmt.Errorf("failed to get machine by hardware address: %w", err)
		}
		machine = machineFromRow(row)
		return nil
	})
	return machine, err
}

func machineFromRow(row db.Machine) *provisioning.Machine {
	return provisioning.ReconstructMachine(
		row.ID.Bytes,
		row.HardwareAddr,
		provisioning.ReconstructTimeline(row.CreatedAt.Time, row.UpdatedAt.Time),
	)
}
