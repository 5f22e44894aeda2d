// Package postgres provides the PostgreSQL-backed implementation of the
// provisioning store. Each aggregate persists together with its state record
// in a single row; cascades run inside a transaction via WithinTx.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ironhive/provisiond/internal/db"
	"github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/internal/infra/storage"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

var _ provisioning.Store = (*Store)(nil)

var defaultDBAttributes = []attribute.KeyValue{
	attribute.String("db.system", "postgresql"),
}

// Store implements provisioning.Store on top of sqlc-generated queries.
type Store struct {
	q      *db.Queries
	pool   *pgxpool.Pool
	tx     pgx.Tx
	tracer trace.Tracer
}

// NewStore creates a new PostgreSQL-backed provisioning store with tracing.
func NewStore(pool *pgxpool.Pool, tracer trace.Tracer) *Store {
	return &Store{q: db.New(pool), pool: pool, tracer: tracer}
}

// WithinTx executes fn against a transaction-scoped view of the store. The
// transaction commits only if fn returns nil. A store that is already
// transaction-scoped runs fn in the open transaction rather than nesting.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st provisioning.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	return storage.ExecuteAndTrace(ctx, s.tracer, "postgres.within_tx", defaultDBAttributes, func(ctx context.Context) error {
		tx, err := s.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		txStore := &Store{q: s.q.WithTx(tx), pool: s.pool, tx: tx, tracer: s.tracer}
		if err := fn(ctx, txStore); err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// pgUUID converts a domain UUID to its pgtype representation.
func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// pgTime converts a time to its pgtype representation.
func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// marshalConfig serializes a config blob for a JSONB column. A nil blob
// persists as an empty object so reads never see SQL NULL.
func marshalConfig(blob provisioning.ConfigBlob) ([]byte, error) {
	if blob == nil {
		blob = provisioning.ConfigBlob{}
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// unmarshalConfig deserializes a JSONB column into a config blob.
func unmarshalConfig(data []byte) (provisioning.ConfigBlob, error) {
	if len(data) == 0 {
		return provisioning.ConfigBlob{}, nil
	}
	var blob provisioning.ConfigBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return blob, nil
}

// stateRecordColumns flattens a state record into its column values.
func stateRecordColumns(r *provisioning.StateRecord) (db.DeployState, float64, string, db.ReportSeverity) {
	snap := r.Snapshot()
	return db.DeployState(snap.State()), snap.Percentage(), snap.Message(), db.ReportSeverity(snap.Severity())
}

// reconstructStateRecord rebuilds a state record from its column values.
func reconstructStateRecord(state db.DeployState, percentage float64, message string, severity db.ReportSeverity) *provisioning.StateRecord {
	return provisioning.ReconstructStateRecord(
		provisioning.DeployState(state),
		percentage,
		message,
		provisioning.Severity(severity),
	)
}
