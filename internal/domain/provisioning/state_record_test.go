package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRecord_Update(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		record         *StateRecord
		wantState      DeployState
		wantPercentage float64
		wantMessage    string
		wantSeverity   Severity
	}{
		{
			name:           "uninitialized record is scrubbed",
			record:         ReconstructStateRecord(StateUninitialized, 0.4, "leftover", SeverityWarning),
			wantState:      StateUninitialized,
			wantPercentage: 0.0,
			wantMessage:    "",
			wantSeverity:   SeverityInfo,
		},
		{
			name:           "initialized record is scrubbed",
			record:         ReconstructStateRecord(StateInitialized, 0.9, "leftover", SeverityError),
			wantState:      StateInitialized,
			wantPercentage: 0.0,
			wantMessage:    "",
			wantSeverity:   SeverityInfo,
		},
		{
			name:           "installing with error severity fails",
			record:         ReconstructStateRecord(StateInstalling, 0.5, "disk died", SeverityError),
			wantState:      StateError,
			wantPercentage: 0.5,
			wantMessage:    "disk died",
			wantSeverity:   SeverityError,
		},
		{
			name:           "installing at full progress succeeds",
			record:         ReconstructStateRecord(StateInstalling, 1.0, "done", SeverityInfo),
			wantState:      StateSuccessful,
			wantPercentage: 1.0,
			wantMessage:    "done",
			wantSeverity:   SeverityInfo,
		},
		{
			name:           "installing mid-progress stays installing",
			record:         ReconstructStateRecord(StateInstalling, 0.3, "copying image", SeverityInfo),
			wantState:      StateInstalling,
			wantPercentage: 0.3,
			wantMessage:    "copying image",
			wantSeverity:   SeverityInfo,
		},
		{
			name:           "successful record reads full progress",
			record:         ReconstructStateRecord(StateSuccessful, 0.7, "done", SeverityInfo),
			wantState:      StateSuccessful,
			wantPercentage: 1.0,
			wantMessage:    "done",
			wantSeverity:   SeverityInfo,
		},
		{
			name:           "warning severity does not fail an install",
			record:         ReconstructStateRecord(StateInstalling, 0.6, "slow mirror", SeverityWarning),
			wantState:      StateInstalling,
			wantPercentage: 0.6,
			wantMessage:    "slow mirror",
			wantSeverity:   SeverityWarning,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.record.Update()

			assert.Equal(t, tt.wantState, tt.record.State())
			assert.Equal(t, tt.wantPercentage, tt.record.Percentage())
			assert.Equal(t, tt.wantMessage, tt.record.Message())
			assert.Equal(t, tt.wantSeverity, tt.record.Severity())
		})
	}
}

func TestStateRecord_Update_Idempotent(t *testing.T) {
	t.Parallel()

	records := []*StateRecord{
		NewStateRecord(),
		ReconstructStateRecord(StateInitialized, 0.2, "x", SeverityWarning),
		ReconstructStateRecord(StateInstalling, 0.5, "mid", SeverityInfo),
		ReconstructStateRecord(StateInstalling, 1.0, "done", SeverityInfo),
		ReconstructStateRecord(StateInstalling, 0.5, "bad", SeverityError),
		ReconstructStateRecord(StateSuccessful, 0.1, "done", SeverityInfo),
	}

	for _, r := range records {
		r.Update()
		first := r.Snapshot()
		r.Update()
		assert.Equal(t, first, r.Snapshot())
	}
}

func TestStateRecord_ApplyProgress(t *testing.T) {
	t.Parallel()

	t.Run("rejects percentage outside range", func(t *testing.T) {
		t.Parallel()
		r := ReconstructStateRecord(StateInstalling, 0.1, "", SeverityInfo)

		err := r.ApplyProgress(1.5, "too far", SeverityInfo)
		require.ErrorIs(t, err, ErrInvalidParameter)

		err = r.ApplyProgress(-0.1, "negative", SeverityInfo)
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("rejects unknown severity", func(t *testing.T) {
		t.Parallel()
		r := ReconstructStateRecord(StateInstalling, 0.1, "", SeverityInfo)

		err := r.ApplyProgress(0.2, "x", Severity("FATAL"))
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("rejects uninitialized entity", func(t *testing.T) {
		t.Parallel()
		r := NewStateRecord()

		err := r.ApplyProgress(0.1, "starting", SeverityInfo)
		require.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("initialized entity begins installing", func(t *testing.T) {
		t.Parallel()
		r := ReconstructStateRecord(StateInitialized, 0, "", SeverityInfo)

		require.NoError(t, r.ApplyProgress(0.05, "partitioning", SeverityInfo))
		assert.Equal(t, StateInstalling, r.State())
		assert.Equal(t, 0.05, r.Percentage())
		assert.Equal(t, "partitioning", r.Message())
	})

	t.Run("full progress completes the install", func(t *testing.T) {
		t.Parallel()
		r := ReconstructStateRecord(StateInstalling, 0.9, "", SeverityInfo)

		require.NoError(t, r.ApplyProgress(1.0, "rebooted", SeverityInfo))
		assert.Equal(t, StateSuccessful, r.State())
		assert.Equal(t, 1.0, r.Percentage())
	})

	t.Run("error severity fails the install", func(t *testing.T) {
		t.Parallel()
		r := ReconstructStateRecord(StateInstalling, 0.4, "", SeverityInfo)

		require.NoError(t, r.ApplyProgress(0.4, "kernel panic", SeverityError))
		assert.Equal(t, StateError, r.State())
		assert.Equal(t, SeverityError, r.Severity())
	})
}
