package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironhive/provisiond/pkg/common/uuid"
)

func TestNewHost(t *testing.T) {
	t.Parallel()

	t.Run("requires an os", func(t *testing.T) {
		t.Parallel()
		_, err := NewHost(uuid.New(), uuid.New(), "node-1", "")
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("name defaults to the id", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		h, err := NewHost(id, uuid.New(), "", "Ubuntu-22.04")
		require.NoError(t, err)
		assert.Equal(t, id.String(), h.Name())
	})

	t.Run("fresh host wants an install", func(t *testing.T) {
		t.Parallel()
		h, err := NewHost(uuid.New(), uuid.New(), "node-1", "Ubuntu-22.04")
		require.NoError(t, err)

		assert.True(t, h.ReinstallOS())
		assert.False(t, h.ConfigValidated())
		assert.Equal(t, StateUninitialized, h.State().State())
		assert.False(t, h.OSInstalled())
	})
}

func TestHost_ApplyPendingReinstall(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		state           DeployState
		reinstall       bool
		configValidated bool
		wantChanged     bool
		wantState       DeployState
	}{
		{
			name:            "validated config resumes at initialized",
			state:           StateSuccessful,
			reinstall:       true,
			configValidated: true,
			wantChanged:     true,
			wantState:       StateInitialized,
		},
		{
			name:        "unvalidated config restarts at uninitialized",
			state:       StateSuccessful,
			reinstall:   true,
			wantChanged: true,
			wantState:   StateUninitialized,
		},
		{
			name:            "failed install re-enters the same way",
			state:           StateError,
			reinstall:       true,
			configValidated: true,
			wantChanged:     true,
			wantState:       StateInitialized,
		},
		{
			name:        "no flag means no re-entry",
			state:       StateError,
			reinstall:   false,
			wantChanged: false,
			wantState:   StateError,
		},
		{
			name:        "in-flight install is never restarted",
			state:       StateInstalling,
			reinstall:   true,
			wantChanged: false,
			wantState:   StateInstalling,
		},
		{
			name:        "initialized host is untouched",
			state:       StateInitialized,
			reinstall:   true,
			wantChanged: false,
			wantState:   StateInitialized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h, err := NewHost(uuid.New(), uuid.New(), "node-1", "Ubuntu-22.04")
			require.NoError(t, err)
			h.state = ReconstructStateRecord(tt.state, 0.5, "prior run", SeverityInfo)
			h.reinstallOS = tt.reinstall
			h.configValidated = tt.configValidated

			changed := h.ApplyPendingReinstall()

			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantState, h.State().State())
			if changed {
				// Re-entry scrubs the previous run's progress.
				assert.Equal(t, 0.0, h.State().Percentage())
				assert.Equal(t, "", h.State().Message())
			}
		})
	}
}

func TestHost_ConfigWritesInvalidateValidation(t *testing.T) {
	t.Parallel()

	h, err := NewHost(uuid.New(), uuid.New(), "node-1", "Ubuntu-22.04")
	require.NoError(t, err)

	h.MarkConfigValidated()
	require.True(t, h.ConfigValidated())

	h.PatchOSConfig(ConfigBlob{"dns": map[string]any{"nameserver": "8.8.8.8"}})
	assert.False(t, h.ConfigValidated())

	h.MarkConfigValidated()
	h.PutOSConfig(ConfigBlob{"dns": map[string]any{"nameserver": "1.1.1.1"}})
	assert.False(t, h.ConfigValidated())
	assert.Equal(t, map[string]any{"nameserver": "1.1.1.1"}, h.OSConfig()["dns"])
}

func TestClusterHost_Roles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config ConfigBlob
		want   []string
	}{
		{
			name:   "no roles assigned",
			config: ConfigBlob{},
			want:   nil,
		},
		{
			name:   "string slice",
			config: ConfigBlob{"roles": []string{"controller", "compute"}},
			want:   []string{"controller", "compute"},
		},
		{
			name:   "decoded json slice",
			config: ConfigBlob{"roles": []any{"controller", "network"}},
			want:   []string{"controller", "network"},
		},
		{
			name:   "malformed roles value",
			config: ConfigBlob{"roles": 42},
			want:   nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ch := NewClusterHost(uuid.New(), uuid.New(), uuid.New())
			ch.PutDeployConfig(tt.config)
			assert.Equal(t, tt.want, ch.Roles())
		})
	}
}
