package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironhive/provisiond/pkg/common/uuid"
)

func newInstallingCluster(t *testing.T) *Cluster {
	t.Helper()
	c, err := NewCluster(uuid.New(), "prod", "admin@example.com", "Ubuntu-22.04", "openstack", "openstack")
	require.NoError(t, err)
	c.state = ReconstructStateRecord(StateInstalling, 0, "", SeverityInfo)
	return c
}

func TestNewCluster_Validation(t *testing.T) {
	t.Parallel()

	t.Run("requires a name", func(t *testing.T) {
		t.Parallel()
		_, err := NewCluster(uuid.New(), "  ", "admin", "Ubuntu-22.04", "", "")
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("requires a creator", func(t *testing.T) {
		t.Parallel()
		_, err := NewCluster(uuid.New(), "prod", "", "Ubuntu-22.04", "", "")
		require.ErrorIs(t, err, ErrInvalidParameter)
	})

	t.Run("adapter-less cluster is allowed", func(t *testing.T) {
		t.Parallel()
		c, err := NewCluster(uuid.New(), "bare-metal", "admin", "Ubuntu-22.04", "", "")
		require.NoError(t, err)
		assert.False(t, c.HasAdapter())
		assert.True(t, c.ReinstallDistributedSystem())
		assert.Equal(t, StateUninitialized, c.State().State())
	})
}

func TestCluster_RecomputeProgress(t *testing.T) {
	t.Parallel()

	t.Run("mixed member states", func(t *testing.T) {
		t.Parallel()
		c := newInstallingCluster(t)

		c.RecomputeProgress([]DeployState{
			StateSuccessful, StateSuccessful, StateError, StateInstalling,
		})

		assert.Equal(t, 4, c.Status().TotalHosts())
		assert.Equal(t, 1, c.Status().InstallingHosts())
		assert.Equal(t, 2, c.Status().CompletedHosts())
		assert.Equal(t, 1, c.Status().FailedHosts())
		assert.Equal(t, 0.5, c.State().Percentage())
		assert.Equal(t, "total: 4, installing: 1, completed: 2, failed: 1", c.State().Message())
		// One failure marks the run failed even while others are in flight.
		assert.Equal(t, SeverityError, c.State().Severity())
		assert.Equal(t, StateError, c.State().State())
	})

	t.Run("all members successful completes the cluster", func(t *testing.T) {
		t.Parallel()
		c := newInstallingCluster(t)

		c.RecomputeProgress([]DeployState{StateSuccessful, StateSuccessful})

		assert.Equal(t, StateSuccessful, c.State().State())
		assert.Equal(t, 1.0, c.State().Percentage())
		assert.Equal(t, 2, c.Status().CompletedHosts())
	})

	t.Run("members in flight keep the cluster installing", func(t *testing.T) {
		t.Parallel()
		c := newInstallingCluster(t)

		c.RecomputeProgress([]DeployState{StateSuccessful, StateInstalling, StateInitialized})

		assert.Equal(t, StateInstalling, c.State().State())
		assert.InDelta(t, 1.0/3.0, c.State().Percentage(), 1e-9)
		assert.Equal(t, 1, c.Status().InstallingHosts())
		assert.Equal(t, 1, c.Status().CompletedHosts())
		assert.Equal(t, 0, c.Status().FailedHosts())
	})

	t.Run("no members never divides by zero", func(t *testing.T) {
		t.Parallel()
		c := newInstallingCluster(t)

		c.RecomputeProgress(nil)

		assert.Equal(t, 0, c.Status().TotalHosts())
		assert.Equal(t, 0.0, c.State().Percentage())
		assert.Equal(t, StateInstalling, c.State().State())
	})

	t.Run("installing consumes the reinstall flag", func(t *testing.T) {
		t.Parallel()
		c := newInstallingCluster(t)
		require.True(t, c.ReinstallDistributedSystem())

		c.RecomputeProgress([]DeployState{StateInstalling})

		assert.False(t, c.ReinstallDistributedSystem())
	})

	t.Run("uninitialized cluster keeps counters zeroed", func(t *testing.T) {
		t.Parallel()
		c, err := NewCluster(uuid.New(), "prod", "admin", "Ubuntu-22.04", "", "")
		require.NoError(t, err)

		c.RecomputeProgress([]DeployState{StateSuccessful, StateSuccessful})

		assert.Equal(t, 2, c.Status().TotalHosts())
		assert.Equal(t, 0, c.Status().CompletedHosts())
		assert.Equal(t, 0.0, c.State().Percentage())
		assert.Equal(t, StateUninitialized, c.State().State())
		assert.True(t, c.ReinstallDistributedSystem())
	})

	t.Run("recompute is idempotent", func(t *testing.T) {
		t.Parallel()
		c := newInstallingCluster(t)
		members := []DeployState{StateSuccessful, StateInstalling}

		c.RecomputeProgress(members)
		first := c.State().Snapshot()
		firstStatus := *c.Status()

		c.RecomputeProgress(members)
		assert.Equal(t, first, c.State().Snapshot())
		assert.Equal(t, firstStatus, *c.Status())
	})
}

func TestCluster_ApplyPendingReinstall(t *testing.T) {
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
			state:       StateError,
			reinstall:   true,
			wantChanged: true,
			wantState:   StateUninitialized,
		},
		{
			name:        "no flag means no re-entry",
			state:       StateSuccessful,
			reinstall:   false,
			wantChanged: false,
			wantState:   StateSuccessful,
		},
		{
			name:        "in-flight install is never restarted",
			state:       StateInstalling,
			reinstall:   true,
			wantChanged: false,
			wantState:   StateInstalling,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := NewCluster(uuid.New(), "prod", "admin", "Ubuntu-22.04", "ceph", "ceph")
			require.NoError(t, err)
			c.state = ReconstructStateRecord(tt.state, 0.5, "prior run", SeverityInfo)
			c.reinstallDistributedSystem = tt.reinstall
			c.configValidated = tt.configValidated

			changed := c.ApplyPendingReinstall()

			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantState, c.State().State())
		})
	}
}

func TestCluster_ConfigWritesInvalidateValidation(t *testing.T) {
	t.Parallel()

	c, err := NewCluster(uuid.New(), "prod", "admin", "Ubuntu-22.04", "ceph", "ceph")
	require.NoError(t, err)

	c.MarkConfigValidated()
	require.True(t, c.ConfigValidated())

	c.PatchOSConfig(ConfigBlob{"ntp": "pool.ntp.org"})
	assert.False(t, c.ConfigValidated())

	c.MarkConfigValidated()
	c.PutDeployConfig(ConfigBlob{"ha": map[string]any{"vip": "10.0.0.1"}})
	assert.False(t, c.ConfigValidated())

	assert.Equal(t, "pool.ntp.org", c.OSConfig()["ntp"])
	assert.Equal(t, map[string]any{"vip": "10.0.0.1"}, c.DeployConfig()["ha"])
}

func TestCluster_SeedRoles(t *testing.T) {
	t.Parallel()

	c, err := NewCluster(uuid.New(), "prod", "admin", "Ubuntu-22.04", "openstack", "openstack")
	require.NoError(t, err)

	c.SeedRoles(nil)
	_, ok := c.DeployConfig()["roles"]
	assert.False(t, ok)

	c.SeedRoles([]string{"controller", "compute"})
	assert.Equal(t, []string{"controller", "compute"}, c.DeployConfig()["roles"])
}
