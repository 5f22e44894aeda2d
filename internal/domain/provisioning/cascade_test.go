package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironhive/provisiond/pkg/common/uuid"
)

func TestMembershipStateOnHostChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		hostState       DeployState
		membershipState DeployState
		wantState       DeployState
		wantForced      bool
	}{
		{
			name:            "host installing restarts successful membership",
			hostState:       StateInstalling,
			membershipState: StateSuccessful,
			wantState:       StateInstalling,
			wantForced:      true,
		},
		{
			name:            "host installing restarts failed membership",
			hostState:       StateInstalling,
			membershipState: StateError,
			wantState:       StateInstalling,
			wantForced:      true,
		},
		{
			name:            "host installing leaves in-flight membership alone",
			hostState:       StateInstalling,
			membershipState: StateInstalling,
			wantForced:      false,
		},
		{
			name:            "host installing leaves uninitialized membership alone",
			hostState:       StateInstalling,
			membershipState: StateUninitialized,
			wantForced:      false,
		},
		{
			name:            "host reset drags progressed membership to uninitialized",
			hostState:       StateUninitialized,
			membershipState: StateInstalling,
			wantState:       StateUninitialized,
			wantForced:      true,
		},
		{
			name:            "host reset is a no-op for uninitialized membership",
			hostState:       StateUninitialized,
			membershipState: StateUninitialized,
			wantForced:      false,
		},
		{
			name:            "host initialized drags successful membership back",
			hostState:       StateInitialized,
			membershipState: StateSuccessful,
			wantState:       StateInitialized,
			wantForced:      true,
		},
		{
			name:            "host initialized leaves uninitialized membership alone",
			hostState:       StateInitialized,
			membershipState: StateUninitialized,
			wantForced:      false,
		},
		{
			name:            "host success triggers nothing",
			hostState:       StateSuccessful,
			membershipState: StateInstalling,
			wantForced:      false,
		},
		{
			name:            "host failure triggers nothing",
			hostState:       StateError,
			membershipState: StateInstalling,
			wantForced:      false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, forced := MembershipStateOnHostChange(tt.hostState, tt.membershipState)
			require.Equal(t, tt.wantForced, forced)
			if forced {
				assert.Equal(t, tt.wantState, got)
			}
		})
	}
}

func TestHostStateOnMembershipChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		membershipState DeployState
		hostState       DeployState
		wantState       DeployState
		wantForced      bool
	}{
		{
			name:            "initialized membership pulls uninitialized host",
			membershipState: StateInitialized,
			hostState:       StateUninitialized,
			wantState:       StateInitialized,
			wantForced:      true,
		},
		{
			name:            "initialized membership leaves initialized host alone",
			membershipState: StateInitialized,
			hostState:       StateInitialized,
			wantForced:      false,
		},
		{
			name:            "installing membership pulls uninitialized host",
			membershipState: StateInstalling,
			hostState:       StateUninitialized,
			wantState:       StateInstalling,
			wantForced:      true,
		},
		{
			name:            "installing membership pulls initialized host",
			membershipState: StateInstalling,
			hostState:       StateInitialized,
			wantState:       StateInstalling,
			wantForced:      true,
		},
		{
			name:            "installing membership never demotes finished host",
			membershipState: StateInstalling,
			hostState:       StateSuccessful,
			wantForced:      false,
		},
		{
			name:            "successful membership triggers nothing",
			membershipState: StateSuccessful,
			hostState:       StateUninitialized,
			wantForced:      false,
		},
		{
			name:            "failed membership triggers nothing",
			membershipState: StateError,
			hostState:       StateUninitialized,
			wantForced:      false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, forced := HostStateOnMembershipChange(tt.membershipState, tt.hostState)
			require.Equal(t, tt.wantForced, forced)
			if forced {
				assert.Equal(t, tt.wantState, got)
			}
		})
	}
}

func TestEffectiveMembershipState(t *testing.T) {
	t.Parallel()

	newHostInState := func(t *testing.T, state DeployState, pct float64, msg string) *Host {
		t.Helper()
		h, err := NewHost(uuid.New(), uuid.New(), "node-1", "Ubuntu-22.04")
		require.NoError(t, err)
		h.state = ReconstructStateRecord(state, pct, msg, SeverityInfo)
		return h
	}

	membership := func(t *testing.T, state DeployState, pct float64, msg string) *ClusterHost {
		t.Helper()
		ch := NewClusterHost(uuid.New(), uuid.New(), uuid.New())
		ch.state = ReconstructStateRecord(state, pct, msg, SeverityInfo)
		return ch
	}

	t.Run("adapter-less cluster exposes host state", func(t *testing.T) {
		t.Parallel()
		h := newHostInState(t, StateInstalling, 0.6, "installing os")
		ch := membership(t, StateSuccessful, 1.0, "done")

		got := EffectiveMembershipState(false, h, ch)
		assert.Equal(t, StateInstalling, got.State())
		assert.Equal(t, 0.6, got.Percentage())
	})

	t.Run("os still installing exposes host state", func(t *testing.T) {
		t.Parallel()
		h := newHostInState(t, StateInstalling, 0.3, "installing os")
		ch := membership(t, StateUninitialized, 0, "")

		got := EffectiveMembershipState(true, h, ch)
		assert.Equal(t, StateInstalling, got.State())
	})

	t.Run("os installed exposes membership state", func(t *testing.T) {
		t.Parallel()
		h := newHostInState(t, StateSuccessful, 1.0, "os done")
		ch := membership(t, StateInstalling, 0.4, "deploying packages")

		got := EffectiveMembershipState(true, h, ch)
		assert.Equal(t, StateInstalling, got.State())
		assert.Equal(t, 0.4, got.Percentage())
		assert.Equal(t, "deploying packages", got.Message())
	})
}
