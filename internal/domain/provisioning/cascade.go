package provisioning

// The cascade rules below are pure functions over deploy states. The cascade
// engine in the application layer looks entities up by id, applies these
// rules, and persists the results; the rules themselves never touch storage.

// MembershipStateOnHostChange returns the state a membership must be forced
// into when its host's state changes, and whether a force applies.
//
// A host entering INSTALLING restarts finished memberships. A host reset to
// UNINITIALIZED or INITIALIZED drags every membership that had progressed
// back with it. A host finishing (SUCCESSFUL/ERROR) triggers nothing:
// memberships progress independently once the OS install is done.
func MembershipStateOnHostChange(hostState, membershipState DeployState) (DeployState, bool) {
	switch hostState {
	case StateInstalling:
		if membershipState.IsTerminal() {
			return StateInstalling, true
		}
	case StateUninitialized:
		if membershipState != StateUninitialized {
			return StateUninitialized, true
		}
	case StateInitialized:
		switch membershipState {
		case StateInstalling, StateSuccessful, StateError:
			return StateInitialized, true
		}
	}
	return "", false
}

// HostStateOnMembershipChange returns the state a host must be promoted into
// when one of its memberships changes state, and whether a promotion applies.
//
// This is the only upward propagation in the graph: a membership beginning
// work pulls its host out of UNINITIALIZED.
func HostStateOnMembershipChange(membershipState, hostState DeployState) (DeployState, bool) {
	switch membershipState {
	case StateInitialized:
		if hostState == StateUninitialized {
			return StateInitialized, true
		}
	case StateInstalling:
		if hostState == StateUninitialized || hostState == StateInitialized {
			return StateInstalling, true
		}
	}
	return "", false
}

// EffectiveMembershipState returns the state record a membership exposes
// externally. Until the cluster has a distributed-system adapter and the
// member host has finished its OS install, the host's record is the
// membership's progress; afterwards the membership's own record is.
func EffectiveMembershipState(clusterHasAdapter bool, host *Host, membership *ClusterHost) StateRecord {
	if !clusterHasAdapter || !host.OSInstalled() {
		return host.State().Snapshot()
	}
	return membership.State().Snapshot()
}
