package provisioning

import "errors"

// DeployState represents the installation state of a host, a cluster host
// membership, or a cluster. It tracks the lifecycle from initial discovery
// through a completed or failed install.
type DeployState string

// ErrDeployStateUnknown is returned when a deploy state string is unknown.
var ErrDeployStateUnknown = errors.New("deploy state unknown")

const (
	// StateUninitialized indicates an entity exists but its configuration has
	// not been validated for installation.
	StateUninitialized DeployState = "UNINITIALIZED"

	// StateInitialized indicates an entity has validated configuration and is
	// ready to begin installation.
	StateInitialized DeployState = "INITIALIZED"

	// StateInstalling indicates an install is actively in progress.
	StateInstalling DeployState = "INSTALLING"

	// StateSuccessful indicates the install finished successfully.
	StateSuccessful DeployState = "SUCCESSFUL"

	// StateError indicates the install encountered an unrecoverable error.
	StateError DeployState = "ERROR"
)

// String returns the string representation of the DeployState.
func (s DeployState) String() string { return string(s) }

// IsTerminal reports whether the state is a finished install, successful or
// not. Terminal states only leave via an explicit reinstall request.
func (s DeployState) IsTerminal() bool {
	return s == StateSuccessful || s == StateError
}

// IsValid reports whether s is one of the known deploy states.
func (s DeployState) IsValid() bool {
	switch s {
	case StateUninitialized, StateInitialized, StateInstalling, StateSuccessful, StateError:
		return true
	default:
		return false
	}
}

// ParseDeployState converts a string to a DeployState.
// Returns ErrDeployStateUnknown for unrecognized values.
func ParseDeployState(s string) (DeployState, error) {
	switch s {
	case "UNINITIALIZED":
		return StateUninitialized, nil
	case "INITIALIZED":
		return StateInitialized, nil
	case "INSTALLING":
		return StateInstalling, nil
	case "SUCCESSFUL":
		return StateSuccessful, nil
	case "ERROR":
		return StateError, nil
	default:
		return "", ErrDeployStateUnknown
	}
}
