package provisioning

import (
	"errors"
	"fmt"
)

// Base error kinds surfaced to callers. Specific errors wrap one of these so
// the API layer can classify failures without knowing every sentinel.
var (
	// ErrNotFound indicates a referenced entity or membership is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParameter indicates a malformed input: a config blob that is
	// not a mapping, a percentage outside [0,1], an unknown enum value, or a
	// missing required relationship.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidState indicates an operation requested against an entity whose
	// current state forbids it.
	ErrInvalidState = errors.New("invalid state")
)

// Entity-specific not-found sentinels.
var (
	ErrMachineNotFound    = fmt.Errorf("machine %w", ErrNotFound)
	ErrHostNotFound       = fmt.Errorf("host %w", ErrNotFound)
	ErrClusterNotFound    = fmt.Errorf("cluster %w", ErrNotFound)
	ErrMembershipNotFound = fmt.Errorf("cluster host %w", ErrNotFound)
)
