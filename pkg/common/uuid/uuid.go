// Package uuid wraps the underlying UUID implementation so the rest of the
// codebase does not depend on a specific library directly.
package uuid

import "github.com/google/uuid"

// UUID is a 128-bit universally unique identifier.
type UUID = uuid.UUID

// Nil is the zero-value UUID.
var Nil = uuid.Nil

// New returns a random (version 4) UUID.
func New() UUID { return uuid.New() }

// Parse decodes s into a UUID or returns an error.
func Parse(s string) (UUID, error) { return uuid.Parse(s) }

// MustParse decodes s into a UUID and panics on failure.
// It should only be used in tests or with compile-time constants.
func MustParse(s string) UUID { return uuid.MustParse(s) }
