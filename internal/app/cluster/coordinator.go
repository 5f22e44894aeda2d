// Package cluster defines the coordination port that keeps a replicated
// deployment of the service down to a single active mutation writer.
package cluster

import "context"

// Coordinator manages leader election so only one replica applies mutations
// and runs cascades at a time.
type Coordinator interface {
	// Start initiates coordination and blocks until context cancellation or error.
	Start(ctx context.Context) error
	// Stop gracefully terminates coordination.
	Stop() error
	// OnLeadershipChange registers a callback for leadership status changes.
	OnLeadershipChange(cb func(isLeader bool))
}
