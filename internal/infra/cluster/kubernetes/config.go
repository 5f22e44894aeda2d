package kubernetes

// K8sConfig carries the settings the coordinator needs to participate in
// lease-based leader election.
type K8sConfig struct {
	// Name of this service instance.
	Name string `json:"name"`
	// Namespace holding the lease object.
	Namespace string `json:"namespace"`
	// LeaderLockID names the lease all replicas compete for.
	LeaderLockID string `json:"leaderLockId"`
	// Identity uniquely identifies this replica, typically the pod name.
	Identity string `json:"identity"`
}
