package provisioning

// ClusterStatus carries the aggregate counters a cluster derives from its
// memberships during an install.
type ClusterStatus struct {
	totalHosts      int
	installingHosts int
	completedHosts  int
	failedHosts     int
}

// NewClusterStatus creates a zeroed ClusterStatus.
func NewClusterStatus() *ClusterStatus { return new(ClusterStatus) }

// ReconstructClusterStatus creates a ClusterStatus from stored counters.
// This should only be used by repositories when loading from the DB.
func ReconstructClusterStatus(total, installing, completed, failed int) *ClusterStatus {
	return &ClusterStatus{
		totalHosts:      total,
		installingHosts: installing,
		completedHosts:  completed,
		failedHosts:     failed,
	}
}

// TotalHosts returns the number of memberships in the cluster.
func (s *ClusterStatus) TotalHosts() int { return s.totalHosts }

// InstallingHosts returns the number of members currently installing.
func (s *ClusterStatus) InstallingHosts() int { return s.installingHosts }

// CompletedHosts returns the number of members that finished successfully.
func (s *ClusterStatus) CompletedHosts() int { return s.completedHosts }

// FailedHosts returns the number of members whose install failed.
func (s *ClusterStatus) FailedHosts() int { return s.failedHosts }

func (s *ClusterStatus) reset(total int) {
	s.totalHosts = total
	s.installingHosts = 0
	s.completedHosts = 0
	s.failedHosts = 0
}
