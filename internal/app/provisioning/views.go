package provisioning

import (
	"context"
	"fmt"

	domain "github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// ClusterHostView pairs a membership with the state record it exposes
// externally: the host's OS-install record until the cluster has an adapter
// and the host's OS install has finished, the membership's own record after.
type ClusterHostView struct {
	Membership *domain.ClusterHost
	Effective  domain.StateRecord
}

// MemberStatus describes one member inside a cluster status report.
type MemberStatus struct {
	HostID    uuid.UUID
	HostName  string
	Effective domain.StateRecord
}

// ClusterStatusView is the aggregate status of a cluster: its own state
// record, the derived counters, and the effective state of every member.
type ClusterStatusView struct {
	ClusterID       uuid.UUID
	State           domain.StateRecord
	TotalHosts      int
	InstallingHosts int
	CompletedHosts  int
	FailedHosts     int
	Members         []MemberStatus
}

// GetClusterHost retrieves a membership together with its effective state.
func (s *Service) GetClusterHost(ctx context.Context, clusterID, hostID uuid.UUID) (*ClusterHostView, error) {
	var view *ClusterHostView
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		membership, err := tx.GetClusterHost(ctx, clusterID, hostID)
		if err != nil {
			return fmt.Errorf("looking up membership: %w", err)
		}
		cluster, err := tx.GetCluster(ctx, clusterID)
		if err != nil {
			return fmt.Errorf("looking up cluster: %w", err)
		}
		host, err := tx.GetHost(ctx, hostID)
		if err != nil {
			return fmt.Errorf("looking up host: %w", err)
		}

		view = &ClusterHostView{
			Membership: membership,
			Effective:  domain.EffectiveMembershipState(cluster.HasAdapter(), host, membership),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// GetClusterStatus retrieves a cluster's aggregate state, counters, and the
// effective state of every member, read atomically so the report is never a
// mid-cascade mixture.
func (s *Service) GetClusterStatus(ctx context.Context, clusterID uuid.UUID) (*ClusterStatusView, error) {
	var view *ClusterStatusView
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		cluster, err := tx.GetCluster(ctx, clusterID)
		if err != nil {
			return fmt.Errorf("looking up cluster: %w", err)
		}
		memberships, err := tx.ListClusterHostsByCluster(ctx, clusterID)
		if err != nil {
			return fmt.Errorf("listing members: %w", err)
		}

		members := make([]MemberStatus, 0, len(memberships))
		for _, m := range memberships {
			host, err := tx.GetHost(ctx, m.HostID())
			if err != nil {
				return fmt.Errorf("looking up member host %s: %w", m.HostID(), err)
			}
			members = append(members, MemberStatus{
				HostID:    host.ID(),
				HostName:  host.Name(),
				Effective: domain.EffectiveMembershipState(cluster.HasAdapter(), host, m),
			})
		}

		view = &ClusterStatusView{
			ClusterID:       clusterID,
			State:           cluster.State().Snapshot(),
			TotalHosts:      cluster.Status().TotalHosts(),
			InstallingHosts: cluster.Status().InstallingHosts(),
			CompletedHosts:  cluster.Status().CompletedHosts(),
			FailedHosts:     cluster.Status().FailedHosts(),
			Members:         members,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
