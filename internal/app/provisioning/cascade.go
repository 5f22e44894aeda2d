package provisioning

import (
	"context"
	"fmt"

	domain "github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// The cascade engine applies the pure transition rules from the domain layer
// across the entity graph by id lookup, inside the caller's transaction. It
// collects the events describing every entity it rewrote; the caller
// publishes them after commit.
//
// Propagation terminates because each rule only fires on a genuine state
// difference: a membership forced by its host never promotes that host back,
// and a host promoted by a membership forces only memberships whose state
// actually differs.

// afterHostStateChange pushes a host's new state down into its memberships
// and re-derives every cluster the host belongs to.
func (s *Service) afterHostStateChange(ctx context.Context, tx domain.Store, host *domain.Host, pending *[]pendingEvent) error {
	memberships, err := tx.ListClusterHostsByHost(ctx, host.ID())
	if err != nil {
		return fmt.Errorf("listing memberships of host %s: %w", host.ID(), err)
	}

	clusterIDs := make([]uuid.UUID, 0, len(memberships))
	forced := 0
	for _, m := range memberships {
		clusterIDs = append(clusterIDs, m.ClusterID())

		next, ok := domain.MembershipStateOnHostChange(host.State().State(), m.State().State())
		if !ok {
			continue
		}
		prev := m.State().State()
		m.State().ForceState(next)
		if err := tx.UpdateClusterHost(ctx, m); err != nil {
			return fmt.Errorf("updating membership %s: %w", m.ID(), err)
		}
		forced++
		*pending = append(*pending, pendingEvent{
			event: domain.NewMembershipStateChangedEvent(m.ClusterID(), m.HostID(), prev, m.State().Snapshot()),
			key:   m.ClusterID().String(),
		})
	}
	if forced > 0 {
		s.metrics.IncCascadeUpdate(ctx, forced)
	}

	for _, clusterID := range clusterIDs {
		if err := s.recomputeCluster(ctx, tx, clusterID, pending); err != nil {
			return err
		}
	}
	return nil
}

// afterMembershipStateChange promotes the membership's host if the rules call
// for it, which in turn cascades down to the host's other memberships. When
// no promotion applies only the membership's own cluster is re-derived.
func (s *Service) afterMembershipStateChange(ctx context.Context, tx domain.Store, membership *domain.ClusterHost, pending *[]pendingEvent) error {
	host, err := tx.GetHost(ctx, membership.HostID())
	if err != nil {
		return fmt.Errorf("looking up member host %s: %w", membership.HostID(), err)
	}

	next, ok := domain.HostStateOnMembershipChange(membership.State().State(), host.State().State())
	if !ok {
		return s.recomputeCluster(ctx, tx, membership.ClusterID(), pending)
	}

	prev := host.State().State()
	host.State().ForceState(next)
	if next == domain.StateInstalling {
		host.ClearReinstall()
	}
	if err := tx.UpdateHost(ctx, host); err != nil {
		return fmt.Errorf("updating host %s: %w", host.ID(), err)
	}
	s.metrics.IncCascadeUpdate(ctx, 1)
	*pending = append(*pending, pendingEvent{
		event: domain.NewHostStateChangedEvent(host.ID(), prev, host.State().Snapshot()),
		key:   host.ID().String(),
	})

	return s.afterHostStateChange(ctx, tx, host, pending)
}

// recomputeCluster re-derives a cluster's counters, percentage, message, and
// state from its current members and persists the result. Members of an
// adapter-ful cluster are classified by the membership's own state; members
// of an adapter-less cluster by their host's state. (The effective-state
// substitution of the read views does not apply here: a host failing its OS
// install must not count as a failed deployment of a membership that never
// started.)
func (s *Service) recomputeCluster(ctx context.Context, tx domain.Store, clusterID uuid.UUID, pending *[]pendingEvent) error {
	cluster, err := tx.GetCluster(ctx, clusterID)
	if err != nil {
		return fmt.Errorf("looking up cluster %s: %w", clusterID, err)
	}

	memberships, err := tx.ListClusterHostsByCluster(ctx, clusterID)
	if err != nil {
		return fmt.Errorf("listing members of cluster %s: %w", clusterID, err)
	}

	memberStates := make([]domain.DeployState, 0, len(memberships))
	for _, m := range memberships {
		if cluster.HasAdapter() {
			memberStates = append(memberStates, m.State().State())
			continue
		}
		host, err := tx.GetHost(ctx, m.HostID())
		if err != nil {
			return fmt.Errorf("looking up member host %s: %w", m.HostID(), err)
		}
		memberStates = append(memberStates, host.State().State())
	}

	prev := cluster.State().State()
	cluster.RecomputeProgress(memberStates)
	if err := tx.UpdateCluster(ctx, cluster); err != nil {
		return fmt.Errorf("updating cluster %s: %w", clusterID, err)
	}

	*pending = append(*pending, pendingEvent{
		event: domain.NewClusterStateChangedEvent(clusterID, prev, cluster),
		key:   clusterID.String(),
	})
	return nil
}
