package provisioning

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironhive/provisiond/internal/config"
	"github.com/ironhive/provisiond/internal/domain/events"
	domain "github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/internal/infra/eventbus/kafka"
	membus "github.com/ironhive/provisiond/internal/infra/eventbus/memory"
	"github.com/ironhive/provisiond/internal/infra/storage"
	memstore "github.com/ironhive/provisiond/internal/infra/storage/provisioning/memory"
	"github.com/ironhive/provisiond/pkg/common/logger"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

type noopMetrics struct{}

func (noopMetrics) IncProgressReport(context.Context, string)   {}
func (noopMetrics) IncReinstallRequest(context.Context, string) {}
func (noopMetrics) IncConfigWrite(context.Context, string)      {}
func (noopMetrics) IncCascadeUpdate(context.Context, int)       {}

type serviceFixture struct {
	svc   *Service
	store *memstore.Store
	bus   *membus.EventBus
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	catalog, err := config.NewCatalog(
		[]config.OSSpec{
			{Name: "Ubuntu-22.04", Deployable: true},
			{Name: "CentOS-6.5", Deployable: false},
		},
		[]config.Adapter{
			{
				Name:                  "openstack-icehouse",
				DistributedSystemName: "openstack",
				Deployable:            true,
				Roles:                 []string{"controller", "compute"},
			},
			{Name: "retired-adapter", DistributedSystemName: "legacy", Deployable: false},
		},
	)
	require.NoError(t, err)

	store := memstore.NewStore()
	bus := membus.NewEventBus()
	publisher := kafka.NewDomainEventPublisher(bus, events.NewDomainEventTranslator())

	svc := NewService(store, publisher, catalog, logger.Noop(), storage.NoOpTracer(), noopMetrics{})
	return &serviceFixture{svc: svc, store: store, bus: bus}
}

// newEnrolledHost registers a machine, claims it as a host, and enrolls the
// host into the given cluster.
func (f *serviceFixture) newEnrolledHost(t *testing.T, clusterID uuid.UUID, addr string) *domain.Host {
	t.Helper()
	ctx := context.Background()

	machine, err := f.svc.RegisterMachine(ctx, addr)
	require.NoError(t, err)
	host, err := f.svc.CreateHost(ctx, machine.ID(), "host-"+addr, "Ubuntu-22.04")
	require.NoError(t, err)
	_, err = f.svc.AddClusterHost(ctx, clusterID, host.ID())
	require.NoError(t, err)
	return host
}

func (f *serviceFixture) eventTypes() []events.EventType {
	published := f.bus.Published()
	types := make([]events.EventType, 0, len(published))
	for _, env := range published {
		types = append(types, env.Type)
	}
	return types
}

func TestService_RegisterMachine_Idempotent(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.svc.RegisterMachine(ctx, "00:11:22:33:44:55")
	require.NoError(t, err)
	second, err := f.svc.RegisterMachine(ctx, "00:11:22:33:44:55")
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())
}

func TestService_CreateHost(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	machine, err := f.svc.RegisterMachine(ctx, "aa:bb:cc:00:00:01")
	require.NoError(t, err)

	host, err := f.svc.CreateHost(ctx, machine.ID(), "node-1", "Ubuntu-22.04")
	require.NoError(t, err)
	assert.Equal(t, domain.StateUninitialized, host.State().State())
	assert.True(t, host.ReinstallOS())

	t.Run("machine already claimed", func(t *testing.T) {
		_, err := f.svc.CreateHost(ctx, machine.ID(), "node-dup", "Ubuntu-22.04")
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("unknown machine", func(t *testing.T) {
		_, err := f.svc.CreateHost(ctx, uuid.New(), "node-x", "Ubuntu-22.04")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestService_CreateCluster(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	t.Run("with adapter seeds roles", func(t *testing.T) {
		cluster, err := f.svc.CreateCluster(ctx, "prod", "admin", "Ubuntu-22.04", "openstack-icehouse")
		require.NoError(t, err)
		assert.Equal(t, "openstack", cluster.DistributedSystemName())
		assert.True(t, cluster.HasAdapter())
		assert.Equal(t, []string{"controller", "compute"}, cluster.DeployConfig()["roles"])
	})

	t.Run("without adapter", func(t *testing.T) {
		cluster, err := f.svc.CreateCluster(ctx, "bare", "admin", "Ubuntu-22.04", "")
		require.NoError(t, err)
		assert.False(t, cluster.HasAdapter())
	})

	t.Run("non deployable os", func(t *testing.T) {
		_, err := f.svc.CreateCluster(ctx, "old", "admin", "CentOS-6.5", "")
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})

	t.Run("unknown adapter", func(t *testing.T) {
		_, err := f.svc.CreateCluster(ctx, "odd", "admin", "Ubuntu-22.04", "nope")
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})

	t.Run("non deployable adapter", func(t *testing.T) {
		_, err := f.svc.CreateCluster(ctx, "odd2", "admin", "Ubuntu-22.04", "retired-adapter")
		assert.ErrorIs(t, err, domain.ErrInvalidParameter)
	})
}

func TestService_HostInstallLifecycle(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	machine, err := f.svc.RegisterMachine(ctx, "aa:bb:cc:00:00:02")
	require.NoError(t, err)
	host, err := f.svc.CreateHost(ctx, machine.ID(), "node-2", "Ubuntu-22.04")
	require.NoError(t, err)

	// Progress against a fresh host is rejected until its config validates.
	err = f.svc.ReportHostProgress(ctx, host.ID(), 0.1, "partitioning", domain.SeverityInfo)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	require.NoError(t, f.svc.PatchHostOSConfig(ctx, host.ID(), domain.ConfigBlob{"dns": "8.8.8.8"}))
	require.NoError(t, f.svc.MarkHostConfigValidated(ctx, host.ID()))

	got, err := f.svc.GetHost(ctx, host.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateInitialized, got.State().State())
	assert.True(t, got.ConfigValidated())

	// The first report begins the install and consumes the reinstall flag.
	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 0.2, "installing packages", domain.SeverityInfo))
	got, err = f.svc.GetHost(ctx, host.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateInstalling, got.State().State())
	assert.False(t, got.ReinstallOS())

	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 1.0, "done", domain.SeverityInfo))
	got, err = f.svc.GetHost(ctx, host.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateSuccessful, got.State().State())
	assert.True(t, got.OSInstalled())

	assert.Contains(t, f.eventTypes(), domain.EventTypeHostStateChanged)
	assert.Contains(t, f.eventTypes(), domain.EventTypeConfigUpdated)
}

func TestService_HostFailure(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	machine, err := f.svc.RegisterMachine(ctx, "aa:bb:cc:00:00:03")
	require.NoError(t, err)
	host, err := f.svc.CreateHost(ctx, machine.ID(), "node-3", "Ubuntu-22.04")
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkHostConfigValidated(ctx, host.ID()))
	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 0.4, "installing", domain.SeverityInfo))

	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 0.4, "disk failure", domain.SeverityError))
	got, err := f.svc.GetHost(ctx, host.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateError, got.State().State())
}

func TestService_ReinstallGating(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	machine, err := f.svc.RegisterMachine(ctx, "aa:bb:cc:00:00:04")
	require.NoError(t, err)
	host, err := f.svc.CreateHost(ctx, machine.ID(), "node-4", "Ubuntu-22.04")
	require.NoError(t, err)
	require.NoError(t, f.svc.MarkHostConfigValidated(ctx, host.ID()))
	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 1.0, "done", domain.SeverityInfo))

	t.Run("validated config resumes at initialized", func(t *testing.T) {
		require.NoError(t, f.svc.RequestHostReinstall(ctx, host.ID()))
		got, err := f.svc.GetHost(ctx, host.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.StateInitialized, got.State().State())
		assert.Zero(t, got.State().Percentage())
	})

	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 1.0, "done again", domain.SeverityInfo))

	t.Run("config write forces revalidation before reinstall", func(t *testing.T) {
		require.NoError(t, f.svc.PutHostOSConfig(ctx, host.ID(), domain.ConfigBlob{"dns": "1.1.1.1"}))
		require.NoError(t, f.svc.RequestHostReinstall(ctx, host.ID()))
		got, err := f.svc.GetHost(ctx, host.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.StateUninitialized, got.State().State())
	})

	t.Run("mid install request defers", func(t *testing.T) {
		require.NoError(t, f.svc.MarkHostConfigValidated(ctx, host.ID()))
		require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 0.3, "installing", domain.SeverityInfo))
		require.NoError(t, f.svc.RequestHostReinstall(ctx, host.ID()))

		got, err := f.svc.GetHost(ctx, host.ID())
		require.NoError(t, err)
		assert.Equal(t, domain.StateInstalling, got.State().State())
		assert.True(t, got.ReinstallOS())
	})
}

func TestService_HostCascadesIntoMemberships(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "cascade", "admin", "Ubuntu-22.04", "openstack-icehouse")
	require.NoError(t, err)
	host := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:01:01")

	// Drive the host and its membership to SUCCESSFUL.
	require.NoError(t, f.svc.MarkHostConfigValidated(ctx, host.ID()))
	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 1.0, "os done", domain.SeverityInfo))
	require.NoError(t, f.svc.MarkClusterHostConfigValidated(ctx, cluster.ID(), host.ID()))
	require.NoError(t, f.svc.ReportMembershipProgress(ctx, cluster.ID(), host.ID(), 1.0, "ds done", domain.SeverityInfo))

	view, err := f.svc.GetClusterHost(ctx, cluster.ID(), host.ID())
	require.NoError(t, err)
	require.Equal(t, domain.StateSuccessful, view.Effective.State())

	// An OS reinstall drags the finished membership back with the host.
	require.NoError(t, f.svc.RequestHostReinstall(ctx, host.ID()))
	view, err = f.svc.GetClusterHost(ctx, cluster.ID(), host.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateInitialized, view.Membership.State().State())
}

func TestService_MembershipPromotesHost(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "promote", "admin", "Ubuntu-22.04", "openstack-icehouse")
	require.NoError(t, err)
	host := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:01:02")

	require.NoError(t, f.svc.MarkClusterHostConfigValidated(ctx, cluster.ID(), host.ID()))

	got, err := f.svc.GetHost(ctx, host.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateInitialized, got.State().State(),
		"membership reaching INITIALIZED must pull its host out of UNINITIALIZED")
}

func TestService_EffectiveMembershipState(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "effective", "admin", "Ubuntu-22.04", "openstack-icehouse")
	require.NoError(t, err)
	host := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:01:03")

	// Until the OS install finishes the membership mirrors the host.
	require.NoError(t, f.svc.MarkHostConfigValidated(ctx, host.ID()))
	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 0.5, "halfway", domain.SeverityInfo))

	view, err := f.svc.GetClusterHost(ctx, cluster.ID(), host.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateInstalling, view.Effective.State())
	assert.InDelta(t, 0.5, view.Effective.Percentage(), 1e-9)

	// Once the OS is installed the membership's own record takes over.
	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 1.0, "os done", domain.SeverityInfo))
	view, err = f.svc.GetClusterHost(ctx, cluster.ID(), host.ID())
	require.NoError(t, err)
	assert.Equal(t, view.Membership.State().State(), view.Effective.State())
}

func TestService_ClusterAggregation(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "agg", "admin", "Ubuntu-22.04", "")
	require.NoError(t, err)

	hosts := make([]*domain.Host, 0, 3)
	for i := range 3 {
		hosts = append(hosts, f.newEnrolledHost(t, cluster.ID(), fmt.Sprintf("aa:bb:cc:00:02:%02d", i)))
	}

	// Begin the cluster install so the counters start tracking.
	require.NoError(t, f.svc.MarkClusterConfigValidated(ctx, cluster.ID()))
	require.NoError(t, f.svc.ReportClusterProgress(ctx, cluster.ID(), 0, "starting", domain.SeverityInfo))

	for _, h := range hosts {
		require.NoError(t, f.svc.MarkHostConfigValidated(ctx, h.ID()))
	}
	require.NoError(t, f.svc.ReportHostProgress(ctx, hosts[0].ID(), 1.0, "done", domain.SeverityInfo))
	require.NoError(t, f.svc.ReportHostProgress(ctx, hosts[1].ID(), 0.5, "installing", domain.SeverityInfo))
	require.NoError(t, f.svc.ReportHostProgress(ctx, hosts[2].ID(), 0.2, "bad disk", domain.SeverityError))

	status, err := f.svc.GetClusterStatus(ctx, cluster.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalHosts)
	assert.Equal(t, 1, status.CompletedHosts)
	assert.Equal(t, 1, status.InstallingHosts)
	assert.Equal(t, 1, status.FailedHosts)
	assert.Equal(t, domain.StateError, status.State.State())
	assert.Equal(t, "total: 3, installing: 1, completed: 1, failed: 1", status.State.Message())
	assert.InDelta(t, 1.0/3.0, status.State.Percentage(), 1e-9)
	assert.Len(t, status.Members, 3)
}

func TestService_AdapterClusterAggregation(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "agg-adapter", "admin", "Ubuntu-22.04", "openstack-icehouse")
	require.NoError(t, err)

	hosts := make([]*domain.Host, 0, 4)
	for i := range 4 {
		hosts = append(hosts, f.newEnrolledHost(t, cluster.ID(), fmt.Sprintf("aa:bb:cc:00:06:%02d", i)))
	}

	require.NoError(t, f.svc.MarkClusterConfigValidated(ctx, cluster.ID()))
	require.NoError(t, f.svc.ReportClusterProgress(ctx, cluster.ID(), 0, "starting", domain.SeverityInfo))

	// An OS install failing on a host whose membership never started must not
	// count against the cluster: the counters follow membership states.
	require.NoError(t, f.svc.MarkHostConfigValidated(ctx, hosts[0].ID()))
	require.NoError(t, f.svc.ReportHostProgress(ctx, hosts[0].ID(), 0.3, "bad disk", domain.SeverityError))

	status, err := f.svc.GetClusterStatus(ctx, cluster.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, status.FailedHosts)
	assert.Equal(t, domain.StateInstalling, status.State.State())

	// The remaining members run their OS installs to completion and then land
	// in a mix of membership states that their host states do not share.
	for _, h := range hosts[1:] {
		require.NoError(t, f.svc.MarkHostConfigValidated(ctx, h.ID()))
		require.NoError(t, f.svc.ReportHostProgress(ctx, h.ID(), 1.0, "os done", domain.SeverityInfo))
		require.NoError(t, f.svc.MarkClusterHostConfigValidated(ctx, cluster.ID(), h.ID()))
	}
	require.NoError(t, f.svc.ReportMembershipProgress(ctx, cluster.ID(), hosts[1].ID(), 1.0, "deployed", domain.SeverityInfo))
	require.NoError(t, f.svc.ReportMembershipProgress(ctx, cluster.ID(), hosts[2].ID(), 0.4, "package conflict", domain.SeverityError))
	require.NoError(t, f.svc.ReportMembershipProgress(ctx, cluster.ID(), hosts[3].ID(), 0.6, "configuring", domain.SeverityInfo))

	got, err := f.svc.GetHost(ctx, hosts[2].ID())
	require.NoError(t, err)
	require.Equal(t, domain.StateSuccessful, got.State().State())

	status, err = f.svc.GetClusterStatus(ctx, cluster.ID())
	require.NoError(t, err)
	assert.Equal(t, 4, status.TotalHosts)
	assert.Equal(t, 1, status.CompletedHosts)
	assert.Equal(t, 1, status.InstallingHosts)
	assert.Equal(t, 1, status.FailedHosts)
	assert.Equal(t, domain.StateError, status.State.State())
	assert.Equal(t, "total: 4, installing: 1, completed: 1, failed: 1", status.State.Message())
	assert.InDelta(t, 0.25, status.State.Percentage(), 1e-9)
}

func TestService_ClusterCompletes(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "complete", "admin", "Ubuntu-22.04", "")
	require.NoError(t, err)
	hostA := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:03:01")
	hostB := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:03:02")

	require.NoError(t, f.svc.MarkClusterConfigValidated(ctx, cluster.ID()))
	require.NoError(t, f.svc.ReportClusterProgress(ctx, cluster.ID(), 0, "starting", domain.SeverityInfo))

	for _, h := range []*domain.Host{hostA, hostB} {
		require.NoError(t, f.svc.MarkHostConfigValidated(ctx, h.ID()))
		require.NoError(t, f.svc.ReportHostProgress(ctx, h.ID(), 1.0, "done", domain.SeverityInfo))
	}

	got, err := f.svc.GetCluster(ctx, cluster.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateSuccessful, got.State().State())
	assert.InDelta(t, 1.0, got.State().Percentage(), 1e-9)
	assert.True(t, got.DistributedSystemInstalled())
}

func TestService_RemoveClusterHostRecomputes(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "shrink", "admin", "Ubuntu-22.04", "")
	require.NoError(t, err)
	hostA := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:04:01")
	hostB := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:04:02")

	require.NoError(t, f.svc.MarkClusterConfigValidated(ctx, cluster.ID()))
	require.NoError(t, f.svc.ReportClusterProgress(ctx, cluster.ID(), 0, "starting", domain.SeverityInfo))
	require.NoError(t, f.svc.MarkHostConfigValidated(ctx, hostA.ID()))
	require.NoError(t, f.svc.ReportHostProgress(ctx, hostA.ID(), 1.0, "done", domain.SeverityInfo))

	// Removing the straggler leaves only completed members.
	require.NoError(t, f.svc.RemoveClusterHost(ctx, cluster.ID(), hostB.ID()))

	status, err := f.svc.GetClusterStatus(ctx, cluster.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalHosts)
	assert.Equal(t, domain.StateSuccessful, status.State.State())
}

func TestService_DeleteHostRecomputesClusters(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "orphan", "admin", "Ubuntu-22.04", "")
	require.NoError(t, err)
	host := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:05:01")

	require.NoError(t, f.svc.DeleteHost(ctx, host.ID()))

	_, err = f.svc.GetClusterHost(ctx, cluster.ID(), host.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	status, err := f.svc.GetClusterStatus(ctx, cluster.ID())
	require.NoError(t, err)
	assert.Zero(t, status.TotalHosts)
}

func TestService_ClusterReinstall(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "redo", "admin", "Ubuntu-22.04", "")
	require.NoError(t, err)
	host := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:06:01")

	require.NoError(t, f.svc.MarkClusterConfigValidated(ctx, cluster.ID()))
	require.NoError(t, f.svc.ReportClusterProgress(ctx, cluster.ID(), 0, "starting", domain.SeverityInfo))
	require.NoError(t, f.svc.MarkHostConfigValidated(ctx, host.ID()))
	require.NoError(t, f.svc.ReportHostProgress(ctx, host.ID(), 1.0, "done", domain.SeverityInfo))

	got, err := f.svc.GetCluster(ctx, cluster.ID())
	require.NoError(t, err)
	require.Equal(t, domain.StateSuccessful, got.State().State())

	// Config still validated, so the reinstall resumes at INITIALIZED.
	require.NoError(t, f.svc.RequestClusterReinstall(ctx, cluster.ID()))
	got, err = f.svc.GetCluster(ctx, cluster.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StateInitialized, got.State().State())

	assert.Contains(t, f.eventTypes(), domain.EventTypeReinstallRequested)
}

func TestService_ClusterHostOSConfigProxiesToHost(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "proxy", "admin", "Ubuntu-22.04", "")
	require.NoError(t, err)
	host := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:07:01")
	require.NoError(t, f.svc.MarkHostConfigValidated(ctx, host.ID()))

	require.NoError(t, f.svc.PatchClusterHostOSConfig(ctx, cluster.ID(), host.ID(), domain.ConfigBlob{"ntp": "pool.ntp.org"}))

	got, err := f.svc.GetHost(ctx, host.ID())
	require.NoError(t, err)
	assert.Equal(t, "pool.ntp.org", got.OSConfig()["ntp"])
	assert.False(t, got.ConfigValidated(), "a proxied write must invalidate the host's validation")
}

func TestService_AddClusterHost_Duplicate(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	cluster, err := f.svc.CreateCluster(ctx, "dup", "admin", "Ubuntu-22.04", "")
	require.NoError(t, err)
	host := f.newEnrolledHost(t, cluster.ID(), "aa:bb:cc:00:08:01")

	_, err = f.svc.AddClusterHost(ctx, cluster.ID(), host.ID())
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestService_FailedMutationPublishesNothing(t *testing.T) {
	t.Parallel()
	f := newServiceFixture(t)
	ctx := context.Background()

	machine, err := f.svc.RegisterMachine(ctx, "aa:bb:cc:00:09:01")
	require.NoError(t, err)
	host, err := f.svc.CreateHost(ctx, machine.ID(), "node-9", "Ubuntu-22.04")
	require.NoError(t, err)

	before := len(f.bus.Published())
	err = f.svc.ReportHostProgress(ctx, host.ID(), 0.5, "too early", domain.SeverityInfo)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Len(t, f.bus.Published(), before)
}
