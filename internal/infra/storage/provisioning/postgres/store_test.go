package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/internal/infra/storage"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

func setupStoreTest(t *testing.T) (context.Context, *pgxpool.Pool, *Store, func()) {
	t.Helper()

	pool, cleanup := storage.SetupTestContainer(t)
	store := NewStore(pool, storage.NoOpTracer())
	ctx := context.Background()

	return ctx, pool, store, cleanup
}

func createTestMachine(t *testing.T, ctx context.Context, store *Store) *provisioning.Machine {
	t.Helper()

	machine, err := provisioning.NewMachine(uuid.New(), "52:54:00:"+uuid.New().String()[:8])
	require.NoError(t, err)
	require.NoError(t, store.CreateMachine(ctx, machine))
	return machine
}

func createTestHost(t *testing.T, ctx context.Context, store *Store) *provisioning.Host {
	t.Helper()

	machine := createTestMachine(t, ctx, store)
	host, err := provisioning.NewHost(uuid.New(), machine.ID(), "node-1", "Ubuntu-22.04")
	require.NoError(t, err)
	require.NoError(t, store.CreateHost(ctx, host))
	return host
}

func createTestCluster(t *testing.T, ctx context.Context, store *Store) *provisioning.Cluster {
	t.Helper()

	cluster, err := provisioning.NewCluster(
		uuid.New(), "cluster-"+uuid.New().String()[:8], "admin@example.com",
		"Ubuntu-22.04", "openstack", "openstack",
	)
	require.NoError(t, err)
	require.NoError(t, store.CreateCluster(ctx, cluster))
	return cluster
}

func TestStore_MachineCreateAndGet(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	machine := createTestMachine(t, ctx, store)

	loaded, err := store.GetMachine(ctx, machine.ID())
	require.NoError(t, err)
	assert.Equal(t, machine.ID(), loaded.ID())
	assert.Equal(t, machine.HardwareAddr(), loaded.HardwareAddr())

	byAddr, err := store.GetMachineByHardwareAddr(ctx, machine.HardwareAddr())
	require.NoError(t, err)
	assert.Equal(t, machine.ID(), byAddr.ID())
}

func TestStore_MachineNotFound(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	_, err := store.GetMachine(ctx, uuid.New())
	require.ErrorIs(t, err, provisioning.ErrMachineNotFound)
	require.ErrorIs(t, err, provisioning.ErrNotFound)
}

func TestStore_HostRoundTrip(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	host := createTestHost(t, ctx, store)

	loaded, err := store.GetHost(ctx, host.ID())
	require.NoError(t, err)
	assert.Equal(t, host.ID(), loaded.ID())
	assert.Equal(t, host.MachineID(), loaded.MachineID())
	assert.Equal(t, "Ubuntu-22.04", loaded.OSName())
	assert.True(t, loaded.ReinstallOS())
	assert.Equal(t, provisioning.StateUninitialized, loaded.State().State())

	byMachine, err := store.GetHostByMachine(ctx, host.MachineID())
	require.NoError(t, err)
	assert.Equal(t, host.ID(), byMachine.ID())
}

func TestStore_HostUpdatePersistsStateAndConfig(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	host := createTestHost(t, ctx, store)
	host.PatchOSConfig(provisioning.ConfigBlob{"dns": map[string]any{"nameserver": "8.8.8.8"}})
	host.MarkConfigValidated()
	host.State().ForceState(provisioning.StateInitialized)
	require.NoError(t, host.State().ApplyProgress(0.25, "partitioning", provisioning.SeverityInfo))

	require.NoError(t, store.UpdateHost(ctx, host))

	loaded, err := store.GetHost(ctx, host.ID())
	require.NoError(t, err)
	assert.Equal(t, provisioning.StateInstalling, loaded.State().State())
	assert.Equal(t, 0.25, loaded.State().Percentage())
	assert.Equal(t, "partitioning", loaded.State().Message())
	assert.True(t, loaded.ConfigValidated())
	assert.Equal(t, map[string]any{"nameserver": "8.8.8.8"}, loaded.OSConfig()["dns"])
}

func TestStore_UpdateMissingHost(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	host, err := provisioning.NewHost(uuid.New(), uuid.New(), "ghost", "Ubuntu-22.04")
	require.NoError(t, err)

	err = store.UpdateHost(ctx, host)
	require.ErrorIs(t, err, provisioning.ErrHostNotFound)
}

func TestStore_ClusterRoundTrip(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	cluster := createTestCluster(t, ctx, store)
	cluster.SeedRoles([]string{"controller", "compute"})
	cluster.MarkConfigValidated()
	require.NoError(t, store.UpdateCluster(ctx, cluster))

	loaded, err := store.GetCluster(ctx, cluster.ID())
	require.NoError(t, err)
	assert.Equal(t, cluster.Name(), loaded.Name())
	assert.Equal(t, "admin@example.com", loaded.CreatedBy())
	assert.True(t, loaded.HasAdapter())
	assert.True(t, loaded.ConfigValidated())
	assert.Equal(t, []any{"controller", "compute"}, loaded.DeployConfig()["roles"])
	assert.Equal(t, 0, loaded.Status().TotalHosts())
}

func TestStore_ClusterCountersSurviveRoundTrip(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	cluster := createTestCluster(t, ctx, store)
	cluster.State().ForceState(provisioning.StateInitialized)
	require.NoError(t, cluster.State().ApplyProgress(0.0, "deploying", provisioning.SeverityInfo))
	cluster.RecomputeProgress([]provisioning.DeployState{
		provisioning.StateSuccessful, provisioning.StateInstalling, provisioning.StateError,
	})
	require.NoError(t, store.UpdateCluster(ctx, cluster))

	loaded, err := store.GetCluster(ctx, cluster.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Status().TotalHosts())
	assert.Equal(t, 1, loaded.Status().InstallingHosts())
	assert.Equal(t, 1, loaded.Status().CompletedHosts())
	assert.Equal(t, 1, loaded.Status().FailedHosts())
	assert.Equal(t, provisioning.StateError, loaded.State().State())
}

func TestStore_ClusterHostLifecycle(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	cluster := createTestCluster(t, ctx, store)
	host := createTestHost(t, ctx, store)

	membership := provisioning.NewClusterHost(uuid.New(), cluster.ID(), host.ID())
	require.NoError(t, store.CreateClusterHost(ctx, membership))

	loaded, err := store.GetClusterHost(ctx, cluster.ID(), host.ID())
	require.NoError(t, err)
	assert.Equal(t, membership.ID(), loaded.ID())
	assert.Equal(t, provisioning.StateUninitialized, loaded.State().State())

	byHost, err := store.ListClusterHostsByHost(ctx, host.ID())
	require.NoError(t, err)
	require.Len(t, byHost, 1)

	byCluster, err := store.ListClusterHostsByCluster(ctx, cluster.ID())
	require.NoError(t, err)
	require.Len(t, byCluster, 1)

	loaded.PatchDeployConfig(provisioning.ConfigBlob{"roles": []string{"controller"}})
	require.NoError(t, store.UpdateClusterHost(ctx, loaded))

	reloaded, err := store.GetClusterHost(ctx, cluster.ID(), host.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"controller"}, reloaded.Roles())
	assert.False(t, reloaded.ConfigValidated())

	require.NoError(t, store.DeleteClusterHost(ctx, cluster.ID(), host.ID()))
	_, err = store.GetClusterHost(ctx, cluster.ID(), host.ID())
	require.ErrorIs(t, err, provisioning.ErrMembershipNotFound)
}

func TestStore_DeleteClusterCascadesMemberships(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	cluster := createTestCluster(t, ctx, store)
	host := createTestHost(t, ctx, store)
	require.NoError(t, store.CreateClusterHost(ctx, provisioning.NewClusterHost(uuid.New(), cluster.ID(), host.ID())))

	require.NoError(t, store.DeleteCluster(ctx, cluster.ID()))

	_, err := store.GetCluster(ctx, cluster.ID())
	require.ErrorIs(t, err, provisioning.ErrClusterNotFound)

	memberships, err := store.ListClusterHostsByHost(ctx, host.ID())
	require.NoError(t, err)
	assert.Empty(t, memberships)
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	machine, err := provisioning.NewMachine(uuid.New(), "52:54:00:aa:bb:cc")
	require.NoError(t, err)

	sentinel := errors.New("boom")
	err = store.WithinTx(ctx, func(ctx context.Context, st provisioning.Store) error {
		if err := st.CreateMachine(ctx, machine); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = store.GetMachine(ctx, machine.ID())
	require.ErrorIs(t, err, provisioning.ErrMachineNotFound)
}

func TestStore_WithinTxCommits(t *testing.T) {
	t.Parallel()
	ctx, _, store, cleanup := setupStoreTest(t)
	defer cleanup()

	machine, err := provisioning.NewMachine(uuid.New(), "52:54:00:dd:ee:ff")
	require.NoError(t, err)

	err = store.WithinTx(ctx, func(ctx context.Context, st provisioning.Store) error {
		return st.CreateMachine(ctx, machine)
	})
	require.NoError(t, err)

	loaded, err := store.GetMachine(ctx, machine.ID())
	require.NoError(t, err)
	assert.Equal(t, machine.ID(), loaded.ID())
}
