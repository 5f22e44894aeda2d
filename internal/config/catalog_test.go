package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(
		[]OSSpec{
			{Name: "Ubuntu-22.04", Deployable: true},
			{Name: "CentOS-6.5", Deployable: false},
		},
		[]Adapter{
			{Name: "openstack-icehouse", DistributedSystemName: "openstack", Roles: []string{"controller", "compute", "network"}, Deployable: true},
			{Name: "ceph-firefly", DistributedSystemName: "ceph", Roles: []string{"mon", "osd"}, Deployable: false},
		},
	)
	require.NoError(t, err)
	return c
}

func TestCatalog_Lookups(t *testing.T) {
	t.Parallel()
	c := testCatalog(t)

	os, ok := c.OS("Ubuntu-22.04")
	require.True(t, ok)
	assert.True(t, os.Deployable)

	_, ok = c.OS("Windows-11")
	assert.False(t, ok)

	adapter, ok := c.Adapter("openstack-icehouse")
	require.True(t, ok)
	assert.Equal(t, "openstack", adapter.DistributedSystemName)
	assert.Contains(t, adapter.Roles, "compute")

	_, ok = c.Adapter("unknown")
	assert.False(t, ok)
}

func TestCatalog_DeployableNames(t *testing.T) {
	t.Parallel()
	c := testCatalog(t)

	assert.Equal(t, []string{"Ubuntu-22.04"}, c.DeployableOSNames())
	assert.Equal(t, []string{"openstack-icehouse"}, c.DeployableAdapterNames())
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog([]OSSpec{{Name: "a"}, {Name: "a"}}, nil)
	require.Error(t, err)

	_, err = NewCatalog(nil, []Adapter{{Name: "x"}, {Name: "x"}})
	require.Error(t, err)
}

func TestNewCatalog_RejectsMissingNames(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog([]OSSpec{{Deployable: true}}, nil)
	require.Error(t, err)

	_, err = NewCatalog(nil, []Adapter{{DistributedSystemName: "openstack"}})
	require.Error(t, err)
}
