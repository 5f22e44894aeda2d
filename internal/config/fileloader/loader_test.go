package fileloader

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoader_Load(t *testing.T) {
	t.Parallel()

	loader := NewFileLoader("testdata/catalog.yaml")
	catalog, err := loader.Load(context.Background())
	require.NoError(t, err)

	os, ok := catalog.OS("Ubuntu-22.04")
	require.True(t, ok)
	assert.True(t, os.Deployable)

	adapter, ok := catalog.Adapter("openstack-icehouse")
	require.True(t, ok)
	assert.Equal(t, "openstack", adapter.DistributedSystemName)
	assert.Equal(t, []string{"controller", "compute", "network"}, adapter.Roles)

	assert.Equal(t, []string{"Ubuntu-22.04"}, catalog.DeployableOSNames())
}

func TestFileLoader_Load_MissingFile(t *testing.T) {
	t.Parallel()

	loader := NewFileLoader("testdata/does-not-exist.yaml")
	_, err := loader.Load(context.Background())
	require.Error(t, err)
}
