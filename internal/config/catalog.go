// Package config defines the adapter catalog: the externally supplied list of
// operating systems and distributed-system adapters that clusters and hosts
// may reference. The provisioning core treats catalog entries as opaque; it
// only checks that referenced names exist and copies adapter metadata onto
// new entities.
package config

import (
	"fmt"
	"sort"
)

// OSSpec describes an installable operating system.
type OSSpec struct {
	// Name is the catalog key hosts and clusters reference, e.g. "Ubuntu-22.04".
	Name string `yaml:"name"`

	// Deployable marks whether new installs may use this OS. Catalog entries
	// for deprecated OSes stay listed so existing hosts remain readable.
	Deployable bool `yaml:"deployable"`
}

// Adapter describes a distributed-system adapter: the component that deploys
// a software stack onto a cluster's hosts once their OS installs finish.
type Adapter struct {
	// Name is the catalog key clusters reference, e.g. "openstack-icehouse".
	Name string `yaml:"name"`

	// DistributedSystemName identifies the software stack the adapter deploys.
	DistributedSystemName string `yaml:"distributed_system_name"`

	// Roles is the set of role names members of the cluster may take.
	Roles []string `yaml:"roles"`

	// Deployable marks whether new clusters may use this adapter.
	Deployable bool `yaml:"deployable"`
}

// Catalog is the full adapter catalog.
type Catalog struct {
	OSes     []OSSpec  `yaml:"oses"`
	Adapters []Adapter `yaml:"adapters"`

	osIndex      map[string]OSSpec
	adapterIndex map[string]Adapter
}

// NewCatalog builds a catalog from explicit entries. Used by tests and by
// loaders after unmarshaling.
func NewCatalog(oses []OSSpec, adapters []Adapter) (*Catalog, error) {
	c := &Catalog{OSes: oses, Adapters: adapters}
	if err := c.buildIndexes(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) buildIndexes() error {
	c.osIndex = make(map[string]OSSpec, len(c.OSes))
	for _, os := range c.OSes {
		if os.Name == "" {
			return fmt.Errorf("catalog os entry missing name")
		}
		if _, dup := c.osIndex[os.Name]; dup {
			return fmt.Errorf("duplicate os %q in catalog", os.Name)
		}
		c.osIndex[os.Name] = os
	}

	c.adapterIndex = make(map[string]Adapter, len(c.Adapters))
	for _, a := range c.Adapters {
		if a.Name == "" {
			return fmt.Errorf("catalog adapter entry missing name")
		}
		if _, dup := c.adapterIndex[a.Name]; dup {
			return fmt.Errorf("duplicate adapter %q in catalog", a.Name)
		}
		c.adapterIndex[a.Name] = a
	}
	return nil
}

// OS returns the named OS spec. The second return reports whether it exists.
func (c *Catalog) OS(name string) (OSSpec, bool) {
	os, ok := c.osIndex[name]
	return os, ok
}

// Adapter returns the named adapter. The second return reports whether it
// exists.
func (c *Catalog) Adapter(name string) (Adapter, bool) {
	a, ok := c.adapterIndex[name]
	return a, ok
}

// DeployableOSNames returns the sorted names of OSes new installs may use.
func (c *Catalog) DeployableOSNames() []string {
	var names []string
	for name, os := range c.osIndex {
		if os.Deployable {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DeployableAdapterNames returns the sorted names of adapters new clusters
// may use.
func (c *Catalog) DeployableAdapterNames() []string {
	var names []string
	for name, a := range c.adapterIndex {
		if a.Deployable {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
