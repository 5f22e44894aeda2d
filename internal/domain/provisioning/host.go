package provisioning

import (
	"fmt"
	"strings"

	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// Host is a machine being provisioned with an operating system. It owns a
// StateRecord for OS-install progress, an OS configuration blob, and the
// flags that gate re-entry into installation.
type Host struct {
	id        uuid.UUID
	machineID uuid.UUID
	name      string
	osName    string

	reinstallOS     bool
	configValidated bool
	osConfig        ConfigBlob

	state    *StateRecord
	timeline *Timeline
}

// NewHost claims a machine as a host to be provisioned. The host's
// StateRecord is created atomically with it. A host without an OS cannot be
// installed, so osName is required. A fresh host always wants an OS install,
// hence reinstallOS starts true.
func NewHost(id, machineID uuid.UUID, name, osName string) (*Host, error) {
	if strings.TrimSpace(osName) == "" {
		return nil, fmt.Errorf("%w: os is not set in host %s", ErrInvalidParameter, id)
	}
	if name == "" {
		name = id.String()
	}
	return &Host{
		id:          id,
		machineID:   machineID,
		name:        name,
		osName:      osName,
		reinstallOS: true,
		osConfig:    ConfigBlob{},
		state:       NewStateRecord(),
		timeline:    NewTimeline(new(realTimeProvider)),
	}, nil
}

// ReconstructHost creates a Host from stored fields, bypassing creation
// invariants. This should only be used by repositories when loading from the DB.
func ReconstructHost(
	id, machineID uuid.UUID,
	name, osName string,
	reinstallOS, configValidated bool,
	osConfig ConfigBlob,
	state *StateRecord,
	timeline *Timeline,
) *Host {
	return &Host{
		id:              id,
		machineID:       machineID,
		name:            name,
		osName:          osName,
		reinstallOS:     reinstallOS,
		configValidated: configValidated,
		osConfig:        osConfig,
		state:           state,
		timeline:        timeline,
	}
}

// ID returns the unique identifier for this host.
func (h *Host) ID() uuid.UUID { return h.id }

// MachineID returns the identifier of the machine this host runs on.
func (h *Host) MachineID() uuid.UUID { return h.machineID }

// Name returns the host's name.
func (h *Host) Name() string { return h.name }

// OSName returns the operating system this host installs.
func (h *Host) OSName() string { return h.osName }

// ReinstallOS reports whether an OS reinstall has been requested.
func (h *Host) ReinstallOS() bool { return h.reinstallOS }

// ConfigValidated reports whether the current OS config passed the external
// validation pass since its last write.
func (h *Host) ConfigValidated() bool { return h.configValidated }

// OSConfig returns the host's OS configuration blob.
func (h *Host) OSConfig() ConfigBlob { return h.osConfig }

// State returns the host's OS-install state record.
func (h *Host) State() *StateRecord { return h.state }

// Timeline provides access to the host's timestamps.
func (h *Host) Timeline() *Timeline { return h.timeline }

// OSInstalled reports whether the host's OS install has completed.
func (h *Host) OSInstalled() bool { return h.state.State() == StateSuccessful }

// RequestReinstall flags the host for an OS reinstall. The flag takes effect
// through ApplyPendingReinstall once the current install has finished.
func (h *Host) RequestReinstall() { h.reinstallOS = true }

// ClearReinstall drops the reinstall flag. Called when the install actually
// begins, so a finished install does not restart itself.
func (h *Host) ClearReinstall() { h.reinstallOS = false }

// ApplyPendingReinstall re-enters the install lifecycle when a reinstall has
// been requested and the previous install is finished. A validated config
// resumes at INITIALIZED; an unvalidated one restarts at UNINITIALIZED.
// Returns true if the host's state changed.
func (h *Host) ApplyPendingReinstall() bool {
	if !h.reinstallOS || !h.state.State().IsTerminal() {
		return false
	}
	if h.configValidated {
		h.state.ForceState(StateInitialized)
	} else {
		h.state.ForceState(StateUninitialized)
	}
	return true
}

// PatchOSConfig deep-merges partial into the host's OS config and invalidates
// prior validation.
func (h *Host) PatchOSConfig(partial ConfigBlob) {
	h.osConfig = h.osConfig.Patch(partial)
	h.configValidated = false
}

// PutOSConfig overwrites top-level keys of the host's OS config and
// invalidates prior validation.
func (h *Host) PutOSConfig(update ConfigBlob) {
	h.osConfig = h.osConfig.Put(update)
	h.configValidated = false
}

// MarkConfigValidated records that the external validation pass accepted the
// current OS config. It stays true until the next config write.
func (h *Host) MarkConfigValidated() { h.configValidated = true }
