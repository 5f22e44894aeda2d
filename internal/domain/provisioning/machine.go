package provisioning

import (
	"fmt"
	"strings"

	"github.com/ironhive/provisiond/pkg/common/uuid"
)

// Machine is a physical box identified by its hardware address. A machine
// owns at most one Host, created when the machine is claimed for
// provisioning.
type Machine struct {
	id           uuid.UUID
	hardwareAddr string
	timeline     *Timeline
}

// NewMachine registers a machine under its hardware address. The address is
// opaque to this core; it only needs to be present.
func NewMachine(id uuid.UUID, hardwareAddr string) (*Machine, error) {
	if strings.TrimSpace(hardwareAddr) == "" {
		return nil, fmt.Errorf("%w: hardware address is required", ErrInvalidParameter)
	}
	return &Machine{
		id:           id,
		hardwareAddr: hardwareAddr,
		timeline:     NewTimeline(new(realTimeProvider)),
	}, nil
}

// ReconstructMachine creates a Machine from stored fields, bypassing creation
// invariants. This should only be used by repositories when loading from the DB.
func ReconstructMachine(id uuid.UUID, hardwareAddr string, timeline *Timeline) *Machine {
	return &Machine{
		id:           id,
		hardwareAddr: hardwareAddr,
		timeline:     timeline,
	}
}

// ID returns the unique identifier for this machine.
func (m *Machine) ID() uuid.UUID { return m.id }

// HardwareAddr returns the hardware address this machine was registered under.
func (m *Machine) HardwareAddr() string { return m.hardwareAddr }

// Timeline provides access to the machine's timestamps.
func (m *Machine) Timeline() *Timeline { return m.timeline }
