package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	app "github.com/ironhive/provisiond/internal/app/provisioning"
	domain "github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

type stateResponse struct {
	State      string  `json:"state"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message"`
	Severity   string  `json:"severity"`
}

func newStateResponse(record domain.StateRecord) stateResponse {
	return stateResponse{
		State:      record.State().String(),
		Percentage: record.Percentage(),
		Message:    record.Message(),
		Severity:   record.Severity().String(),
	}
}

type machineResponse struct {
	ID           uuid.UUID `json:"id"`
	HardwareAddr string    `json:"hardware_addr"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdate   time.Time `json:"last_update"`
}

func newMachineResponse(m *domain.Machine) machineResponse {
	return machineResponse{
		ID:           m.ID(),
		HardwareAddr: m.HardwareAddr(),
		CreatedAt:    m.Timeline().CreatedAt(),
		LastUpdate:   m.Timeline().LastUpdate(),
	}
}

type hostResponse struct {
	ID              uuid.UUID         `json:"id"`
	MachineID       uuid.UUID         `json:"machine_id"`
	Name            string            `json:"name"`
	OSName          string            `json:"os_name"`
	ReinstallOS     bool              `json:"reinstall_os"`
	ConfigValidated bool              `json:"config_validated"`
	OSInstalled     bool              `json:"os_installed"`
	OSConfig        domain.ConfigBlob `json:"os_config"`
	State           stateResponse     `json:"state"`
	CreatedAt       time.Time         `json:"created_at"`
	LastUpdate      time.Time         `json:"last_update"`
}

func newHostResponse(h *domain.Host) hostResponse {
	return hostResponse{
		ID:              h.ID(),
		MachineID:       h.MachineID(),
		Name:            h.Name(),
		OSName:          h.OSName(),
		ReinstallOS:     h.ReinstallOS(),
		ConfigValidated: h.ConfigValidated(),
		OSInstalled:     h.OSInstalled(),
		OSConfig:        h.OSConfig(),
		State:           newStateResponse(h.State().Snapshot()),
		CreatedAt:       h.Timeline().CreatedAt(),
		LastUpdate:      h.Timeline().LastUpdate(),
	}
}

type clusterResponse struct {
	ID                         uuid.UUID         `json:"id"`
	Name                       string            `json:"name"`
	CreatedBy                  string            `json:"created_by"`
	OSName                     string            `json:"os_name"`
	AdapterName                string            `json:"adapter_name,omitempty"`
	DistributedSystemName      string            `json:"distributed_system_name,omitempty"`
	ReinstallDistributedSystem bool              `json:"reinstall_distributed_system"`
	ConfigValidated            bool              `json:"config_validated"`
	OSConfig                   domain.ConfigBlob `json:"os_config"`
	DeployConfig               domain.ConfigBlob `json:"deploy_config"`
	State                      stateResponse     `json:"state"`
	CreatedAt                  time.Time         `json:"created_at"`
	LastUpdate                 time.Time         `json:"last_update"`
}

func newClusterResponse(c *domain.Cluster) clusterResponse {
	return clusterResponse{
		ID:                         c.ID(),
		Name:                       c.Name(),
		CreatedBy:                  c.CreatedBy(),
		OSName:                     c.OSName(),
		AdapterName:                c.AdapterName(),
		DistributedSystemName:      c.DistributedSystemName(),
		ReinstallDistributedSystem: c.ReinstallDistributedSystem(),
		ConfigValidated:            c.ConfigValidated(),
		OSConfig:                   c.OSConfig(),
		DeployConfig:               c.DeployConfig(),
		State:                      newStateResponse(c.State().Snapshot()),
		CreatedAt:                  c.Timeline().CreatedAt(),
		LastUpdate:                 c.Timeline().LastUpdate(),
	}
}

type clusterHostResponse struct {
	ID              uuid.UUID         `json:"id"`
	ClusterID       uuid.UUID         `json:"cluster_id"`
	HostID          uuid.UUID         `json:"host_id"`
	ConfigValidated bool              `json:"config_validated"`
	DeployConfig    domain.ConfigBlob `json:"deploy_config"`
	Roles           []string          `json:"roles"`
	State           stateResponse     `json:"state"`
	EffectiveState  stateResponse     `json:"effective_state"`
}

func newClusterHostResponse(view *app.ClusterHostView) clusterHostResponse {
	m := view.Membership
	return clusterHostResponse{
		ID:              m.ID(),
		ClusterID:       m.ClusterID(),
		HostID:          m.HostID(),
		ConfigValidated: m.ConfigValidated(),
		DeployConfig:    m.DeployConfig(),
		Roles:           m.Roles(),
		State:           newStateResponse(m.State().Snapshot()),
		EffectiveState:  newStateResponse(view.Effective),
	}
}

type memberStatusResponse struct {
	HostID    uuid.UUID     `json:"host_id"`
	HostName  string        `json:"host_name"`
	Effective stateResponse `json:"effective_state"`
}

type clusterStatusResponse struct {
	ClusterID       uuid.UUID              `json:"cluster_id"`
	State           stateResponse          `json:"state"`
	TotalHosts      int                    `json:"total_hosts"`
	InstallingHosts int                    `json:"installing_hosts"`
	CompletedHosts  int                    `json:"completed_hosts"`
	FailedHosts     int                    `json:"failed_hosts"`
	Members         []memberStatusResponse `json:"members"`
}

func newClusterStatusResponse(view *app.ClusterStatusView) clusterStatusResponse {
	members := make([]memberStatusResponse, 0, len(view.Members))
	for _, m := range view.Members {
		members = append(members, memberStatusResponse{
			HostID:    m.HostID,
			HostName:  m.HostName,
			Effective: newStateResponse(m.Effective),
		})
	}
	return clusterStatusResponse{
		ClusterID:       view.ClusterID,
		State:           newStateResponse(view.State),
		TotalHosts:      view.TotalHosts,
		InstallingHosts: view.InstallingHosts,
		CompletedHosts:  view.CompletedHosts,
		FailedHosts:     view.FailedHosts,
		Members:         members,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	if body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error(r.Context(), "failed to encode response", "error", err)
	}
}

// respondError maps domain error kinds onto HTTP status codes.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidParameter):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState):
		status = http.StatusConflict
	default:
		s.logger.Error(r.Context(), "request failed", "error", err)
	}
	s.respond(w, r, status, errorResponse{Error: err.Error()})
}

// uuidParam parses a route parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid id: %w", name, domain.ErrInvalidParameter)
	}
	return id, nil
}

// decodeJSON decodes a request body into v, classifying malformed bodies as
// invalid parameters.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", domain.ErrInvalidParameter)
	}
	return nil
}
