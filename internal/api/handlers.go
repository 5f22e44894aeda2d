package api

import (
	"fmt"
	"net/http"

	domain "github.com/ironhive/provisiond/internal/domain/provisioning"
	"github.com/ironhive/provisiond/pkg/common/uuid"
)

func (s *Server) handleRegisterMachine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HardwareAddr string `json:"hardware_addr"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	machine, err := s.svc.RegisterMachine(r.Context(), req.HardwareAddr)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, newMachineResponse(machine))
}

func (s *Server) handleGetMachine(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "machineID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	machine, err := s.svc.GetMachine(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, newMachineResponse(machine))
}

func (s *Server) handleCreateHost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MachineID uuid.UUID `json:"machine_id"`
		Name      string    `json:"name"`
		OSName    string    `json:"os_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	host, err := s.svc.CreateHost(r.Context(), req.MachineID, req.Name, req.OSName)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, newHostResponse(host))
}

func (s *Server) handleGetHost(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "hostID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	host, err := s.svc.GetHost(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, newHostResponse(host))
}

func (s *Server) handleDeleteHost(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "hostID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.DeleteHost(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

// configBody decodes the request body as a config blob. The body must be a
// JSON object; arrays, scalars, and null are invalid parameters.
func configBody(r *http.Request) (domain.ConfigBlob, error) {
	var blob domain.ConfigBlob
	if err := decodeJSON(r, &blob); err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, fmt.Errorf("config must be an object: %w", domain.ErrInvalidParameter)
	}
	return blob, nil
}

func (s *Server) handleHostConfigWrite(w http.ResponseWriter, r *http.Request, write func(domain.ConfigBlob, uuid.UUID) error) {
	id, err := uuidParam(r, "hostID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	blob, err := configBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := write(blob, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handlePatchHostOSConfig(w http.ResponseWriter, r *http.Request) {
	s.handleHostConfigWrite(w, r, func(blob domain.ConfigBlob, id uuid.UUID) error {
		return s.svc.PatchHostOSConfig(r.Context(), id, blob)
	})
}

func (s *Server) handlePutHostOSConfig(w http.ResponseWriter, r *http.Request) {
	s.handleHostConfigWrite(w, r, func(blob domain.ConfigBlob, id uuid.UUID) error {
		return s.svc.PutHostOSConfig(r.Context(), id, blob)
	})
}

func (s *Server) handleMarkHostConfigValidated(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "hostID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.MarkHostConfigValidated(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleRequestHostReinstall(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "hostID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.RequestHostReinstall(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusAccepted, nil)
}

type progressRequest struct {
	Percentage float64 `json:"percentage"`
	Message    string  `json:"message"`
	Severity   string  `json:"severity"`
}

func (p progressRequest) severity() (domain.Severity, error) {
	if p.Severity == "" {
		return domain.SeverityInfo, nil
	}
	return domain.ParseSeverity(p.Severity)
}

func (s *Server) handleReportHostProgress(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "hostID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	severity, err := req.severity()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%v: %w", err, domain.ErrInvalidParameter))
		return
	}

	if err := s.svc.ReportHostProgress(r.Context(), id, req.Percentage, req.Message, severity); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusAccepted, nil)
}

func (s *Server) handleCreateCluster(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		CreatedBy   string `json:"created_by"`
		OSName      string `json:"os_name"`
		AdapterName string `json:"adapter_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	cluster, err := s.svc.CreateCluster(r.Context(), req.Name, req.CreatedBy, req.OSName, req.AdapterName)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, newClusterResponse(cluster))
}

func (s *Server) handleGetCluster(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "clusterID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	cluster, err := s.svc.GetCluster(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, newClusterResponse(cluster))
}

func (s *Server) handleDeleteCluster(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "clusterID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.DeleteCluster(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleGetClusterStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "clusterID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status, err := s.svc.GetClusterStatus(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, newClusterStatusResponse(status))
}

func (s *Server) handleClusterConfigWrite(w http.ResponseWriter, r *http.Request, write func(domain.ConfigBlob, uuid.UUID) error) {
	id, err := uuidParam(r, "clusterID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	blob, err := configBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := write(blob, id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handlePatchClusterOSConfig(w http.ResponseWriter, r *http.Request) {
	s.handleClusterConfigWrite(w, r, func(blob domain.ConfigBlob, id uuid.UUID) error {
		return s.svc.PatchClusterOSConfig(r.Context(), id, blob)
	})
}

func (s *Server) handlePutClusterOSConfig(w http.ResponseWriter, r *http.Request) {
	s.handleClusterConfigWrite(w, r, func(blob domain.ConfigBlob, id uuid.UUID) error {
		return s.svc.PutClusterOSConfig(r.Context(), id, blob)
	})
}

func (s *Server) handlePatchClusterDeployConfig(w http.ResponseWriter, r *http.Request) {
	s.handleClusterConfigWrite(w, r, func(blob domain.ConfigBlob, id uuid.UUID) error {
		return s.svc.PatchClusterDeployConfig(r.Context(), id, blob)
	})
}

func (s *Server) handlePutClusterDeployConfig(w http.ResponseWriter, r *http.Request) {
	s.handleClusterConfigWrite(w, r, func(blob domain.ConfigBlob, id uuid.UUID) error {
		return s.svc.PutClusterDeployConfig(r.Context(), id, blob)
	})
}

func (s *Server) handleMarkClusterConfigValidated(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "clusterID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.MarkClusterConfigValidated(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleRequestClusterReinstall(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "clusterID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.RequestClusterReinstall(r.Context(), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusAccepted, nil)
}

func (s *Server) handleReportClusterProgress(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "clusterID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	severity, err := req.severity()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%v: %w", err, domain.ErrInvalidParameter))
		return
	}

	if err := s.svc.ReportClusterProgress(r.Context(), id, req.Percentage, req.Message, severity); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusAccepted, nil)
}

// membershipIDs extracts the cluster and host ids shared by every membership
// route.
func membershipIDs(r *http.Request) (clusterID, hostID uuid.UUID, err error) {
	clusterID, err = uuidParam(r, "clusterID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	hostID, err = uuidParam(r, "hostID")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return clusterID, hostID, nil
}

func (s *Server) handleAddClusterHost(w http.ResponseWriter, r *http.Request) {
	clusterID, err := uuidParam(r, "clusterID")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req struct {
		HostID uuid.UUID `json:"host_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	membership, err := s.svc.AddClusterHost(r.Context(), clusterID, req.HostID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := s.svc.GetClusterHost(r.Context(), clusterID, membership.HostID())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusCreated, newClusterHostResponse(view))
}

func (s *Server) handleGetClusterHost(w http.ResponseWriter, r *http.Request) {
	clusterID, hostID, err := membershipIDs(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	view, err := s.svc.GetClusterHost(r.Context(), clusterID, hostID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusOK, newClusterHostResponse(view))
}

func (s *Server) handleRemoveClusterHost(w http.ResponseWriter, r *http.Request) {
	clusterID, hostID, err := membershipIDs(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.RemoveClusterHost(r.Context(), clusterID, hostID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleMembershipConfigWrite(w http.ResponseWriter, r *http.Request, write func(domain.ConfigBlob, uuid.UUID, uuid.UUID) error) {
	clusterID, hostID, err := membershipIDs(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	blob, err := configBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := write(blob, clusterID, hostID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handlePatchClusterHostDeployConfig(w http.ResponseWriter, r *http.Request) {
	s.handleMembershipConfigWrite(w, r, func(blob domain.ConfigBlob, clusterID, hostID uuid.UUID) error {
		return s.svc.PatchClusterHostDeployConfig(r.Context(), clusterID, hostID, blob)
	})
}

func (s *Server) handlePutClusterHostDeployConfig(w http.ResponseWriter, r *http.Request) {
	s.handleMembershipConfigWrite(w, r, func(blob domain.ConfigBlob, clusterID, hostID uuid.UUID) error {
		return s.svc.PutClusterHostDeployConfig(r.Context(), clusterID, hostID, blob)
	})
}

func (s *Server) handlePatchClusterHostOSConfig(w http.ResponseWriter, r *http.Request) {
	s.handleMembershipConfigWrite(w, r, func(blob domain.ConfigBlob, clusterID, hostID uuid.UUID) error {
		return s.svc.PatchClusterHostOSConfig(r.Context(), clusterID, hostID, blob)
	})
}

func (s *Server) handlePutClusterHostOSConfig(w http.ResponseWriter, r *http.Request) {
	s.handleMembershipConfigWrite(w, r, func(blob domain.ConfigBlob, clusterID, hostID uuid.UUID) error {
		return s.svc.PutClusterHostOSConfig(r.Context(), clusterID, hostID, blob)
	})
}

func (s *Server) handleMarkClusterHostConfigValidated(w http.ResponseWriter, r *http.Request) {
	clusterID, hostID, err := membershipIDs(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.svc.MarkClusterHostConfigValidated(r.Context(), clusterID, hostID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleReportMembershipProgress(w http.ResponseWriter, r *http.Request) {
	clusterID, hostID, err := membershipIDs(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	severity, err := req.severity()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%v: %w", err, domain.ErrInvalidParameter))
		return
	}

	if err := s.svc.ReportMembershipProgress(r.Context(), clusterID, hostID, req.Percentage, req.Message, severity); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, r, http.StatusAccepted, nil)
}
