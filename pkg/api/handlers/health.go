package handlers

import (
	"net/http"
	"time"

	"github.com/marmos91/lifeline/pkg/lifecycle"
)

// StateProbe reports the current lifecycle state of the host.
// *lifecycle.Orchestrator satisfies it.
type StateProbe interface {
	State() lifecycle.State
}

// HealthHandler handles health check and status endpoints.
//
// Health endpoints are unauthenticated and provide:
//   - Liveness probe: Is the server process running?
//   - Readiness probe: Is the host's workload running?
//   - Status: The current lifecycle state of the host
type HealthHandler struct {
	probe     StateProbe
	startedAt time.Time
}

// NewHealthHandler creates a new health handler.
//
// The probe parameter may be nil, in which case the readiness check returns
// unhealthy and the status endpoint reports no host.
func NewHealthHandler(probe StateProbe) *HealthHandler {
	return &HealthHandler{probe: probe, startedAt: time.Now().UTC()}
}

// Liveness handles GET /health - simple liveness probe.
//
// Returns 200 OK if the server process is running. Designed for Kubernetes
// liveness probes; it succeeds as long as the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "lifeline",
	}))
}

// Readiness handles GET /health/ready - readiness probe.
//
// Returns 200 OK only while the host's workload is running. During
// initialization, teardown, or after the run finished it returns
// 503 Service Unavailable with the current state.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.probe == nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("no host attached"))
		return
	}

	state := h.probe.State()
	if state != lifecycle.StateRunning {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("host not running: "+state.String()))
		return
	}

	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"state": state.String(),
	}))
}

// StatusResponse describes the host's lifecycle position.
type StatusResponse struct {
	State    string `json:"state"`
	Terminal bool   `json:"terminal"`
	Uptime   string `json:"uptime"`
}

// Status handles GET /status - current lifecycle state.
//
// Always returns 200 OK; the body carries the state. Useful for operators
// watching a host move through initialization and teardown.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.probe == nil {
		writeJSON(w, http.StatusOK, okResponse(StatusResponse{
			State:  "unknown",
			Uptime: time.Since(h.startedAt).Round(time.Millisecond).String(),
		}))
		return
	}

	state := h.probe.State()
	writeJSON(w, http.StatusOK, okResponse(StatusResponse{
		State:    state.String(),
		Terminal: state.Terminal(),
		Uptime:   time.Since(h.startedAt).Round(time.Millisecond).String(),
	}))
}
