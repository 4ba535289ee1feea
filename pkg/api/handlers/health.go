package handlers

import (
	"net/http"
	"time"
)

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Server    string    `json:"server,omitempty"`
	Running   bool      `json:"running"`
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	backend Backend
}

func NewHealthHandler(backend Backend) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// Liveness always reports healthy while the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Timestamp: time.Now().UTC()}
	if h.backend != nil {
		info := h.backend.Info()
		resp.Server = info.Name
		resp.Running = info.Running
	}
	WriteJSONOK(w, resp)
}

// Readiness reports 503 until the TCP server is accepting.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.backend == nil || !h.backend.Info().Running {
		ServiceUnavailable(w, "server is not running")
		return
	}
	h.Liveness(w, r)
}
