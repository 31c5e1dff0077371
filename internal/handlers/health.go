package handlers

import (
	"context"
	"net/http"
	"time"
)

type HealthChecker interface {
	Health(ctx context.Context) error
}

// NamedCheck is one dependency probed by the health endpoints.
type NamedCheck struct {
	Name    string
	Checker HealthChecker
}

type HealthHandler struct {
	checks  []NamedCheck
	timeout time.Duration
}

func NewHealthHandler(checks ...NamedCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 5 * time.Second}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

func (h *HealthHandler) run(r *http.Request) (HealthResponse, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Checks:    make(map[string]string, len(h.checks)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	healthy := true
	for _, c := range h.checks {
		if err := c.Checker.Health(ctx); err != nil {
			healthy = false
			response.Checks[c.Name] = "unhealthy: " + err.Error()
			continue
		}
		response.Checks[c.Name] = "healthy"
	}
	if !healthy {
		response.Status = "unhealthy"
	}
	return response, healthy
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response, healthy := h.run(r)
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if _, healthy := h.run(r); !healthy {
		writeJSON(w, http.StatusServiceUnavailable, MessageResponse{Message: "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "ready"})
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "alive"})
}
