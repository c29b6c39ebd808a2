package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store RunStore
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store RunStore) *HealthHandler {
	return &HealthHandler{store: store}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.store.ListRuns(ctx, 1); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:    "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
