package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iconidentify/hlscheck/internal/domain"
)

// RunStore is the read surface of the run-history store.
type RunStore interface {
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
	GetRun(ctx context.Context, id domain.RunID) (domain.Run, error)
}

// RunsHandler serves recorded validation runs.
type RunsHandler struct {
	store RunStore
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(store RunStore) *RunsHandler {
	return &RunsHandler{store: store}
}

// ListResponse is the JSON response for run listings.
type ListResponse struct {
	Runs []domain.Run `json:"runs"`
}

// List handles GET /api/v1/runs.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{Runs: runs})
}

// Get handles GET /api/v1/runs/{runID}.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")

	run, err := h.store.GetRun(r.Context(), domain.RunID(id))
	if errors.Is(err, domain.ErrRunNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
