package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/hlscheck/internal/api/handler"
	mw "github.com/iconidentify/hlscheck/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(healthHandler *handler.HealthHandler, runsHandler *handler.RunsHandler, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health endpoints
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/runs", runsHandler.List)
		r.Get("/runs/{runID}", runsHandler.Get)
	})

	return r
}
