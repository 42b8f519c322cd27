// Package server exposes an enrichment client over HTTP, together with
// health and metrics endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/LavishGent/linernotes/internal/types"
)

// Enricher is the part of the client the server needs.
type Enricher interface {
	Enrich(ctx context.Context, rawName string) (*types.EnrichmentResult, error)
	Slots() []types.ContentType
	Health(ctx context.Context) (*types.HealthMetrics, error)
}

// Server provides HTTP endpoints for enrichment and health monitoring.
type Server struct {
	enricher Enricher
	server   *http.Server
	logger   *slog.Logger
}

// New creates a server listening on addr. A nil metrics handler leaves
// /metrics unregistered.
func New(enricher Enricher, addr string, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	s := &Server{
		enricher: enricher,
		logger:   logger.With("component", "server"),
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	mux.HandleFunc("GET /v1/enrich", s.handleEnrich)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleDetailed)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return s
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Stop is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	res, err := s.enricher.Enrich(r.Context(), name)
	if err != nil {
		s.logger.Warn("Enrich rejected", "name", name, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, NewReport(name, s.enricher.Slots(), res))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.enricher.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": types.HealthStatusUnhealthy.String()})
		return
	}

	code := http.StatusOK
	if h.Status == types.HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": h.Status.String()})
}

func (s *Server) handleDetailed(w http.ResponseWriter, r *http.Request) {
	h, err := s.enricher.Health(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
