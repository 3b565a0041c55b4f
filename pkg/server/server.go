// Package server exposes the analysis pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz                      liveness and build info
//	POST /v1/analyses                  run an analysis (pipeline.Options body)
//	GET  /v1/analyses/{id}             run statistics
//	GET  /v1/analyses/{id}/{format}    one rendered artifact
//
// Each POST is assigned a UUID run ID. Its artifacts are stored in the
// runner's cache under run keys and expire after [cache.TTLRun].
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sbrg/gds/pkg/buildinfo"
	"github.com/sbrg/gds/pkg/cache"
	"github.com/sbrg/gds/pkg/config"
	"github.com/sbrg/gds/pkg/pipeline"
)

// maxBodyBytes bounds analysis request bodies.
const maxBodyBytes = 1 << 20

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
	// newID issues run IDs; replaced in tests.
	newID func() string
}

// New builds the router. The runner's cache holds run artifacts, so a
// NullCache runner can execute analyses but not serve their artifacts.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger, newID: newRunID}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/analyses", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleStats)
		r.Get("/{id}/{format}", s.handleArtifact)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{Code: "NOT_FOUND", Message: "no such route"}})
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// ListenAndServe serves on cfg.Addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// healthChecker is implemented by sources that hold a connection.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
	}
	status := http.StatusOK
	if s.runner.Source != nil {
		body["source"] = s.runner.Source.Describe()
		if hc, ok := s.runner.Source.(healthChecker); ok {
			if err := hc.HealthCheck(r.Context()); err != nil {
				s.logger.Warn("health check failed", "err", err)
				body["status"] = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

var _ http.Handler = (*Server)(nil)

// keyer returns the runner's keyer or the default one.
func (s *Server) keyer() cache.Keyer {
	if s.runner.Keyer != nil {
		return s.runner.Keyer
	}
	return cache.NewDefaultKeyer()
}
