// Package server runs the local read-only dashboard: cached reads of
// remote state for the analyst's browser plus the response actions,
// sharing one cache with the CLI so concurrent polls deduplicate.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/SahilWadhwani/threathunt-console/internal/cases"
	"github.com/SahilWadhwani/threathunt-console/internal/detections"
	"github.com/SahilWadhwani/threathunt-console/internal/metrics"
	"github.com/SahilWadhwani/threathunt-console/internal/notify"
	"github.com/SahilWadhwani/threathunt-console/internal/rbac"
	"github.com/SahilWadhwani/threathunt-console/internal/respond"
	"github.com/SahilWadhwani/threathunt-console/internal/session"
	"github.com/SahilWadhwani/threathunt-console/internal/workflow"
)

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server serves the local console dashboard.
type Server struct {
	cfg        Config
	sess       *session.Store
	gate       *rbac.Gate
	detections *detections.Service
	cases      *cases.Service
	respond    *respond.Service
	metrics    *metrics.Service
	orch       *workflow.Orchestrator
	hub        *notify.Hub
	router     chi.Router
	httpServer *http.Server
}

// New creates a dashboard server over the console's shared services.
func New(cfg Config, sess *session.Store, gate *rbac.Gate, det *detections.Service, cs *cases.Service, rs *respond.Service, ms *metrics.Service, orch *workflow.Orchestrator, hub *notify.Hub) *Server {
	s := &Server{
		cfg:        cfg,
		sess:       sess,
		gate:       gate,
		detections: det,
		cases:      cs,
		respond:    rs,
		metrics:    ms,
		orch:       orch,
		hub:        hub,
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	s.registerRoutes(r)
	return r
}

// Router returns the chi router, used by tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Printf("dashboard listening on http://localhost:%d", s.cfg.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
