// Package core provides the API chassis for the Eprice service. It creates a
// chi router and enforces cross-cutting concerns -- panic recovery, request
// correlation, logging, and error handling -- before requests reach the
// domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"eprice/internal/config"
)

// RouteRegistrar mounts one domain handler's routes under the /v1 group.
// Handlers register themselves via this indirection so core never imports
// handler packages.
type RouteRegistrar func(r chi.Router)

// Server encapsulates the router and cross-cutting dependencies of the API,
// allowing injection during testing and distinct configuration per
// environment.
type Server struct {
	Config    *config.Config
	Logger    *slog.Logger
	Validator *Validator

	// HealthProbes are checked by GET /health; register one per critical
	// dependency.
	HealthProbes []HealthProbe

	// V1RouteRegistrars is populated by the application entry point before
	// MountRoutes.
	V1RouteRegistrars []RouteRegistrar

	router *chi.Mux
}

// NewServer initializes the chassis and prepares the router for route
// mounting. The caller registers handlers on V1RouteRegistrars and then calls
// MountRoutes.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(logger),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration in tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown logs the shutdown; resource owners (the connection pool, the
// scheduler) are closed by the entry point, which owns their lifecycles.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown complete")
	return nil
}
