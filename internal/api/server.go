// Package api provides the admin HTTP surface for the billmail service.
// It creates a chi router and enforces cross-cutting concerns -- logging,
// observability, and error handling -- before requests reach the
// configuration handlers.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"billmail/internal/config"
	"billmail/internal/gate"
	"billmail/internal/types"
)

// Server encapsulates all dependencies for the admin API, allowing for easy
// injection during testing and distinct configuration for different
// environments.
type Server struct {
	Config   *config.Config
	Store    types.ConfigStore
	Defaults *gate.TenantDefaults
	Logger   *slog.Logger
	Clock    types.Clock

	router *chi.Mux
}

// NewServer initializes dependencies, sets up the router, and prepares the
// server for route mounting. It performs a "fail-fast" check on critical
// configuration.
//
// The caller is responsible for mounting routes (via MountRoutes) after
// construction. This separation allows tests to customize route registration.
func NewServer(
	cfg *config.Config,
	store types.ConfigStore,
	defaults *gate.TenantDefaults,
	logger *slog.Logger,
) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("config store must not be nil")
	}
	if defaults == nil {
		return nil, fmt.Errorf("tenant defaults must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:   cfg,
		Store:    store,
		Defaults: defaults,
		Logger:   logger,
		Clock:    types.RealClock{},
		router:   chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Shutdown performs a graceful termination of server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	if closer, ok := s.Store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.Logger.Error("error closing store connections", "error", err)
			return fmt.Errorf("closing store connections: %w", err)
		}
	}

	s.Logger.Info("server shutdown complete")
	return nil
}
