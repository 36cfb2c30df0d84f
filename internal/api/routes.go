package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MountRoutes defines the top-level routing hierarchy.
// It registers the global middleware chain, the v1 API group, and the
// top-level operational routes (health check, Prometheus metrics).
func (s *Server) MountRoutes() {
	s.registerGlobalMiddleware()

	s.router.Route("/v1", s.mountV1)

	s.router.Get("/health", s.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// registerGlobalMiddleware applies middleware in strict order.
//
// Ordering Rationale:
//  1. Recoverer       - Catches panics; outermost to catch all failures.
//  2. ContextTimeout  - Sets soft deadline before Lambda hard timeout.
//  3. RequestID       - Generates/propagates correlation ID for tracing.
//  4. SecurityHeaders - Ensures all responses include security headers.
//  5. RequestLogger   - Structured logging (redacted headers).
//  6. Metrics         - Request latency and count recording.
func (s *Server) registerGlobalMiddleware() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(s.Config.Server.RequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))
	s.router.Use(s.MetricsMiddleware)
}

// mountV1 registers the v1 endpoints. Everything is tenant-scoped; the
// tenant ID rides in the path so handlers never guess tenancy.
func (s *Server) mountV1(r chi.Router) {
	r.Route("/tenants/{tenantID}", func(r chi.Router) {
		r.Use(TenantScopeMiddleware)

		r.Get("/notification-configs", s.HandleBulkGetConfigs)

		r.Route("/accounts/{accountID}/notification-configs", func(r chi.Router) {
			r.Get("/", s.HandleGetAccountConfigs)
			r.Put("/", s.HandleReplaceAccountConfigs)
			r.Delete("/", s.HandleDeleteAccountConfigs)
			r.Get("/{eventType}", s.HandleGetAccountConfigForEventType)
		})

		r.Route("/defaults", func(r chi.Router) {
			r.Put("/", s.HandleSetTenantDefaults)
			r.Delete("/", s.HandleDeleteTenantDefaults)
		})
	})
}
