// Package api wires the HTTP surface: routing, middleware chains, and the
// handlers for ingestion, analytics queries, credential lifecycle, and
// account provisioning.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ita004/analytics-engine/pkg/analytics"
	"github.com/ita004/analytics-engine/pkg/credentials"
	"github.com/ita004/analytics-engine/pkg/events"
	"github.com/ita004/analytics-engine/pkg/middleware"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

// Server is the public API surface
type Server struct {
	router    *mux.Router
	logger    *observability.Logger
	debug     bool
	traceWrap bool
}

// Deps carries the constructed services the server routes to
type Deps struct {
	Store     *storage.Store
	Validator *credentials.Validator
	Lifecycle *credentials.Service
	Writer    *events.Writer
	Analytics *analytics.Service
	Throttle  *middleware.Throttle
	Session   middleware.SessionResolver
	Logger    *observability.Logger
	Metrics   *observability.Metrics

	// Debug exposes internal error detail in failure envelopes
	Debug bool
	// Tracing wraps the router in HTTP span instrumentation
	Tracing bool
}

// NewServer creates the API server and mounts all routes
func NewServer(deps Deps) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		logger:    deps.Logger,
		debug:     deps.Debug,
		traceWrap: deps.Tracing,
	}
	s.setupRoutes(deps)
	return s
}

// setupRoutes configures all the API routes and their middleware chains
func (s *Server) setupRoutes(deps Deps) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Session(deps.Session))
	s.router.Use(deps.Throttle.LimitGlobal())

	ingest := NewIngestHandlers(deps.Writer, deps.Logger, deps.Debug)
	queries := NewAnalyticsHandlers(deps.Analytics, deps.Logger, deps.Debug)
	apps := NewCredentialHandlers(deps.Lifecycle, deps.Debug)
	accounts := NewAccountHandlers(deps.Store, deps.Debug)

	// Ingestion: credential required, throttled per credential
	ingestRouter := s.router.PathPrefix("/api/events").Subrouter()
	ingestRouter.Use(deps.Throttle.LimitIngest())
	ingestRouter.Use(middleware.APIKeyAuth(deps.Validator, deps.Logger, deps.Metrics, true))
	registerAll(ingestRouter, ingest)

	// Analytics queries: session or credential identity, throttled per caller
	queryRouter := s.router.PathPrefix("/api/analytics").Subrouter()
	queryRouter.Use(deps.Throttle.LimitQuery())
	queryRouter.Use(middleware.APIKeyAuth(deps.Validator, deps.Logger, deps.Metrics, false))
	queryRouter.Use(middleware.RequireIdentity)
	registerAll(queryRouter, queries)

	// Credential lifecycle: session only
	appRouter := s.router.PathPrefix("/api/apps").Subrouter()
	appRouter.Use(middleware.RequireSession)
	registerAll(appRouter, apps)

	// Account provisioning and profile
	registerAll(s.router, accounts)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server's root handler, trace-wrapped when enabled
func (s *Server) Handler() http.Handler {
	if s.traceWrap {
		return otelhttp.NewHandler(s.router, "analytics-api")
	}
	return s.router
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// registerAll mounts each registrar's routes on the router
func registerAll(router *mux.Router, registrars ...RouteRegistrar) {
	for _, reg := range registrars {
		reg.RegisterRoutes(router)
	}
}
