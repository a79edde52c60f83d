// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/trinhvq/mentora/internal/mentorship/mentor"
	"github.com/trinhvq/mentora/internal/mentorship/session"
	"github.com/trinhvq/mentora/internal/notify"
	"github.com/trinhvq/mentora/internal/platform/config"
	"github.com/trinhvq/mentora/internal/platform/constants"
	"github.com/trinhvq/mentora/internal/platform/middleware"
	"github.com/trinhvq/mentora/internal/users/auth"
	"github.com/trinhvq/mentora/internal/users/role"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles authentication routes (login, register, refresh).
	Auth *auth.Handler

	// Role handles role resolution and administration.
	Role *role.Handler

	// Mentor handles the mentor directory and its rollups.
	Mentor *mentor.Handler

	// Session handles the booking lifecycle and feedback.
	Session *session.Handler

	// Events streams live change events over websocket.
	Events *notify.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution. The request timeout is
	// NOT global: it is added per group below, because the websocket events
	// stream is long-lived and must not inherit a request deadline.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(verifier))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Group(func(infra chi.Router) {
		infra.Use(chimw.Timeout(constants.GlobalRequestTimeout))
		infra.Get("/health", h.Liveness)
		infra.Get("/ready", h.Readiness)
	})

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(rest chi.Router) {
			rest.Use(chimw.Timeout(constants.GlobalRequestTimeout))
			rest.Mount("/auth", h.Auth.Routes())
			rest.Mount("/roles", h.Role.Routes())
			rest.Mount("/mentors", h.Mentor.Routes())
			rest.Mount("/sessions", h.Session.Routes())
		})

		// Mounted outside the timeout group: subscriptions stay open for the
		// lifetime of the dashboard, bounded by the ping/pong deadlines in
		// the pumps instead of a request deadline.
		api.Mount("/events", h.Events.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the composed router, so tests can serve it directly.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
