// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

// Command api is the entry point for the Mentora HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Start background workers (event bridge, stats listener, session janitor).
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trinhvq/mentora/internal/api"
	"github.com/trinhvq/mentora/internal/mentorship/mentor"
	"github.com/trinhvq/mentora/internal/mentorship/session"
	"github.com/trinhvq/mentora/internal/mentorship/stats"
	"github.com/trinhvq/mentora/internal/notify"
	"github.com/trinhvq/mentora/internal/platform/config"
	"github.com/trinhvq/mentora/internal/platform/constants"
	"github.com/trinhvq/mentora/internal/platform/migration"
	pgstore "github.com/trinhvq/mentora/internal/platform/postgres"
	redisstore "github.com/trinhvq/mentora/internal/platform/redis"
	"github.com/trinhvq/mentora/internal/platform/sec"
	"github.com/trinhvq/mentora/internal/users/auth"
	"github.com/trinhvq/mentora/internal/users/role"
)

// sessionJanitorInterval is how often elapsed scheduled sessions are swept
// into the completed state.
const sessionJanitorInterval = time.Minute

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "mentora"))
	slog.SetDefault(log)

	log.Info("[Mentora] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "mentora"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Root context for long-running workers. Cancelled during shutdown so the
	// event bridge, stats listener, and janitor stop cleanly.
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(probeContext context.Context) error {
			return pgstore.Ping(probeContext, pool)
		},
		CheckCache: func(probeContext context.Context) error {
			return redisstore.Ping(probeContext, rdb)
		},
	}, log)

	// ── 8. Change Notification Fabric ─────────────────────────────────────
	// Events flow service → Redis channel → bridge → in-process hub, so every
	// API replica sees changes made on any other replica.
	hub := notify.NewHub(log)
	publisher := notify.NewRedisPublisher(rdb, log)
	bridge := notify.NewBridge(rdb, hub, log)
	eventsHandler := notify.NewHandler(hub, log)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	roleRepository := role.NewPostgresRepository(pool)
	roleService := role.NewService(roleRepository, log)
	roleHandler := role.NewHandler(roleService)

	userRepository := auth.NewPostgresUserRepository(pool)
	sessionRepository := auth.NewRedisSessionRepository(rdb)
	authService := auth.NewService(userRepository, sessionRepository, roleService, jwtSvc, log)
	authHandler := auth.NewHandler(authService)

	statsRepository := stats.NewPostgresRepository(pool)
	statsService := stats.NewService(statsRepository, publisher, log)
	statsListener := stats.NewListener(statsService, hub, log)

	mentorRepository := mentor.NewPostgresRepository(pool)
	mentorService := mentor.NewService(mentorRepository, roleService, publisher, log)
	mentorHandler := mentor.NewHandler(mentorService, statsService)

	bookingRepository := session.NewPostgresRepository(pool)
	bookingService := session.NewService(bookingRepository, publisher, log)
	bookingHandler := session.NewHandler(bookingService)

	// ── 10. Background Workers ────────────────────────────────────────────
	go bridge.Run(runCtx)
	go statsListener.Run(runCtx)
	go runSessionJanitor(runCtx, bookingService, log)

	// ── 11. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Role:      roleHandler,
		Mentor:    mentorHandler,
		Session:   bookingHandler,
		Events:    eventsHandler,
	}

	server := api.NewServer(runCtx, cfg, log, jwtSvc, handlers)

	// ── 12. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Stop background workers before draining HTTP so no new events are
	// produced while connections close.
	runCancel()

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// runSessionJanitor periodically completes scheduled sessions whose time slot
// has fully elapsed. The sweep is idempotent, so overlapping replicas are safe.
func runSessionJanitor(runContext context.Context, service *session.Service, log *slog.Logger) {
	ticker := time.NewTicker(sessionJanitorInterval)
	defer ticker.Stop()

	log.Info("session_janitor_started", slog.Duration("interval", sessionJanitorInterval))
	for {
		select {
		case <-runContext.Done():
			log.Info("session_janitor_stopped")
			return
		case <-ticker.C:
			if _, err := service.CompleteElapsed(runContext); err != nil {
				log.Error("session_janitor_sweep_failed", slog.Any("error", err))
			}
		}
	}
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
