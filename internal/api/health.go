// Copyright (c) 2026 Mentora. All rights reserved.
// Author: viet.trinhquoc@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/trinhvq/mentora/internal/platform/respond"
)

// # Health Check Definitions

// healthProbeTimeout bounds each dependency check so a hung dependency
// cannot stall the readiness endpoint.
const healthProbeTimeout = 2 * time.Second

// HealthDependencies holds the probe functions for each external dependency.
//
// Probes are plain closures so cmd/api can bind them to pool.Ping and
// client.Ping without this package importing the drivers.
type HealthDependencies struct {
	CheckDatabase func(context.Context) error
	CheckCache    func(context.Context) error
}

// checkResult is the JSON shape of a single dependency probe.
type checkResult struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// # Health Handlers

/*
NewHealthHandlers builds the liveness and readiness handlers.

Liveness answers 200 unconditionally — the process is up. Readiness probes
the database and cache and answers 503 with a per-component breakdown when
any of them fails, so orchestrators stop routing traffic while the
dependency recovers.

Parameters:
  - deps: probe closures for each external dependency.
  - logger: structured logger for degraded-state reporting.

Returns:
  - liveness: handler for GET /health.
  - readiness: handler for GET /ready.
*/
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	liveness = func(writer http.ResponseWriter, request *http.Request) {
		respond.JSON(writer, http.StatusOK, map[string]string{"status": "ok"})
	}

	readiness = func(writer http.ResponseWriter, request *http.Request) {
		probeContext, cancel := context.WithTimeout(request.Context(), healthProbeTimeout)
		defer cancel()

		checks := []struct {
			component string
			probe     func(context.Context) error
		}{
			{"database", deps.CheckDatabase},
			{"cache", deps.CheckCache},
		}

		results := make([]checkResult, 0, len(checks))
		healthy := true
		for _, check := range checks {
			result := checkResult{Component: check.component, Status: "ok"}
			if err := check.probe(probeContext); err != nil {
				healthy = false
				result.Status = "unavailable"
				result.Error = err.Error()
				logger.Error("readiness_check_failed",
					slog.String("component", check.component),
					slog.Any("error", err),
				)
			}
			results = append(results, result)
		}

		status := http.StatusOK
		overall := "ok"
		if !healthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
		}
		respond.JSON(writer, status, map[string]any{
			"status": overall,
			"checks": results,
		})
	}

	return liveness, readiness
}
