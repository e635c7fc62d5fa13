// Package httpapi assembles the feature routers into the public HTTP surface.
// Business logic lives in the feature packages; this layer only mounts.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registrar is implemented by feature handlers that mount their own routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency. Checks must respect the context
// deadline.
type HealthCheck func(ctx context.Context) error

// NewRouter wires the feature routers plus the operational endpoints.
// /healthz and /metrics stay outside the feature middleware chains: probes
// carry no auth and must not pollute request metrics.
func NewRouter(logger *slog.Logger, checks map[string]HealthCheck, features ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealth(logger, checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, feature := range features {
		feature.Register(r)
	}
	return r
}

func handleHealth(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		components := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"component", name,
					"error", err,
				)
				components[name] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			components[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     overall,
			"components": components,
		})
	}
}
