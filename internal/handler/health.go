package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

// Pinger is the slice of a store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
	Kind() string
}

// HandleHealth reports whether the store is reachable. It responds 503 when
// the ping fails so load balancers can take the instance out of rotation.
// GET /health
func HandleHealth(store Pinger, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		body := map[string]string{
			"status":   "healthy",
			"database": store.Kind(),
			"version":  version,
		}
		if err := store.Ping(ctx); err != nil {
			slog.Warn("health check failed", "database", store.Kind(), "error", err)
			body["status"] = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
		writeJSON(w, http.StatusOK, body)
	}
}
