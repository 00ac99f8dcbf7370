// Package health contains liveness and readiness controllers.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/compasshq/websignin/internal/cache"
	"github.com/compasshq/websignin/internal/observability/logger"
	"github.com/compasshq/websignin/internal/store/core"
)

// Controllers groups the health endpoints.
type Controllers struct {
	users core.Repository
	cache cache.Client
}

// NewControllers creates the health controllers.
func NewControllers(users core.Repository, c cache.Client) *Controllers {
	return &Controllers{users: users, cache: c}
}

// Healthz handles GET /healthz. It only reports that the process is up.
func (c *Controllers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz. It checks the store and the cache.
func (c *Controllers) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]string{"store": "ok", "cache": "ok"}
	healthy := true

	if err := c.users.Ping(ctx); err != nil {
		logger.From(ctx).Warn("store not ready", logger.Err(err))
		checks["store"] = "unavailable"
		healthy = false
	}
	if err := c.cache.Ping(ctx); err != nil {
		logger.From(ctx).Warn("cache not ready", logger.Err(err))
		checks["cache"] = "unavailable"
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, checks)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
