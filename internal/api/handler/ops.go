package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/airlens/airlens/internal/api/response"
	"github.com/airlens/airlens/internal/cache"
	"github.com/airlens/airlens/internal/provider/resilience"
)

// Pinger checks a dependency's liveness. Satisfied by pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStatser reports TTL cache occupancy.
type CacheStatser interface {
	CacheStats() cache.Stats
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version  string
	registry *resilience.Registry
	db       Pinger
	cache    CacheStatser
}

// NewOpsHandler creates a new OpsHandler. db may be nil when running
// without persistence.
func NewOpsHandler(version string, registry *resilience.Registry, db Pinger, cache CacheStatser) *OpsHandler {
	return &OpsHandler{
		version:  version,
		registry: registry,
		db:       db,
		cache:    cache,
	}
}

// Health handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, r, map[string]any{
		"status":  "ok",
		"version": h.version,
		"time":    time.Now().UTC(),
	})
}

// Ready handles GET /v1/ops/ready - readiness check.
func (h *OpsHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			response.JSON(w, r, http.StatusServiceUnavailable, response.Envelope{
				Success: false,
				Message: "database unavailable",
			})
			return
		}
	}
	response.OK(w, r, map[string]any{"status": "ok"})
}

// Status handles GET /v1/ops/status - provider circuit health and cache
// occupancy.
func (h *OpsHandler) Status(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	}
	if h.registry != nil {
		body["providers"] = h.registry.GetAllHealth()
	}
	if h.cache != nil {
		body["cache"] = h.cache.CacheStats()
	}
	response.OK(w, r, body)
}
