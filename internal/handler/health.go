package handler

import (
	"context"
	"net/http"

	"github.com/yourorg/drukstay/internal/infrastructure/redis"
	"github.com/yourorg/drukstay/pkg/database"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	pool  *database.ConnectionPool
	redis *redis.Client
}

// NewHealthHandler creates a new health handler. redis may be nil when the
// image cache is disabled.
func NewHealthHandler(pool *database.ConnectionPool, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{pool: pool, redis: redisClient}
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /readyz; it reports each dependency separately and
// returns 503 when any configured one is down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := map[string]string{}

	checks["database"] = h.checkDatabase(r.Context())
	if checks["database"] == "down" {
		status = http.StatusServiceUnavailable
	}

	checks["redis"] = h.checkRedis(r.Context())
	if checks["redis"] == "down" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, checks)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) string {
	if h.pool == nil {
		return "not configured"
	}
	if err := h.pool.Health(ctx); err != nil {
		return "down"
	}
	return "ok"
}

func (h *HealthHandler) checkRedis(ctx context.Context) string {
	if h.redis == nil {
		return "not configured"
	}
	if err := h.redis.Ping(ctx); err != nil {
		return "down"
	}
	return "ok"
}
