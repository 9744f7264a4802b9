package handler

import (
	"log/slog"
	"net/http"

	"github.com/yourorg/assetlease/internal/infrastructure/redis"
	"github.com/yourorg/assetlease/pkg/database"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db     *database.ConnectionPool
	redis  *redis.Client
	logger *slog.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db *database.ConnectionPool, rdb *redis.Client, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, redis: rdb, logger: logger}
}

// Healthz reports process liveness.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports readiness: the database and the lock store must answer.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok", "redis": "ok"}
	status := http.StatusOK

	if h.db != nil {
		if err := h.db.Health(r.Context()); err != nil {
			checks["database"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, checks)
}
