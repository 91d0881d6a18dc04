package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"beacon/internal/core/domain"
	"beacon/pkg/logging"
)

const probeTimeout = 2 * time.Second

// HealthHandler backs the Kubernetes-style probe endpoints.
type HealthHandler struct {
	db      *sql.DB
	rdb     *redis.Client
	version string
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client, version string) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, version: version}
}

// Health is the liveness probe: 200 whenever the process is up.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": domain.Timestamp(time.Now()),
		"version":   h.version,
	})
}

// Ready reports 200 only when required dependencies answer. The database is
// required; redis degrades gracefully, so its failure is logged but does not
// fail readiness.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	checks := map[string]map[string]any{
		"database": h.checkDatabase(ctx),
		"redis":    h.checkRedis(ctx),
	}

	ready := checks["database"]["healthy"] == true
	if checks["redis"]["healthy"] != true {
		log := logging.FromContext(r.Context())
		log.WarnContext(r.Context(), "health handler - redis unhealthy", "error", checks["redis"]["error"])
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not_ready", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": domain.Timestamp(time.Now()),
		"version":   h.version,
		"checks":    checks,
	})
}

// Aliveness is the legacy human-facing check.
func (h *HealthHandler) Aliveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "I'm alive and kicking!!!",
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) map[string]any {
	if h.db == nil {
		return map[string]any{"healthy": false, "error": "not connected"}
	}
	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		return map[string]any{"healthy": false, "error": err.Error()}
	}
	return map[string]any{"healthy": true, "latency_ms": time.Since(start).Milliseconds()}
}

func (h *HealthHandler) checkRedis(ctx context.Context) map[string]any {
	if h.rdb == nil {
		return map[string]any{"healthy": false, "error": "not connected"}
	}
	start := time.Now()
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		return map[string]any{"healthy": false, "error": err.Error()}
	}
	return map[string]any{"healthy": true, "latency_ms": time.Since(start).Milliseconds()}
}
