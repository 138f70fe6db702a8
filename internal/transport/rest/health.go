package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/helpdesk/internal/db"
	"github.com/frahmantamala/helpdesk/pkg/logger"
)

const healthPingTimeout = 2 * time.Second

type componentHealth struct {
	Status     string        `json:"status"`
	Message    string        `json:"message,omitempty"`
	Pool       db.PoolStatus `json:"pool"`
	DurationMs int64         `json:"duration_ms"`
}

type healthReport struct {
	Status     string                     `json:"status"`
	CheckedAt  time.Time                  `json:"checked_at"`
	Components map[string]componentHealth `json:"components"`
}

type HealthHandler struct {
	db *db.Handle
}

func NewHealthHandler(handle *db.Handle) *HealthHandler {
	return &HealthHandler{db: handle}
}

// pingHandler reports liveness only.
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// healthCheckHandler reports readiness, which requires a reachable database.
// The ping error is logged, never echoed.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	pool, err := h.db.Status(r.Context(), healthPingTimeout)

	database := componentHealth{
		Status:     "healthy",
		Pool:       pool,
		DurationMs: pool.PingDuration.Milliseconds(),
	}
	code := http.StatusOK
	if err != nil {
		logger.From(r.Context()).Warn("health check: database ping failed", "error", err)
		database.Status = "unhealthy"
		database.Message = "database unreachable"
		code = http.StatusServiceUnavailable
	}

	writeHealthJSON(w, code, healthReport{
		Status:     database.Status,
		CheckedAt:  time.Now().UTC(),
		Components: map[string]componentHealth{"database": database},
	})
}

func writeHealthJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
