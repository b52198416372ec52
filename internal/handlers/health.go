package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/HammerMeetNail/thoughtwall/internal/logging"
)

// HealthChecker is satisfied by the database clients.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	store HealthChecker
	redis HealthChecker
}

func NewHealthHandler(store, redis HealthChecker) *HealthHandler {
	return &HealthHandler{store: store, redis: redis}
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready reports 503 when any dependency fails its ping.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true
	for name, checker := range map[string]HealthChecker{"store": h.store, "redis": h.redis} {
		if checker == nil {
			continue
		}
		if err := checker.Health(ctx); err != nil {
			logging.Warn("Readiness check failed", map[string]interface{}{
				"check": name,
				"error": err.Error(),
			})
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "not ready", Checks: checks})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ready", Checks: checks})
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "alive"})
}
