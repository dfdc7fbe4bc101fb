package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	applog "recipedia/internal/log"
)

type healthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

// Health reports readiness for infrastructure probes. The catalog is only
// usable when the database answers, so an unreachable database degrades the
// response to 503.
func Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Database: "ok",
		Time:     time.Now().UTC(),
	}
	status := http.StatusOK

	if database == nil {
		resp.Status = "degraded"
		resp.Database = "not configured"
		status = http.StatusServiceUnavailable
	} else if sqlDB, err := database.DB(); err != nil {
		applog.Warn(r.Context(), "health check cannot reach database handle", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	} else if err := sqlDB.PingContext(r.Context()); err != nil {
		applog.Warn(r.Context(), "health check database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		applog.Error(r.Context(), "failed to encode health response", "error", err)
	}
}
