package httpapi

import (
	"net/http"
	"time"
)

// handleHealth implements GET /health per spec §6: liveness plus a
// data-store probe, broken down under subsystems.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	start := time.Now()

	subsystems := map[string]string{}
	status := "ok"
	if err := a.Store.Ping(r.Context()); err != nil {
		subsystems["store"] = "error"
		status = "degraded"
	} else {
		subsystems["store"] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":        status,
		"version":       a.Version,
		"env":           a.Config.Environment,
		"deployedAt":    a.DeployedAt,
		"subsystems":    subsystems,
		"durationMs":    time.Since(start).Milliseconds(),
		"correlationId": correlationID(r),
	})
}
