// Package audit emits the service's auth.audit.<kind> event stream: one
// structured JSON line per security-relevant outcome, per spec §6's Audit
// log format. A failure to emit must never fail the calling request
// (spec §5), so LogEvent never returns an error.
package audit

import (
	"context"
	"time"

	"qazna.org/internal/obs"
)

// Event is a single auth.audit.<kind> record. Kind is appended to the
// "auth.audit." prefix to form the event field.
type Event struct {
	Kind          string
	CorrelationID string
	IP            string
	Route         string
	UserAgent     string
	UserID        string
	StatusCode    int
	Details       map[string]any
}

// Log writes ev as a single-line JSON audit record. Side effects here are
// fire-and-log: any marshal failure is swallowed by obs.LogRequest itself.
func Log(_ context.Context, ev Event) {
	entry := map[string]any{
		"level":         "info",
		"ts":            time.Now().UTC().Format(time.RFC3339Nano),
		"correlationId": ev.CorrelationID,
		"event":         "auth.audit." + ev.Kind,
		"ip":            ev.IP,
		"route":         ev.Route,
		"userAgent":     ev.UserAgent,
	}
	if ev.UserID != "" {
		entry["userId"] = ev.UserID
	}
	if ev.StatusCode != 0 {
		entry["statusCode"] = ev.StatusCode
	}
	if len(ev.Details) > 0 {
		entry["details"] = ev.Details
	}
	obs.LogRequest(entry)
}
