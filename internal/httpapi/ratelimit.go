package httpapi

import (
	"net/http"
	"sync"
	"time"
)

// routeLimitWindow is the floored time bucket spec §4.9 keys the per-IP,
// per-route counter on.
const routeLimitWindow = 15 * time.Minute

// routeLimiter is the per-IP, per-route counter of spec §4.9. Its storage
// is explicitly out of scope as an external system (spec Non-goals), so
// this is an in-process map that is cleared whenever a new window starts;
// it has no failure mode of its own.
type routeLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	window time.Time
	cap    int
}

func newRouteLimiter(cap int) *routeLimiter {
	return &routeLimiter{counts: make(map[string]int), cap: cap}
}

// Allow reports whether another request for key is permitted in the
// current floored window, incrementing the counter as a side effect.
func (l *routeLimiter) Allow(key string, now time.Time) bool {
	window := now.Truncate(routeLimitWindow)

	l.mu.Lock()
	defer l.mu.Unlock()
	if window != l.window {
		l.counts = make(map[string]int)
		l.window = window
	}
	l.counts[key]++
	return l.counts[key] <= l.cap
}

// RouteRateLimit wraps next with the route-scoped counter. The cap is the
// one limiter was built with (API.routeCap: 10 in production, 200
// otherwise).
func RouteRateLimit(route string, limiter *routeLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := route + "|" + clientIP(r)
		if !limiter.Allow(key, time.Now()) {
			w.Header().Set("Retry-After", "900")
			writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}
