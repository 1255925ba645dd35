package httpapi

import "net/http"

// handleJWKS implements GET /.well-known/jwks.json, publishing the
// verification key with standard HTTP caching.
func (a *API) handleJWKS(w http.ResponseWriter, r *http.Request) {
	body, etag, err := a.JWT.JWKS()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to build jwks")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("ETag", etag)

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
