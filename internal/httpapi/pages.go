package httpapi

import (
	"html"
	"net/http"
)

// pageHandler serves the bare HTML shell for one of the §6 browser-facing
// pages. The real page rendering/theming lives in an external frontend;
// this service only needs to be reachable at the route and echo back the
// error/message query params the frontend cares about.
func pageHandler(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		errParam := html.EscapeString(r.URL.Query().Get("error"))
		msgParam := html.EscapeString(r.URL.Query().Get("message"))
		_, _ = w.Write([]byte("<!doctype html><html><head><title>" + title +
			"</title></head><body data-error=\"" + errParam + "\" data-message=\"" + msgParam +
			"\"></body></html>"))
	}
}

func (a *API) handleLoginPage() http.HandlerFunc         { return pageHandler("Sign in") }
func (a *API) handleRegisterPage() http.HandlerFunc      { return pageHandler("Create account") }
func (a *API) handleResetPasswordPage() http.HandlerFunc { return pageHandler("Reset password") }
