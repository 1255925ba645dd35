package httpapi

import (
	"net/http"
	"net/url"
	"time"
)

const refreshCookieName = "cp_refresh"

// setRefreshCookie sets cp_refresh per spec §6's Cookies spec: HttpOnly,
// Secure except on dev-localhost, SameSite=Lax, scoped to the auth host.
func setRefreshCookie(w http.ResponseWriter, authDomain string, production bool, value string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		Domain:   authHost(authDomain),
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   production || !isDevHost(authDomain),
		SameSite: http.SameSiteLaxMode,
	})
}

// clearRefreshCookie emits the same cookie with Max-Age=0, the spec's
// prescribed clearing mechanism.
func clearRefreshCookie(w http.ResponseWriter, authDomain string, production bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   authHost(authDomain),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   production || !isDevHost(authDomain),
		SameSite: http.SameSiteLaxMode,
	})
}

func refreshCookieValue(r *http.Request) string {
	c, err := r.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func authHost(authDomain string) string {
	u, err := url.Parse(authDomain)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func isDevHost(authDomain string) bool {
	h := authHost(authDomain)
	return h == "localhost" || h == "127.0.0.1"
}
