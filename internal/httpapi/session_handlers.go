package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"qazna.org/internal/audit"
	"qazna.org/internal/store"
)

type tokenRequest struct {
	Code           string `json:"code"`
	TenantID       string `json:"tenant_id"`
	RedirectOrigin string `json:"redirect_origin"`
	CodeVerifier   string `json:"code_verifier"`
}

// handleToken implements POST /api/token, the server-to-server exchange.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	access, err := a.Session.ExchangeCode(r.Context(), req.Code, req.TenantID, req.RedirectOrigin, req.CodeVerifier)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid or expired code")
		return
	}
	writeJSON(w, http.StatusOK, access)
}

// handleRefresh implements GET /api/refresh, a top-level-navigation
// endpoint by design: it is the supported refresh path where third-party
// cookies are blocked.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	redirectURL := r.URL.Query().Get("redirect")
	tenant := r.URL.Query().Get("tenant")
	audienceParam := r.URL.Query().Get("audience")

	refreshCookie := refreshCookieValue(r)
	if refreshCookie == "" {
		clearRefreshCookie(w, a.Config.AuthDomain, a.Config.IsProduction())
		http.Redirect(w, r, "/login?error=session_expired", http.StatusFound)
		return
	}

	result, err := a.Session.Refresh(r.Context(), refreshCookie, redirectURL, tenant, audienceParam, clientIP(r), r.UserAgent())
	if err != nil {
		a.auditAuthFailure(r, "refresh.failure", err)
		clearRefreshCookie(w, a.Config.AuthDomain, a.Config.IsProduction())
		http.Redirect(w, r, "/login?error=session_expired", http.StatusFound)
		return
	}

	setRefreshCookie(w, a.Config.AuthDomain, a.Config.IsProduction(), result.RefreshToken, result.RefreshExpiry)
	audit.Log(r.Context(), audit.Event{
		Kind: "refresh.success", CorrelationID: correlationID(r), IP: clientIP(r),
		Route: "/api/refresh", UserAgent: r.UserAgent(), StatusCode: http.StatusFound,
	})
	redirectToCallback(w, r, result.RedirectOrigin, result.Code, result.ReturnTo)
}

// handleLogout implements POST /api/logout.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	refreshCookie := refreshCookieValue(r)
	if err := a.Session.Logout(r.Context(), refreshCookie); err != nil {
		writeError(w, r, http.StatusInternalServerError, "logout failed")
		return
	}
	clearRefreshCookie(w, a.Config.AuthDomain, a.Config.IsProduction())
	audit.Log(r.Context(), audit.Event{
		Kind: "logout.success", CorrelationID: correlationID(r), IP: clientIP(r),
		Route: "/api/logout", UserAgent: r.UserAgent(),
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleLogoutAll implements POST /api/logout-all.
func (a *API) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	refreshCookie := refreshCookieValue(r)
	if err := a.Session.LogoutAll(r.Context(), refreshCookie); err != nil {
		writeError(w, r, http.StatusInternalServerError, "logout failed")
		return
	}
	clearRefreshCookie(w, a.Config.AuthDomain, a.Config.IsProduction())
	audit.Log(r.Context(), audit.Event{
		Kind: "logout_all.success", CorrelationID: correlationID(r), IP: clientIP(r),
		Route: "/api/logout-all", UserAgent: r.UserAgent(),
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type membershipView struct {
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// handleMemberships implements GET /api/memberships, protected by a
// Bearer access token.
func (a *API) handleMemberships(w http.ResponseWriter, r *http.Request) {
	token, err := extractBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, err.Error())
		return
	}
	claims, err := a.JWT.Verify(token)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid or expired access token")
		return
	}

	memberships, err := a.Session.Memberships(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"memberships": []membershipView{}})
			return
		}
		writeError(w, r, http.StatusInternalServerError, "failed to load memberships")
		return
	}

	views := make([]membershipView, 0, len(memberships))
	for _, m := range memberships {
		views = append(views, membershipView{TenantID: m.TenantID, Role: m.Role, Status: m.Status})
	}
	writeJSON(w, http.StatusOK, map[string]any{"memberships": views})
}

const bearerPrefix = "Bearer "

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", errors.New("invalid authorization scheme")
	}
	tok := strings.TrimSpace(header[len(bearerPrefix):])
	if tok == "" {
		return "", errors.New("missing bearer token")
	}
	return tok, nil
}
