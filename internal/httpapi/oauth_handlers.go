package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"qazna.org/internal/audit"
)

// handleOAuthInitiate implements GET /oauth/{provider}.
func (a *API) handleOAuthInitiate(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	redirectURL := r.URL.Query().Get("redirect")

	authURL, err := a.OAuthFed.Initiate(r.Context(), provider, redirectURL)
	if err != nil {
		code := userVisibleErrorCode(err)
		if code == "" {
			code = "oauth_failed"
		}
		a.auditAuthFailure(r, "oauth.initiate.failure", err)
		http.Redirect(w, r, "/login?error="+code, http.StatusFound)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleOAuthCallback implements GET/POST /oauth/{provider}/callback.
// Apple exclusively uses response_mode=form_post, so the body may arrive
// as either a query string or a urlencoded form.
func (a *API) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	var code, state, formUser string
	if r.Method == http.MethodPost {
		if err := decodeForm(r); err != nil {
			http.Redirect(w, r, "/login?error=oauth_failed", http.StatusFound)
			return
		}
		code = r.PostForm.Get("code")
		state = r.PostForm.Get("state")
		formUser = r.PostForm.Get("user")
	} else {
		code = r.URL.Query().Get("code")
		state = r.URL.Query().Get("state")
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" && code == "" {
		a.auditAuthFailure(r, "oauth.callback.provider_error", oauthProviderError(errParam))
		http.Redirect(w, r, "/login?error=oauth_failed", http.StatusFound)
		return
	}

	result, err := a.OAuthFed.Callback(r.Context(), provider, code, state, formUser, clientIP(r), r.UserAgent())
	if err != nil {
		code := userVisibleErrorCode(err)
		if code == "" {
			code = "oauth_failed"
		}
		a.auditAuthFailure(r, "oauth.callback.failure", err)
		http.Redirect(w, r, "/login?error="+code, http.StatusFound)
		return
	}

	setRefreshCookie(w, a.Config.AuthDomain, a.Config.IsProduction(), result.RefreshToken, result.RefreshExpiry)
	audit.Log(r.Context(), audit.Event{
		Kind: "oauth.callback.success", CorrelationID: correlationID(r), IP: clientIP(r),
		Route: "/oauth/" + provider + "/callback", UserAgent: r.UserAgent(), StatusCode: http.StatusFound,
		Details: map[string]any{"provider": provider},
	})
	redirectToCallback(w, r, result.RedirectOrigin, result.Code, result.ReturnTo)
}

type oauthProviderError string

func (e oauthProviderError) Error() string { return "oauthfed: provider reported " + string(e) }
