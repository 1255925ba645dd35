package httpapi

import (
	"net/http"
	"net/url"

	"qazna.org/internal/audit"
	"qazna.org/internal/credentials"
)

// handleRegister implements POST /api/register.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := decodeForm(r); err != nil {
		redirectWithError(w, r, "/register", "invalid_redirect", nil)
		return
	}
	req := credentials.RegisterRequest{
		AuthnRequest: authnRequestFromForm(r),
		ConfirmPassword: r.PostForm.Get("confirmPassword"),
		Name:            r.PostForm.Get("name"),
	}

	result, err := a.Credentials.Register(r.Context(), req)
	if err != nil {
		a.auditAuthFailure(r, "register.failure", err)
		redirectWithError(w, r, "/register", userVisibleErrorCode(err), echoedParams(r))
		return
	}

	setRefreshCookie(w, a.Config.AuthDomain, a.Config.IsProduction(), result.RefreshToken, result.RefreshExpiry)
	audit.Log(r.Context(), audit.Event{
		Kind: "register.success", CorrelationID: correlationID(r), IP: clientIP(r),
		Route: "/api/register", UserAgent: r.UserAgent(), StatusCode: http.StatusFound,
	})
	redirectToCallback(w, r, result.RedirectOrigin, result.Code, result.ReturnTo)
}

// handleLogin implements POST /api/login.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := decodeForm(r); err != nil {
		redirectWithError(w, r, "/login", "invalid_redirect", nil)
		return
	}
	req := credentials.LoginRequest{AuthnRequest: authnRequestFromForm(r)}

	result, err := a.Credentials.Login(r.Context(), req)
	if err != nil {
		a.auditAuthFailure(r, "login.failure", err)
		redirectWithError(w, r, "/login", userVisibleErrorCode(err), echoedParams(r))
		return
	}

	setRefreshCookie(w, a.Config.AuthDomain, a.Config.IsProduction(), result.RefreshToken, result.RefreshExpiry)
	audit.Log(r.Context(), audit.Event{
		Kind: "login.success", CorrelationID: correlationID(r), IP: clientIP(r),
		Route: "/api/login", UserAgent: r.UserAgent(), StatusCode: http.StatusFound,
	})
	redirectToCallback(w, r, result.RedirectOrigin, result.Code, result.ReturnTo)
}

// handleForgotPassword implements POST /api/forgot-password. The response
// is identical whether or not the account exists (spec §7).
func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := decodeForm(r); err != nil {
		http.Redirect(w, r, "/login?message=reset_sent", http.StatusFound)
		return
	}
	if err := a.Credentials.ForgotPassword(r.Context(), r.PostForm.Get("email")); err != nil {
		audit.Log(r.Context(), audit.Event{
			Kind: "forgot_password.error", CorrelationID: correlationID(r), IP: clientIP(r),
			Route: "/api/forgot-password", UserAgent: r.UserAgent(),
		})
	}
	http.Redirect(w, r, "/login?message=reset_sent", http.StatusFound)
}

// handleResetPassword implements POST /api/reset-password.
func (a *API) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := decodeForm(r); err != nil {
		redirectPlain(w, r, "/reset-password?error=invalid_token")
		return
	}
	req := credentials.ResetPasswordRequest{
		Token:           r.PostForm.Get("token"),
		NewPassword:     r.PostForm.Get("newPassword"),
		ConfirmPassword: r.PostForm.Get("confirmPassword"),
	}
	if err := a.Credentials.ResetPassword(r.Context(), req); err != nil {
		a.auditAuthFailure(r, "reset_password.failure", err)
		redirectPlain(w, r, "/reset-password?error="+userVisibleErrorCode(err))
		return
	}
	audit.Log(r.Context(), audit.Event{
		Kind: "reset_password.success", CorrelationID: correlationID(r), IP: clientIP(r),
		Route: "/api/reset-password", UserAgent: r.UserAgent(),
	})
	http.Redirect(w, r, "/login?message=password_changed", http.StatusFound)
}

func authnRequestFromForm(r *http.Request) credentials.AuthnRequest {
	return credentials.AuthnRequest{
		Email:               r.PostForm.Get("email"),
		Password:            r.PostForm.Get("password"),
		Redirect:            r.PostForm.Get("redirect"),
		Audience:            r.PostForm.Get("audience"),
		CodeChallenge:       r.PostForm.Get("code_challenge"),
		CodeChallengeMethod: "S256",
		IP:                  clientIP(r),
		UserAgent:           r.UserAgent(),
	}
}

func (a *API) auditAuthFailure(r *http.Request, kind string, err error) {
	audit.Log(r.Context(), audit.Event{
		Kind: kind, CorrelationID: correlationID(r), IP: clientIP(r),
		Route: r.URL.Path, UserAgent: r.UserAgent(),
		Details: map[string]any{"code": userVisibleErrorCode(err)},
	})
}

func correlationID(r *http.Request) string {
	return CorrelationIDFromContext(r.Context())
}

// redirectWithError 302s back to page with error=code and, per spec
// §4.6 step 1, the non-secret fields the caller submitted so the form
// can be re-rendered pre-filled rather than wiped.
func redirectWithError(w http.ResponseWriter, r *http.Request, page, code string, echoed url.Values) {
	if code == "" {
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}
	query := url.Values{}
	for k, v := range echoed {
		query[k] = v
	}
	query.Set("error", code)
	redirectPlain(w, r, page+"?"+query.Encode())
}

// echoedParams extracts the submitted fields safe to echo back on a
// rejected register/login: never password or confirmPassword.
func echoedParams(r *http.Request) url.Values {
	echoed := url.Values{}
	for _, field := range []string{"email", "name", "audience", "redirect"} {
		if v := r.PostForm.Get(field); v != "" {
			echoed.Set(field, v)
		}
	}
	return echoed
}

func redirectPlain(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}

// redirectToCallback 302s to the tenant's own callback URL with the
// one-shot authorization code and the original deep-link path attached.
func redirectToCallback(w http.ResponseWriter, r *http.Request, origin, code, returnTo string) {
	if returnTo == "" {
		returnTo = "/"
	}
	target := origin + "/auth/callback?code=" + code + "&returnTo=" + url.QueryEscape(returnTo)
	http.Redirect(w, r, target, http.StatusFound)
}
