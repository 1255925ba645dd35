package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"qazna.org/internal/config"
	"qazna.org/internal/credentials"
	"qazna.org/internal/jwtkernel"
	"qazna.org/internal/oauthfed"
	"qazna.org/internal/obs"
	"qazna.org/internal/session"
	"qazna.org/internal/store"
)

// API bundles the service's business-logic layers and builds the router
// that exposes them per spec §6.
type API struct {
	Store       store.Store
	Credentials *credentials.Service
	OAuthFed    *oauthfed.Service
	Session     *session.Service
	JWT         *jwtkernel.Kernel
	Config      config.Config
	Version     string
	DeployedAt  string
}

// routeCap returns the per-IP, per-route rate-limit cap of spec §4.9: 10
// in production, 200 otherwise.
func (a *API) routeCap() int {
	if a.Config.IsProduction() {
		return 10
	}
	return 200
}

// Router builds the full chi.Router with spec §6's endpoints and the
// ambient middleware chain.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(CorrelationID)
	r.Use(LoggingJSON)
	r.Use(CORS)
	r.Use(func(next http.Handler) http.Handler { return MaxBodyBytes(next, 1<<20) })
	r.Use(func(next http.Handler) http.Handler { return RateLimit(next, 40, 20) })

	routeCap := a.routeCap()
	authLimiter := newRouteLimiter(routeCap)
	tokenLimiter := newRouteLimiter(routeCap)
	resetLimiter := newRouteLimiter(routeCap)
	oauthLimiter := newRouteLimiter(routeCap)

	jsonHeaders := SecurityHeaders(false)
	htmlHeaders := SecurityHeaders(true)

	r.With(htmlHeaders).Get("/login", a.handleLoginPage())
	r.With(htmlHeaders).Get("/register", a.handleRegisterPage())
	r.With(htmlHeaders).Get("/reset-password", a.handleResetPasswordPage())

	r.With(jsonHeaders).Get("/health", a.handleHealth)
	r.With(jsonHeaders).Get("/.well-known/jwks.json", a.handleJWKS)
	r.Handle("/metrics", obs.Handler())

	r.With(jsonHeaders).Post("/api/register", RouteRateLimit("register", authLimiter, a.handleRegister))
	r.With(jsonHeaders).Post("/api/login", RouteRateLimit("login", authLimiter, a.handleLogin))
	r.With(jsonHeaders).Post("/api/forgot-password", RouteRateLimit("forgot-password", resetLimiter, a.handleForgotPassword))
	r.With(jsonHeaders).Post("/api/reset-password", RouteRateLimit("reset-password", resetLimiter, a.handleResetPassword))

	r.With(jsonHeaders).Post("/api/token", RouteRateLimit("token", tokenLimiter, a.handleToken))
	r.With(jsonHeaders).Get("/api/refresh", a.handleRefresh)
	r.With(jsonHeaders).Post("/api/logout", a.handleLogout)
	r.With(jsonHeaders).Post("/api/logout-all", a.handleLogoutAll)
	r.With(jsonHeaders).Get("/api/memberships", a.handleMemberships)

	r.With(jsonHeaders).Get("/oauth/{provider}", RouteRateLimit("oauth-initiate", oauthLimiter, a.handleOAuthInitiate))
	r.With(jsonHeaders).Get("/oauth/{provider}/callback", a.handleOAuthCallback)
	r.With(jsonHeaders).Post("/oauth/{provider}/callback", a.handleOAuthCallback)

	return obs.Instrument(r)
}
