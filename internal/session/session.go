// Package session implements spec §4.8's session-exchange surface: turning
// a one-shot authorization code into an access token, rotating the refresh
// cookie on top-level navigation, logout, and the memberships lookup.
package session

import (
	"context"
	"fmt"
	"time"

	"qazna.org/internal/crypto"
	"qazna.org/internal/jwtkernel"
	"qazna.org/internal/redirect"
	"qazna.org/internal/store"
	"qazna.org/internal/token"
)

// Service is the business logic behind /api/token, /api/refresh,
// /api/logout[-all], and /api/memberships. It holds no per-request state.
type Service struct {
	Store      store.Store
	Tokens     *token.Kernel
	JWT        *jwtkernel.Kernel
	Domains    redirect.DomainLookup
	Production bool
	now        func() time.Time
}

func New(st store.Store, tokens *token.Kernel, jwt *jwtkernel.Kernel, domains redirect.DomainLookup, production bool) *Service {
	return &Service{Store: st, Tokens: tokens, JWT: jwt, Domains: domains, Production: production, now: time.Now}
}

// AccessToken is the exact shape returned by POST /api/token.
type AccessToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ExchangeCode implements POST /api/token: consumes the one-shot code and
// mints an access token for the audience it was issued for.
func (s *Service) ExchangeCode(ctx context.Context, code, tenantID, redirectOrigin, codeVerifier string) (AccessToken, error) {
	row, err := s.Tokens.ExchangeAuthCode(ctx, code, tenantID, redirectOrigin, codeVerifier)
	if err != nil {
		return AccessToken{}, err
	}

	user, err := s.Store.Users().FindByID(ctx, row.UserID)
	if err != nil {
		return AccessToken{}, fmt.Errorf("load user for exchanged code: %w", err)
	}

	signParams := jwtkernel.SignParams{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Audience: row.Audience,
	}
	if row.Audience == jwtkernel.AudienceAdmin {
		memberships, err := s.Store.Memberships().ListByUser(ctx, user.ID)
		if err != nil {
			return AccessToken{}, fmt.Errorf("load memberships for admin token: %w", err)
		}
		primaryTenantID := primaryTenantOf(memberships)
		signParams.Roles = rolesOf(memberships, primaryTenantID)
		signParams.PrimaryTenantID = primaryTenantID
	}

	signed, exp, err := s.JWT.Sign(signParams)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(exp.Sub(s.now()).Seconds()),
	}, nil
}

// RefreshResult is what the httpapi layer needs to 302 to the tenant
// callback with a newly rotated refresh cookie.
type RefreshResult struct {
	RedirectOrigin string
	ReturnTo       string
	TenantID       string
	Code           string
	RefreshToken   string
	RefreshExpiry  time.Time
}

// Refresh implements GET /api/refresh: rotate the presented refresh
// cookie and mint a fresh authorization code for the tenant callback. An
// invalid redirect is surfaced as redirect.ErrRejected and a refused refresh
// token as token.ErrSessionExpired or token.ErrReuseDetected; the httpapi
// layer maps every Refresh error to the same session_expired redirect.
func (s *Service) Refresh(ctx context.Context, refreshCookie, redirectURL, tenantID, audience, ip, userAgent string) (RefreshResult, error) {
	redir, err := redirect.Validate(ctx, redirectURL, s.Production, s.Domains)
	if err != nil {
		return RefreshResult{}, redirect.ErrRejected
	}

	rotated, err := s.Tokens.Rotate(ctx, refreshCookie, ip, userAgent)
	if err != nil {
		return RefreshResult{}, err
	}

	authCode, err := s.Tokens.IssueAuthCode(ctx, token.AuthCodeParams{
		UserID:         rotated.Row.UserID,
		TenantID:       redir.TenantID,
		RedirectOrigin: redir.Origin,
		Audience:       normalizeAudience(audience),
	})
	if err != nil {
		return RefreshResult{}, err
	}

	return RefreshResult{
		RedirectOrigin: redir.Origin,
		ReturnTo:       redir.ReturnTo,
		TenantID:       redir.TenantID,
		Code:           authCode,
		RefreshToken:   rotated.Plaintext,
		RefreshExpiry:  rotated.Row.ExpiresAt,
	}, nil
}

func normalizeAudience(audience string) string {
	if audience == store.AudienceAdmin {
		return store.AudienceAdmin
	}
	return store.AudienceStorefront
}

// Memberships returns the caller's tenant memberships for the tenant
// picker, keyed off a verified Bearer access token's subject.
func (s *Service) Memberships(ctx context.Context, userID string) ([]store.TenantMembership, error) {
	return s.Store.Memberships().ListByUser(ctx, userID)
}

// Logout revokes the single refresh token identified by its plaintext
// cookie value. A missing or already-revoked token is not an error: logout
// is idempotent from the caller's point of view.
func (s *Service) Logout(ctx context.Context, refreshCookie string) error {
	if refreshCookie == "" {
		return nil
	}
	return s.Tokens.RevokeSingle(ctx, refreshCookie)
}

// LogoutAll revokes the presented token and every other refresh token
// belonging to the same user.
func (s *Service) LogoutAll(ctx context.Context, refreshCookie string) error {
	if refreshCookie == "" {
		return nil
	}
	row, err := s.Store.RefreshTokens().FindByHash(ctx, crypto.SHA256Hex(refreshCookie))
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}
	return s.Tokens.RevokeAllForUser(ctx, row.UserID)
}

// rolesOf returns the roles held at primaryTenantID, empty when nil.
func rolesOf(memberships []store.TenantMembership, primaryTenantID *string) []string {
	roles := make([]string, 0)
	if primaryTenantID == nil {
		return roles
	}
	for _, m := range memberships {
		if m.TenantID == *primaryTenantID {
			roles = append(roles, m.Role)
		}
	}
	return roles
}

// primaryTenantOf is the oldest active, non-customer membership's tenant,
// or nil when the caller holds no such membership (spec §4.5).
func primaryTenantOf(memberships []store.TenantMembership) *string {
	var oldest *store.TenantMembership
	for i := range memberships {
		m := &memberships[i]
		if m.Status != store.MembershipActive || m.Role == store.RoleCustomer {
			continue
		}
		if oldest == nil || m.CreatedAt.Before(oldest.CreatedAt) {
			oldest = m
		}
	}
	if oldest == nil {
		return nil
	}
	id := oldest.TenantID
	return &id
}
