package credentials

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"qazna.org/internal/redirect"
	"qazna.org/internal/store"
	"qazna.org/internal/token"
)

// Service wires the credential flows together. It holds no per-request
// state; everything flows through its arguments.
type Service struct {
	Store       store.Store
	Tokens      *token.Kernel
	Domains     redirect.DomainLookup
	Production  bool
	ResetTTL    time.Duration
	now         func() time.Time
}

// New constructs a Service. resetTTL is capped at one hour per spec §4.6.
func New(st store.Store, tokens *token.Kernel, domains redirect.DomainLookup, production bool, resetTTL time.Duration) *Service {
	if resetTTL > time.Hour {
		resetTTL = time.Hour
	}
	return &Service{Store: st, Tokens: tokens, Domains: domains, Production: production, ResetTTL: resetTTL, now: time.Now}
}

// AuthnRequest carries the common inputs shared by register and login.
type AuthnRequest struct {
	Email               string
	Password            string
	Redirect            string
	Audience            string
	CodeChallenge       string
	CodeChallengeMethod string
	IP                  string
	UserAgent           string
}

// AuthnResult carries everything the httpapi layer needs to build the 302
// response and set the refresh cookie.
type AuthnResult struct {
	RedirectOrigin string
	ReturnTo       string
	TenantID       string
	Code           string
	RefreshToken   string
	RefreshExpiry  time.Time
}

func (s *Service) validateRedirect(ctx context.Context, candidate string) (redirect.Result, error) {
	res, err := redirect.Validate(ctx, candidate, s.Production, s.Domains)
	if err != nil {
		return redirect.Result{}, ErrInvalidRedirect
	}
	return res, nil
}

func normalizeAudience(aud string) string {
	if aud == store.AudienceAdmin {
		return store.AudienceAdmin
	}
	return store.AudienceStorefront
}

func isWellFormedEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return strings.Contains(addr.Address, "@") && strings.Contains(addr.Address, ".")
}

func localPart(email string) string {
	idx := strings.Index(email, "@")
	if idx <= 0 {
		return email
	}
	return email[:idx]
}

// issueSession mints a refresh-token family and a bound authorization
// code, the common tail of every successful authentication.
func (s *Service) issueSession(ctx context.Context, userID, tenantID, redirectOrigin, returnTo, audience, challenge, challengeMethod, ip, ua string) (AuthnResult, error) {
	if err := s.Store.Memberships().EnsureCustomer(ctx, userID, tenantID); err != nil {
		return AuthnResult{}, err
	}
	issued, err := s.Tokens.IssueFamily(ctx, userID, ip, ua)
	if err != nil {
		return AuthnResult{}, err
	}
	code, err := s.Tokens.IssueAuthCode(ctx, token.AuthCodeParams{
		UserID:              userID,
		TenantID:            tenantID,
		RedirectOrigin:      redirectOrigin,
		Audience:            audience,
		CodeChallenge:       challenge,
		CodeChallengeMethod: challengeMethod,
	})
	if err != nil {
		return AuthnResult{}, err
	}
	return AuthnResult{
		RedirectOrigin: redirectOrigin,
		ReturnTo:       returnTo,
		TenantID:       tenantID,
		Code:           code,
		RefreshToken:   issued.Plaintext,
		RefreshExpiry:  issued.Row.ExpiresAt,
	}, nil
}
