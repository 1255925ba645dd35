package credentials

import (
	"context"
	"strings"

	"qazna.org/internal/crypto"
	"qazna.org/internal/store"
)

// dummyHashForTiming is derived once and reused so that a login attempt
// against a nonexistent email costs the same PBKDF2 work as a real
// attempt, per spec §4.6's account-enumeration defense. The password
// doesn't matter — only the cost of deriving against it does.
var dummyHashForTiming, _ = crypto.HashPassword("account-enumeration-defense-placeholder")

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	AuthnRequest
}

// Login implements spec §4.6's login sequence, including the
// timing-equalized rejection of unknown emails and federated-only accounts.
func (s *Service) Login(ctx context.Context, req LoginRequest) (AuthnResult, error) {
	redir, err := s.validateRedirect(ctx, req.Redirect)
	if err != nil {
		return AuthnResult{}, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.Store.Users().FindByEmail(ctx, email)
	if err != nil {
		if err != store.ErrNotFound {
			return AuthnResult{}, err
		}
		crypto.VerifyPassword(dummyHashForTiming, req.Password)
		return AuthnResult{}, ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		// Federated-only account: same response shape as "not found".
		crypto.VerifyPassword(dummyHashForTiming, req.Password)
		return AuthnResult{}, ErrInvalidCredentials
	}
	if !crypto.VerifyPassword(user.PasswordHash, req.Password) {
		return AuthnResult{}, ErrInvalidCredentials
	}

	audience := normalizeAudience(req.Audience)
	return s.issueSession(ctx, user.ID, redir.TenantID, redir.Origin, redir.ReturnTo, audience, req.CodeChallenge, req.CodeChallengeMethod, req.IP, req.UserAgent)
}
