package credentials

import (
	"context"
	"strings"

	"qazna.org/internal/crypto"
	"qazna.org/internal/ids"
	"qazna.org/internal/store"
)

// RegisterRequest is the body of POST /api/register.
type RegisterRequest struct {
	AuthnRequest
	ConfirmPassword string
	Name            string
}

// Register implements spec §4.6's registration order of checks.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (AuthnResult, error) {
	redir, err := s.validateRedirect(ctx, req.Redirect)
	if err != nil {
		return AuthnResult{}, err
	}
	if !isWellFormedEmail(req.Email) {
		return AuthnResult{}, ErrInvalidEmail
	}
	if len(req.Password) < 8 {
		return AuthnResult{}, ErrPasswordWeak
	}
	if req.Password != req.ConfirmPassword {
		return AuthnResult{}, ErrPasswordMismatch
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = localPart(email)
	}

	if _, err := s.Store.Users().FindByEmail(ctx, email); err == nil {
		return AuthnResult{}, ErrEmailExists
	} else if err != store.ErrNotFound {
		return AuthnResult{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return AuthnResult{}, err
	}
	user, err := s.Store.Users().Create(ctx, store.User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
	})
	if err != nil {
		if err == store.ErrAlreadyExists {
			return AuthnResult{}, ErrEmailExists
		}
		return AuthnResult{}, err
	}

	audience := normalizeAudience(req.Audience)
	return s.issueSession(ctx, user.ID, redir.TenantID, redir.Origin, redir.ReturnTo, audience, req.CodeChallenge, req.CodeChallengeMethod, req.IP, req.UserAgent)
}
