package credentials

import (
	"context"
	"strings"

	"qazna.org/internal/crypto"
	"qazna.org/internal/store"
)

// ForgotPassword always succeeds from the caller's perspective; it inserts
// a reset-token row only when the email actually resolves to a user.
// Response shape must be identical whether or not the account exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.Store.Users().FindByEmail(ctx, email)
	if err != nil {
		if err == store.ErrNotFound {
			return nil
		}
		return err
	}
	plaintext, err := crypto.RandomToken(32)
	if err != nil {
		return err
	}
	return s.Store.PasswordResets().Insert(ctx, store.PasswordResetToken{
		TokenHash: crypto.SHA256Hex(plaintext),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.ResetTTL),
	})
}

// ResetPasswordRequest is the body of POST /api/reset-password.
type ResetPasswordRequest struct {
	Token           string
	NewPassword     string
	ConfirmPassword string
}

// ResetPassword implements spec §4.6's order of checks. The session wipe
// on password change (revoke every refresh token of that user) is
// mandatory, not a side effect that can silently be skipped.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if strings.TrimSpace(req.Token) == "" {
		return ErrInvalidToken
	}
	if len(req.NewPassword) < 8 {
		return ErrPasswordWeak
	}
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	row, err := s.Store.PasswordResets().Consume(ctx, crypto.SHA256Hex(req.Token))
	if err != nil {
		if err == store.ErrNotFound {
			return ErrInvalidToken
		}
		return err
	}
	if row.ExpiresAt.Before(s.now()) {
		return ErrTokenExpired
	}

	hash, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, row.UserID, hash); err != nil {
		return err
	}
	return s.Tokens.RevokeAllForUser(ctx, row.UserID)
}
