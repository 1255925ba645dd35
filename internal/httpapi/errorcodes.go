package httpapi

import (
	"errors"

	"qazna.org/internal/credentials"
	"qazna.org/internal/oauthfed"
	"qazna.org/internal/redirect"
	"qazna.org/internal/token"
)

// userVisibleErrorCode maps an internal error to one member of spec §7's
// closed ?error= code set. Every kernel rejection collapses to the coarse
// category the spec requires; no internal distinction leaks into the code.
// "" means err is not one of the recognized rejection kinds — callers must
// treat that as a dependency/unexpected error and respond 500, never
// forward an invented code.
func userVisibleErrorCode(err error) string {
	var unknownProvider oauthfed.UnknownProvider
	if errors.As(err, &unknownProvider) {
		return "oauth_failed"
	}
	switch {
	case errors.Is(err, credentials.ErrInvalidRedirect), errors.Is(err, redirect.ErrRejected):
		return "invalid_redirect"
	case errors.Is(err, credentials.ErrInvalidEmail):
		return "invalid_email"
	case errors.Is(err, credentials.ErrPasswordWeak):
		return "password_weak"
	case errors.Is(err, credentials.ErrPasswordMismatch):
		return "password_mismatch"
	case errors.Is(err, credentials.ErrEmailExists):
		return "email_exists"
	case errors.Is(err, credentials.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, credentials.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, credentials.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, token.ErrSessionExpired), errors.Is(err, token.ErrReuseDetected):
		return "session_expired"
	case errors.Is(err, token.ErrInvalidCode):
		return "invalid_credentials"
	case errors.Is(err, oauthfed.ErrNotConfigured):
		return "oauth_not_configured"
	case errors.Is(err, oauthfed.ErrFailed):
		return "oauth_failed"
	default:
		return ""
	}
}
