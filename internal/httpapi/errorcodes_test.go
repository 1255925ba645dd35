package httpapi

import (
	"errors"
	"testing"

	"qazna.org/internal/credentials"
	"qazna.org/internal/oauthfed"
	"qazna.org/internal/redirect"
	"qazna.org/internal/token"
)

func TestUserVisibleErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{credentials.ErrInvalidRedirect, "invalid_redirect"},
		{redirect.ErrRejected, "invalid_redirect"},
		{credentials.ErrInvalidEmail, "invalid_email"},
		{credentials.ErrPasswordWeak, "password_weak"},
		{credentials.ErrPasswordMismatch, "password_mismatch"},
		{credentials.ErrEmailExists, "email_exists"},
		{credentials.ErrInvalidCredentials, "invalid_credentials"},
		{credentials.ErrInvalidToken, "invalid_token"},
		{credentials.ErrTokenExpired, "token_expired"},
		{token.ErrSessionExpired, "session_expired"},
		{token.ErrReuseDetected, "session_expired"},
		{token.ErrInvalidCode, "invalid_credentials"},
		{oauthfed.ErrNotConfigured, "oauth_not_configured"},
		{oauthfed.ErrFailed, "oauth_failed"},
		{oauthfed.UnknownProvider{Name: "tiktok"}, "oauth_failed"},
		{errors.New("some unrelated dependency failure"), ""},
	}
	for _, c := range cases {
		if got := userVisibleErrorCode(c.err); got != c.want {
			t.Errorf("userVisibleErrorCode(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestUserVisibleErrorCodeWrapped(t *testing.T) {
	wrapped := errors.New("register: " + credentials.ErrEmailExists.Error())
	if got := userVisibleErrorCode(wrapped); got != "" {
		t.Fatalf("expected a string-wrapped error (not errors.Is-compatible) to miss, got %q", got)
	}

	properlyWrapped := errorsJoinForTest(credentials.ErrEmailExists)
	if got := userVisibleErrorCode(properlyWrapped); got != "email_exists" {
		t.Fatalf("expected errors.Is-compatible wrap to still resolve, got %q", got)
	}
}

func errorsJoinForTest(err error) error {
	return errors.Join(err)
}
