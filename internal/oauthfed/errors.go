// Package oauthfed implements the provider-agnostic OAuth 2.0 / OIDC
// federation state machine of spec §4.7, with adapters for Google,
// Facebook, Apple, and Microsoft.
package oauthfed

import "errors"

var (
	// ErrNotConfigured means the provider's credentials are absent from
	// config; callers redirect to /login?error=oauth_not_configured.
	ErrNotConfigured = errors.New("oauthfed: provider not configured")
	// ErrFailed collapses every internal federation failure into the
	// single oauth_failed user-visible code, per spec §7.
	ErrFailed = errors.New("oauthfed: federation failed")
)

// UnknownProvider reports an unrecognized provider path segment.
type UnknownProvider struct{ Name string }

func (e UnknownProvider) Error() string { return "oauthfed: unknown provider " + e.Name }
