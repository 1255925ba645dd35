// Package token implements the token kernel: refresh-token family
// issuance/rotation with reuse detection, and single-use authorization
// codes bound to (user, tenant, redirect-origin, audience, optional PKCE).
package token

import "errors"

var (
	// ErrSessionExpired covers a missing, expired, or (after reuse
	// detection fires) revoked refresh token. Callers map this to the
	// session_expired user-visible code and clear the client cookie.
	ErrSessionExpired = errors.New("token: session expired")
	// ErrReuseDetected signals that a refresh token already rotated away
	// was presented again; the whole family has just been revoked.
	ErrReuseDetected = errors.New("token: refresh token reuse detected")
	// ErrInvalidCode covers every authorization-code rejection reason
	// (absent, expired, wrong tenant, wrong origin, bad PKCE) — the spec
	// requires these to be indistinguishable in user-visible text.
	ErrInvalidCode = errors.New("token: invalid or expired authorization code")
)
