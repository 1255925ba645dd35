// Package credentials implements the register / login / forgot-password /
// reset-password flows of spec §4.6.
package credentials

import "errors"

// These map 1:1 onto the closed set of user-visible ?error= codes in
// spec §7; handlers never invent a new code.
var (
	ErrInvalidRedirect    = errors.New("credentials: invalid redirect")
	ErrInvalidEmail       = errors.New("credentials: invalid email")
	ErrPasswordWeak       = errors.New("credentials: password too short")
	ErrPasswordMismatch   = errors.New("credentials: password confirmation mismatch")
	ErrEmailExists        = errors.New("credentials: email already registered")
	ErrInvalidCredentials = errors.New("credentials: invalid credentials")
	ErrInvalidToken       = errors.New("credentials: invalid reset token")
	ErrTokenExpired       = errors.New("credentials: reset token expired")
)
