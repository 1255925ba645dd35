package token

import (
	"context"
	"fmt"
	"time"

	"qazna.org/internal/crypto"
	"qazna.org/internal/ids"
	"qazna.org/internal/store"
)

// Kernel issues and rotates refresh tokens and single-use authorization
// codes. It holds no per-process state; every operation goes through the
// store.
type Kernel struct {
	store       store.Store
	refreshTTL  time.Duration
	authCodeTTL time.Duration
	now         func() time.Time
}

// New constructs a Kernel. refreshTTL and authCodeTTL come from
// config.Config (REFRESH_TOKEN_TTL_DAYS, AUTH_CODE_TTL_SECONDS); the spec
// caps authCodeTTL at 60 seconds.
func New(st store.Store, refreshTTL, authCodeTTL time.Duration) *Kernel {
	if authCodeTTL > 60*time.Second {
		authCodeTTL = 60 * time.Second
	}
	return &Kernel{store: st, refreshTTL: refreshTTL, authCodeTTL: authCodeTTL, now: time.Now}
}

// IssuedRefreshToken is the plaintext value (returned exactly once, to be
// set as a cookie) plus the row that was stored.
type IssuedRefreshToken struct {
	Plaintext string
	Row       store.RefreshToken
}

// IssueFamily mints a fresh refresh-token family on authentication success.
func (k *Kernel) IssueFamily(ctx context.Context, userID, ip, userAgent string) (IssuedRefreshToken, error) {
	plaintext, err := crypto.RandomToken(32)
	if err != nil {
		return IssuedRefreshToken{}, fmt.Errorf("generate refresh token: %w", err)
	}
	row := store.RefreshToken{
		ID:        ids.New(),
		UserID:    userID,
		TokenHash: crypto.SHA256Hex(plaintext),
		FamilyID:  ids.New(),
		ExpiresAt: k.now().Add(k.refreshTTL),
		CreatedIP: ip,
		UserAgent: userAgent,
	}
	if err := k.store.RefreshTokens().Insert(ctx, row); err != nil {
		return IssuedRefreshToken{}, err
	}
	return IssuedRefreshToken{Plaintext: plaintext, Row: row}, nil
}

// Rotate implements spec §4.4's refresh sequence: lookup, reuse detection,
// expiry check, atomic revoke-then-insert.
func (k *Kernel) Rotate(ctx context.Context, presentedPlaintext, ip, userAgent string) (IssuedRefreshToken, error) {
	oldHash := crypto.SHA256Hex(presentedPlaintext)
	existing, err := k.store.RefreshTokens().FindByHash(ctx, oldHash)
	if err != nil {
		if err == store.ErrNotFound {
			return IssuedRefreshToken{}, ErrSessionExpired
		}
		return IssuedRefreshToken{}, err
	}
	if existing.RevokedAt != nil {
		// Reuse detected: a token already rotated away was presented
		// again. This is the only path that punishes a previously
		// valid-looking caller — revoke the whole family.
		if revokeErr := k.store.RefreshTokens().RevokeFamily(ctx, existing.FamilyID); revokeErr != nil {
			return IssuedRefreshToken{}, revokeErr
		}
		return IssuedRefreshToken{}, ErrReuseDetected
	}
	if existing.ExpiresAt.Before(k.now()) {
		return IssuedRefreshToken{}, ErrSessionExpired
	}

	plaintext, err := crypto.RandomToken(32)
	if err != nil {
		return IssuedRefreshToken{}, fmt.Errorf("generate refresh token: %w", err)
	}
	next := store.RefreshToken{
		ID:        ids.New(),
		UserID:    existing.UserID,
		TokenHash: crypto.SHA256Hex(plaintext),
		FamilyID:  existing.FamilyID,
		ExpiresAt: k.now().Add(k.refreshTTL),
		CreatedIP: ip,
		UserAgent: userAgent,
	}
	ok, err := k.store.RefreshTokens().Rotate(ctx, oldHash, next)
	if err != nil {
		if err == store.ErrNotFound {
			return IssuedRefreshToken{}, ErrSessionExpired
		}
		return IssuedRefreshToken{}, err
	}
	if !ok {
		// Lost the race: another caller rotated this token first. Treat
		// exactly like the sequential reuse-detected path above.
		if revokeErr := k.store.RefreshTokens().RevokeFamily(ctx, existing.FamilyID); revokeErr != nil {
			return IssuedRefreshToken{}, revokeErr
		}
		return IssuedRefreshToken{}, ErrReuseDetected
	}
	return IssuedRefreshToken{Plaintext: plaintext, Row: next}, nil
}

// RevokeSingle revokes the refresh token identified by its plaintext value.
func (k *Kernel) RevokeSingle(ctx context.Context, presentedPlaintext string) error {
	return k.store.RefreshTokens().RevokeByHash(ctx, crypto.SHA256Hex(presentedPlaintext))
}

// RevokeAllForUser revokes every refresh token belonging to userID; used by
// logout-all and mandatorily by the password-reset flow.
func (k *Kernel) RevokeAllForUser(ctx context.Context, userID string) error {
	return k.store.RefreshTokens().RevokeByUser(ctx, userID)
}

// AuthCodeParams binds a freshly issued authorization code to the
// authenticated request that produced it.
type AuthCodeParams struct {
	UserID              string
	TenantID            string
	RedirectOrigin      string
	Audience            string
	CodeChallenge       string
	CodeChallengeMethod string
}

// IssueAuthCode mints a one-shot bearer value produced at the end of every
// successful authentication (password, federated, or refresh).
func (k *Kernel) IssueAuthCode(ctx context.Context, p AuthCodeParams) (string, error) {
	plaintext, err := crypto.RandomToken(32)
	if err != nil {
		return "", fmt.Errorf("generate auth code: %w", err)
	}
	row := store.AuthCode{
		CodeHash:            crypto.SHA256Hex(plaintext),
		UserID:              p.UserID,
		TenantID:            p.TenantID,
		RedirectOrigin:      p.RedirectOrigin,
		Audience:            p.Audience,
		ExpiresAt:           k.now().Add(k.authCodeTTL),
		CodeChallenge:       p.CodeChallenge,
		CodeChallengeMethod: p.CodeChallengeMethod,
	}
	if err := k.store.AuthCodes().Insert(ctx, row); err != nil {
		return "", err
	}
	return plaintext, nil
}

// ExchangeAuthCode implements spec §4.4's exchange sequence. Every
// rejection reason collapses to ErrInvalidCode; the spec requires these to
// be indistinguishable in user-visible text.
func (k *Kernel) ExchangeAuthCode(ctx context.Context, plaintextCode, tenantID, redirectOrigin, codeVerifier string) (store.AuthCode, error) {
	row, err := k.store.AuthCodes().Consume(ctx, crypto.SHA256Hex(plaintextCode))
	if err != nil {
		return store.AuthCode{}, ErrInvalidCode
	}
	if row.ExpiresAt.Before(k.now()) {
		return store.AuthCode{}, ErrInvalidCode
	}
	if row.TenantID != tenantID {
		return store.AuthCode{}, ErrInvalidCode
	}
	if row.RedirectOrigin != redirectOrigin {
		return store.AuthCode{}, ErrInvalidCode
	}
	if row.CodeChallenge != "" {
		if !crypto.PKCEVerify(codeVerifier, row.CodeChallenge) {
			return store.AuthCode{}, ErrInvalidCode
		}
	}
	return row, nil
}
