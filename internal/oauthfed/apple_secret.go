package oauthfed

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qazna.org/internal/config"
	"qazna.org/internal/crypto"
)

// appleClientSecretTTL is well under Apple's six-month ceiling; minted
// fresh on every exchange so there is nothing long-lived to rotate.
const appleClientSecretTTL = 5 * time.Minute

// appleClientSecret builds the ES256-signed JWT Apple requires in place of
// a static client secret (developer.apple.com/documentation/sign_in_with_apple/generate_and_validate_tokens).
func appleClientSecret(cfg config.Config, now time.Time) (string, error) {
	key, err := crypto.ImportES256PrivateKey(cfg.ApplePrivateKey)
	if err != nil {
		return "", fmt.Errorf("import apple private key: %w", err)
	}

	claims := jwt.RegisteredClaims{
		Issuer:    cfg.AppleTeamID,
		Subject:   cfg.AppleClientID,
		Audience:  jwt.ClaimStrings{"https://appleid.apple.com"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(appleClientSecretTTL)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tok.Header["kid"] = cfg.AppleKeyID

	signed, err := tok.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign apple client secret: %w", err)
	}
	return signed, nil
}
