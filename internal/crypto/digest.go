package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// RandomToken returns n cryptographically random bytes hex-encoded. The
// spec requires at least 32 bytes of entropy for refresh tokens,
// authorization codes, reset tokens, and OAuth state values.
func RandomToken(n int) (string, error) {
	if n < 32 {
		n = 32
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return hexEncode(buf), nil
}

// RandomTokenBase64URL returns n cryptographically random bytes encoded as
// unpadded base64url, the form PKCE code-verifiers are specified in.
func RandomTokenBase64URL(n int) (string, error) {
	if n < 32 {
		n = 32
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SHA256Hex is the storage representation of any token handed to a client:
// the plaintext never survives past the response that returns it.
func SHA256Hex(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hexEncode(sum[:])
}

// PKCEChallengeS256 derives the S256 PKCE challenge from a code verifier.
func PKCEChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// PKCEVerify reports whether verifier's S256 transform equals challenge,
// comparing in constant time.
func PKCEVerify(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	got := PKCEChallengeS256(verifier)
	return constantTimeEqual([]byte(got), []byte(challenge))
}

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}

func unhex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
