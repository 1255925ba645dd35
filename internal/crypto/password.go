// Package crypto holds the security floor of the identity service: password
// hashing, random token generation, digests, PKCE, and ES256 key handling.
// Nothing outside this package touches a raw cryptographic primitive.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2MinIterations = 100_000
	pbkdf2SaltLength    = 32
	pbkdf2KeyLength     = 32
)

// HashPassword derives a self-describing PBKDF2-SHA256 record of the form
// "pbkdf2:<iterations>:<salt-hex>:<hash-hex>".
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	salt := make([]byte, pbkdf2SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return deriveRecord(password, pbkdf2MinIterations, salt), nil
}

// VerifyPassword reports whether password matches the stored PBKDF2 record.
// A malformed record is treated as a non-match; it never panics or errors.
func VerifyPassword(record, password string) bool {
	iterations, salt, wantHash, ok := parseRecord(record)
	if !ok {
		return false
	}
	gotHash := pbkdf2.Key([]byte(password), salt, iterations, pbkdf2KeyLength, sha256.New)
	return constantTimeEqual(gotHash, wantHash)
}

func deriveRecord(password string, iterations int, salt []byte) string {
	hash := pbkdf2.Key([]byte(password), salt, iterations, pbkdf2KeyLength, sha256.New)
	return fmt.Sprintf("pbkdf2:%d:%s:%s", iterations, hexEncode(salt), hexEncode(hash))
}

func parseRecord(record string) (iterations int, salt, hash []byte, ok bool) {
	parts := strings.Split(record, ":")
	if len(parts) != 4 || parts[0] != "pbkdf2" {
		return 0, nil, nil, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n <= 0 {
		return 0, nil, nil, false
	}
	saltBytes, err := unhex(parts[2])
	if err != nil {
		return 0, nil, nil, false
	}
	hashBytes, err := unhex(parts[3])
	if err != nil {
		return 0, nil, nil, false
	}
	return n, saltBytes, hashBytes, true
}

// constantTimeEqual compares two byte slices. A length mismatch returns
// false at once, which is safe since lengths are not secret; slices of
// equal length are compared in constant time.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
