package oauthfed

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signUnverified(t *testing.T, claims idTokenClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign test id_token: %v", err)
	}
	return signed
}

func validClaims() idTokenClaims {
	return idTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Audience:  jwt.ClaimStrings{"client-123"},
			Subject:   "provider-account-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:         "user@example.com",
		EmailVerified: true,
		Nonce:         "expected-nonce",
	}
}

func TestParseIDTokenAccepts(t *testing.T) {
	idToken := signUnverified(t, validClaims())
	claims, err := parseIDToken(idToken, googleIssuerPattern, "client-123", "expected-nonce")
	if err != nil {
		t.Fatalf("parseIDToken: %v", err)
	}
	if !claims.emailVerifiedBool() {
		t.Fatal("expected email_verified to normalize to true")
	}
}

func TestParseIDTokenRejectsWrongIssuer(t *testing.T) {
	claims := validClaims()
	claims.Issuer = "https://evil.example.com"
	idToken := signUnverified(t, claims)
	if _, err := parseIDToken(idToken, googleIssuerPattern, "client-123", "expected-nonce"); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseIDTokenRejectsWrongAudience(t *testing.T) {
	claims := validClaims()
	claims.Audience = jwt.ClaimStrings{"someone-elses-client"}
	idToken := signUnverified(t, claims)
	if _, err := parseIDToken(idToken, googleIssuerPattern, "client-123", "expected-nonce"); err == nil {
		t.Fatal("expected audience mismatch to fail")
	}
}

func TestParseIDTokenRejectsExpired(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	idToken := signUnverified(t, claims)
	if _, err := parseIDToken(idToken, googleIssuerPattern, "client-123", "expected-nonce"); err == nil {
		t.Fatal("expected expired id_token to fail")
	}
}

func TestParseIDTokenRejectsNonceMismatch(t *testing.T) {
	claims := validClaims()
	claims.Nonce = "wrong-nonce"
	idToken := signUnverified(t, claims)
	if _, err := parseIDToken(idToken, googleIssuerPattern, "client-123", "expected-nonce"); err == nil {
		t.Fatal("expected nonce mismatch to fail")
	}
}

func TestParseIDTokenSkipsNonceCheckWhenNotRequested(t *testing.T) {
	claims := validClaims()
	claims.Nonce = "anything"
	idToken := signUnverified(t, claims)
	if _, err := parseIDToken(idToken, googleIssuerPattern, "client-123", ""); err != nil {
		t.Fatalf("expected no nonce check when nonce param is empty, got %v", err)
	}
}

func TestParseIDTokenIssuerRegexAllowsTenantSpecificIssuer(t *testing.T) {
	claims := validClaims()
	claims.Issuer = "https://login.microsoftonline.com/11111111-2222-3333-4444-555555555555/v2.0"
	idToken := signUnverified(t, claims)
	if _, err := parseIDToken(idToken, microsoftIssuerPattern, "client-123", "expected-nonce"); err != nil {
		t.Fatalf("expected tenant-specific issuer to match the regex, got %v", err)
	}
}
