package jwtkernel

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"testing"
	"time"
)

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return New(priv, &priv.PublicKey, "test-key-1", "https://auth.qazna.test", time.Hour)
}

func TestSignAndVerifyStorefrontToken(t *testing.T) {
	k := newTestKernel(t)
	signed, exp, err := k.Sign(SignParams{UserID: "user-1", Email: "a@example.com", Name: "A", Audience: AudienceStorefront})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if exp.Before(time.Now()) {
		t.Fatal("expected expiry in the future")
	}
	claims, err := k.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject: %q", claims.Subject)
	}
	if claims.JTI != "" || claims.Roles != nil || claims.PrimaryTenantID != nil {
		t.Fatal("expected admin-only fields to be absent for storefront audience")
	}
}

func TestSignAdminTokenIncludesRolesAndJTI(t *testing.T) {
	k := newTestKernel(t)
	tenantID := "tenant-1"
	signed, _, err := k.Sign(SignParams{
		UserID: "user-2", Audience: AudienceAdmin, Roles: []string{"seller"}, PrimaryTenantID: &tenantID,
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := k.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.JTI == "" {
		t.Fatal("expected a jti for the admin audience")
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "seller" {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
	if claims.PrimaryTenantID == nil || *claims.PrimaryTenantID != tenantID {
		t.Fatal("expected primaryTenantId to round-trip")
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	k := newTestKernel(t)
	signed, _, err := k.Sign(SignParams{UserID: "user-1", Audience: AudienceStorefront})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tampered := signed[:len(signed)-2] + "xx"
	if _, err := k.Verify(tampered); err == nil {
		t.Fatal("expected a tampered signature to fail verification")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	k := newTestKernel(t)
	other := newTestKernel(t)
	signed, _, err := other.Sign(SignParams{UserID: "user-1", Audience: AudienceStorefront})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := k.Verify(signed); err == nil {
		t.Fatal("expected verification under a different key to fail")
	}
}

func TestJWKSIsCachedAndStable(t *testing.T) {
	k := newTestKernel(t)
	body1, etag1, err := k.JWKS()
	if err != nil {
		t.Fatalf("jwks: %v", err)
	}
	body2, etag2, err := k.JWKS()
	if err != nil {
		t.Fatalf("jwks (second call): %v", err)
	}
	if string(body1) != string(body2) || etag1 != etag2 {
		t.Fatal("expected the cached jwks body/etag to be stable across calls")
	}

	var doc struct {
		Keys []struct {
			KeyID string `json:"kid"`
			Alg   string `json:"alg"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(body1, &doc); err != nil {
		t.Fatalf("unmarshal jwks: %v", err)
	}
	if len(doc.Keys) != 1 || doc.Keys[0].KeyID != "test-key-1" || doc.Keys[0].Alg != "ES256" {
		t.Fatalf("unexpected jwks contents: %+v", doc)
	}
}
