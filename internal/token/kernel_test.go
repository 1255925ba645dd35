package token

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"qazna.org/internal/migrate"
	"qazna.org/internal/store"
	"qazna.org/internal/store/sqlite"
)

func newTestKernel(t *testing.T) (*Kernel, store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	mgr := migrate.NewManager(st.DB(), "../../migrations", "")
	if err := mgr.Up(context.Background()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return New(st, 30*24*time.Hour, 60*time.Second), st
}

func createTestUser(t *testing.T, st store.Store) store.User {
	t.Helper()
	u, err := st.Users().Create(context.Background(), store.User{Email: "kernel-user@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestIssueFamilyThenRotate(t *testing.T) {
	k, st := newTestKernel(t)
	u := createTestUser(t, st)
	ctx := context.Background()

	issued, err := k.IssueFamily(ctx, u.ID, "203.0.113.1", "test-agent")
	if err != nil {
		t.Fatalf("issue family: %v", err)
	}
	if issued.Plaintext == "" {
		t.Fatal("expected a plaintext refresh token")
	}

	rotated, err := k.Rotate(ctx, issued.Plaintext, "203.0.113.1", "test-agent")
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.Row.FamilyID != issued.Row.FamilyID {
		t.Fatal("expected rotation to preserve the family id")
	}
	if rotated.Plaintext == issued.Plaintext {
		t.Fatal("expected a fresh plaintext token on rotation")
	}
}

func TestRotateDetectsReuseAndRevokesFamily(t *testing.T) {
	k, st := newTestKernel(t)
	u := createTestUser(t, st)
	ctx := context.Background()

	issued, err := k.IssueFamily(ctx, u.ID, "203.0.113.1", "test-agent")
	if err != nil {
		t.Fatalf("issue family: %v", err)
	}
	rotated, err := k.Rotate(ctx, issued.Plaintext, "203.0.113.1", "test-agent")
	if err != nil {
		t.Fatalf("first rotate: %v", err)
	}

	if _, err := k.Rotate(ctx, issued.Plaintext, "203.0.113.1", "test-agent"); err != ErrReuseDetected {
		t.Fatalf("expected ErrReuseDetected on replay of a rotated-away token, got %v", err)
	}

	if _, err := k.Rotate(ctx, rotated.Plaintext, "203.0.113.1", "test-agent"); err != ErrSessionExpired {
		t.Fatalf("expected the whole family revoked after reuse, got %v", err)
	}
}

func TestRotateUnknownTokenIsSessionExpired(t *testing.T) {
	k, _ := newTestKernel(t)
	if _, err := k.Rotate(context.Background(), "never-issued", "1.2.3.4", "ua"); err != ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired for an unknown token, got %v", err)
	}
}

func TestIssueAndExchangeAuthCode(t *testing.T) {
	k, st := newTestKernel(t)
	u := createTestUser(t, st)
	ctx := context.Background()

	code, err := k.IssueAuthCode(ctx, AuthCodeParams{
		UserID: u.ID, TenantID: "tenant-1", RedirectOrigin: "https://store-a.centerpiece.shop", Audience: store.AudienceStorefront,
	})
	if err != nil {
		t.Fatalf("issue auth code: %v", err)
	}

	row, err := k.ExchangeAuthCode(ctx, code, "tenant-1", "https://store-a.centerpiece.shop", "")
	if err != nil {
		t.Fatalf("exchange auth code: %v", err)
	}
	if row.UserID != u.ID {
		t.Fatalf("expected matching user id, got %q", row.UserID)
	}

	if _, err := k.ExchangeAuthCode(ctx, code, "tenant-1", "https://store-a.centerpiece.shop", ""); err != ErrInvalidCode {
		t.Fatalf("expected a second exchange of the same code to fail, got %v", err)
	}
}

func TestExchangeAuthCodeRejectsTenantMismatch(t *testing.T) {
	k, st := newTestKernel(t)
	u := createTestUser(t, st)
	ctx := context.Background()

	code, err := k.IssueAuthCode(ctx, AuthCodeParams{
		UserID: u.ID, TenantID: "tenant-1", RedirectOrigin: "https://store-a.centerpiece.shop", Audience: store.AudienceStorefront,
	})
	if err != nil {
		t.Fatalf("issue auth code: %v", err)
	}
	if _, err := k.ExchangeAuthCode(ctx, code, "tenant-2", "https://store-a.centerpiece.shop", ""); err != ErrInvalidCode {
		t.Fatalf("expected ErrInvalidCode for a tenant mismatch, got %v", err)
	}
}

func TestExchangeAuthCodeRequiresPKCEVerifierMatch(t *testing.T) {
	k, st := newTestKernel(t)
	u := createTestUser(t, st)
	ctx := context.Background()

	code, err := k.IssueAuthCode(ctx, AuthCodeParams{
		UserID: u.ID, TenantID: "tenant-1", RedirectOrigin: "https://store-a.centerpiece.shop", Audience: store.AudienceStorefront,
		CodeChallenge: "expected-challenge", CodeChallengeMethod: "S256",
	})
	if err != nil {
		t.Fatalf("issue auth code: %v", err)
	}
	if _, err := k.ExchangeAuthCode(ctx, code, "tenant-1", "https://store-a.centerpiece.shop", "wrong-verifier"); err != ErrInvalidCode {
		t.Fatalf("expected ErrInvalidCode for a mismatched PKCE verifier, got %v", err)
	}
}

func TestRevokeAllForUserBlocksFurtherRotation(t *testing.T) {
	k, st := newTestKernel(t)
	u := createTestUser(t, st)
	ctx := context.Background()

	issued, err := k.IssueFamily(ctx, u.ID, "203.0.113.1", "test-agent")
	if err != nil {
		t.Fatalf("issue family: %v", err)
	}
	if err := k.RevokeAllForUser(ctx, u.ID); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if _, err := k.Rotate(ctx, issued.Plaintext, "203.0.113.1", "test-agent"); err != ErrReuseDetected {
		t.Fatalf("expected a revoked token to be treated as reuse, got %v", err)
	}
}
