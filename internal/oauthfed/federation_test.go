package oauthfed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"qazna.org/internal/config"
	"qazna.org/internal/migrate"
	"qazna.org/internal/redirect"
	"qazna.org/internal/store"
	"qazna.org/internal/store/sqlite"
	"qazna.org/internal/token"
)

type noDomains struct{}

func (noDomains) Lookup(context.Context, string) (string, bool) { return "", false }

func newTestService(t *testing.T) *Service {
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
	tokens := token.New(st, 30*24*time.Hour, 60*time.Second)
	return New(st, tokens, noDomains{}, config.Config{Environment: "production", AuthDomain: "https://auth.qazna.test"}, 5*time.Minute)
}

func TestResolveUserCreatesNewFederatedUser(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	profile := Profile{Provider: Google, ProviderAccountID: "g-1", Email: "newuser@example.com", EmailVerified: true, Name: "New User"}

	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		t.Fatalf("resolveUser: %v", err)
	}
	if user.Email != "newuser@example.com" {
		t.Fatalf("unexpected email: %q", user.Email)
	}

	link, err := s.Store.FederatedIdentities().Find(ctx, Google, "g-1")
	if err != nil {
		t.Fatalf("expected a federated identity link, got %v", err)
	}
	if link.UserID != user.ID {
		t.Fatalf("expected the link to point at the created user")
	}
}

func TestResolveUserReusesKnownLink(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	profile := Profile{Provider: Google, ProviderAccountID: "g-2", Email: "repeat@example.com", EmailVerified: true, Name: "First Name"}

	first, err := s.resolveUser(ctx, profile)
	if err != nil {
		t.Fatalf("first resolveUser: %v", err)
	}
	profile.Name = "" // second login reports no name; backfill must not clobber
	second, err := s.resolveUser(ctx, profile)
	if err != nil {
		t.Fatalf("second resolveUser: %v", err)
	}
	if first.ID != second.ID {
		t.Fatal("expected the same user on a repeat login")
	}
	got, err := s.Store.Users().FindByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.Name != "First Name" {
		t.Fatalf("expected the original name to survive a blank backfill, got %q", got.Name)
	}
}

func TestResolveUserLinksVerifiedEmailToExistingAccount(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	existing, err := s.Store.Users().Create(ctx, store.User{Email: "shared@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create existing user: %v", err)
	}

	profile := Profile{Provider: Google, ProviderAccountID: "g-3", Email: "shared@example.com", EmailVerified: true, Name: "Shared"}
	resolved, err := s.resolveUser(ctx, profile)
	if err != nil {
		t.Fatalf("resolveUser: %v", err)
	}
	if resolved.ID != existing.ID {
		t.Fatal("expected the federated login to link to the existing account")
	}
	got, err := s.Store.Users().FindByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if !got.EmailVerified {
		t.Fatal("expected linking a verified-email profile to mark the account verified")
	}
}

func TestResolveUserSplitsUnverifiedEmailIntoNewAccount(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	existing, err := s.Store.Users().Create(ctx, store.User{Email: "maybe-stolen@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create existing user: %v", err)
	}

	profile := Profile{Provider: Facebook, ProviderAccountID: "f-1", Email: "maybe-stolen@example.com", EmailVerified: false, Name: "Attacker Claim"}
	resolved, err := s.resolveUser(ctx, profile)
	if err != nil {
		t.Fatalf("resolveUser: %v", err)
	}
	if resolved.ID == existing.ID {
		t.Fatal("expected an unverified-email match to create a separate account, not take over the existing one")
	}
}

func TestInitiateRejectsUnconfiguredProvider(t *testing.T) {
	s := newTestService(t)
	if _, err := s.Initiate(context.Background(), Google, "https://store-a.centerpiece.shop/"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured for a provider with no credentials set, got %v", err)
	}
}

func TestInitiateRejectsUnknownProvider(t *testing.T) {
	s := newTestService(t)
	_, err := s.Initiate(context.Background(), "tiktok", "https://store-a.centerpiece.shop/")
	if _, ok := err.(UnknownProvider); !ok {
		t.Fatalf("expected UnknownProvider, got %v (%T)", err, err)
	}
}

func TestInitiateRejectsInvalidRedirect(t *testing.T) {
	s := newTestService(t)
	s.Config.GoogleClientID = "client-id"
	s.Config.GoogleClientSecret = "client-secret"
	if _, err := s.Initiate(context.Background(), Google, "https://evil.example.com/"); err != redirect.ErrRejected {
		t.Fatalf("expected ErrRejected for an uncontrolled redirect, got %v", err)
	}
}

func TestCallbackFailsOnUnknownState(t *testing.T) {
	s := newTestService(t)
	_, err := s.Callback(context.Background(), Google, "auth-code", "never-issued-state", "", "1.2.3.4", "ua")
	if err != ErrFailed {
		t.Fatalf("expected ErrFailed for an unknown state, got %v", err)
	}
}
