package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"qazna.org/internal/migrate"
	"qazna.org/internal/store"
)

// openTestStore opens a throwaway on-disk SQLite database and applies the
// repository's migrations against it, the same path cmd/migrate exercises.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	mgr := migrate.NewManager(st.DB(), "../../../migrations", "")
	if err := mgr.Up(context.Background()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return st
}

func TestUserCreateFindAndUniqueEmail(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	u, err := st.Users().Create(ctx, store.User{Email: "Shopper@Example.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Email != "shopper@example.com" {
		t.Fatalf("expected email to be lowercased, got %q", u.Email)
	}

	found, err := st.Users().FindByEmail(ctx, "shopper@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != u.ID {
		t.Fatalf("expected to find the created user, got id %q", found.ID)
	}

	if _, err := st.Users().Create(ctx, store.User{Email: "shopper@example.com", PasswordHash: "another"}); err != store.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists for a second credentialed row with the same email, got %v", err)
	}
}

func TestUserFindByIDNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.Users().FindByID(context.Background(), "missing"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserBackfillProfileOnlyFillsEmpty(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	u, err := st.Users().Create(ctx, store.User{Email: "new@example.com", Name: "Existing Name"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.Users().BackfillProfile(ctx, u.ID, "From Provider", "https://avatar.example.com/a.png"); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	got, err := st.Users().FindByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "Existing Name" {
		t.Fatalf("expected existing non-empty name to survive, got %q", got.Name)
	}
	if got.AvatarURL != "https://avatar.example.com/a.png" {
		t.Fatalf("expected empty avatar to be backfilled, got %q", got.AvatarURL)
	}
}

func TestMembershipEnsureCustomerIsIdempotent(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	u, err := st.Users().Create(ctx, store.User{Email: "seller@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := st.Memberships().EnsureCustomer(ctx, u.ID, "tenant-1"); err != nil {
		t.Fatalf("ensure customer: %v", err)
	}
	if err := st.Memberships().EnsureCustomer(ctx, u.ID, "tenant-1"); err != nil {
		t.Fatalf("ensure customer (second call): %v", err)
	}
	memberships, err := st.Memberships().ListByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(memberships) != 1 || memberships[0].TenantID != "tenant-1" {
		t.Fatalf("unexpected memberships: %+v", memberships)
	}
	if memberships[0].Role != store.RoleCustomer || memberships[0].Status != store.MembershipActive {
		t.Fatalf("unexpected role/status: %+v", memberships[0])
	}
}

func TestAuthCodeInsertAndConsume(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	u, err := st.Users().Create(ctx, store.User{Email: "buyer@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	code := store.AuthCode{
		CodeHash: "deadbeef", UserID: u.ID, TenantID: "tenant-1", RedirectOrigin: "https://store-a.centerpiece.shop",
		Audience: store.AudienceStorefront, ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := st.AuthCodes().Insert(ctx, code); err != nil {
		t.Fatalf("insert auth code: %v", err)
	}
	got, err := st.AuthCodes().Consume(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("consume auth code: %v", err)
	}
	if got.UserID != u.ID {
		t.Fatalf("expected matching user id, got %q", got.UserID)
	}
	if _, err := st.AuthCodes().Consume(ctx, "deadbeef"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for a second consume of the same code, got %v", err)
	}
}

func TestSweepRemovesExpiredAuthCodes(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	u, err := st.Users().Create(ctx, store.User{Email: "expired@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	expired := store.AuthCode{
		CodeHash: "expiredhash", UserID: u.ID, TenantID: "tenant-1", RedirectOrigin: "https://store-a.centerpiece.shop",
		Audience: store.AudienceStorefront, ExpiresAt: time.Now().Add(-time.Hour),
	}
	if err := st.AuthCodes().Insert(ctx, expired); err != nil {
		t.Fatalf("insert expired auth code: %v", err)
	}
	if err := st.Sweep(ctx, time.Now()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if _, err := st.AuthCodes().Consume(ctx, "expiredhash"); err != store.ErrNotFound {
		t.Fatalf("expected sweep to remove the expired code, got %v", err)
	}
}

func TestFederatedIdentityCreateAndFind(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	u, err := st.Users().Create(ctx, store.User{Email: "fed@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	link, err := st.FederatedIdentities().Create(ctx, store.FederatedIdentityLink{
		UserID: u.ID, Provider: "google", ProviderAccount: "g-123",
	})
	if err != nil {
		t.Fatalf("create link: %v", err)
	}
	if link.ID == "" || link.CreatedAt.IsZero() {
		t.Fatalf("expected a generated id and timestamp, got %+v", link)
	}

	found, err := st.FederatedIdentities().Find(ctx, "google", "g-123")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.UserID != u.ID {
		t.Fatalf("expected matching user id, got %q", found.UserID)
	}

	if _, err := st.FederatedIdentities().Find(ctx, "google", "never-linked"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for an unknown link, got %v", err)
	}

	if _, err := st.FederatedIdentities().Create(ctx, store.FederatedIdentityLink{UserID: u.ID, Provider: "google", ProviderAccount: "g-123"}); err != store.ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists for a duplicate (provider, provider_account_id), got %v", err)
	}
}

func TestFlowStateInsertAndConsume(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	fs := store.FederationFlowState{
		State: "state-abc", TenantID: "tenant-1", RedirectURL: "https://store-a.centerpiece.shop/",
		CodeVerifier: "verifier", Nonce: "nonce-1", Provider: "google", ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := st.FlowStates().Insert(ctx, fs); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := st.FlowStates().Consume(ctx, "state-abc")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.TenantID != "tenant-1" || got.CodeVerifier != "verifier" || got.Nonce != "nonce-1" {
		t.Fatalf("unexpected flow state: %+v", got)
	}

	if _, err := st.FlowStates().Consume(ctx, "state-abc"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for a second consume of the same state, got %v", err)
	}
}

func TestFlowStateConsumeMissingStateIsNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.FlowStates().Consume(context.Background(), "never-issued"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPasswordResetInsertConsumeAndSingleUse(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	u, err := st.Users().Create(ctx, store.User{Email: "reset@example.com"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	tok := store.PasswordResetToken{TokenHash: "hash-1", UserID: u.ID, ExpiresAt: time.Now().Add(time.Minute)}
	if err := st.PasswordResets().Insert(ctx, tok); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := st.PasswordResets().Consume(ctx, "hash-1")
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got.UserID != u.ID || got.UsedAt == nil {
		t.Fatalf("expected the consumed token to be marked used, got %+v", got)
	}

	if _, err := st.PasswordResets().Consume(ctx, "hash-1"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound for a second consume of an already-used token, got %v", err)
	}
}

func TestPasswordResetConsumeUnknownHashIsNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.PasswordResets().Consume(context.Background(), "never-issued"); err != store.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDomainLookupRegisterAndResolve(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	if _, ok := st.Lookup(ctx, "shop.example.com"); ok {
		t.Fatal("expected an unregistered host to miss")
	}
	if err := st.RegisterDomain(ctx, "shop.example.com", "tenant-42"); err != nil {
		t.Fatalf("register domain: %v", err)
	}
	tenantID, ok := st.Lookup(ctx, "shop.example.com")
	if !ok || tenantID != "tenant-42" {
		t.Fatalf("expected tenant-42, got %q ok=%v", tenantID, ok)
	}
	if err := st.RegisterDomain(ctx, "shop.example.com", "tenant-99"); err != nil {
		t.Fatalf("re-register domain: %v", err)
	}
	tenantID, ok = st.Lookup(ctx, "shop.example.com")
	if !ok || tenantID != "tenant-99" {
		t.Fatalf("expected re-registration to overwrite the tenant id, got %q ok=%v", tenantID, ok)
	}
}
