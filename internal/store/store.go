package store

import (
	"context"
	"time"
)

// Store is the full typed surface the identity service needs over the
// seven entities. Every implementation must enforce referential integrity
// per logical connection and use bound parameters exclusively.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	Users() UserStore
	Memberships() MembershipStore
	FederatedIdentities() FederatedIdentityStore
	AuthCodes() AuthCodeStore
	RefreshTokens() RefreshTokenStore
	FlowStates() FlowStateStore
	PasswordResets() PasswordResetStore

	// Sweep removes expired auth codes and federation flow states. It is a
	// storage-reclaim convenience, never relied on for correctness.
	Sweep(ctx context.Context, now time.Time) error
}

// UserStore covers the User entity.
type UserStore interface {
	Create(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, lowercasedEmail string) (User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	MarkEmailVerified(ctx context.Context, userID string) error
	BackfillProfile(ctx context.Context, userID, name, avatarURL string) error
}

// MembershipStore covers TenantMembership.
type MembershipStore interface {
	// EnsureCustomer inserts an active customer-role row; on conflict with
	// the (userID, tenantID, role) uniqueness constraint it is a no-op and
	// leaves status untouched.
	EnsureCustomer(ctx context.Context, userID, tenantID string) error
	ListByUser(ctx context.Context, userID string) ([]TenantMembership, error)
}

// FederatedIdentityStore covers FederatedIdentityLink.
type FederatedIdentityStore interface {
	Find(ctx context.Context, provider, providerAccountID string) (FederatedIdentityLink, error)
	Create(ctx context.Context, link FederatedIdentityLink) (FederatedIdentityLink, error)
}

// AuthCodeStore covers AuthCode.
type AuthCodeStore interface {
	Insert(ctx context.Context, code AuthCode) error
	// Consume performs a read-and-delete that is single-use under
	// contention: at most one caller observes the row even when it fails
	// later validation, which prevents replay.
	Consume(ctx context.Context, codeHash string) (AuthCode, error)
}

// RefreshTokenStore covers RefreshToken.
type RefreshTokenStore interface {
	Insert(ctx context.Context, rt RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (RefreshToken, error)
	// Rotate marks oldHash revoked (with lastUsedAt) and inserts next in the
	// same transaction, succeeding only if oldHash was not already revoked.
	// ok=false with a nil error means the old row was already revoked —
	// the caller must treat this as reuse and call RevokeFamily.
	Rotate(ctx context.Context, oldHash string, next RefreshToken) (ok bool, err error)
	RevokeFamily(ctx context.Context, familyID string) error
	RevokeByUser(ctx context.Context, userID string) error
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// FlowStateStore covers FederationFlowState.
type FlowStateStore interface {
	Insert(ctx context.Context, fs FederationFlowState) error
	// Consume performs a read-and-delete that is single-use under
	// contention, mirroring AuthCodeStore.Consume.
	Consume(ctx context.Context, state string) (FederationFlowState, error)
}

// PasswordResetStore covers PasswordResetToken.
type PasswordResetStore interface {
	Insert(ctx context.Context, t PasswordResetToken) error
	// Consume reads the row and, iff found and unused, marks used-at in the
	// same logical unit; a subsequent read never finds it unused again.
	Consume(ctx context.Context, tokenHash string) (PasswordResetToken, error)
}
