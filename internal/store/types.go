// Package store defines the typed data-access surface over the identity
// service's seven entities, and the sqlite subpackage implements it.
package store

import "time"

// User is the platform-wide identity. PasswordHash is empty iff the user
// has only federated credentials.
type User struct {
	ID            string
	Email         string
	EmailVerified bool
	PasswordHash  string
	Name          string
	AvatarURL     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	RoleCustomer      = "customer"
	RoleSeller        = "seller"
	RoleSupplier      = "supplier"
	RolePlatformAdmin = "platform-admin"

	MembershipActive    = "active"
	MembershipSuspended = "suspended"
	MembershipInvited   = "invited"
)

// TenantMembership associates a user with a tenant under a role.
type TenantMembership struct {
	ID        string
	UserID    string
	TenantID  string
	Role      string
	Status    string
	CreatedAt time.Time
}

// FederatedIdentityLink binds a user to a provider account.
type FederatedIdentityLink struct {
	ID              string
	UserID          string
	Provider        string
	ProviderAccount string
	CreatedAt       time.Time
}

const (
	AudienceStorefront = "storefront"
	AudienceAdmin      = "admin"
)

// AuthCode is a short-lived single-use exchange record, keyed by the
// SHA-256 hash of the plaintext code.
type AuthCode struct {
	CodeHash            string
	UserID              string
	TenantID            string
	RedirectOrigin      string
	Audience            string
	ExpiresAt           time.Time
	CodeChallenge       string
	CodeChallengeMethod string
}

// RefreshToken is a long-lived rotatable credential.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	FamilyID   string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
	CreatedIP  string
	UserAgent  string
}

// FederationFlowState pins one provider round-trip.
type FederationFlowState struct {
	State        string
	TenantID     string
	RedirectURL  string
	CodeVerifier string
	Nonce        string
	Provider     string
	ExpiresAt    time.Time
}

// PasswordResetToken is keyed by the SHA-256 hash of the plaintext token.
type PasswordResetToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	UsedAt    *time.Time
}
