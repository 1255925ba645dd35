// Package jwtkernel signs and verifies ES256 access tokens and publishes
// the verification key as a JWKS discovery document. The private key and
// the serialized JWKS body are the only two legitimate process-wide caches
// in this service (spec §9), mirrored on the teacher's cached-secret
// pattern in internal/auth/auth.go.
package jwtkernel

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qazna.org/internal/ids"
	"qazna.org/internal/store"
)

// Claims carried by every access token, plus the admin-only extension
// fields. For aud=storefront, JTI/Roles/PrimaryTenantID must all be the
// zero value and MarshalJSON omits them entirely. For aud=admin, the
// three keys are always present — roles as [] and primaryTenantId as
// null when there's no applicable value — per spec §4.5/§8 scenario 6.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`

	JTI             string   `json:"jti,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	PrimaryTenantID *string  `json:"primaryTenantId,omitempty"`
}

// storefrontClaimsJSON and adminClaimsJSON back Claims.MarshalJSON: the
// admin shape drops omitempty on the extension fields so they're always
// emitted, while the storefront shape keeps omitting them.
type storefrontClaimsJSON struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

type adminClaimsJSON struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`

	JTI             string   `json:"jti"`
	Roles           []string `json:"roles"`
	PrimaryTenantID *string  `json:"primaryTenantId"`
}

func (c Claims) MarshalJSON() ([]byte, error) {
	if c.isAdminAudience() {
		roles := c.Roles
		if roles == nil {
			roles = []string{}
		}
		return json.Marshal(adminClaimsJSON{
			RegisteredClaims: c.RegisteredClaims,
			Email:            c.Email,
			Name:             c.Name,
			JTI:              c.JTI,
			Roles:            roles,
			PrimaryTenantID:  c.PrimaryTenantID,
		})
	}
	return json.Marshal(storefrontClaimsJSON{
		RegisteredClaims: c.RegisteredClaims,
		Email:            c.Email,
		Name:             c.Name,
	})
}

func (c Claims) isAdminAudience() bool {
	for _, aud := range c.Audience {
		if aud == AudienceAdmin {
			return true
		}
	}
	return false
}

// Kernel signs and verifies access tokens.
type Kernel struct {
	privateKey *ecdsa.PrivateKey
	publicKey  *ecdsa.PublicKey
	keyID      string
	issuer     string
	accessTTL  time.Duration
	now        func() time.Time

	jwksMu   sync.Mutex
	jwksBody []byte
	jwksETag string
}

// New constructs a Kernel from an already-imported ES256 keypair.
func New(privateKey *ecdsa.PrivateKey, publicKey *ecdsa.PublicKey, keyID, issuer string, accessTTL time.Duration) *Kernel {
	return &Kernel{
		privateKey: privateKey,
		publicKey:  publicKey,
		keyID:      keyID,
		issuer:     issuer,
		accessTTL:  accessTTL,
		now:        time.Now,
	}
}

// Audience constants, mirrored from store for caller convenience.
const (
	AudienceStorefront = store.AudienceStorefront
	AudienceAdmin      = store.AudienceAdmin
)

// SignParams is the input to Sign.
type SignParams struct {
	UserID   string
	Email    string
	Name     string
	Audience string
	// Admin-audience only:
	Roles           []string
	PrimaryTenantID *string
}

// Sign produces a compact ES256 JWS per spec §4.5.
func (k *Kernel) Sign(p SignParams) (string, time.Time, error) {
	now := k.now()
	exp := now.Add(k.accessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    k.issuer,
			Audience:  jwt.ClaimStrings{p.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: p.Email,
		Name:  p.Name,
	}
	if p.Audience == AudienceAdmin {
		claims.JTI = ids.New()
		roles := p.Roles
		if roles == nil {
			roles = []string{}
		}
		claims.Roles = roles
		claims.PrimaryTenantID = p.PrimaryTenantID
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	tok.Header["kid"] = k.keyID
	signed, err := tok.SignedString(k.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks the compact-serialization structure, algorithm, expiry,
// and signature against the public key. Used only internally, e.g. by the
// memberships endpoint.
func (k *Kernel) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodES256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}
