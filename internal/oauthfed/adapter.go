package oauthfed

import (
	"context"

	"qazna.org/internal/config"
)

// Provider names, the tagged-variant discriminant the spec recommends
// (§9 "Dynamic dispatch / interfaces") in place of a class hierarchy.
const (
	Google    = "google"
	Facebook  = "facebook"
	Apple     = "apple"
	Microsoft = "microsoft"
)

// Profile is the normalized result of a successful provider round-trip.
type Profile struct {
	Provider          string
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	Name              string
	AvatarURL         string
}

// ExchangeInput carries everything an adapter needs to turn an
// authorization code into a normalized Profile.
type ExchangeInput struct {
	Code         string
	RedirectURI  string
	CodeVerifier string
	Nonce        string
	// FormUser is Apple's first-login-only "user" form field: a JSON blob
	// with the name Apple will never send again on subsequent logins.
	FormUser string
}

// Adapter is the small shared contract every provider implements: build
// its authorization URL, and turn a callback's code into a profile. OIDC
// signature verification is deliberately elided (spec §4.7.5): the tokens
// arrive over a TLS channel directly from the provider's own token
// endpoint, the standard posture for confidential clients.
type Adapter interface {
	Name() string
	Scopes() []string
	SupportsOIDCNonce() bool
	AuthURL(cfg config.Config, state, challenge, redirectURI, nonce string) (string, error)
	Exchange(ctx context.Context, cfg config.Config, in ExchangeInput) (Profile, error)
	Configured(cfg config.Config) bool
}

// Adapters returns the full provider set keyed by name.
func Adapters() map[string]Adapter {
	return map[string]Adapter{
		Google:    googleAdapter{},
		Facebook:  facebookAdapter{},
		Apple:     appleAdapter{},
		Microsoft: microsoftAdapter{},
	}
}
