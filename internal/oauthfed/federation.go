package oauthfed

import (
	"context"
	"fmt"
	"time"

	"qazna.org/internal/config"
	"qazna.org/internal/crypto"
	"qazna.org/internal/redirect"
	"qazna.org/internal/store"
	"qazna.org/internal/token"
)

// Service runs the provider-agnostic initiation/callback state machine.
type Service struct {
	Store    store.Store
	Tokens   *token.Kernel
	Domains  redirect.DomainLookup
	Config   config.Config
	FlowTTL  time.Duration
	now      func() time.Time
}

// New constructs a Service. flowTTL is capped at five minutes per spec §4.7.
func New(st store.Store, tokens *token.Kernel, domains redirect.DomainLookup, cfg config.Config, flowTTL time.Duration) *Service {
	if flowTTL > 5*time.Minute {
		flowTTL = 5 * time.Minute
	}
	return &Service{Store: st, Tokens: tokens, Domains: domains, Config: cfg, FlowTTL: flowTTL, now: time.Now}
}

func (s *Service) adapter(provider string) (Adapter, error) {
	a, ok := Adapters()[provider]
	if !ok {
		return nil, UnknownProvider{Name: provider}
	}
	return a, nil
}

func (s *Service) callbackURL(provider string) string {
	return fmt.Sprintf("%s/oauth/%s/callback", s.Config.AuthDomain, provider)
}

// Initiate implements spec §4.7's initiation sequence and returns the
// provider authorization URL to 302 to.
func (s *Service) Initiate(ctx context.Context, provider, redirectURL string) (string, error) {
	a, err := s.adapter(provider)
	if err != nil {
		return "", err
	}
	if !a.Configured(s.Config) {
		return "", ErrNotConfigured
	}

	redir, err := redirect.Validate(ctx, redirectURL, s.Config.IsProduction(), s.Domains)
	if err != nil {
		return "", redirect.ErrRejected
	}

	state, err := crypto.RandomToken(32)
	if err != nil {
		return "", err
	}
	verifier, err := crypto.RandomTokenBase64URL(32)
	if err != nil {
		return "", err
	}
	var nonce string
	if a.SupportsOIDCNonce() {
		nonce, err = crypto.RandomToken(16)
		if err != nil {
			return "", err
		}
	}

	if err := s.Store.FlowStates().Insert(ctx, store.FederationFlowState{
		State:        state,
		TenantID:     redir.TenantID,
		RedirectURL:  redirectURL,
		CodeVerifier: verifier,
		Nonce:        nonce,
		Provider:     provider,
		ExpiresAt:    s.now().Add(s.FlowTTL),
	}); err != nil {
		return "", err
	}

	challenge := crypto.PKCEChallengeS256(verifier)
	return a.AuthURL(s.Config, state, challenge, s.callbackURL(provider), nonce)
}

// CallbackResult is what the httpapi layer needs to 302 to the tenant
// callback with a minted session, exactly like the credential flows.
type CallbackResult struct {
	RedirectOrigin string
	ReturnTo       string
	TenantID       string
	Code           string
	RefreshToken   string
	RefreshExpiry  time.Time
}

// Callback implements spec §4.7's callback sequence: consume state,
// exchange code, resolve user, ensure membership, mint session.
func (s *Service) Callback(ctx context.Context, provider, code, state, formUser, ip, userAgent string) (CallbackResult, error) {
	a, err := s.adapter(provider)
	if err != nil {
		return CallbackResult{}, ErrFailed
	}

	flow, err := s.Store.FlowStates().Consume(ctx, state)
	if err != nil {
		return CallbackResult{}, ErrFailed
	}
	if flow.Provider != provider {
		return CallbackResult{}, ErrFailed
	}
	if flow.ExpiresAt.Before(s.now()) {
		return CallbackResult{}, ErrFailed
	}

	profile, err := a.Exchange(ctx, s.Config, ExchangeInput{
		Code:         code,
		RedirectURI:  s.callbackURL(provider),
		CodeVerifier: flow.CodeVerifier,
		Nonce:        flow.Nonce,
		FormUser:     formUser,
	})
	if err != nil {
		return CallbackResult{}, ErrFailed
	}

	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		return CallbackResult{}, ErrFailed
	}

	if err := s.Store.Memberships().EnsureCustomer(ctx, user.ID, flow.TenantID); err != nil {
		return CallbackResult{}, ErrFailed
	}
	redir, err := redirect.Validate(ctx, flow.RedirectURL, s.Config.IsProduction(), s.Domains)
	if err != nil {
		return CallbackResult{}, ErrFailed
	}
	issued, err := s.Tokens.IssueFamily(ctx, user.ID, ip, userAgent)
	if err != nil {
		return CallbackResult{}, ErrFailed
	}
	authCode, err := s.Tokens.IssueAuthCode(ctx, token.AuthCodeParams{
		UserID:         user.ID,
		TenantID:       redir.TenantID,
		RedirectOrigin: redir.Origin,
		Audience:       store.AudienceStorefront,
	})
	if err != nil {
		return CallbackResult{}, ErrFailed
	}

	return CallbackResult{
		RedirectOrigin: redir.Origin,
		ReturnTo:       redir.ReturnTo,
		TenantID:       redir.TenantID,
		Code:           authCode,
		RefreshToken:   issued.Plaintext,
		RefreshExpiry:  issued.Row.ExpiresAt,
	}, nil
}

// resolveUser implements spec §4.7.6's single, provider-agnostic
// resolution policy.
func (s *Service) resolveUser(ctx context.Context, profile Profile) (store.User, error) {
	if link, err := s.Store.FederatedIdentities().Find(ctx, profile.Provider, profile.ProviderAccountID); err == nil {
		user, err := s.Store.Users().FindByID(ctx, link.UserID)
		if err != nil {
			return store.User{}, err
		}
		_ = s.Store.Users().BackfillProfile(ctx, user.ID, profile.Name, profile.AvatarURL)
		return user, nil
	} else if err != store.ErrNotFound {
		return store.User{}, err
	}

	existing, err := s.Store.Users().FindByEmail(ctx, profile.Email)
	switch {
	case err == nil && profile.EmailVerified:
		// Link to the existing verified-email account.
		if _, linkErr := s.Store.FederatedIdentities().Create(ctx, store.FederatedIdentityLink{
			UserID:          existing.ID,
			Provider:        profile.Provider,
			ProviderAccount: profile.ProviderAccountID,
		}); linkErr != nil && linkErr != store.ErrAlreadyExists {
			return store.User{}, linkErr
		}
		_ = s.Store.Users().BackfillProfile(ctx, existing.ID, profile.Name, profile.AvatarURL)
		_ = s.Store.Users().MarkEmailVerified(ctx, existing.ID)
		return existing, nil
	case err == nil && !profile.EmailVerified:
		// Critical defense against account takeover via unverified-email
		// providers: create a new, separate user instead of linking.
		return s.createFederatedUser(ctx, profile)
	case err == store.ErrNotFound:
		return s.createFederatedUser(ctx, profile)
	default:
		return store.User{}, err
	}
}

func (s *Service) createFederatedUser(ctx context.Context, profile Profile) (store.User, error) {
	user, err := s.Store.Users().Create(ctx, store.User{
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		Name:          profile.Name,
		AvatarURL:     profile.AvatarURL,
	})
	if err != nil {
		return store.User{}, err
	}
	if _, err := s.Store.FederatedIdentities().Create(ctx, store.FederatedIdentityLink{
		UserID:          user.ID,
		Provider:        profile.Provider,
		ProviderAccount: profile.ProviderAccountID,
	}); err != nil {
		return store.User{}, err
	}
	return user, nil
}
