package oauthfed

import (
	"context"
	"fmt"
	"regexp"

	"golang.org/x/oauth2"

	"qazna.org/internal/config"
)

// microsoftIssuerPattern accepts any tenant-specific issuer Microsoft mints
// (https://login.microsoftonline.com/<tenant-guid>/v2.0), since the
// configured tenant may be "common" and the actual issuer is per-account.
var microsoftIssuerPattern = regexp.MustCompile(`^https://login\.microsoftonline\.com/[0-9a-fA-F-]+/v2\.0$`)

type microsoftAdapter struct{}

func (microsoftAdapter) Name() string            { return Microsoft }
func (microsoftAdapter) Scopes() []string        { return []string{"openid", "email", "profile"} }
func (microsoftAdapter) SupportsOIDCNonce() bool { return true }

func (microsoftAdapter) Configured(cfg config.Config) bool {
	return cfg.MicrosoftClientID != "" && cfg.MicrosoftClientSecret != ""
}

func (a microsoftAdapter) oauth2Config(cfg config.Config, redirectURI string) *oauth2.Config {
	tenant := cfg.MicrosoftTenant
	if tenant == "" {
		tenant = "common"
	}
	return &oauth2.Config{
		ClientID:     cfg.MicrosoftClientID,
		ClientSecret: cfg.MicrosoftClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       a.Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/authorize", tenant),
			TokenURL: fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenant),
		},
	}
}

func (a microsoftAdapter) AuthURL(cfg config.Config, state, challenge, redirectURI, nonce string) (string, error) {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_mode", "query"),
	}
	return a.oauth2Config(cfg, redirectURI).AuthCodeURL(state, opts...), nil
}

func (a microsoftAdapter) Exchange(ctx context.Context, cfg config.Config, in ExchangeInput) (Profile, error) {
	oc := a.oauth2Config(cfg, in.RedirectURI)
	exchangeCtx, cancel := context.WithTimeout(ctx, providerCallDeadline)
	defer cancel()
	tok, err := oc.Exchange(exchangeCtx, in.Code, oauth2.SetAuthURLParam("code_verifier", in.CodeVerifier))
	if err != nil {
		return Profile{}, fmt.Errorf("microsoft token exchange: %w", err)
	}
	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return Profile{}, fmt.Errorf("microsoft response missing id_token")
	}
	claims, err := parseIDToken(idToken, microsoftIssuerPattern, cfg.MicrosoftClientID, in.Nonce)
	if err != nil {
		return Profile{}, err
	}
	// Microsoft work/school accounts frequently omit email_verified; when
	// the claim is not a boolean, a present, non-empty email from the
	// id_token is treated as verified for personal and organizational
	// accounts alike, matching Microsoft's own guidance that email claims on
	// v2.0 tokens are pre-validated. A boolean email_verified claim wins.
	verified := claims.Email != ""
	if v, ok := claims.EmailVerified.(bool); ok {
		verified = v
	}
	return Profile{
		Provider:          Microsoft,
		ProviderAccountID: claims.Subject,
		Email:             claims.Email,
		EmailVerified:     verified,
		Name:              claims.Name,
		AvatarURL:         claims.Picture,
	}, nil
}
