package oauthfed

import (
	"context"
	"fmt"
	"regexp"

	"golang.org/x/oauth2"

	"qazna.org/internal/config"
)

var googleIssuerPattern = regexp.MustCompile(`^https://accounts\.google\.com$`)

type googleAdapter struct{}

func (googleAdapter) Name() string            { return Google }
func (googleAdapter) Scopes() []string        { return []string{"openid", "email", "profile"} }
func (googleAdapter) SupportsOIDCNonce() bool { return true }

func (googleAdapter) Configured(cfg config.Config) bool {
	return cfg.GoogleClientID != "" && cfg.GoogleClientSecret != ""
}

func (a googleAdapter) oauth2Config(cfg config.Config, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       a.Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
	}
}

func (a googleAdapter) AuthURL(cfg config.Config, state, challenge, redirectURI, nonce string) (string, error) {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("nonce", nonce),
	}
	return a.oauth2Config(cfg, redirectURI).AuthCodeURL(state, opts...), nil
}

func (a googleAdapter) Exchange(ctx context.Context, cfg config.Config, in ExchangeInput) (Profile, error) {
	oc := a.oauth2Config(cfg, in.RedirectURI)
	exchangeCtx, cancel := context.WithTimeout(ctx, providerCallDeadline)
	defer cancel()
	tok, err := oc.Exchange(exchangeCtx, in.Code, oauth2.SetAuthURLParam("code_verifier", in.CodeVerifier))
	if err != nil {
		return Profile{}, fmt.Errorf("google token exchange: %w", err)
	}
	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return Profile{}, fmt.Errorf("google response missing id_token")
	}
	claims, err := parseIDToken(idToken, googleIssuerPattern, cfg.GoogleClientID, in.Nonce)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Provider:          Google,
		ProviderAccountID: claims.Subject,
		Email:             claims.Email,
		EmailVerified:     claims.emailVerifiedBool(),
		Name:              claims.Name,
		AvatarURL:         claims.Picture,
	}, nil
}
