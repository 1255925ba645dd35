package oauthfed

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"golang.org/x/oauth2"

	"qazna.org/internal/config"
)

var appleIssuerPattern = regexp.MustCompile(`^https://appleid\.apple\.com$`)

type appleAdapter struct{}

func (appleAdapter) Name() string            { return Apple }
func (appleAdapter) Scopes() []string        { return []string{"name", "email"} }
func (appleAdapter) SupportsOIDCNonce() bool { return true }

func (appleAdapter) Configured(cfg config.Config) bool {
	return cfg.AppleClientID != "" && cfg.AppleTeamID != "" && cfg.AppleKeyID != "" && cfg.ApplePrivateKey != ""
}

func (a appleAdapter) oauth2Config(cfg config.Config, redirectURI, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.AppleClientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       a.Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://appleid.apple.com/auth/authorize",
			TokenURL: "https://appleid.apple.com/auth/token",
		},
	}
}

func (a appleAdapter) AuthURL(cfg config.Config, state, challenge, redirectURI, nonce string) (string, error) {
	// AuthURL never calls the token endpoint, so no client secret is needed
	// here; response_mode=form_post is mandatory for any scope request.
	oc := a.oauth2Config(cfg, redirectURI, "")
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("response_mode", "form_post"),
		oauth2.SetAuthURLParam("nonce", nonce),
	}
	return oc.AuthCodeURL(state, opts...), nil
}

// appleFormUser is the first-login-only "user" form field's JSON payload.
type appleFormUser struct {
	Name struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"name"`
}

func (a appleAdapter) Exchange(ctx context.Context, cfg config.Config, in ExchangeInput) (Profile, error) {
	secret, err := appleClientSecret(cfg, time.Now())
	if err != nil {
		return Profile{}, err
	}
	oc := a.oauth2Config(cfg, in.RedirectURI, secret)
	exchangeCtx, cancel := context.WithTimeout(ctx, providerCallDeadline)
	defer cancel()
	tok, err := oc.Exchange(exchangeCtx, in.Code, oauth2.SetAuthURLParam("code_verifier", in.CodeVerifier))
	if err != nil {
		return Profile{}, fmt.Errorf("apple token exchange: %w", err)
	}
	idToken, ok := tok.Extra("id_token").(string)
	if !ok || idToken == "" {
		return Profile{}, fmt.Errorf("apple response missing id_token")
	}
	claims, err := parseIDToken(idToken, appleIssuerPattern, cfg.AppleClientID, in.Nonce)
	if err != nil {
		return Profile{}, err
	}

	name := claims.Name
	if name == "" && in.FormUser != "" {
		var formUser appleFormUser
		if err := json.Unmarshal([]byte(in.FormUser), &formUser); err == nil {
			name = joinName(formUser.Name.FirstName, formUser.Name.LastName)
		}
	}

	return Profile{
		Provider:          Apple,
		ProviderAccountID: claims.Subject,
		Email:             claims.Email,
		EmailVerified:     claims.emailVerifiedBool(),
		Name:              name,
	}, nil
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
