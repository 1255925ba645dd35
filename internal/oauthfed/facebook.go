package oauthfed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"

	"qazna.org/internal/config"
)

type facebookAdapter struct{}

func (facebookAdapter) Name() string            { return Facebook }
func (facebookAdapter) Scopes() []string        { return []string{"email", "public_profile"} }
func (facebookAdapter) SupportsOIDCNonce() bool { return false }

func (facebookAdapter) Configured(cfg config.Config) bool {
	return cfg.FacebookClientID != "" && cfg.FacebookClientSecret != ""
}

func (a facebookAdapter) oauth2Config(cfg config.Config, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.FacebookClientID,
		ClientSecret: cfg.FacebookClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       a.Scopes(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://www.facebook.com/v19.0/dialog/oauth",
			TokenURL: "https://graph.facebook.com/v19.0/oauth/access_token",
		},
	}
}

func (a facebookAdapter) AuthURL(cfg config.Config, state, challenge, redirectURI, _ string) (string, error) {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}
	return a.oauth2Config(cfg, redirectURI).AuthCodeURL(state, opts...), nil
}

// facebookProfile mirrors the fields requested from the Graph API /me
// endpoint, which Facebook requires in place of an OIDC ID token.
type facebookProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (a facebookAdapter) Exchange(ctx context.Context, cfg config.Config, in ExchangeInput) (Profile, error) {
	oc := a.oauth2Config(cfg, in.RedirectURI)
	exchangeCtx, cancel := context.WithTimeout(ctx, providerCallDeadline)
	defer cancel()
	tok, err := oc.Exchange(exchangeCtx, in.Code, oauth2.SetAuthURLParam("code_verifier", in.CodeVerifier))
	if err != nil {
		return Profile{}, fmt.Errorf("facebook token exchange: %w", err)
	}

	graphURL := "https://graph.facebook.com/v19.0/me?" + url.Values{
		"fields":       {"id,name,email,picture"},
		"access_token": {tok.AccessToken},
	}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, graphURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build facebook profile request: %w", err)
	}
	resp, err := doWithRetry(ctx, http.DefaultClient, req)
	if err != nil {
		return Profile{}, fmt.Errorf("facebook profile request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, fmt.Errorf("read facebook profile response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("facebook profile request failed: %s", resp.Status)
	}

	var profile facebookProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return Profile{}, fmt.Errorf("decode facebook profile: %w", err)
	}
	if profile.ID == "" || profile.Email == "" {
		return Profile{}, fmt.Errorf("facebook profile missing id or email")
	}

	return Profile{
		Provider:          Facebook,
		ProviderAccountID: profile.ID,
		Email:             profile.Email,
		// Facebook only returns an address it has itself confirmed via its
		// own verification flow; there is no separate emailVerified field.
		EmailVerified: true,
		Name:          profile.Name,
		AvatarURL:     profile.Picture.Data.URL,
	}, nil
}
