// Package config binds the identity service's environment into a single
// struct, loaded once at process start. Nothing outside this package reads
// os.Getenv directly.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full set of recognized environment keys from spec §6.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	AuthDomain  string `env:"AUTH_DOMAIN" envDefault:"http://localhost:8080"`

	AccessTokenTTLSeconds int `env:"ACCESS_TOKEN_TTL_SECONDS" envDefault:"900"`
	RefreshTokenTTLDays   int `env:"REFRESH_TOKEN_TTL_DAYS" envDefault:"30"`
	AuthCodeTTLSeconds    int `env:"AUTH_CODE_TTL_SECONDS" envDefault:"60"`

	JWTPrivateKey string `env:"JWT_PRIVATE_KEY"`
	JWTPublicKey  string `env:"JWT_PUBLIC_KEY"`
	JWTKeyID      string `env:"JWT_KEY_ID" envDefault:"default"`

	EmailFrom     string `env:"EMAIL_FROM"`
	EmailFromName string `env:"EMAIL_FROM_NAME"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"qazna-identity.db"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr     string `env:"GRPC_ADDR" envDefault:":9090"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`

	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`

	MicrosoftClientID     string `env:"MICROSOFT_CLIENT_ID"`
	MicrosoftClientSecret string `env:"MICROSOFT_CLIENT_SECRET"`
	MicrosoftTenant       string `env:"MICROSOFT_TENANT" envDefault:"common"`

	AppleClientID     string `env:"APPLE_CLIENT_ID"`
	AppleTeamID       string `env:"APPLE_TEAM_ID"`
	AppleKeyID        string `env:"APPLE_KEY_ID"`
	ApplePrivateKey   string `env:"APPLE_PRIVATE_KEY"`
}

// Load reads and validates the process environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether dev-only affordances (http redirects to
// localhost, the relaxed rate-limit cap) must be disabled.
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
