// Package config contains the definition of the backend configuration and
// the logic required to load and validate it from the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable names read at startup. Every one of them is required;
// startup fails fast when one is absent or still holds a setup placeholder.
const (
	EnvBackendPort   = "BACKEND_PORT"
	EnvBackendURL    = "BACKEND_URL"
	EnvFrontendURL   = "FRONTEND_URL"
	EnvClientID      = "CANVA_CLIENT_ID"
	EnvClientSecret  = "CANVA_CLIENT_SECRET"
	EnvEncryptionKey = "DATABASE_ENCRYPTION_KEY"
	EnvAPIBaseURL    = "BASE_CANVA_CONNECT_API_URL"
	EnvAuthBaseURL   = "BASE_CANVA_CONNECT_AUTH_URL"
	EnvEnvironment   = "NODE_ENV"
)

// Config represents the configuration of a demo backend process.
type Config struct {
	// BackendPort is the port the demo backend listens on.
	BackendPort string

	// BackendURL is the externally visible base URL of the backend,
	// used to build the OAuth redirect URI.
	BackendURL string

	// FrontendURL is the origin of the demo frontend, used for CORS and
	// for origin-checking the /token helper endpoint.
	FrontendURL string

	// ClientID and ClientSecret identify the Connect integration.
	ClientID     string
	ClientSecret string

	// EncryptionKey is the base64-encoded 256-bit key used to encrypt
	// tokens at rest. It doubles as the cookie signing secret; in
	// production, use a separate secret from the database encryption key.
	EncryptionKey string

	// APIBaseURL is the base URL of the Connect API (token, revoke and
	// all bearer-authenticated endpoints).
	APIBaseURL string

	// AuthBaseURL is the base URL of the authorization endpoint the user
	// agent is redirected to.
	AuthBaseURL string

	// Production toggles the stricter cookie settings (Secure,
	// SameSite=Strict) used outside local development.
	Production bool
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	required := []string{
		EnvBackendPort,
		EnvBackendURL,
		EnvFrontendURL,
		EnvClientID,
		EnvClientSecret,
		EnvEncryptionKey,
		EnvAPIBaseURL,
		EnvAuthBaseURL,
	}
	for _, name := range required {
		value := v.GetString(name)
		if value == "" {
			return nil, fmt.Errorf("'%s' env variable not found", name)
		}
		if isPlaceholder(value) {
			return nil, fmt.Errorf("'%s' env variable is still set to a placeholder value, "+
				"replace it with your integration's value", name)
		}
	}

	cfg := &Config{
		BackendPort:   v.GetString(EnvBackendPort),
		BackendURL:    strings.TrimRight(v.GetString(EnvBackendURL), "/"),
		FrontendURL:   strings.TrimRight(v.GetString(EnvFrontendURL), "/"),
		ClientID:      v.GetString(EnvClientID),
		ClientSecret:  v.GetString(EnvClientSecret),
		EncryptionKey: v.GetString(EnvEncryptionKey),
		APIBaseURL:    strings.TrimRight(v.GetString(EnvAPIBaseURL), "/"),
		AuthBaseURL:   strings.TrimRight(v.GetString(EnvAuthBaseURL), "/"),
		Production:    v.GetString(EnvEnvironment) == "production",
	}

	for name, raw := range map[string]string{
		EnvBackendURL:  cfg.BackendURL,
		EnvFrontendURL: cfg.FrontendURL,
		EnvAPIBaseURL:  cfg.APIBaseURL,
		EnvAuthBaseURL: cfg.AuthBaseURL,
	} {
		if _, err := url.ParseRequestURI(raw); err != nil {
			return nil, fmt.Errorf("'%s' env variable is not a valid URL: %w", name, err)
		}
	}

	return cfg, nil
}

// RedirectURI returns the OAuth redirect URI registered with the provider.
func (c *Config) RedirectURI() string {
	return c.BackendURL + "/oauth/redirect"
}

// isPlaceholder reports whether the value still looks like the <NAME>
// placeholders shipped in the example .env file.
func isPlaceholder(value string) bool {
	return strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">")
}
