package config

import (
	"errors"
	"fmt"
	"strings"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// ClaimPathsConfig holds JMESPath expressions locating identity fields in the
// IdP claims. Empty values use the standard OIDC claim names.
type ClaimPathsConfig struct {
	UserID    string `env:"USER_ID"`
	Email     string `env:"EMAIL"`
	FirstName string `env:"FIRST_NAME"`
	LastName  string `env:"LAST_NAME"`
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string           `env:"CLIENT_ID"`
	ClientSecret string           `env:"CLIENT_SECRET"`
	RedirectURL  string           `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string           `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string           `env:"DISCOVERY_URL"`
	Claims       ClaimPathsConfig `envPrefix:"CLAIM_"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID    string `env:"USER_ID"    envDefault:"dev-user"`
	Email     string `env:"EMAIL"      envDefault:"dev@example.com"`
	FirstName string `env:"FIRST_NAME" envDefault:"Dev"`
	LastName  string `env:"LAST_NAME"  envDefault:"User"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`
}

// Sanitize trims values copied from the environment.
func (a *AuthConfig) Sanitize() {
	a.OAuth.ClientID = strings.TrimSpace(a.OAuth.ClientID)
	a.OAuth.DiscoveryURL = strings.TrimSpace(a.OAuth.DiscoveryURL)
	a.OAuth.RedirectURL = strings.TrimSpace(a.OAuth.RedirectURL)
	a.DevAuth.UserID = strings.TrimSpace(a.DevAuth.UserID)
	a.DevAuth.Email = strings.TrimSpace(a.DevAuth.Email)
}

// Validate checks the settings required by the selected mode. Mock auth is
// refused outside development.
func (a *AuthConfig) Validate(isDev bool) error {
	switch a.Mode {
	case AuthModeMock:
		if !isDev {
			return errors.New("AUTH_MODE=mock requires DEV=true")
		}
		if a.DevAuth.UserID == "" || a.DevAuth.Email == "" {
			return errors.New("DEV_AUTH_USER_ID and DEV_AUTH_EMAIL are required in mock mode")
		}
		return nil
	case AuthModeOAuth, "":
		var missing []string
		if a.OAuth.ClientID == "" {
			missing = append(missing, "OAUTH_CLIENT_ID")
		}
		if a.OAuth.ClientSecret == "" {
			missing = append(missing, "OAUTH_CLIENT_SECRET")
		}
		if a.OAuth.DiscoveryURL == "" {
			missing = append(missing, "OAUTH_DISCOVERY_URL")
		}
		if a.OAuth.RedirectURL == "" {
			missing = append(missing, "OAUTH_REDIRECT_URL")
		}
		if len(missing) > 0 {
			return fmt.Errorf("oauth mode requires %s", strings.Join(missing, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unsupported auth mode %q", a.Mode)
	}
}
