package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
)

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "oauth")
	t.Setenv("OAUTH_CLIENT_ID", "plaza-web")
	t.Setenv("OAUTH_CLIENT_SECRET", "super-secret")
	t.Setenv("OAUTH_REDIRECT_URL", "https://plaza.example.com/auth/callback")
	t.Setenv("OAUTH_DISCOVERY_URL", "https://login.example.com/.well-known/openid-configuration")
	t.Setenv("OAUTH_SCOPE", "openid profile email")
	t.Setenv("OAUTH_CLAIM_EMAIL", "emails[0]")
	t.Setenv("OAUTH_CLAIM_FIRST_NAME", "name.given")
	t.Setenv("DEV_AUTH_USER_ID", "dev-user")
	t.Setenv("DEV_AUTH_EMAIL", "dev@example.com")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		Mode: AuthModeOAuth,
		OAuth: OAuthConfig{
			ClientID:     "plaza-web",
			ClientSecret: "super-secret",
			RedirectURL:  "https://plaza.example.com/auth/callback",
			Scope:        "openid profile email",
			DiscoveryURL: "https://login.example.com/.well-known/openid-configuration",
			Claims: ClaimPathsConfig{
				Email:     "emails[0]",
				FirstName: "name.given",
			},
		},
		DevAuth: DevAuthConfig{
			UserID:    "dev-user",
			Email:     "dev@example.com",
			FirstName: "Dev",
			LastName:  "User",
		},
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	var m AuthMode
	if err := m.UnmarshalText([]byte("MOCK")); err != nil || m != AuthModeMock {
		t.Fatalf("expected mock, got %q (%v)", m, err)
	}
	if err := m.UnmarshalText([]byte("saml")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Sessions.GuardWait != 750*time.Millisecond {
		t.Fatalf("expected default guard wait, got %v", cfg.Sessions.GuardWait)
	}
	if cfg.Sessions.ProfileFailurePolicy != domainauth.PolicyFailOpen {
		t.Fatalf("expected fail_open default, got %q", cfg.Sessions.ProfileFailurePolicy)
	}
	if cfg.Redis.KeyPrefix != "plaza:" {
		t.Fatalf("expected key prefix default, got %q", cfg.Redis.KeyPrefix)
	}
	if cfg.HTTP.RateLimit.Burst != 10 {
		t.Fatalf("expected burst default, got %d", cfg.HTTP.RateLimit.Burst)
	}
}

func TestAppConfig_ParseFailurePolicy(t *testing.T) {
	t.Setenv("PROFILE_FAILURE_POLICY", "fail_closed")
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Sessions.ProfileFailurePolicy != domainauth.PolicyFailClosed {
		t.Fatalf("expected fail_closed, got %q", cfg.Sessions.ProfileFailurePolicy)
	}

	t.Setenv("PROFILE_FAILURE_POLICY", "fail_sideways")
	if err := env.Parse(&cfg); err == nil {
		t.Fatal("expected parse error for unknown policy")
	}
}

func TestAuthConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AuthConfig
		isDev   bool
		wantErr string
	}{
		{
			name: "oauth complete",
			cfg: AuthConfig{Mode: AuthModeOAuth, OAuth: OAuthConfig{
				ClientID: "id", ClientSecret: "secret", DiscoveryURL: "https://idp", RedirectURL: "https://app/cb",
			}},
		},
		{
			name:    "oauth missing fields",
			cfg:     AuthConfig{Mode: AuthModeOAuth, OAuth: OAuthConfig{ClientID: "id", RedirectURL: "https://app/cb"}},
			wantErr: "OAUTH_CLIENT_SECRET, OAUTH_DISCOVERY_URL",
		},
		{
			name:    "mock outside dev",
			cfg:     AuthConfig{Mode: AuthModeMock, DevAuth: DevAuthConfig{UserID: "u", Email: "e@example.com"}},
			wantErr: "requires DEV=true",
		},
		{
			name:  "mock in dev",
			cfg:   AuthConfig{Mode: AuthModeMock, DevAuth: DevAuthConfig{UserID: "u", Email: "e@example.com"}},
			isDev: true,
		},
		{
			name:    "mock without identity",
			cfg:     AuthConfig{Mode: AuthModeMock},
			isDev:   true,
			wantErr: "DEV_AUTH_USER_ID",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.isDev)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateCookieDomain(t *testing.T) {
	tests := []struct {
		domain  string
		wantErr bool
	}{
		{"", false},
		{"localhost", false},
		{"example.com", false},
		{".plaza.example.com", false},
		{"plaza.example.co.uk", false},
		{"com", true},
		{"co.uk", true},
		{"github.io", true},
	}
	for _, tt := range tests {
		err := ValidateCookieDomain(tt.domain)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ValidateCookieDomain(%q) error = %v, wantErr %v", tt.domain, err, tt.wantErr)
		}
	}
}

func TestSessionsConfig_Sanitize(t *testing.T) {
	cfg := SessionsConfig{TTL: time.Hour, RefreshWindow: 2 * time.Hour, MaxTracked: -3}
	cfg.Sanitize()

	if cfg.RefreshWindow != 30*time.Minute {
		t.Fatalf("expected refresh window clamped to half the TTL, got %v", cfg.RefreshWindow)
	}
	if cfg.MaxTracked != 1 {
		t.Fatalf("expected max tracked clamped to 1, got %d", cfg.MaxTracked)
	}
	if cfg.GuardWait <= 0 || cfg.ResolveTimeout <= 0 || cfg.FlashTTL <= 0 {
		t.Fatalf("expected positive defaults, got %+v", cfg)
	}
	if cfg.ProfileFailurePolicy != domainauth.PolicyFailOpen {
		t.Fatalf("expected fail_open default, got %q", cfg.ProfileFailurePolicy)
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{CompressionLevel: 12, CookieDomain: "  Plaza.Example.COM "}
	cfg.Sanitize()

	if cfg.CompressionLevel != 9 {
		t.Fatalf("expected compression level clamped to 9, got %d", cfg.CompressionLevel)
	}
	if cfg.CookieDomain != "plaza.example.com" {
		t.Fatalf("expected normalized cookie domain, got %q", cfg.CookieDomain)
	}
	if cfg.RateLimit.PerSecond != 5 || cfg.RateLimit.Burst != 1 {
		t.Fatalf("unexpected rate limit defaults: %+v", cfg.RateLimit)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    0,
		RetryLimit: -1,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: " ",
			Channel:    "  ",
			Username:   "",
		},
	}

	cfg.Sanitize()

	if cfg.Timeout <= 0 {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit < 0 {
		t.Fatalf("expected retry limit to be clamped to >= 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled without a webhook url")
	}
	if cfg.Slack.Username != "plaza" {
		t.Fatalf("expected slack username default, got %q", cfg.Slack.Username)
	}

	// Disabled top-level should disable child sinks.
	cfg = ObservabilityNotificationsConfig{
		Enabled: false,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.com/services/test",
		},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled when top-level notifications disabled")
	}
}

func TestObservabilityConfig_LogLevel(t *testing.T) {
	cfg := ObservabilityConfig{LogLevel: " LOUD "}
	cfg.Sanitize()
	if cfg.LogLevel != "info" {
		t.Fatalf("expected unknown level to fall back to info, got %q", cfg.LogLevel)
	}
}
