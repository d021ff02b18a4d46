package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the public base URL of the application (e.g., "https://plaza.example.com").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request host.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CompressionLevel is the gzip compression level (1-9).
	CompressionLevel int `env:"HTTP_COMPRESSION_LEVEL" envDefault:"6"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"    envDefault:"15s"`

	RateLimit RateLimitConfig `envPrefix:"HTTP_AUTH_RATE_LIMIT_"`
}

// RateLimitConfig bounds requests per client IP on the /auth endpoints.
type RateLimitConfig struct {
	PerSecond float64 `env:"PER_SECOND" envDefault:"5"`
	Burst     int     `env:"BURST"      envDefault:"10"`
	// TrustForwarded keys clients by X-Forwarded-For; enable only behind a proxy that sets it.
	TrustForwarded bool          `env:"TRUST_FORWARDED" envDefault:"false"`
	MaxClients     int           `env:"MAX_CLIENTS"     envDefault:"10000"`
	IdleTTL        time.Duration `env:"IDLE_TTL"        envDefault:"5m"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.CompressionLevel < 1 {
		h.CompressionLevel = 1
	}
	if h.CompressionLevel > 9 {
		h.CompressionLevel = 9
	}
	h.CookieDomain = strings.ToLower(strings.TrimSpace(h.CookieDomain))
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 15 * time.Second
	}
	if h.RateLimit.PerSecond <= 0 {
		h.RateLimit.PerSecond = 5
	}
	if h.RateLimit.Burst < 1 {
		h.RateLimit.Burst = 1
	}
}

// Validate rejects a cookie domain that is a public suffix: browsers drop
// such cookies, and a lenient one would share sessions across sites.
func (h *HTTPConfig) Validate() error {
	return ValidateCookieDomain(h.CookieDomain)
}

// ValidateCookieDomain accepts "" (host-only cookies) or a registrable domain
// or subdomain of one.
func ValidateCookieDomain(domain string) error {
	d := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if d == "" || d == "localhost" {
		return nil
	}
	suffix, icann := publicsuffix.PublicSuffix(d)
	if d == suffix && (icann || strings.Contains(d, ".")) {
		return fmt.Errorf("cookie domain %q is a public suffix", domain)
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(d); err != nil {
		return fmt.Errorf("cookie domain %q: %w", domain, err)
	}
	return nil
}
