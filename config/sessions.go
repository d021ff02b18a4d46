package config

import (
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
)

// SessionsConfig controls session lifetime, the session manager, and
// profile resolution.
type SessionsConfig struct {
	// TTL applies when the IdP identity carries no expiry.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	// RefreshWindow is how close to expiry a session is extended on use. Zero disables.
	RefreshWindow time.Duration `env:"SESSION_REFRESH_WINDOW" envDefault:"1h"`

	// GuardWait is how long a guarded request waits for an unresolved session.
	GuardWait time.Duration `env:"SESSION_GUARD_WAIT" envDefault:"750ms"`

	MaxTracked     int           `env:"SESSION_MAX_TRACKED"     envDefault:"10000"`
	EntryTTL       time.Duration `env:"SESSION_ENTRY_TTL"       envDefault:"5m"`
	ResolveTimeout time.Duration `env:"SESSION_RESOLVE_TIMEOUT" envDefault:"5s"`

	// ProfileFailurePolicy decides the published state when a profile cannot be read or created.
	ProfileFailurePolicy domainauth.ProfileFailurePolicy `env:"PROFILE_FAILURE_POLICY" envDefault:"fail_open"`

	// FlashTTL bounds how long an undelivered notification is kept.
	FlashTTL time.Duration `env:"NOTIFICATION_TTL" envDefault:"10m"`
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionsConfig) Sanitize() {
	if s.TTL <= 0 {
		s.TTL = 8 * time.Hour
	}
	if s.RefreshWindow < 0 {
		s.RefreshWindow = 0
	}
	if s.RefreshWindow >= s.TTL {
		s.RefreshWindow = s.TTL / 2
	}
	if s.GuardWait <= 0 {
		s.GuardWait = 750 * time.Millisecond
	}
	if s.MaxTracked < 1 {
		s.MaxTracked = 1
	}
	if s.EntryTTL <= 0 {
		s.EntryTTL = 5 * time.Minute
	}
	if s.ResolveTimeout <= 0 {
		s.ResolveTimeout = 5 * time.Second
	}
	if s.ProfileFailurePolicy == "" {
		s.ProfileFailurePolicy = domainauth.PolicyFailOpen
	}
	if s.FlashTTL <= 0 {
		s.FlashTTL = 10 * time.Minute
	}
}
