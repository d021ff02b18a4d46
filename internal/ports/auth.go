package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
// Get returns domainauth.ErrSessionNotFound (possibly wrapped) for unknown ids.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuthEventBus carries auth-change events between the auth backend and every
// session manager instance.
type AuthEventBus interface {
	Publish(ctx context.Context, ev domainauth.AuthEvent) error
	// Subscribe returns a channel of events and a cancel func that closes it.
	Subscribe(ctx context.Context) (<-chan domainauth.AuthEvent, func(), error)
}

// AuthBackend is what the session manager needs from the auth system:
// the auth-change stream, a one-shot session probe, and sign-out.
type AuthBackend interface {
	Subscribe(ctx context.Context) (<-chan domainauth.AuthEvent, func(), error)
	// CurrentSession returns (nil, nil) when there is no live session for id.
	CurrentSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}
