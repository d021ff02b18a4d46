package httpx

import (
	"context"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
)

// authStateKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type authStateKey struct{}

type sessionIDKey struct{}

// SetAuthStateInContext returns a child context that carries the resolved auth state.
func SetAuthStateInContext(ctx context.Context, st domainauth.AuthState) context.Context {
	return context.WithValue(ctx, authStateKey{}, st)
}

// AuthStateFromContext returns the auth state placed by RequireSession and a
// boolean indicating presence.
func AuthStateFromContext(ctx context.Context) (domainauth.AuthState, bool) {
	st, ok := ctx.Value(authStateKey{}).(domainauth.AuthState)
	return st, ok
}

// GetAuthState returns the auth state from context, or the anonymous state.
func GetAuthState(ctx context.Context) domainauth.AuthState {
	if st, ok := AuthStateFromContext(ctx); ok {
		return st
	}
	return domainauth.AnonymousState()
}

// SetSessionIDInContext records the session cookie value for downstream handlers.
func SetSessionIDInContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionIDFromContext returns the session id recorded by the guard, if any.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// IsGuestUser reports whether the current request context carries no signed-in user.
func IsGuestUser(ctx context.Context) bool {
	return !GetAuthState(ctx).IsAuthenticated()
}
