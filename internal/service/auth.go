package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ssplaza/plaza-api/internal/data"
	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Events   ports.AuthEventBus
	Clock    data.TimeProvider // Optional: defaults to the system clock
	Logger   *slog.Logger      // Optional: structured logger

	// SessionTTL applies when the IdP identity carries no expiry.
	SessionTTL time.Duration
	// RefreshWindow is how close to expiry a session must be before
	// RefreshSession extends it. Zero disables sliding expiry.
	RefreshWindow time.Duration
}

// AuthService is the auth backend: it runs login flows against the provider,
// persists sessions, and publishes auth-change events for session managers.
type AuthService struct {
	provider      ports.AuthProvider
	sessions      ports.SessionStore
	events        ports.AuthEventBus
	clock         data.TimeProvider
	logger        *slog.Logger
	sessionTTL    time.Duration
	refreshWindow time.Duration
}

var _ ports.AuthBackend = (*AuthService)(nil)

var errSessionExpired = errors.New("session expired")

const defaultSessionTTL = 8 * time.Hour

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	clock := opts.Clock
	if clock == nil {
		clock = data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &AuthService{
		provider:      opts.Provider,
		sessions:      opts.Sessions,
		events:        opts.Events,
		clock:         clock,
		logger:        logger.With("component", "auth_service"),
		sessionTTL:    ttl,
		refreshWindow: opts.RefreshWindow,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth URL with state and nonce.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
}

// CompleteLogin exchanges the code for an identity, persists a session and
// publishes SIGNED_IN. A publish failure is logged; the login still succeeds.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	identity, err := s.provider.Exchange(ctx, ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	now := s.clock.Now()
	expiresAt := identity.ExpiresAt
	if expiresAt.IsZero() || !expiresAt.After(now) {
		expiresAt = now.Add(s.sessionTTL)
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    identity.UserID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.publish(ctx, domainauth.EventSignedIn, session.ID, session.UserID, &session)

	return &CompleteLoginResult{Session: session}, nil
}

// GetSession retrieves a session by ID. Expired sessions are deleted,
// announced with SIGNED_OUT and reported as errSessionExpired joined with
// ErrSessionNotFound.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.clock.Now()) {
		expired := errors.Join(errSessionExpired, domainauth.ErrSessionNotFound)
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(expired, fmt.Errorf("delete session: %w", deleteErr))
		}
		s.publish(ctx, domainauth.EventSignedOut, sessionID, session.UserID, nil)
		return nil, expired
	}

	return &session, nil
}

// CurrentSession is the one-shot probe used by session managers.
// A missing or expired session is (nil, nil); only backend failures are errors.
func (s *AuthService) CurrentSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	sess, err := s.GetSession(ctx, sessionID)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, domainauth.ErrSessionNotFound) {
		if errors.Is(err, errSessionExpired) {
			s.logger.DebugContext(ctx, "session expired", "session_id", sessionID, "error", err)
		}
		return nil, nil
	}
	return nil, err
}

// Logout removes a session and publishes SIGNED_OUT.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	var userID string
	if sess, err := s.sessions.Get(ctx, sessionID); err == nil {
		userID = sess.UserID
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.publish(ctx, domainauth.EventSignedOut, sessionID, userID, nil)
	return nil
}

// RefreshSession extends a live session when it is inside the refresh window
// and publishes TOKEN_REFRESHED. It returns the (possibly unchanged) session.
func (s *AuthService) RefreshSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.refreshWindow <= 0 {
		return sess, nil
	}

	now := s.clock.Now()
	if sess.ExpiresAt.Sub(now) > s.refreshWindow {
		return sess, nil
	}

	refreshed := *sess
	refreshed.ExpiresAt = now.Add(s.sessionTTL)
	if saveErr := s.sessions.Save(ctx, refreshed); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	s.publish(ctx, domainauth.EventTokenRefreshed, refreshed.ID, refreshed.UserID, &refreshed)
	return &refreshed, nil
}

// Subscribe exposes the auth-change stream.
func (s *AuthService) Subscribe(ctx context.Context) (<-chan domainauth.AuthEvent, func(), error) {
	if s.events == nil {
		return nil, nil, errors.New("auth event bus not configured")
	}
	return s.events.Subscribe(ctx)
}

// PublishUserUpdated tells every session manager to re-resolve a user's sessions.
func (s *AuthService) PublishUserUpdated(ctx context.Context, userID string) error {
	if s.events == nil {
		return nil
	}
	return s.events.Publish(ctx, domainauth.AuthEvent{
		ID:         uuid.New().String(),
		Type:       domainauth.EventUserUpdated,
		UserID:     userID,
		OccurredAt: s.clock.Now(),
	})
}

func (s *AuthService) publish(
	ctx context.Context,
	typ domainauth.AuthEventType,
	sessionID, userID string,
	sess *domainauth.Session,
) {
	if s.events == nil {
		return
	}
	ev := domainauth.AuthEvent{
		ID:         uuid.New().String(),
		Type:       typ,
		SessionID:  sessionID,
		UserID:     userID,
		Session:    sess,
		OccurredAt: s.clock.Now(),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "publish auth event failed",
			"type", string(typ),
			"session_id", sessionID,
			"error", err,
		)
	}
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// UUIDv4 is URL-safe and has good entropy
	return uuid.New().String()
}
