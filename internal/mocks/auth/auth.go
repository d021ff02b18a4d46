package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider      = (*MockAuthProvider)(nil)
	_ ports.SessionStore      = (*MemorySessionStore)(nil)
	_ ports.FlashStore        = (*MemoryFlashStore)(nil)
	_ ports.ProfileRepository = (*MemoryProfileRepository)(nil)
	_ ports.AuthBackend       = (*StubBackend)(nil)
)

// MockAuthProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	// Deterministic values for predictable testing
	AuthURL     string
	StatePrefix string
	NoncePrefix string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider with sensible defaults.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL:     "https://mock-idp/auth",
		StatePrefix: "state",
		NoncePrefix: "nonce",
		DefaultUser: domainauth.Identity{
			UserID:    "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	statePrefix := m.StatePrefix
	if statePrefix == "" {
		statePrefix = "state"
	}
	noncePrefix := m.NoncePrefix
	if noncePrefix == "" {
		noncePrefix = "nonce"
	}

	return authURL, fmt.Sprintf("%s-%d", statePrefix, n), fmt.Sprintf("%s-%d", noncePrefix, n), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}

	user := m.DefaultUser
	if user.UserID == "" {
		user = domainauth.Identity{
			UserID:    "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
		}
	}
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	// DeleteErr, when set, is returned by Delete.
	DeleteErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, domainauth.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if id == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MemoryFlashStore keeps notifications in a map of slices, dropping repeated IDs.
type MemoryFlashStore struct {
	mu    sync.Mutex
	items map[string][]domainauth.Notification
	seen  map[string]struct{}
}

// NewMemoryFlashStore creates an empty MemoryFlashStore.
func NewMemoryFlashStore() *MemoryFlashStore {
	return &MemoryFlashStore{
		items: make(map[string][]domainauth.Notification),
		seen:  make(map[string]struct{}),
	}
}

func (m *MemoryFlashStore) Push(_ context.Context, sessionID string, n domainauth.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.ID != "" {
		if _, dup := m.seen[n.ID]; dup {
			return nil
		}
		m.seen[n.ID] = struct{}{}
	}
	m.items[sessionID] = append(m.items[sessionID], n)
	return nil
}

func (m *MemoryFlashStore) Drain(_ context.Context, sessionID string) ([]domainauth.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.items[sessionID]
	delete(m.items, sessionID)
	return out, nil
}

// Peek returns pending notifications without removing them.
func (m *MemoryFlashStore) Peek(sessionID string) []domainauth.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domainauth.Notification(nil), m.items[sessionID]...)
}

// MemoryProfileRepository is a map-backed profile repository.
// GetErr and InsertErr force failures for the fallback paths.
type MemoryProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]domainauth.Profile

	GetErr    error
	InsertErr error
	// GetHook runs before each lookup, e.g. to block until a test releases it.
	GetHook func(ctx context.Context, userID string)
}

// NewMemoryProfileRepository creates a repository seeded with profiles.
func NewMemoryProfileRepository(seed ...domainauth.Profile) *MemoryProfileRepository {
	m := &MemoryProfileRepository{profiles: make(map[string]domainauth.Profile)}
	for _, p := range seed {
		m.profiles[p.UserID] = p
	}
	return m
}

func (m *MemoryProfileRepository) GetByUserID(ctx context.Context, userID string) (*domainauth.Profile, error) {
	if m.GetHook != nil {
		m.GetHook(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domainauth.ErrProfileNotFound
	}
	return &p, nil
}

func (m *MemoryProfileRepository) Insert(_ context.Context, p domainauth.Profile) (*domainauth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return nil, m.InsertErr
	}
	if _, exists := m.profiles[p.UserID]; exists {
		return nil, fmt.Errorf("insert %s: %w", p.UserID, domainauth.ErrProfileExists)
	}
	m.profiles[p.UserID] = p
	return &p, nil
}

func (m *MemoryProfileRepository) List(_ context.Context, opts ports.ProfileListOptions) ([]*domainauth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domainauth.Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if opts.Status != nil && p.EffectiveApprovalStatus() != *opts.Status {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryProfileRepository) SetApprovalStatus(_ context.Context, in ports.ProfileChange) (*domainauth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[in.UserID]
	if !ok {
		return nil, domainauth.ErrProfileNotFound
	}
	status := in.Status
	p.ApprovalStatus = &status
	m.profiles[in.UserID] = p
	return &p, nil
}

func (m *MemoryProfileRepository) SetRole(_ context.Context, in ports.ProfileChange) (*domainauth.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[in.UserID]
	if !ok {
		return nil, domainauth.ErrProfileNotFound
	}
	p.Role = string(in.Role)
	m.profiles[in.UserID] = p
	return &p, nil
}

// Stored returns the profile as currently stored.
func (m *MemoryProfileRepository) Stored(userID string) (domainauth.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	return p, ok
}

// StubBackend is a controllable auth backend. Events sent on Events reach
// every subscriber; Sessions answers CurrentSession.
type StubBackend struct {
	Events chan domainauth.AuthEvent

	CurrentSessionFunc func(ctx context.Context, sessionID string) (*domainauth.Session, error)
	LogoutFunc         func(ctx context.Context, sessionID string) error

	mu       sync.Mutex
	sessions map[string]domainauth.Session
	logouts  []string
}

// NewStubBackend creates a StubBackend with a buffered event channel.
func NewStubBackend() *StubBackend {
	return &StubBackend{
		Events:   make(chan domainauth.AuthEvent, 16),
		sessions: make(map[string]domainauth.Session),
	}
}

// PutSession makes CurrentSession return sess for its id.
func (b *StubBackend) PutSession(sess domainauth.Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[sess.ID] = sess
}

func (b *StubBackend) Subscribe(_ context.Context) (<-chan domainauth.AuthEvent, func(), error) {
	return b.Events, func() {}, nil
}

func (b *StubBackend) CurrentSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if b.CurrentSessionFunc != nil {
		return b.CurrentSessionFunc(ctx, sessionID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	sess, ok := b.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (b *StubBackend) Logout(ctx context.Context, sessionID string) error {
	b.mu.Lock()
	b.logouts = append(b.logouts, sessionID)
	b.mu.Unlock()
	if b.LogoutFunc != nil {
		return b.LogoutFunc(ctx, sessionID)
	}
	return nil
}

// Logouts returns the session ids passed to Logout.
func (b *StubBackend) Logouts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.logouts...)
}
