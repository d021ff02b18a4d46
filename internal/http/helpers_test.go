package httpx

import (
	"context"
	"net/http"
	"sync"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/service"
)

// fakeSessions is a SessionController double keyed by session id.
type fakeSessions struct {
	mu       sync.Mutex
	states   map[string]domainauth.AuthState
	signOut  func(ctx context.Context, sessionID string) error
	signOuts []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{states: make(map[string]domainauth.AuthState)}
}

func (f *fakeSessions) set(id string, st domainauth.AuthState) *fakeSessions {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[id] = st
	return f
}

func (f *fakeSessions) Await(_ context.Context, sessionID string) domainauth.AuthState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st, ok := f.states[sessionID]; ok {
		return st
	}
	return domainauth.AnonymousState()
}

func (f *fakeSessions) SignOut(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	f.signOuts = append(f.signOuts, sessionID)
	fn := f.signOut
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, sessionID)
	}
	return nil
}

// fakeLogin is a LoginService double.
type fakeLogin struct {
	begin    func(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	complete func(ctx context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error)
}

func (f *fakeLogin) BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error) {
	if f.begin != nil {
		return f.begin(ctx, redirectURL)
	}
	return &service.BeginLoginResult{
		AuthURL: "https://idp.example.com/authorize?state=test-state",
		State:   "test-state",
		Nonce:   "test-nonce",
	}, nil
}

func (f *fakeLogin) CompleteLogin(ctx context.Context, in service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	if f.complete != nil {
		return f.complete(ctx, in)
	}
	return &service.CompleteLoginResult{Session: testSession("new-session", "u1")}, nil
}

func testSession(id, userID string) domainauth.Session {
	now := time.Now()
	return domainauth.Session{
		ID:        id,
		UserID:    userID,
		Email:     userID + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func approvedState(id, userID, role string) domainauth.AuthState {
	status := domainauth.ApprovalApproved
	return domainauth.StateForProfile(testSession(id, userID), domainauth.Profile{
		UserID:         userID,
		Email:          userID + "@example.com",
		Role:           role,
		ApprovalStatus: &status,
	})
}

func pendingState(id, userID string) domainauth.AuthState {
	return domainauth.FallbackState(testSession(id, userID))
}

func withSessionCookie(r *http.Request, id string) *http.Request {
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: id})
	return r
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := GetAuthState(r.Context())
		role := ""
		if st.UserRole != nil {
			role = *st.UserRole
		}
		_, _ = w.Write([]byte("ok:" + role))
	})
}
