package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireSession(t *testing.T) {
	sessions := newFakeSessions().
		set("admin", approvedState("admin", "u1", "admin")).
		set("loading", domainauth.LoadingState())

	tests := []struct {
		name         string
		path         string
		cookie       string
		headers      map[string]string
		wantStatus   int
		wantLocation string
		wantHX       string
		wantBody     string
	}{
		{
			name: "signed in passes through", path: "/app/bookings", cookie: "admin",
			wantStatus: http.StatusOK, wantBody: "ok:admin",
		},
		{
			name: "browser without session redirects with location preserved", path: "/app/bookings?week=3",
			headers:      map[string]string{"Accept": "text/html"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/auth/login?redirect_uri=%2Fapp%2Fbookings%3Fweek%3D3",
		},
		{
			name: "unknown session treated as signed out", path: "/app/", cookie: "stale",
			wantStatus: http.StatusSeeOther, wantLocation: "/auth/login?redirect_uri=%2Fapp%2F",
		},
		{
			name: "api without session gets 401", path: "/api/admin/profiles",
			wantStatus: http.StatusUnauthorized, wantBody: `"authentication_required"`,
		},
		{
			name: "htmx uses current url and HX-Redirect", path: "/app/fragment",
			headers: map[string]string{
				"Hx-Request":     "true",
				"Hx-Current-Url": "https://plaza.example.com/app/visitors?day=mon",
			},
			wantStatus: http.StatusOK,
			wantHX:     "/auth/signed-out?redirect_uri=%2Fapp%2Fvisitors%3Fday%3Dmon",
		},
		{
			name: "loading browser gets placeholder", path: "/app/", cookie: "loading",
			wantStatus: http.StatusAccepted, wantBody: "Loading",
		},
		{
			name: "loading api gets json placeholder", path: "/api/admin/profiles", cookie: "loading",
			wantStatus: http.StatusAccepted, wantBody: `{"status":"loading"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireSession(sessions, GuardOptions{Wait: 10 * time.Millisecond})(okHandler())
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if tt.cookie != "" {
				withSessionCookie(req, tt.cookie)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
			if tt.wantHX != "" {
				assert.Equal(t, tt.wantHX, rec.Header().Get("Hx-Redirect"))
			}
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRequireSession_PlaceholderHeaders(t *testing.T) {
	sessions := newFakeSessions().set("s1", domainauth.LoadingState())
	h := RequireSession(sessions, GuardOptions{RetryAfter: 2 * time.Second})(okHandler())

	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/app/", nil), "s1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "2", rec.Header().Get("Refresh"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

// The guard waits for resolution instead of redirecting a user whose
// session is merely not resolved yet.
type slowSource struct {
	settled domainauth.AuthState
	delay   time.Duration
}

func (s slowSource) Await(ctx context.Context, _ string) domainauth.AuthState {
	select {
	case <-time.After(s.delay):
		return s.settled
	case <-ctx.Done():
		return domainauth.LoadingState()
	}
}

func TestRequireSession_WaitsForResolution(t *testing.T) {
	src := slowSource{settled: approvedState("s1", "u1", "front_desk"), delay: 20 * time.Millisecond}

	h := RequireSession(src, GuardOptions{Wait: time.Second})(okHandler())
	req := withSessionCookie(httptest.NewRequest(http.MethodGet, "/app/", nil), "s1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok:front_desk", rec.Body.String())

	h = RequireSession(src, GuardOptions{Wait: time.Millisecond})(okHandler())
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name   string
		state  *domainauth.AuthState
		accept string
		want   int
	}{
		{"admin may manage users", ptr(approvedState("s", "u", "admin")), "application/json", http.StatusOK},
		{"front desk may not", ptr(approvedState("s", "u", "front_desk")), "application/json", http.StatusForbidden},
		{"unknown role fails closed", ptr(approvedState("s", "u", "superuser")), "application/json", http.StatusForbidden},
		{"browser gets denied page", ptr(approvedState("s", "u", "vendor")), "text/html", http.StatusForbidden},
		{"no state in context", nil, "application/json", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequirePermission(domainauth.CanManageUsers)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/app/admin/users", nil)
			req.Header.Set("Accept", tt.accept)
			if tt.state != nil {
				req = req.WithContext(SetAuthStateInContext(req.Context(), *tt.state))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireApproved(t *testing.T) {
	h := RequireApproved()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/admin/profiles", nil)
	req = req.WithContext(SetAuthStateInContext(req.Context(), pendingState("s1", "u1")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "approval_pending")

	req = httptest.NewRequest(http.MethodGet, "/api/admin/profiles", nil)
	req = req.WithContext(SetAuthStateInContext(req.Context(), approvedState("s1", "u1", "tenant_user")))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOptionalSession_PlacesAnyState(t *testing.T) {
	sessions := newFakeSessions().set("s1", domainauth.LoadingState())
	var got domainauth.AuthState
	h := OptionalSession(sessions, GuardOptions{})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = GetAuthState(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), withSessionCookie(httptest.NewRequest(http.MethodGet, "/api/me", nil), "s1"))
	assert.True(t, got.IsLoading)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.False(t, got.IsLoading)
	assert.False(t, got.IsAuthenticated())
}

func TestSafeRedirectPath(t *testing.T) {
	tests := map[string]string{
		"":                      "/",
		"/app/bookings?x=1":     "/app/bookings?x=1",
		"https://evil.example/": "/",
		"//evil.example/path":   "/",
		"/\\evil.example":       "/",
		"relative/path":         "/",
		"javascript:alert(1)":   "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeRedirectPath(in), "input %q", in)
	}
}

func ptr[T any](v T) *T { return &v }
