package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	mocks "github.com/ssplaza/plaza-api/internal/mocks/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
	"github.com/ssplaza/plaza-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu    sync.Mutex
	users []string
}

func (p *recordingPublisher) PublishUserUpdated(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
	return nil
}

func newProfileHandlers(t *testing.T, seed ...domainauth.Profile) (*ProfileHandlers, *mocks.MemoryProfileRepository, *recordingPublisher) {
	t.Helper()
	repo := mocks.NewMemoryProfileRepository(seed...)
	pub := &recordingPublisher{}
	svc := service.NewProfileService(service.ProfileServiceOptions{Repo: repo, Publisher: pub})
	return &ProfileHandlers{Svc: svc}, repo, pub
}

func adminRequest(method, target, body, userID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	st := approvedState("admin-session", "admin-1", "admin")
	req = req.WithContext(SetAuthStateInContext(req.Context(), st))
	req.SetPathValue("userID", userID)
	return req
}

func pendingProfile(userID string) domainauth.Profile {
	return domainauth.DefaultProfile(userID, userID+"@example.com")
}

func TestProfileHandlers_ListFiltersByStatus(t *testing.T) {
	approved := domainauth.ApprovalApproved
	h, _, _ := newProfileHandlers(t,
		pendingProfile("u1"),
		domainauth.Profile{UserID: "u2", Role: "vendor", ApprovalStatus: &approved},
	)

	rec := httptest.NewRecorder()
	h.List(rec, adminRequest(http.MethodGet, "/api/admin/profiles?status=pending&limit=10", "", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Profiles []domainauth.Profile `json:"profiles"`
		Limit    int                  `json:"limit"`
		Offset   int                  `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Profiles, 1)
	assert.Equal(t, "u1", body.Profiles[0].UserID)
	assert.Equal(t, 10, body.Limit)
	assert.Equal(t, 0, body.Offset)
}

func TestProfileHandlers_ListRejectsUnknownStatus(t *testing.T) {
	h, _, _ := newProfileHandlers(t)
	rec := httptest.NewRecorder()
	h.List(rec, adminRequest(http.MethodGet, "/api/admin/profiles?status=maybe", "", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_status")
}

func TestProfileHandlers_GetNotFound(t *testing.T) {
	h, _, _ := newProfileHandlers(t)
	rec := httptest.NewRecorder()
	h.Get(rec, adminRequest(http.MethodGet, "/api/admin/profiles/ghost", "", "ghost"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"Profile not found."}`, rec.Body.String())
}

func TestProfileHandlers_ApproveAnnouncesChange(t *testing.T) {
	h, repo, pub := newProfileHandlers(t, pendingProfile("u1"))

	rec := httptest.NewRecorder()
	h.Approve(rec, adminRequest(http.MethodPost, "/api/admin/profiles/u1/approve", "", "u1"))

	require.Equal(t, http.StatusOK, rec.Code)
	stored, ok := repo.Stored("u1")
	require.True(t, ok)
	assert.Equal(t, domainauth.ApprovalApproved, stored.EffectiveApprovalStatus())
	assert.Equal(t, []string{"u1"}, pub.users)
}

func TestProfileHandlers_RejectBodyOptional(t *testing.T) {
	h, repo, _ := newProfileHandlers(t, pendingProfile("u1"), pendingProfile("u2"))

	rec := httptest.NewRecorder()
	h.Reject(rec, adminRequest(http.MethodPost, "/api/admin/profiles/u1/reject", "", "u1"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Reject(rec, adminRequest(http.MethodPost, "/api/admin/profiles/u2/reject", `{"reason":"not a tenant"}`, "u2"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Reject(rec, adminRequest(http.MethodPost, "/api/admin/profiles/u2/reject", `{"why":"x"}`, "u2"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_json")

	for _, id := range []string{"u1", "u2"} {
		stored, _ := repo.Stored(id)
		assert.Equal(t, domainauth.ApprovalRejected, stored.EffectiveApprovalStatus(), id)
	}
}

func TestProfileHandlers_ChangeRole(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		userID   string
		want     int
		wantErr  string
		wantRole string
	}{
		{name: "known role", body: `{"role":"site_manager"}`, userID: "u1", want: http.StatusOK, wantRole: "site_manager"},
		{name: "normalized input", body: `{"role":"  Front_Desk "}`, userID: "u1", want: http.StatusOK, wantRole: "front_desk"},
		{name: "unknown role", body: `{"role":"superuser"}`, userID: "u1", want: http.StatusBadRequest, wantErr: "invalid_role", wantRole: "tenant_user"},
		{name: "missing profile", body: `{"role":"vendor"}`, userID: "ghost", want: http.StatusNotFound, wantErr: "not_found"},
		{name: "malformed body", body: `{"role":`, userID: "u1", want: http.StatusBadRequest, wantErr: "invalid_json", wantRole: "tenant_user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, repo, _ := newProfileHandlers(t, pendingProfile("u1"))
			rec := httptest.NewRecorder()
			h.ChangeRole(rec, adminRequest(http.MethodPut, "/api/admin/profiles/"+tt.userID+"/role", tt.body, tt.userID))

			assert.Equal(t, tt.want, rec.Code)
			if tt.wantErr != "" {
				assert.Contains(t, rec.Body.String(), tt.wantErr)
			}
			if tt.wantRole != "" {
				stored, ok := repo.Stored("u1")
				require.True(t, ok)
				assert.Equal(t, tt.wantRole, stored.Role)
			}
		})
	}
}

func TestProfileHandlers_MutationsNeedActor(t *testing.T) {
	h, _, _ := newProfileHandlers(t, pendingProfile("u1"))
	req := httptest.NewRequest(http.MethodPost, "/api/admin/profiles/u1/approve", nil)
	req.SetPathValue("userID", "u1")
	rec := httptest.NewRecorder()
	h.Approve(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileHandlers_EmptyUserID(t *testing.T) {
	h, _, _ := newProfileHandlers(t)
	rec := httptest.NewRecorder()
	h.Get(rec, adminRequest(http.MethodGet, "/api/admin/profiles/", "", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user_id", body["field"])
}

func TestPageFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  Page
	}{
		{"", Page{Limit: 50}},
		{"limit=10&offset=20", Page{Limit: 10, Offset: 20}},
		{"limit=0&offset=-5", Page{Limit: 1}},
		{"limit=999", Page{Limit: 200}},
		{"limit=abc&offset=xyz", Page{Limit: 50}},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/admin/profiles?"+tt.query, nil)
		assert.Equal(t, tt.want, PageFromRequest(r, ports.DefaultProfileListLimit, ports.MaxProfileListLimit), tt.query)
	}
}

func TestProfileHandlers_ListCapsPageAtSharedLimit(t *testing.T) {
	h, _, _ := newProfileHandlers(t, pendingProfile("u1"))

	rec := httptest.NewRecorder()
	h.List(rec, adminRequest(http.MethodGet, "/api/admin/profiles?limit=999", "", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Limit int `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ports.MaxProfileListLimit, body.Limit)
}
