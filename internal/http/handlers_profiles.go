package httpx

import (
	"context"
	"errors"
	"net/http"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
)

// ProfileAdmin is the admin surface over profiles. It is satisfied by *service.ProfileService.
type ProfileAdmin interface {
	Get(ctx context.Context, userID string) (*domainauth.Profile, error)
	ListByStatus(ctx context.Context, status *domainauth.ApprovalStatus, limit, offset int) ([]*domainauth.Profile, error)
	Approve(ctx context.Context, userID, actor string) (*domainauth.Profile, error)
	Reject(ctx context.Context, userID, actor, reason string) (*domainauth.Profile, error)
	ChangeRole(ctx context.Context, userID, actor, role string) (*domainauth.Profile, error)
}

// ProfileHandlers serves the user-management endpoints. Routes are mounted
// behind RequireSession and RequirePermission(CanManageUsers).
type ProfileHandlers struct {
	Svc ProfileAdmin
}

// List returns profiles, optionally filtered by approval status.
// GET /api/admin/profiles?status=pending&limit=50&offset=0.
func (h *ProfileHandlers) List(w http.ResponseWriter, r *http.Request) {
	var status *domainauth.ApprovalStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := domainauth.ParseApprovalStatus(raw)
		if err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_status", Err: err})
			return
		}
		status = &parsed
	}
	page := PageFromRequest(r, ports.DefaultProfileListLimit, ports.MaxProfileListLimit)

	profiles, err := h.Svc.ListByStatus(r.Context(), status, page.Limit, page.Offset)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if profiles == nil {
		profiles = []*domainauth.Profile{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"profiles": profiles, "limit": page.Limit, "offset": page.Offset})
}

// Get returns one profile.
// GET /api/admin/profiles/{userID}.
func (h *ProfileHandlers) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Get(r.Context(), r.PathValue("userID"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// Approve marks a profile approved.
// POST /api/admin/profiles/{userID}/approve.
func (h *ProfileHandlers) Approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	p, err := h.Svc.Approve(r.Context(), r.PathValue("userID"), actor)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject marks a profile rejected. The body is optional.
// POST /api/admin/profiles/{userID}/reject {"reason": "..."}.
func (h *ProfileHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	var req rejectRequest
	if r.ContentLength != 0 && !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Svc.Reject(r.Context(), r.PathValue("userID"), actor, req.Reason)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

type roleRequest struct {
	Role string `json:"role"`
}

// ChangeRole assigns a new role.
// PUT /api/admin/profiles/{userID}/role {"role": "site_manager"}.
func (h *ProfileHandlers) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	var req roleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := h.Svc.ChangeRole(r.Context(), r.PathValue("userID"), actor, req.Role)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// actorFromRequest returns the signed-in user performing the mutation.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	st := GetAuthState(r.Context())
	if st.User == nil || st.User.ID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return "", false
	}
	return st.User.ID, true
}
