package httpx

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
	"github.com/ssplaza/plaza-api/internal/service"
)

// AuthStateView is the JSON shape of the published auth state. Field names
// follow the browser client's auth context.
type AuthStateView struct {
	Session                  *SessionView               `json:"session"`
	User                     *domainauth.User           `json:"user"`
	UserRole                 *string                    `json:"userRole"`
	UserDepartment           *string                    `json:"userDepartment"`
	DepartmentSpecialization *string                    `json:"departmentSpecialization"`
	ApprovalStatus           *domainauth.ApprovalStatus `json:"approvalStatus"`
	domainauth.RoleFlags
	Permissions map[string]bool `json:"permissions"`
	IsLoading   bool            `json:"isLoading"`
}

// SessionView omits the opaque session id; it stays in the HttpOnly cookie.
type SessionView struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewAuthStateView renders st for the wire.
func NewAuthStateView(st domainauth.AuthState) AuthStateView {
	v := AuthStateView{
		User:                     st.User,
		UserRole:                 st.UserRole,
		UserDepartment:           st.UserDepartment,
		DepartmentSpecialization: st.DepartmentSpecialization,
		ApprovalStatus:           st.ApprovalStatus,
		RoleFlags:                st.Flags,
		Permissions:              st.Permissions,
		IsLoading:                st.IsLoading,
	}
	if v.Permissions == nil {
		v.Permissions = map[string]bool{}
	}
	if s := st.Session; s != nil {
		v.Session = &SessionView{
			UserID:    s.UserID,
			Email:     s.Email,
			FirstName: s.FirstName,
			LastName:  s.LastName,
			IssuedAt:  s.IssuedAt,
			ExpiresAt: s.ExpiresAt,
		}
	}
	return v
}

// APIHandlers serves the read side of the auth state to the browser client.
type APIHandlers struct {
	Flash        ports.FlashStore
	CookieDomain string
	Logger       *slog.Logger
}

func (h *APIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Me returns the current auth state.
// GET /api/me.
func (h *APIHandlers) Me(w http.ResponseWriter, r *http.Request) {
	st := GetAuthState(r.Context())
	status := http.StatusOK
	if st.IsLoading {
		status = http.StatusAccepted
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, status, NewAuthStateView(st))
}

// Navigation returns the role-scoped menu.
// GET /api/navigation.
func (h *APIHandlers) Navigation(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"items": service.NavigationFor(GetAuthState(r.Context()))})
}

// Notifications drains the pending messages for the current session and for
// the session that was just signed out from this browser.
// GET /api/notifications.
func (h *APIHandlers) Notifications(w http.ResponseWriter, r *http.Request) {
	out := make([]domainauth.Notification, 0)
	if h.Flash == nil {
		WriteJSON(w, http.StatusOK, map[string]any{"notifications": out})
		return
	}

	ids := make([]string, 0, 2)
	if id := SessionIDFromContext(r.Context()); id != "" {
		ids = append(ids, id)
	}
	if c, err := r.Cookie(lastSessionCookie); err == nil && c.Value != "" {
		ids = append(ids, c.Value)
		clearCookie(w, r, h.CookieDomain, lastSessionCookie)
	}

	for _, id := range ids {
		msgs, err := h.Flash.Drain(r.Context(), id)
		if err != nil {
			h.logger().WarnContext(r.Context(), "drain notifications failed", "error", err)
			continue
		}
		out = append(out, msgs...)
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

// App renders the server-side shell for signed-in users.
// GET /app/.
func (h *APIHandlers) App(w http.ResponseWriter, r *http.Request) {
	st := GetAuthState(r.Context())
	data := pageData{
		Title:     "SS Plaza",
		CSRFToken: GetCSRFToken(r),
		Nav:       service.NavigationFor(st),
	}
	if st.User != nil {
		data.Email = st.User.Email
	}
	if id := SessionIDFromContext(r.Context()); id != "" && h.Flash != nil {
		msgs, err := h.Flash.Drain(r.Context(), id)
		if err != nil {
			h.logger().WarnContext(r.Context(), "drain notifications failed", "error", err)
		}
		data.Flash = msgs
	}
	renderPage(w, http.StatusOK, "app", data)
}
