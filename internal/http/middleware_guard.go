package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
)

// SessionCookieName is the cookie carrying the opaque session id.
const SessionCookieName = "session_id"

// StateSource answers "who is signed in" for a session id. It is satisfied by
// *service.SessionManager.
type StateSource interface {
	Await(ctx context.Context, sessionID string) domainauth.AuthState
}

// GuardOptions configures RequireSession.
type GuardOptions struct {
	// Wait bounds how long a request blocks on an unresolved session before
	// the loading placeholder is served.
	Wait time.Duration
	// RetryAfter is advertised on the placeholder.
	RetryAfter time.Duration
}

const (
	defaultGuardWait  = 750 * time.Millisecond
	defaultRetryAfter = time.Second
)

// RequireSession returns a middleware that gates its subtree on a signed-in user.
// While the session is still resolving it serves a loading placeholder; a
// signed-out browser is redirected to login with the original location
// preserved; API callers get 401 JSON.
func RequireSession(src StateSource, opts GuardOptions) func(http.Handler) http.Handler {
	if opts.Wait <= 0 {
		opts.Wait = defaultGuardWait
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = defaultRetryAfter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			st := domainauth.AnonymousState()
			if sessionID != "" {
				ctx, cancel := context.WithTimeout(r.Context(), opts.Wait)
				st = src.Await(ctx, sessionID)
				cancel()
			}

			switch {
			case st.IsLoading:
				writeLoading(w, r, opts.RetryAfter)
			case !st.IsAuthenticated():
				rejectAnonymous(w, r)
			default:
				ctx := SetAuthStateInContext(r.Context(), st)
				ctx = SetSessionIDInContext(ctx, sessionID)
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}

// OptionalSession resolves the session like RequireSession but never blocks
// the request: whatever state is current (anonymous, loading or signed in)
// is placed in the context.
func OptionalSession(src StateSource, opts GuardOptions) func(http.Handler) http.Handler {
	if opts.Wait <= 0 {
		opts.Wait = defaultGuardWait
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			st := domainauth.AnonymousState()
			if sessionID != "" {
				ctx, cancel := context.WithTimeout(r.Context(), opts.Wait)
				st = src.Await(ctx, sessionID)
				cancel()
			}
			ctx := SetAuthStateInContext(r.Context(), st)
			ctx = SetSessionIDInContext(ctx, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission returns a middleware that requires capability c in the
// published permissions. It must run inside RequireSession.
func RequirePermission(c domainauth.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st, ok := AuthStateFromContext(r.Context())
			if !ok || !st.IsAuthenticated() {
				WriteError(w, ErrorParams{
					Code:    http.StatusUnauthorized,
					ErrCode: "authentication_required",
					Err:     errors.New("authentication required"),
				})
				return
			}
			if !st.Can(c) {
				if IsBrowserRequest(r) {
					showAccessDenied(w, r, "You don't have permission to access this page.")
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     errors.New("insufficient permissions"),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireApproved returns a middleware that admits only users whose profile
// has been approved. It must run inside RequireSession.
func RequireApproved() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := GetAuthState(r.Context())
			if !st.IsApproved() {
				if IsBrowserRequest(r) {
					showAccessDenied(w, r, "Your account is waiting for approval.")
					return
				}
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "approval_pending",
					Err:     errors.New("account approval pending"),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rejectAnonymous sends a browser to login and answers API callers with 401.
func rejectAnonymous(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		redirectToLogin(w, r)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

func sessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// writeLoading serves the placeholder shown while the session resolves.
func writeLoading(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	w.Header().Set("Cache-Control", "no-store")

	if !IsBrowserRequest(r) {
		WriteJSON(w, http.StatusAccepted, map[string]string{"status": "loading"})
		return
	}
	w.Header().Set("Refresh", strconv.Itoa(secs))
	renderPage(w, http.StatusAccepted, "loading", pageData{Title: "Loading"})
}

// redirectToLogin redirects browser requests to the login page with the current URL as redirect_uri.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectParam := url.QueryEscape(redirectPathForRequest(r))

	if IsHTMX(r) {
		// A swap target cannot render a login page; send the whole window to
		// the signed-out page instead.
		SetHXRedirect(w, "/auth/signed-out?redirect_uri="+redirectParam)
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/auth/login?redirect_uri="+redirectParam, http.StatusSeeOther)
}

func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(r.Header.Get("Hx-Current-Url")); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}
	// For absolute URLs keep only the path and query so redirects stay in the app.
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	return safeRedirectPath(raw)
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/". Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	// Browsers treat "/\host" like "//host".
	if strings.HasPrefix(candidate, "/\\") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

func showAccessDenied(w http.ResponseWriter, _ *http.Request, message string) {
	renderPage(w, http.StatusForbidden, "denied", pageData{Title: "Access denied", Message: message})
}
