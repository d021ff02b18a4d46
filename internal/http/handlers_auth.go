package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	"github.com/ssplaza/plaza-api/internal/ports"
	"github.com/ssplaza/plaza-api/internal/service"
)

// LoginService runs the interactive login flow. It is satisfied by *service.AuthService.
type LoginService interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
}

// SessionController reads and ends sessions through the session manager.
type SessionController interface {
	StateSource
	SignOut(ctx context.Context, sessionID string) error
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc          LoginService
	Sessions     SessionController
	Flash        ports.FlashStore // Optional: messages shown on the signed-out page
	CookieDomain string
	StatusWait   time.Duration
	Logger       *slog.Logger
}

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	lastSessionCookie   = "last_session"
	oauthCookieMaxAge   = 600
	lastSessionMaxAge   = 120
	defaultLandingPath  = "/app/"
	signedOutPath       = "/auth/signed-out"
	signOutFailedMsg    = "Sign out failed. Please try again."
	loginFailedMessage  = "Login could not be completed. Please try again."
	defaultStatusWaitMs = 500
)

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login handles the login initiation endpoint.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		redirectURI = defaultLandingPath
	}
	redirectURI = safeRedirectPath(redirectURI)

	result, err := h.Svc.BeginLogin(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New(loginFailedMessage),
		})
		return
	}

	h.setCookie(w, r, oauthStateCookie, result.State, oauthCookieMaxAge)
	h.setCookie(w, r, oauthNonceCookie, result.Nonce, oauthCookieMaxAge)
	h.setCookie(w, r, postLoginCookie, redirectURI, oauthCookieMaxAge)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("authorization code is required"),
		})
		return
	}
	if state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_state",
			Err:     errors.New("state parameter is required"),
		})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "complete login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_completion_failed",
			Err:     errors.New(loginFailedMessage),
		})
		return
	}

	h.setSessionCookie(w, r, result.Session)
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)

	http.Redirect(w, r, h.postLoginRedirect(w, r), http.StatusFound)
}

// Logout ends the session through the session manager.
// POST /auth/logout.
//
// When the backend rejects the sign-out the user stays signed in: AJAX callers
// get 502 and browsers go back where they were, where the failure message is
// waiting in their notifications.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.FormValue("redirect_uri")
	if redirectURI == "" {
		redirectURI = r.URL.Query().Get("redirect_uri")
	}
	redirectURI = safeRedirectPath(redirectURI)

	sessionID := sessionIDFromRequest(r)
	if sessionID != "" {
		if err := h.Sessions.SignOut(r.Context(), sessionID); err != nil {
			if isAJAX(r) {
				WriteError(w, ErrorParams{
					Code:    http.StatusBadGateway,
					ErrCode: "sign_out_failed",
					Err:     errors.New(signOutFailedMsg),
				})
				return
			}
			back := redirectURI
			if back == "/" {
				back = defaultLandingPath
			}
			http.Redirect(w, r, back, http.StatusSeeOther)
			return
		}
		h.setCookie(w, r, lastSessionCookie, sessionID, lastSessionMaxAge)
	}

	h.clearCookie(w, r, SessionCookieName)

	u := url.URL{Path: signedOutPath}
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	u.RawQuery = q.Encode()
	signedOutURL := u.String()

	if isAJAX(r) {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": signedOutURL,
		})
		return
	}
	http.Redirect(w, r, signedOutURL, http.StatusSeeOther)
}

// SignedOut renders the signed-out page with any messages left for the
// session that just ended.
// GET /auth/signed-out?redirect_uri=<path>.
func (h *AuthHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:       "Signed out",
		RedirectURI: safeRedirectPath(r.URL.Query().Get("redirect_uri")),
	}
	if c, err := r.Cookie(lastSessionCookie); err == nil && c.Value != "" && h.Flash != nil {
		msgs, drainErr := h.Flash.Drain(r.Context(), c.Value)
		if drainErr != nil {
			h.logger().WarnContext(r.Context(), "drain notifications failed", "error", drainErr)
		}
		data.Flash = msgs
		h.clearCookie(w, r, lastSessionCookie)
	}
	renderPage(w, http.StatusOK, "signed-out", data)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := sessionIDFromRequest(r)
	if sessionID == "" {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false, "isLoading": false})
		return
	}

	wait := h.StatusWait
	if wait <= 0 {
		wait = defaultStatusWaitMs * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(r.Context(), wait)
	st := h.Sessions.Await(ctx, sessionID)
	cancel()

	if !st.IsLoading && !st.IsAuthenticated() {
		h.clearCookie(w, r, SessionCookieName)
	}

	body := map[string]any{
		"authenticated": st.IsAuthenticated(),
		"isLoading":     st.IsLoading,
	}
	if st.Session != nil {
		body["user"] = map[string]any{
			"id":         st.Session.UserID,
			"first_name": st.Session.FirstName,
			"last_name":  st.Session.LastName,
			"email":      st.Session.Email,
			"role":       st.UserRole,
		}
		body["expires_at"] = st.Session.ExpiresAt
	}
	WriteJSON(w, http.StatusOK, body)
}

func (h *AuthHandlers) setCookie(w http.ResponseWriter, r *http.Request, name, value string, maxAge int) {
	setCookie(w, r, cookieSpec{Domain: h.CookieDomain, Name: name, Value: value, MaxAge: maxAge})
}

func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	clearCookie(w, r, h.CookieDomain, name)
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s domainauth.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	h.setCookie(w, r, SessionCookieName, s.ID, maxAge)
}

// postLoginRedirect returns the stored destination and clears the cookie.
func (h *AuthHandlers) postLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(postLoginCookie)
	if err != nil {
		return defaultLandingPath
	}
	h.clearCookie(w, r, postLoginCookie)
	dest := safeRedirectPath(c.Value)
	if dest == "/" {
		return defaultLandingPath
	}
	return dest
}
