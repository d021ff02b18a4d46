package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
)

// SessionRefresher extends a session that is close to expiry.
// It is satisfied by *service.AuthService.
type SessionRefresher interface {
	RefreshSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// RefreshSession slides the session expiry on authenticated requests and
// re-issues the cookie when the backend moved it. A session the backend no
// longer has is treated as signed out; other failures are logged and the
// request proceeds with the current session.
func RefreshSession(ref SessionRefresher, cookieDomain string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		if ref == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := GetAuthState(r.Context())
			id := SessionIDFromContext(r.Context())
			if id != "" && st.Session != nil {
				sess, err := ref.RefreshSession(r.Context(), id)
				switch {
				case errors.Is(err, domainauth.ErrSessionNotFound):
					logger.InfoContext(r.Context(), "session gone during refresh", "error", err)
					clearCookie(w, r, cookieDomain, SessionCookieName)
					rejectAnonymous(w, r)
					return
				case err != nil:
					logger.WarnContext(r.Context(), "session refresh failed", "error", err)
				case sess != nil && sess.ExpiresAt.After(st.Session.ExpiresAt):
					maxAge := int(time.Until(sess.ExpiresAt).Seconds())
					if maxAge > 0 {
						setCookie(w, r, cookieSpec{Domain: cookieDomain, Name: SessionCookieName, Value: id, MaxAge: maxAge})
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
