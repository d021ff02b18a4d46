package httpx

import (
	"net/http"
	"time"
)

// cookieSpec groups the attributes that vary between the cookies we set.
type cookieSpec struct {
	Domain string
	Name   string
	Value  string
	MaxAge int
}

// setCookie writes an HttpOnly, Lax cookie. Secure follows the request scheme.
func setCookie(w http.ResponseWriter, r *http.Request, c cookieSpec) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   c.MaxAge,
	})
}

// clearCookie mirrors the attributes used when setting so every browser deletes it.
func clearCookie(w http.ResponseWriter, r *http.Request, domain, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}
