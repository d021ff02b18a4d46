package httpx

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csrfHandler() http.Handler {
	return CSRFProtection(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetCSRFToken(r)))
	}))
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCSRFProtection_GetIssuesToken(t *testing.T) {
	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := rec.Result()
	defer resp.Body.Close()

	c := findCookie(resp, DefaultCSRFCookieName)
	require.NotNil(t, c)
	assert.NotEmpty(t, c.Value)
	assert.False(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	// The token is exposed to handlers for rendering.
	assert.Equal(t, c.Value, rec.Body.String())
}

func TestCSRFProtection_ExistingCookieIsReused(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "existing"})
	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, req)

	resp := rec.Result()
	defer resp.Body.Close()
	assert.Nil(t, findCookie(resp, DefaultCSRFCookieName))
	assert.Equal(t, "existing", rec.Body.String())
}

func TestCSRFProtection_StateChangingRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		header string
		form   string
		ctype  string
		want   int
	}{
		{name: "post without token", method: http.MethodPost, want: http.StatusForbidden},
		{name: "post with header", method: http.MethodPost, header: "tok", want: http.StatusOK},
		{name: "put with wrong header", method: http.MethodPut, header: "nope", want: http.StatusForbidden},
		{
			name: "post with form field", method: http.MethodPost, form: "tok",
			ctype: "application/x-www-form-urlencoded", want: http.StatusOK,
		},
		{
			name: "form field ignored for json body", method: http.MethodPost, form: "tok",
			ctype: "application/json", want: http.StatusForbidden,
		},
		{name: "options exempt", method: http.MethodOptions, want: http.StatusOK},
		{name: "head exempt", method: http.MethodHead, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.form != "" {
				body = strings.NewReader(url.Values{DefaultCSRFCookieName: {tt.form}}.Encode())
			} else {
				body = strings.NewReader("")
			}
			req := httptest.NewRequest(tt.method, "/auth/logout", body)
			req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
			if tt.header != "" {
				req.Header.Set(DefaultCSRFHeaderName, tt.header)
			}
			if tt.ctype != "" {
				req.Header.Set("Content-Type", tt.ctype)
			}
			rec := httptest.NewRecorder()
			csrfHandler().ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCSRFProtection_SecureCookie(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"tls", func(r *http.Request) { r.TLS = &tls.ConnectionState{} }},
		{"forwarded proto chain", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "http, https") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			csrfHandler().ServeHTTP(rec, req)

			resp := rec.Result()
			defer resp.Body.Close()
			c := findCookie(resp, DefaultCSRFCookieName)
			require.NotNil(t, c)
			assert.True(t, c.Secure)
		})
	}
}

func TestGetCSRFToken_NoToken(t *testing.T) {
	assert.Empty(t, GetCSRFToken(httptest.NewRequest(http.MethodGet, "/", nil)))
}
