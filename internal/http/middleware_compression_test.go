package httpx

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompression(t *testing.T) {
	content := strings.Repeat(`{"key":"dashboard"}`, 200)

	tests := []struct {
		name           string
		acceptEncoding string
		contentType    string
		status         int
		expectGzip     bool
	}{
		{"client accepts gzip", "gzip, deflate", "application/json", http.StatusOK, true},
		{"client does not accept gzip", "deflate", "application/json", http.StatusOK, false},
		{"gzip disabled by q=0", "gzip;q=0, br", "application/json", http.StatusOK, false},
		{"no accept-encoding header", "", "application/json", http.StatusOK, false},
		{"html with charset", "gzip", "text/html; charset=utf-8", http.StatusOK, true},
		{"binary content", "gzip", "image/png", http.StatusOK, false},
		{"no content", "gzip", "application/json", http.StatusNoContent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Compression(CompressionConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				if tt.status != http.StatusNoContent {
					_, _ = io.WriteString(w, content)
				}
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/navigation", nil)
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if !tt.expectGzip {
				assert.Empty(t, rec.Header().Get("Content-Encoding"))
				if tt.status != http.StatusNoContent {
					assert.Equal(t, content, rec.Body.String())
				}
				return
			}
			assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
			zr, err := gzip.NewReader(rec.Body)
			require.NoError(t, err)
			got, err := io.ReadAll(zr)
			require.NoError(t, err)
			assert.Equal(t, content, string(got))
		})
	}
}

func TestCompression_HeadPassesThrough(t *testing.T) {
	h := Compression(CompressionConfig{Level: 9})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodHead, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Empty(t, rec.Header().Get("Vary"))
}
