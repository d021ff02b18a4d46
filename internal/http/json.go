package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	domainauth "github.com/ssplaza/plaza-api/internal/domain/auth"
	apperrors "github.com/ssplaza/plaza-api/internal/errors"
	"github.com/ssplaza/plaza-api/internal/service"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

const maxJSONBody = 1 << 20

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteServiceError maps a service or repository error to a status and a
// user-safe message. Internal details never reach the response body.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainauth.ErrProfileNotFound):
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "Profile not found."})
		return
	case errors.Is(err, service.ErrInvalidRole):
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_role", "message": err.Error()})
		return
	}

	body := map[string]string{
		"error":   string(apperrors.GetCode(err)),
		"message": apperrors.Message(err),
	}
	if body["error"] == "" {
		body["error"] = string(apperrors.ErrCodeInternal)
	}
	if field := apperrors.GetField(err); field != "" {
		body["field"] = field
	}
	WriteJSON(w, apperrors.HTTPStatus(err), body)
}
