package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/quizforge/sessiond/internal/errors"
)

// DecodeJSON decodes JSON from the request body into the destination and
// handles errors. Returns true if successful, false if an error response was
// already written.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Status: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

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
	Status  int
	ErrCode string
	Err     error
	// Code is an optional machine-readable code (e.g. a provider error code)
	// surfaced alongside the message.
	Code string
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	payload := map[string]string{"error": p.ErrCode, "message": p.Err.Error()}
	if p.Code != "" {
		payload["code"] = p.Code
	}
	WriteJSON(w, p.Status, payload)
}

// WriteAppError maps an application error to the wire error shape.
func WriteAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	errCode := "Internal Server Error"

	switch {
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
		errCode = "Bad Request"
	case apperrors.IsInvalidToken(err), apperrors.IsInvalidCookie(err), apperrors.IsRevoked(err):
		status = http.StatusUnauthorized
		errCode = "Unauthorized"
	case apperrors.IsPrincipalNotFound(err), apperrors.IsNotFound(err):
		status = http.StatusNotFound
		errCode = "Not Found"
	case apperrors.IsConflict(err):
		status = http.StatusConflict
		errCode = "Conflict"
	case apperrors.IsProfileUnavailable(err):
		status = http.StatusServiceUnavailable
		errCode = "Service Unavailable"
	}

	code := apperrors.GetProviderCode(err)
	if code == "" {
		code = string(apperrors.GetCode(err))
	}

	WriteError(w, ErrorParams{
		Status:  status,
		ErrCode: errCode,
		Err:     err,
		Code:    code,
	})
}
