package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	domainauth "github.com/vijayaragavaan2065/faculty-pulse-view/internal/domain/auth"
	apperrors "github.com/vijayaragavaan2065/faculty-pulse-view/internal/errors"
	obserrors "github.com/vijayaragavaan2065/faculty-pulse-view/internal/observability/errors"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
// Bodies not declared as application/json are refused with 415.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnsupportedMediaType,
			ErrCode: "unsupported_media_type",
			Err:     errors.New("content type must be application/json"),
		})
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
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
	_, _ = buf.WriteTo(w)
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
	// Field names the offending input, if any.
	Field string
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	body := map[string]string{"error": p.ErrCode, "message": p.Err.Error()}
	if p.Field != "" {
		body["field"] = p.Field
	}
	WriteJSON(w, p.Code, body)
}

// sessionErrorStatus maps a session transition failure to a response status.
func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domainauth.ErrSessionExpired), errors.Is(err, domainauth.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domainauth.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, domainauth.ErrVerifierUnavailable), errors.Is(err, domainauth.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	if code := apperrors.GetCode(err); code != "" {
		return code.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// writeSessionError reports a session failure with its error class, the
// message shown to users and the offending field when the cause names one.
func writeSessionError(w http.ResponseWriter, err error) {
	WriteError(w, ErrorParams{
		Code:    sessionErrorStatus(err),
		ErrCode: obserrors.Classify(err),
		Err:     errors.New(domainauth.UserMessage(err)),
		Field:   apperrors.GetField(err),
	})
}
