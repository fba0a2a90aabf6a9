// Package httputil centralizes JSON encoding and domain error translation
// for HTTP handlers so every endpoint returns the same error envelope.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "dataportal/pkg/domain-errors"
)

// statusByCode maps domain error codes onto HTTP status codes. Unknown codes
// fall through to 500.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeValidation:     http.StatusBadRequest,
	dErrors.CodeNotFound:       http.StatusNotFound,
	dErrors.CodeForbidden:      http.StatusForbidden,
	dErrors.CodeConflict:       http.StatusConflict,
	dErrors.CodePartialFailure: http.StatusInternalServerError,
	dErrors.CodeUnauthorized:   http.StatusUnauthorized,
	dErrors.CodeTimeout:        http.StatusGatewayTimeout,
	dErrors.CodeInternal:       http.StatusInternalServerError,
}

// ToHTTPStatus returns the HTTP status for a domain error code.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError renders a domain error as the standard JSON envelope. The
// description is suppressed for internal errors so backend details never
// leak to clients; partial failures keep their description because callers
// must learn the reconcile hint.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		body["error_description"] = dErrors.MessageOf(err)
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// Decode parses a JSON request body into T. A malformed body yields a
// validation error already shaped for WriteError.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, dErrors.Wrap(err, dErrors.CodeValidation, "invalid request body")
	}
	return v, nil
}
