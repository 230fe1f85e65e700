package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "docstamp/pkg/domain-errors"
)

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// StatusFor maps a domain error code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeInvalidCredentials, dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ErrorStatus returns the HTTP status for err along with the message that may be
// shown to the caller. 5xx responses never expose the underlying message.
func ErrorStatus(err error) (int, string) {
	de, ok := dErrors.As(err)
	if !ok {
		return http.StatusInternalServerError, "internal error"
	}
	status := StatusFor(de.Code)
	if status >= http.StatusInternalServerError {
		return status, "internal error"
	}
	return status, de.Message
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a JSON error body for err.
func WriteError(w http.ResponseWriter, err error) {
	status, msg := ErrorStatus(err)
	resp := errorResponse{Error: string(dErrors.CodeOf(err))}
	if status < http.StatusInternalServerError {
		resp.ErrorDescription = msg
	}
	WriteJSON(w, status, resp)
}
