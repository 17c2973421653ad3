package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/redmonkez12/go-auth-flow/internal/apperror"
	"github.com/redmonkez12/go-auth-flow/internal/logging"
)

// Machine readable codes for failures raised outside the auth core.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse is the body of simple acknowledgements.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}

// RespondAppError converts err into a structured error response. Errors that
// are not classified are reported as a generic internal error and logged.
func RespondAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		logging.GetLoggerFromContext(r.Context()).Error("request failed", "error", err.Error())
		RespondErrorWithCode(w, "Something went wrong, try again later", kind.Code(), kind.StatusCode())
		return
	}

	var appErr *apperror.Error
	message := err.Error()
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	RespondErrorWithCode(w, message, kind.Code(), kind.StatusCode())
}
