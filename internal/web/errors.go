package web

// errors.go maps engine errors to JSON error responses.
//
// The technical error is logged with the request id; the client gets the
// classified message, the pattern-table action and the code.

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/objmap/internal/core"
	"github.com/JonMunkholm/objmap/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// requestErrorCode marks malformed requests.
const requestErrorCode = "REQ001"

// statusFor picks the HTTP status for an engine error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownType):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnknownMember),
		errors.Is(err, core.ErrNoReference),
		errors.Is(err, core.ErrInvalidPath),
		errors.Is(err, core.ErrPathTooDeep),
		errors.Is(err, core.ErrInvalidValue):
		return http.StatusBadRequest
	case core.IsBusinessRule(err), errors.Is(err, core.ErrWarningDeclined):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	message := userMsg.Message
	var se *core.StorageError
	if errors.As(err, &se) && se.Message != "" {
		message = se.Message
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Message: message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// writeError writes a request-level error that never reached the engine.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    requestErrorCode,
	})
}
