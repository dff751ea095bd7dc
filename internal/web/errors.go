package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and request id, then
// returned to the client as the coded user message from core.MapError,
// formatted for the request type (HTMX, JSON, or plain text).

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/clientdesk/internal/core"
	"github.com/JonMunkholm/clientdesk/internal/logging"
	"github.com/JonMunkholm/clientdesk/internal/web/templates"
)

// errInvalidForm marks malformed upload requests.
var errInvalidForm = errors.New("invalid upload form")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func newErrorResponse(ue *core.UserError) *ErrorResponse {
	msg := ue.User
	return &ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		fileTypeErr *core.FileTypeError
		parseErr    *core.ParseError
		readErr     *core.ReadError
		commitErr   *core.CommitError
	)

	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrBusy), errors.Is(err, core.ErrInvalidPhase):
		return http.StatusConflict
	case errors.As(err, &fileTypeErr):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrNoFile), errors.Is(err, errInvalidForm):
		return http.StatusBadRequest
	case errors.As(err, &parseErr), errors.As(err, &readErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrImportNotAllowed), errors.Is(err, core.ErrNothingToImport):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNoActor):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.As(err, &commitErr):
		if commitErr.Duplicate {
			return http.StatusConflict
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX, JSON, or plain text).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	ue := core.NewUserError(err)
	logRequestError(r, ue, statusCode)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, ue.User, statusCode)
	case wantsJSON(r):
		writeJSONStatus(w, statusCode, newErrorResponse(ue))
	default:
		http.Error(w, ue.User.Message+" ("+ue.User.Code+")", statusCode)
	}
}

// logRequestError logs the technical side of ue. Server errors and errors
// without a catalogue entry are logged at error level.
func logRequestError(r *http.Request, ue *core.UserError, status int, args ...any) {
	logger := logging.WithFields(r.Context(), args...)
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", ue.Technical.Error(),
		"code", ue.User.Code,
	}
	if status >= http.StatusInternalServerError || !core.IsUserFacing(ue.Technical) {
		logger.Error("request error", attrs...)
		return
	}
	logger.Warn("request error", attrs...)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error alert", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSONStatus encodes v as JSON and writes it with status.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
