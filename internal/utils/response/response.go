// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here, together with
// the table that turns service error kinds into HTTP status codes.
package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-management/internal/service"
)

// ─────────────────────────────────────────────────────────────────────────────
// Response is the standard envelope returned for status-only replies.
//
// Success responses may return any JSON shape (a student, a list…).
// Error responses always look like:
//
//	{ "status": "error", "error": "Email jamila@gmail.com is already taken" }
//
// ─────────────────────────────────────────────────────────────────────────────
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Status string constants. Use these instead of raw string literals so
// a typo is caught by the compiler rather than silently sending "eroor".
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusDeleted = "deleted"
)

// internalErrorMessage is all a client learns about unexpected failures;
// the detail goes to the log only.
const internalErrorMessage = "internal server error"

// statusByKind is the single place where business-rule kinds become HTTP
// status codes. Kinds missing from the table are treated as 500.
var statusByKind = map[service.Kind]int{
	service.KindDuplicateEmail: http.StatusBadRequest,
	service.KindNotFound:       http.StatusNotFound,
}

// StatusForKind returns the HTTP status for kind.
func StatusForKind(kind service.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// OK is the body for successful calls that return nothing else.
func OK() Response {
	return Response{Status: StatusOK}
}

// GeneralError wraps any Go error into our standard Response shape.
// Use this for errors whose message is safe to show to the client
// (decode errors, business-rule violations).
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// WriteServiceError maps err through the kind table and writes it.
// Business-rule errors keep their message; anything else is logged and
// answered with a generic 500 body.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if kind, ok := service.KindOf(err); ok {
		WriteJSON(w, StatusForKind(kind), GeneralError(err))
		return
	}

	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	WriteJSON(w, http.StatusInternalServerError, Response{
		Status: StatusError,
		Error:  internalErrorMessage,
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
// Example output:
//
//	{ "status": "error", "error": "field Name is required, field Gender must be one of [MALE FEMALE]" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "oneof":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be one of [%s]", e.Field(), e.Param()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}
