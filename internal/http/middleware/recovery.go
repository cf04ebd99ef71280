package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aanand-mishra/student-management/internal/utils/response"
)

// Recovery turns a panic in a handler into a 500 JSON response instead
// of a dropped connection.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)
				response.WriteJSON(w, http.StatusInternalServerError, response.Response{
					Status: response.StatusError,
					Error:  "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
