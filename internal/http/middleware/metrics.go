package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPRecorder receives one observation per finished request.
type HTTPRecorder interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
}

// NewMetrics records status and latency per route pattern. The pattern
// (e.g. /api/v1/students/{id}) is read after routing so ids never become
// label values; unmatched requests are labelled "unmatched".
func NewMetrics(rec HTTPRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := newStatusRecorder(w)

			next.ServeHTTP(sr, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			rec.RecordHTTPRequest(r.Method, route, sr.statusCode, time.Since(start))
		})
	}
}
