// Package health serves the liveness/readiness probe.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/student-management/internal/utils/response"
)

// pingTimeout bounds how long a probe waits on the storage backend.
const pingTimeout = 2 * time.Second

// Pinger is satisfied by every storage backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check handles GET /healthz: 200 {"status":"ok"} when storage answers a
// ping, 503 otherwise.
func Check(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusServiceUnavailable, response.Response{
				Status: response.StatusError,
				Error:  "storage unavailable",
			})
			return
		}

		response.WriteJSON(w, http.StatusOK, response.OK())
	}
}
