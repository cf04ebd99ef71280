// Package router assembles the chi router: middleware chain, the students
// resource, health probe and metrics endpoint.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aanand-mishra/student-management/internal/http/handlers/health"
	"github.com/aanand-mishra/student-management/internal/http/handlers/student"
	"github.com/aanand-mishra/student-management/internal/http/middleware"
	"github.com/aanand-mishra/student-management/internal/metrics"
)

// Deps is everything the router needs from main.
type Deps struct {
	Logger            *slog.Logger
	Students          student.Service
	Storage           health.Pinger
	Metrics           *metrics.Collector
	Gatherer          prometheus.Gatherer
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
}

// New returns the application handler.
//
// Middleware order, outermost first:
//
//	RequestID → Logging → Metrics → Recovery → CORS → RateLimit
//
// Recovery sits inside Logging and Metrics so a recovered panic is still
// logged and counted as a 500.
//
// Route table:
//
//	GET    /api/v1/students          list all students
//	POST   /api/v1/students          register a student
//	POST   /api/v1/students/import   bulk register from .xlsx
//	GET    /api/v1/students/{id}     get one student
//	DELETE /api/v1/students/{id}     delete a student
//	GET    /healthz                  storage ping
//	GET    /metrics                  Prometheus scrape
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.NewLogging(deps.Logger))
	r.Use(middleware.NewMetrics(deps.Metrics))
	r.Use(middleware.Recovery)
	r.Use(middleware.NewCORS(deps.CORSAllowedOrigin))

	r.Get("/healthz", health.Check(deps.Storage))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Middleware)

		r.Route("/api/v1/students", func(r chi.Router) {
			r.Get("/", student.GetList(deps.Students))
			r.Post("/", student.New(deps.Students))
			r.Post("/import", student.Import(deps.Students))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", student.GetByID(deps.Students))
				r.Delete("/", student.Delete(deps.Students))
			})
		})
	})

	return r
}
