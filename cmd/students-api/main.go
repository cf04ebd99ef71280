// main is the entry point of the student management API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file (+ env overrides)
//  2. Initialise the logger
//  3. Open the configured storage backend and apply migrations
//  4. Wire metrics, the student service and the router
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close storage
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aanand-mishra/student-management/internal/config"
	"github.com/aanand-mishra/student-management/internal/http/middleware"
	"github.com/aanand-mishra/student-management/internal/http/router"
	"github.com/aanand-mishra/student-management/internal/logger"
	"github.com/aanand-mishra/student-management/internal/metrics"
	"github.com/aanand-mishra/student-management/internal/service"
	"github.com/aanand-mishra/student-management/internal/storage/backend"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	// MustLoad exits if anything is wrong. If it returns, config is valid.
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := logger.SetupDefault(cfg.Env, os.Stdout)

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("storage_driver", cfg.Storage.Driver),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	// backend.Open returns the storage.Storage INTERFACE; nothing past this
	// point knows which database is behind it.
	ctx := context.Background()
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("driver", cfg.Storage.Driver),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	// ── 4. Wire Dependencies ──────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	students := service.NewStudentService(store, collector)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	defer limiter.Close()

	handler := router.New(router.Deps{
		Logger:            log,
		Students:          students,
		Storage:           store,
		Metrics:           collector,
		Gatherer:          reg,
		RateLimiter:       limiter,
		CORSAllowedOrigin: cfg.CORS.AllowedOrigin,
	})

	// ── 5. Create and Start the HTTP Server ───────────────────────────────
	// Timeouts come from config to protect against slow clients.
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed after Shutdown();
		// that is the expected path, not an error.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-done:
		log.Info("shutdown signal received, stopping server...")
	case err := <-serverErr:
		log.Error("server encountered an error", slog.String("error", err.Error()))
		exitCode = 1
	}

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		exitCode = 1
	}

	log.Info("server stopped")

	if exitCode != 0 {
		// os.Exit skips deferred calls, so release storage first.
		limiter.Close()
		store.Close()
		os.Exit(exitCode)
	}
}
