package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scrollcast/internal/handlers"
	"scrollcast/internal/job"
	"scrollcast/internal/logging"
	"scrollcast/internal/media"
	"scrollcast/internal/metrics"
	"scrollcast/internal/middleware"
	"scrollcast/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// A previous crash may have left job directories behind; jobs are
	// not persistent, so anything job-prefixed is garbage at boot.
	job.SweepAll(config.WorkDir)

	// On any process-wide failure, remove every job artifact before the
	// process ends. Individual jobs clean up after themselves; this is
	// the last line of defense.
	defer func() {
		if r := recover(); r != nil {
			logging.Error("panic: %v", r)
			job.SweepAll(config.WorkDir)
			panic(r)
		}
	}()

	if config.VipsEnabled {
		if err := media.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using pure-Go resizing: %v", err)
		} else {
			defer media.ShutdownVips()
		}
	}

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
	}

	h := handlers.New(config)
	router := setupRouter(h, config.MetricsEnabled)
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}

	srv := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// Responses stream for the whole job lifetime; the job timeout
		// bounds them instead of a server-wide write deadline.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, config)

	startup.LogServerStarted(config.Port, config.MetricsEnabled, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		job.SweepAll(config.WorkDir)
		startup.LogFatal("Server error: %v", err)
	}

	// Graceful shutdown: in-flight requests have drained, so any leftover
	// job artifacts are orphans.
	job.SweepAll(config.WorkDir)
	startup.LogShutdownStepComplete("Work directory swept")
}

func setupRouter(h *handlers.Handlers, metricsEnabled bool) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/render", h.Render).Methods("POST")

	return r
}

func handleShutdown(srv *http.Server, _ *startup.Config) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}
}
