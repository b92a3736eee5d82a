package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nholik/netloc-sentinel/internal/healthcheck"
	"github.com/nholik/netloc-sentinel/internal/metrics"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Options configures the HTTP listeners. A zero port disables that listener.
type Options struct {
	HealthPort  int
	MetricsPort int
	Tracker     *healthcheck.Tracker
	Metrics     *metrics.Metrics
	// Resolve queues a forced resolution for POST /resolve.
	Resolve func()
}

// Start launches health and metrics HTTP servers as configured.
func Start(ctx context.Context, logger zerolog.Logger, opts Options) {
	if opts.HealthPort == 0 && opts.MetricsPort == 0 {
		return
	}

	if opts.HealthPort > 0 && opts.MetricsPort > 0 && opts.HealthPort == opts.MetricsPort {
		mux := http.NewServeMux()
		registerHealthRoutes(mux, opts)
		registerMetricsRoute(mux, opts.Metrics)
		startServer(ctx, logger, mux, opts.HealthPort, "health/metrics")
		return
	}

	if opts.HealthPort > 0 {
		mux := http.NewServeMux()
		registerHealthRoutes(mux, opts)
		startServer(ctx, logger, mux, opts.HealthPort, "health")
	}

	if opts.MetricsPort > 0 {
		mux := http.NewServeMux()
		registerMetricsRoute(mux, opts.Metrics)
		startServer(ctx, logger, mux, opts.MetricsPort, "metrics")
	}
}

func registerHealthRoutes(mux *http.ServeMux, opts Options) {
	mux.HandleFunc("/healthz", healthcheck.HealthHandler(opts.Tracker))
	mux.HandleFunc("/readyz", healthcheck.ReadyHandler(opts.Tracker))
	mux.HandleFunc("/resolve", healthcheck.ResolveHandler(opts.Resolve))
}

func registerMetricsRoute(mux *http.ServeMux, metricsCollector *metrics.Metrics) {
	if metricsCollector == nil {
		return
	}
	mux.Handle("/metrics", metricsCollector.Handler())
}

func startServer(ctx context.Context, logger zerolog.Logger, handler http.Handler, port int, label string) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("server", label).Int("port", port).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("server", label).Int("port", port).Msg("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("server", label).Int("port", port).Msg("http server shutdown failed")
		}
	}()
}
