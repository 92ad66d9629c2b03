package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/V4T54L/logmon/internal/adapter/api"
	"github.com/V4T54L/logmon/internal/adapter/api/handler"
	"github.com/V4T54L/logmon/internal/adapter/api/middleware"
	"github.com/V4T54L/logmon/internal/adapter/metrics"
	"github.com/V4T54L/logmon/internal/adapter/pii"
	redisrepo "github.com/V4T54L/logmon/internal/adapter/repository/redis"
	"github.com/V4T54L/logmon/internal/adapter/stream"
	"github.com/V4T54L/logmon/internal/pkg/config"
	"github.com/V4T54L/logmon/internal/pkg/logger"
	"github.com/V4T54L/logmon/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor with its status API, SSE relay and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

func runServe(cfg *config.Config) error {
	logger := logger.New(cfg.LogLevel)
	slog.SetDefault(logger)

	m := metrics.NewMonitorMetrics(prometheus.DefaultRegisterer)

	// --- Graceful Shutdown Context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Metrics Server ---
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("starting metrics server", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	// --- Monitor ---
	transport := stream.NewHTTPTransport(cfg.FeedURL, nil)
	redactor := pii.NewRedactor(cfg.RedactFields, logger)
	exporter := usecase.NewExportService(redactor, logger, m)
	monitor := usecase.NewMonitor(monitorConfig(cfg, cfg.AutoStart), transport, exporter, logger, m)

	sseBroker := handler.NewSSEBroker(ctx, logger)
	monitor.Subscribe(sseBroker)

	// --- Optional Redis Session Mirror ---
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		repo := redisrepo.NewSessionRepository(redisClient, logger, cfg.RedisKeyPrefix)
		if err := repo.Ping(ctx); err != nil {
			logger.Warn("could not connect to redis, session mirror will keep retrying", "error", err)
		}
		mirror := usecase.NewSessionMirror(repo, logger, m)
		monitor.Subscribe(mirror)
		go mirror.Run(ctx)
	}

	monitorDone := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(monitorDone)
	}()

	// --- API Server ---
	// No WriteTimeout: /events responses stay open until shutdown cancels
	// the base context.
	apiServer := &http.Server{
		Addr:        cfg.APIAddr,
		Handler:     middleware.Logging(logger)(api.NewRouter(monitor, sseBroker, logger)),
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info("starting api server", "addr", apiServer.Addr, "feed", cfg.FeedURL)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}
	<-monitorDone

	logger.Info("shut down gracefully")
	return nil
}

func monitorConfig(cfg *config.Config, autoStart bool) usecase.MonitorConfig {
	return usecase.MonitorConfig{
		MaxLogs:        cfg.MaxLogs,
		AutoStart:      autoStart,
		ReconnectDelay: cfg.ReconnectDelay,
		Scope:          cfg.SessionScope,
		ExportDir:      cfg.ExportDir,
		ExportPrefix:   cfg.ExportPrefix,
	}
}
