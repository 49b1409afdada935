package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/duynhne/contact-service/config"
	database "github.com/duynhne/contact-service/internal/core"
	logicv1 "github.com/duynhne/contact-service/internal/logic/v1"
	v1 "github.com/duynhne/contact-service/internal/web/v1"
	"github.com/duynhne/contact-service/middleware"
)

func main() {
	// Load configuration from environment variables (with .env file support for local dev)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger, err := middleware.NewLoggerFromConfig(cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Service starting",
		zap.String("service", cfg.Service.Name),
		zap.String("version", cfg.Service.Version),
		zap.String("env", cfg.Service.Env),
		zap.String("port", cfg.Service.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Initialize OpenTelemetry tracing with centralized config
	if cfg.Tracing.Enabled {
		if _, err := middleware.InitTracing(cfg); err != nil {
			logger.Warn("Failed to initialize tracing", zap.Error(err))
		} else {
			logger.Info("Tracing initialized",
				zap.String("endpoint", cfg.Tracing.Endpoint),
				zap.Float64("sample_rate", cfg.Tracing.SampleRate),
			)
		}
	} else {
		logger.Info("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg.Profiling); err != nil {
			logger.Warn("Failed to initialize profiling", zap.Error(err))
		} else {
			logger.Info("Profiling initialized",
				zap.String("endpoint", cfg.Profiling.Endpoint),
			)
			defer middleware.StopProfiling()
		}
	} else {
		logger.Info("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Open the contact store selected by DB_DRIVER and create the contacts table
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	repo, err := database.OpenContactRepository(connectCtx, cfg.Database)
	cancelConnect()
	if err != nil {
		logger.Fatal("Failed to open contact store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	logger.Info("Contact store ready", zap.String("driver", cfg.Database.Driver))

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	var isShuttingDown atomic.Bool

	// Tracing middleware (must be first for context propagation)
	r.Use(middleware.TracingMiddleware())

	// Logging middleware (must be before Prometheus middleware)
	r.Use(middleware.LoggingMiddleware(logger))

	// Prometheus middleware
	if cfg.Metrics.Enabled {
		r.Use(middleware.PrometheusMiddleware())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Root, liveness and readiness (readiness returns 503 once shutdown has started)
	v1.NewHealthHandler(repo, cfg.Service.Version, &isShuttingDown).RegisterRoutes(r)

	// API v1
	contactService := logicv1.NewContactService(repo)
	contactHandler := v1.NewContactHandler(contactService, cfg.Pagination.DefaultLimit)
	contactHandler.RegisterRoutes(r.Group("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + cfg.Service.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting contact service", zap.String("port", cfg.Service.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown - modern signal handling with context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Fail readiness first and wait for propagation
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		logger.Info("Readiness drain delay started", zap.Duration("delay", drainDelay))
		time.Sleep(drainDelay)
		logger.Info("Readiness drain delay completed", zap.Duration("delay", drainDelay))
	}

	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server...", zap.Duration("timeout", shutdownTimeout))

	// Cleanup order: HTTP server, contact store, tracer

	// 1. Stop accepting new connections, wait for in-flight requests
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		logger.Info("HTTP server shutdown complete")
	}

	// 2. Close store connections
	repo.Close()
	logger.Info("Contact store closed")

	// 3. Flush pending spans (no-op when tracing never started)
	if err := middleware.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown error", zap.Error(err))
	} else {
		logger.Info("Tracer shutdown complete")
	}

	logger.Info("Graceful shutdown complete")
}
