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
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/duynhne/card-service/config"
	database "github.com/duynhne/card-service/internal/core"
	"github.com/duynhne/card-service/internal/core/blob"
	"github.com/duynhne/card-service/internal/core/domain"
	"github.com/duynhne/card-service/internal/core/events"
	"github.com/duynhne/card-service/internal/core/repository/memory"
	"github.com/duynhne/card-service/internal/core/repository/psql"
	logicv1 "github.com/duynhne/card-service/internal/logic/v1"
	v1 "github.com/duynhne/card-service/internal/web/v1"
	"github.com/duynhne/card-service/middleware"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger, err := middleware.NewLogger(cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Service starting",
		zap.String("service", cfg.Service.Name),
		zap.String("version", cfg.Service.Version),
		zap.String("env", cfg.Service.Env),
		zap.String("port", cfg.Service.Port),
		zap.String("store", cfg.Database.Driver),
		zap.String("blob_backend", cfg.Storage.Backend),
	)

	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		tp, err = middleware.InitTracing(cfg)
		if err != nil {
			logger.Warn("Failed to initialize tracing", zap.Error(err))
			tp = nil
		} else {
			logger.Info("Tracing initialized",
				zap.String("endpoint", cfg.Tracing.Endpoint),
				zap.Float64("sample_rate", cfg.Tracing.SampleRate),
			)
		}
	}

	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			logger.Warn("Failed to initialize profiling", zap.Error(err))
		} else {
			logger.Info("Profiling initialized", zap.String("endpoint", cfg.Profiling.Endpoint))
			defer middleware.StopProfiling()
		}
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	repo, pool := openCardStore(startupCtx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}

	store, closeStore := openBlobStore(startupCtx, cfg, logger)
	defer closeStore()

	publisher, closeEvents := openEvents(cfg, logger)
	defer closeEvents()

	cardService := logicv1.NewCardService(repo, publisher, logger)
	uploadService := logicv1.NewUploadService(store, cfg.Storage.PublicBaseURL, cfg.Storage.MaxUploadBytes)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	var isShuttingDown atomic.Bool

	// tracing first so the logger sees the span context
	r.Use(middleware.TracingMiddleware(cfg.Service.Name))
	r.Use(middleware.LoggingMiddleware(logger))
	if cfg.Metrics.Enabled {
		r.Use(middleware.PrometheusMiddleware())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 503 once shutdown has started, and while the card store is unreachable
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database_unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1.RegisterRoutes(r, v1.NewCardHandler(cardService), v1.NewUploadHandler(uploadService))

	srv := &http.Server{
		Addr:              ":" + cfg.Service.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting card service", zap.String("port", cfg.Service.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	isShuttingDown.Store(true)
	if drainDelay := cfg.GetReadinessDrainDelayDuration(); drainDelay > 0 {
		logger.Info("Readiness drain delay started", zap.Duration("delay", drainDelay))
		time.Sleep(drainDelay)
	}

	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server...", zap.Duration("timeout", shutdownTimeout))

	// order: HTTP server, then stores and events (deferred), then tracer
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		logger.Info("HTTP server shutdown complete")
	}

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("Tracer shutdown error", zap.Error(err))
		} else {
			logger.Info("Tracer shutdown complete")
		}
	}

	logger.Info("Graceful shutdown complete")
}

// openCardStore returns the configured Card Store. The pool is nil for the memory driver.
func openCardStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.CardRepository, *pgxpool.Pool) {
	if cfg.Database.Driver == config.StoreDriverMemory {
		logger.Warn("Using in-memory card store, cards are lost on restart")
		return memory.NewCardRepository(), nil
	}

	pool, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connection pool established")

	if cfg.Database.BootstrapSchema {
		if err := database.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			logger.Fatal("Failed to bootstrap schema", zap.Error(err))
		}
		logger.Info("Schema ready", zap.String("table", database.CardsTable))
	}
	return psql.NewCardRepository(pool), pool
}

// openBlobStore returns nil when storage is not configured; uploads then fail
// with "Blob storage not configured" while the Card API keeps working.
func openBlobStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.BlobStore, func()) {
	noop := func() {}
	if !cfg.Storage.Configured() {
		logger.Warn("Blob storage not configured, uploads are disabled",
			zap.String("backend", cfg.Storage.Backend))
		return nil, noop
	}

	switch cfg.Storage.Backend {
	case config.BlobBackendGridFS:
		store, err := blob.NewGridFSStore(ctx, cfg.Storage.MongoURI, cfg.Storage.GridFSBucket)
		if err != nil {
			logger.Fatal("Failed to connect to GridFS", zap.Error(err))
		}
		logger.Info("GridFS blob store ready", zap.String("bucket", cfg.Storage.GridFSBucket))
		return store, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.Error("GridFS disconnect error", zap.Error(err))
			}
		}
	default:
		store, err := blob.NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			logger.Fatal("Failed to open local blob store", zap.Error(err))
		}
		logger.Info("Local blob store ready", zap.String("dir", cfg.Storage.LocalDir))
		return store, noop
	}
}

func openEvents(cfg *config.Config, logger *zap.Logger) (domain.EventPublisher, func()) {
	if !cfg.Events.Enabled() {
		return events.Noop{}, func() {}
	}
	publisher, err := events.Connect(&cfg.Events, cfg.Service.Name)
	if err != nil {
		// events are best-effort; the Card API works without them
		logger.Warn("Failed to connect to NATS, card events disabled", zap.Error(err))
		return events.Noop{}, func() {}
	}
	logger.Info("Publishing card events",
		zap.String("url", cfg.Events.URL),
		zap.String("subject_prefix", cfg.Events.SubjectPrefix))
	return publisher, publisher.Close
}
