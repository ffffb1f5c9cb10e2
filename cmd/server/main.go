package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/hdb-resale-go/internal/api"
	"github.com/irfndi/hdb-resale-go/internal/api/handlers"
	"github.com/irfndi/hdb-resale-go/internal/artifacts"
	"github.com/irfndi/hdb-resale-go/internal/cache"
	"github.com/irfndi/hdb-resale-go/internal/config"
	"github.com/irfndi/hdb-resale-go/internal/database"
	"github.com/irfndi/hdb-resale-go/internal/logging"
	"github.com/irfndi/hdb-resale-go/internal/observability"
	"github.com/irfndi/hdb-resale-go/internal/pipeline"
	"github.com/irfndi/hdb-resale-go/internal/telemetry"
	"github.com/irfndi/hdb-resale-go/internal/utils"
)

func main() {
	if err := run(); err != nil {
		var notFound *utils.ArtifactNotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, artifacts.MissingMessage)
		}
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = logger.Shutdown(ctx)
	}()
	logrus.SetLevel(logging.ParseLogrusLevel(cfg.LogLevel))
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if _, err := telemetry.InitTelemetryWithProvider(context.Background(), &telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		SampleRate:     1.0,
		LogLevel:       cfg.Telemetry.LogLevel,
	}, logger.Logger()); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(); err != nil {
			logger.WithError(err).Error("Failed to shutdown telemetry")
		}
	}()

	if err := observability.InitSentry(cfg.Sentry, cfg.Telemetry.ServiceVersion, cfg.Environment); err != nil {
		logger.WithError(err).Warn("Sentry disabled")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		observability.Flush(ctx)
	}()

	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		var notFound *utils.ArtifactNotFoundError
		if errors.As(err, &notFound) {
			logger.WithError(err).Error(artifacts.MissingMessage, "kind", notFound.Kind, "path", notFound.Path)
		}
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.LogStartup(cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}
	logger.LogShutdown(cfg.Telemetry.ServiceName, "signal received")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited gracefully")
	return nil
}

func newLogger(cfg *config.Config) *logging.StandardLogger {
	if cfg.Telemetry.Enabled && cfg.Telemetry.Exporter == telemetry.ExporterOTLP {
		return logging.NewStandardOTLPLogger(logging.OTLPConfig{
			Enabled:        true,
			Endpoint:       cfg.Telemetry.OTLPEndpoint,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Environment,
			LogLevel:       cfg.LogLevel,
		})
	}
	return logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
}

// connectRetry governs startup connections to Redis and Postgres.
var connectRetry = database.DefaultRetryPolicy()

// application is the wired service: the loaded pipeline behind its router
// plus the optional backends it holds open.
type application struct {
	Router   *gin.Engine
	Pipeline *pipeline.Pipeline

	closers []func()
}

// Close releases backends in reverse order of acquisition.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApplication loads the artifacts and connects the configured backends.
// Missing or inconsistent artifacts abort startup. An unreachable Redis only
// disables caching; an unreachable database is fatal because history was
// explicitly requested.
func newApplication(ctx context.Context, cfg *config.Config, logger logging.Logger) (*application, error) {
	bundle, err := artifacts.LoadBundle(artifacts.Options{
		Strategy:   cfg.Model.EncodingStrategy(),
		ModelPath:  cfg.Model.ModelPath,
		SchemaPath: cfg.Model.SchemaPath,
		EncoderDir: cfg.Model.EncoderDir,
		Version:    cfg.Model.Version,
	})
	if err != nil {
		return nil, err
	}
	logger.LogBusinessEvent("artifacts_loaded", map[string]interface{}{
		"strategy":      string(bundle.Strategy),
		"model_version": bundle.ModelVersion,
		"schema_width":  bundle.Schema.Len(),
	})

	app := &application{}
	opts := pipeline.Options{StrictAlignment: cfg.Model.StrictAlignment, Logger: logger}
	deps := api.Dependencies{
		Logger:         logger,
		AdminAPIKey:    cfg.Security.AdminAPIKey,
		ServiceName:    cfg.Telemetry.ServiceName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	// Interfaces stay nil unless a backend is live so that handlers and the
	// pipeline see a disabled backend, not a typed nil.
	var dbHealth, redisHealth handlers.HealthChecker

	if cfg.Redis.Enabled {
		rc, err := database.NewRedisConnectionWithRetry(ctx, cfg.Redis, connectRetry)
		if err != nil {
			logger.WithComponent("cache").Warn("Redis unavailable, prediction cache disabled", "error", err.Error())
		} else {
			app.closers = append(app.closers, rc.Close)
			predictionCache := cache.NewRedisPredictionCache(rc.Client, cfg.Redis.PredictionCacheTTL(), logger)
			reportCtx, stopReporting := context.WithCancel(context.Background())
			predictionCache.StartPeriodicReporting(reportCtx, 5*time.Minute)
			app.closers = append(app.closers, stopReporting)
			opts.Cache = predictionCache
			deps.Cache = predictionCache
			redisHealth = rc
		}
	}

	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnectionWithRetry(ctx, cfg.Database, connectRetry)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		app.closers = append(app.closers, db.Close)

		repo := database.NewPredictionRepository(database.NewTracedPool(db.Pool, logger.LogDatabaseOperation))
		if err := repo.EnsureSchema(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to prepare prediction history: %w", err)
		}
		opts.History = repo
		deps.History = repo
		dbHealth = db
	}

	p, err := pipeline.New(bundle, opts)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Pipeline = p

	deps.Runner = p
	deps.Health = handlers.NewHealthHandler(dbHealth, redisHealth, handlers.ArtifactStatus{
		Loaded:       true,
		Strategy:     string(bundle.Strategy),
		ModelVersion: bundle.ModelVersion,
		SchemaWidth:  bundle.Schema.Len(),
		LoadedAt:     bundle.LoadedAt,
	}, cfg.Telemetry.ServiceVersion)

	app.Router = api.NewRouter(deps)
	return app, nil
}
