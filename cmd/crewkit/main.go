package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/crewkit/crewkit/pkg/access"
	"github.com/crewkit/crewkit/pkg/api"
	"github.com/crewkit/crewkit/pkg/apikeys"
	"github.com/crewkit/crewkit/pkg/audit"
	"github.com/crewkit/crewkit/pkg/auth"
	"github.com/crewkit/crewkit/pkg/billing"
	"github.com/crewkit/crewkit/pkg/config"
	"github.com/crewkit/crewkit/pkg/httputil"
	"github.com/crewkit/crewkit/pkg/middleware"
	"github.com/crewkit/crewkit/pkg/observability"
	"github.com/crewkit/crewkit/pkg/rbac"
	"github.com/crewkit/crewkit/pkg/teams"
	"github.com/crewkit/crewkit/pkg/webhooks"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crewkit: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting crewkit")

	ctx := context.Background()

	// The permission matrix must be complete before anything is served. A
	// gap here is a deployment bug, not a runtime condition.
	matrix := rbac.DefaultMatrix()
	if err := matrix.Validate(); err != nil {
		return fmt.Errorf("permission matrix is incomplete: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to reach database: %w", err)
	}
	if err := teams.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Database migrations applied")

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:       cfg.Redis.URL,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			MaxRetries: cfg.Redis.MaxRetries,
			PoolSize:   cfg.Redis.PoolSize,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable at startup, decisions will fall back to the database")
		}
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	accessMetrics := access.NewMetrics(registry)

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	teamService := teams.NewPostgresService(db)

	var resolver access.MembershipResolver = access.NewPostgresResolver(teamService)
	if cfg.Cache.Enabled && redisClient != nil {
		cached := access.NewCachedResolver(resolver, redisClient, cfg.Cache.MembershipTTL, accessMetrics)
		teamService.SetMembershipInvalidator(cached)
		resolver = cached
	}

	decider, err := access.NewDecider(teamService, resolver, matrix, accessMetrics)
	if err != nil {
		return fmt.Errorf("failed to build decider: %w", err)
	}

	sessions, err := auth.NewSessionStore(db)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	auditLogger, auditDB, err := buildAuditLogger(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to initialize audit logging: %w", err)
	}
	defer auditLogger.Close()

	var rateLimit func(http.Handler) http.Handler
	if redisClient != nil {
		rateLimit = middleware.NewDistributedRateLimitMiddleware(redisClient).Handler
	} else {
		rateLimit = middleware.NewRateLimitMiddleware().Handler
	}

	server := api.NewServer(api.Config{
		Teams:    teamService,
		Decider:  decider,
		Sessions: sessions,
		APIKeys:  apikeys.NewStore(db),
		Webhooks: webhooks.NewStore(db),
		Billing:  billing.NewStore(db),
		AuditLog: auditLogger,
		AuditDB:  auditDB,
		Middleware: []func(http.Handler) http.Handler{
			httputil.RecoveryMiddleware,
			httputil.RequestIDMiddleware,
			httputil.CORSMiddleware(cfg.Server.CORSAllowedOrigins),
			observability.HTTPMetricsMiddleware(metrics),
			rateLimit,
			httputil.MaxBytesMiddleware(1 << 20),
		},
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(server.Router(), "crewkit-api"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@hourly", func() {
		defer observability.RecoverPanic(logger, "invitation cleanup")
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		removed, err := teamService.CleanupExpiredInvitations(cleanupCtx)
		if err != nil {
			logger.WithError(err).Error("Failed to clean up expired invitations")
			return
		}
		if removed > 0 {
			logger.Infof("Removed %d expired invitations", removed)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule invitation cleanup: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	var group errgroup.Group
	group.Go(func() error {
		logger.Infof("API server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		manager := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
		manager.RegisterShutdownFunc(healthServer.Shutdown)
		manager.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, providers, logger)
		})
		return manager.WaitForShutdown()
	})

	return group.Wait()
}

// buildAuditLogger assembles the configured audit sinks: the database
// sink always backs audit_logs reads, with an optional JSON-lines file
// sink alongside it.
func buildAuditLogger(cfg *config.Config, db *sql.DB) (audit.Logger, *audit.DBLogger, error) {
	if !cfg.Audit.Enabled {
		return audit.NewNopLogger(), nil, nil
	}

	dbLogger, err := audit.NewDBLogger(db)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Audit.FilePath == "" {
		return dbLogger, dbLogger, nil
	}

	fileLogger, err := audit.NewFileLogger(audit.FileLoggerConfig{BasePath: cfg.Audit.FilePath})
	if err != nil {
		return nil, nil, err
	}
	return audit.NewMultiLogger(dbLogger, fileLogger), dbLogger, nil
}
