// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/northstarhq/northstar/internal/admin"
	"github.com/northstarhq/northstar/internal/audit"
	"github.com/northstarhq/northstar/internal/auth"
	"github.com/northstarhq/northstar/internal/authz"
	"github.com/northstarhq/northstar/internal/config"
	"github.com/northstarhq/northstar/internal/core"
	"github.com/northstarhq/northstar/internal/health"
	"github.com/northstarhq/northstar/internal/janitor"
	"github.com/northstarhq/northstar/internal/middleware"
	"github.com/northstarhq/northstar/internal/okr"
	"github.com/northstarhq/northstar/internal/profile"
	"github.com/northstarhq/northstar/internal/report"
	"github.com/northstarhq/northstar/internal/server"
	"github.com/northstarhq/northstar/internal/sprint"
	"github.com/northstarhq/northstar/internal/team"
	"github.com/northstarhq/northstar/internal/tenancy"
	"github.com/northstarhq/northstar/internal/tenant"
	"github.com/northstarhq/northstar/internal/validation"
	"github.com/northstarhq/northstar/internal/wiki"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	rules := validation.New()
	gate := authz.NewGate(logger)

	auditRepo := audit.NewRepository(db.DB)
	recorder := audit.NewRecorder(auditRepo, cfg.Audit, logger)
	recorder.Start()
	logger.Info("audit recorder started",
		"workers", cfg.Audit.Workers,
		"buffer_size", cfg.Audit.BufferSize,
	)

	overrides := tenancy.NewOverrideStore(
		redis.Client,
		cfg.Session.OverrideTTL,
		logger,
	)

	profileRepo := profile.NewRepository(db.DB)
	profileSvc := profile.NewService(profileRepo, gate, recorder)
	profileHandler := profile.NewHandler(profileSvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(authRepo, jwtManager, profileSvc, overrides, recorder)
	authHandler := auth.NewHandler(authSvc)

	tenantSvc := tenant.NewService(
		tenant.NewRepository(db.DB),
		gate,
		overrides,
		rules,
		recorder,
	)
	tenantHandler := tenant.NewHandler(tenantSvc)

	teamSvc := team.NewService(team.NewRepository(db.DB), gate, rules, recorder)
	teamHandler := team.NewHandler(teamSvc)

	sprintSvc := sprint.NewService(sprint.NewRepository(db.DB), gate, rules, recorder)
	sprintHandler := sprint.NewHandler(sprintSvc)

	okrSvc := okr.NewService(okr.NewRepository(db.DB), gate, rules, recorder)
	okrHandler := okr.NewHandler(okrSvc)

	wikiSvc := wiki.NewService(wiki.NewRepository(db.DB), gate, rules, recorder)
	wikiHandler := wiki.NewHandler(wikiSvc)

	reportSvc := report.NewService(report.NewRepository(db.DB), gate)
	reportHandler := report.NewHandler(reportSvc)

	auditSvc := audit.NewService(recorder, auditRepo, gate)
	auditHandler := audit.NewHandler(auditSvc)

	validationHandler := validation.NewHandler(rules)

	healthHandler := health.NewHandler(cfg.App.Version,
		health.Check{Name: "database", Checker: health.CheckerFunc(db.Ping)},
		health.Check{Name: "redis", Checker: health.CheckerFunc(redis.Ping)},
	)

	jan := janitor.New(authRepo, logger)
	if cfg.Janitor.Enabled {
		if err := jan.Start(cfg.Janitor.TokenPurgeSchedule); err != nil {
			return err
		}
		logger.Info("janitor scheduled",
			"token_purge_schedule", cfg.Janitor.TokenPurgeSchedule,
		)
	}

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		AuditStats: recorder.Stats,
		Purger:     jan,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	if telemetry != nil {
		router.Use(middleware.Tracing(telemetry.Tracer))
	}
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: cfg.RateLimit.FailOpen,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager)
	scoped := middleware.ScopeLoader(profileSvc, overrides, logger)
	rootOnly := func(next http.Handler) http.Handler {
		return scoped(middleware.RequireRoot(next))
	}

	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.AuthPerMin,
			cfg.RateLimit.AuthPerMin,
		),
		FailOpen: cfg.RateLimit.FailOpen,
	})

	router.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Handler)
			authHandler.RegisterRoutes(r, authenticator)
		})

		validationHandler.RegisterRoutes(r, authenticator)

		profileHandler.RegisterRoutes(r, authenticator, scoped)
		tenantHandler.RegisterRoutes(r, authenticator, scoped)
		teamHandler.RegisterRoutes(r, authenticator, scoped)
		sprintHandler.RegisterRoutes(r, authenticator, scoped)
		okrHandler.RegisterRoutes(r, authenticator, scoped)
		wikiHandler.RegisterRoutes(r, authenticator, scoped)
		reportHandler.RegisterRoutes(r, authenticator, scoped)
		auditHandler.RegisterRoutes(r, authenticator, scoped)
		adminHandler.RegisterRoutes(r, authenticator, rootOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if cfg.Janitor.Enabled {
		jan.Stop()
	}

	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Error("audit recorder drain error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
