// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/carterperez-dev/habit-ledger/internal/admin"
	"github.com/carterperez-dev/habit-ledger/internal/auth"
	"github.com/carterperez-dev/habit-ledger/internal/config"
	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/gamification"
	"github.com/carterperez-dev/habit-ledger/internal/goal"
	"github.com/carterperez-dev/habit-ledger/internal/habit"
	"github.com/carterperez-dev/habit-ledger/internal/health"
	"github.com/carterperez-dev/habit-ledger/internal/jobs"
	"github.com/carterperez-dev/habit-ledger/internal/middleware"
	"github.com/carterperez-dev/habit-ledger/internal/migrate"
	"github.com/carterperez-dev/habit-ledger/internal/reflection"
	"github.com/carterperez-dev/habit-ledger/internal/server"
	"github.com/carterperez-dev/habit-ledger/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

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

	logger, closeLog := setupLogger(cfg.Log)
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	clock := clockwork.NewRealClock()

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

	migrator := migrate.NewRunner(db.DB, logger)
	if cfg.Database.AutoMigrate {
		applied, migErr := migrator.Apply(ctx)
		if migErr != nil {
			return migErr
		}
		logger.Info("migrations applied", "count", applied)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT, clock)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	userSvc := user.NewService(user.NewRepository(db.DB), logger)
	userHandler := user.NewHandler(userSvc)

	xpSvc := gamification.NewService(
		gamification.NewRepository(db.DB),
		db,
		clock,
		logger,
	)
	xpHandler := gamification.NewHandler(xpSvc)

	authSvc := auth.NewService(auth.ServiceConfig{
		JWT:        jwtManager,
		Users:      userSvc,
		Profiles:   xpSvc,
		Blacklist:  auth.NewRedisBlacklist(redis.Client),
		Transactor: db,
		Clock:      clock,
		Logger:     logger,
	})
	authHandler := auth.NewHandler(authSvc)

	habitSvc := habit.NewService(habit.ServiceConfig{
		Repo:                     habit.NewRepository(db.DB),
		Transactor:               db,
		XP:                       xpSvc,
		Clock:                    clock,
		Logger:                   logger,
		FreeLimit:                cfg.Habits.FreeLimit,
		NeverMissTwice:           cfg.Habits.NeverMissTwice,
		PersistUncompletePenalty: cfg.Gamification.PersistUncompletePenalty,
		MaxRangeDays:             cfg.Habits.MaxRangeDays,
		SweepConcurrency:         cfg.Jobs.SweepConcurrency,
	})
	habitHandler := habit.NewHandler(habitSvc)

	goalSvc := goal.NewService(goal.NewRepository(db.DB), db, xpSvc, clock, logger)
	goalHandler := goal.NewHandler(goalSvc)

	reflectionSvc := reflection.NewService(
		reflection.NewRepository(db.DB),
		db,
		habitSvc,
		xpSvc,
		clock,
		logger,
	)
	reflectionHandler := reflection.NewHandler(reflectionSvc)

	healthHandler := health.NewHandler(
		health.Check{Name: "database", Checker: db},
		health.Check{Name: "redis", Checker: redis},
		health.Check{Name: "migrations", Checker: health.CheckerFunc(migrator.Check)},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Habits:     habitSvc,
		XP:         xpSvc,
		Plans:      userSvc,
	})

	scheduler, err := jobs.New(cfg.Jobs, habitSvc, redis, clock, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	verify := middleware.Authenticator(authSvc)
	planLimit := middleware.PlanRateLimiter(redis.Client, middleware.DefaultPlanLimits)
	authenticator := func(next http.Handler) http.Handler {
		return verify(planLimit(next))
	}
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)

		habitHandler.RegisterRoutes(r, authenticator)
		xpHandler.RegisterRoutes(r, authenticator)
		goalHandler.RegisterRoutes(r, authenticator)
		reflectionHandler.RegisterRoutes(r, authenticator)

		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	scheduler.Start()

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

	if err := scheduler.Shutdown(); err != nil {
		logger.Error("scheduler shutdown error", "error", err)
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

// setupLogger writes to stdout and, when log.file is set, also to a
// rotating file.
func setupLogger(cfg config.LogConfig) (*slog.Logger, func()) {
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

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() { _ = rotator.Close() } //nolint:errcheck // closing on exit
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler), closeFn
}
