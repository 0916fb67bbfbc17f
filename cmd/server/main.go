// Package main - точка входа HTTP-сервиса анализа списков учеников.
//
// Сервис принимает таблицу распределения по классам (CSV или JSON),
// строит отчёт (статистика по классам, конфликты, разорванные дружбы),
// сохраняет его в PostgreSQL (или в памяти) и кеширует в Redis.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alem-hub/roster-insights/config"
	"github.com/alem-hub/roster-insights/internal/application/command"
	"github.com/alem-hub/roster-insights/internal/application/query"
	"github.com/alem-hub/roster-insights/internal/domain/report"
	"github.com/alem-hub/roster-insights/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/roster-insights/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/roster-insights/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/roster-insights/internal/infrastructure/scheduler"
	"github.com/alem-hub/roster-insights/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/alem-hub/roster-insights/internal/interface/http"
	"github.com/alem-hub/roster-insights/internal/interface/http/handlers"
	"github.com/alem-hub/roster-insights/pkg/logger"
	"github.com/alem-hub/roster-insights/pkg/retry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. КОНФИГУРАЦИЯ И ЛОГИРОВАНИЕ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
	}).With(logger.String("service", cfg.App.Name), logger.String("env", string(cfg.App.Environment)))

	log.Info("starting roster-insights", logger.String("version", cfg.App.Version))

	schema, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		return fmt.Errorf("failed to load roster profile: %w", err)
	}

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	onRetry := func(component string) func(int, error, time.Duration) {
		return func(attempt int, err error, delay time.Duration) {
			log.Warn("dependency not ready, retrying",
				logger.Component(component),
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ХРАНИЛИЩЕ ОТЧЁТОВ (PostgreSQL или память)
	// ─────────────────────────────────────────────────────────────────────────
	var repo report.Repository
	if cfg.Database.URL != "" {
		pgCfg := postgres.DefaultConfig(cfg.Database.URL)
		pgCfg.MaxConns = int32(cfg.Database.MaxConns)
		pgCfg.QueryTimeout = cfg.Database.QueryTimeout

		var conn *postgres.Connection
		err := retry.StartupRetrier(onRetry("postgres")).Do(ctx, func(ctx context.Context) error {
			var err error
			conn, err = postgres.NewConnection(ctx, pgCfg)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection")
			conn.Close()
		}()

		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")

		repo = postgres.NewReportRepository(conn)
		health.AddCheck("database", handlers.PingCheck(conn))
	} else {
		log.Warn("DATABASE_URL is empty, reports are kept in memory")
		repo = memory.NewReportStore()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. КЕШ (Redis, опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var cache report.Cache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		rc, err := retry.DoWithData(ctx, func(ctx context.Context) (*redis.Cache, error) {
			return redis.NewCache(ctx, redisCfg)
		},
			retry.WithMaxAttempts(3),
			retry.WithRetryIf(retry.Always),
			retry.WithOnRetry(onRetry("redis")),
		)
		if err != nil {
			// Кеш не обязателен: работаем без него
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
		} else {
			defer rc.Close()
			cache = redis.NewReportCache(rc)
			health.AddCheck("cache", handlers.PingCheck(rc))
			log.Info("Redis connection established", logger.String("addr", redisCfg.Addr()))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ОБРАБОТЧИКИ (CQRS)
	// ─────────────────────────────────────────────────────────────────────────
	analyzeCfg := command.DefaultAnalyzeRosterHandlerConfig()
	analyzeCfg.Schema = schema
	analyzeCfg.CacheTTL = cfg.Reports.CacheTTL
	analyzeCfg.MaxRows = cfg.Reports.MaxRows

	analyze := command.NewAnalyzeRosterHandler(repo, cache, log, analyzeCfg)
	getReport := query.NewGetReportHandler(repo, cache, cfg.Reports.CacheTTL, log)

	gate, err := handlers.NewPasswordGate(cfg.HTTP.AccessPasswordHash)
	if err != nil {
		return fmt.Errorf("invalid ACCESS_PASSWORD_HASH: %w", err)
	}
	if !gate.Enabled() {
		log.Warn("ACCESS_PASSWORD_HASH is empty, the API is open")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ПЛАНИРОВЩИК (очистка старых отчётов)
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(log)
		purgeCfg := jobs.DefaultPurgeReportsConfig()
		purgeCfg.Retention = cfg.Reports.Retention
		if err := sched.Register(jobs.NewPurgeReportsJob(repo, log, purgeCfg, nil), cfg.Scheduler.PurgeInterval); err != nil {
			return fmt.Errorf("failed to register purge job: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.MaxUploadBytes = cfg.HTTP.MaxUploadBytes
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpCfg.Version = cfg.App.Version

	srv := httpserver.NewServer(httpCfg, httpserver.Dependencies{
		AnalyzeRoster: analyze,
		GetReport:     getReport,
		Logger:        log,
		HealthChecker: health,
		Gate:          gate,
	})
	errCh := srv.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case serveErr = <-errCh:
		log.Error("http server stopped unexpectedly", logger.Err(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", logger.Err(err))
	}
	if sched != nil {
		if err := sched.Stop(); err != nil && !errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			log.Error("scheduler shutdown failed", logger.Err(err))
		}
	}

	log.Info("shutdown completed")
	return serveErr
}
