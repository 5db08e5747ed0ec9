// Package app assembles the engine from configuration. Both the HTTP server
// and the CLI build the same App.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"adpilot/internal/adapter/audit"
	"adpilot/internal/adapter/memory"
	"adpilot/internal/adapter/postgres"
	"adpilot/internal/adapter/propeller"
	redisadapter "adpilot/internal/adapter/redis"
	"adpilot/internal/adapter/rulefile"
	"adpilot/internal/adapter/upstream"
	"adpilot/internal/adapter/usecase"
	"adpilot/internal/config"
	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
	"adpilot/internal/db"
)

// tombstoneRetention is how long a spent token keeps answering "stale"
// instead of "unknown".
const tombstoneRetention = 24 * time.Hour

// App is the wired engine.
type App struct {
	Tools  *usecase.Orchestrator
	logger *slog.Logger

	sweeper *memory.ConfirmationStore
	sweep   time.Duration
	closers []func()
}

// New wires every component described by cfg. External connections are
// opened here; call Close to release them.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.Upstream.Token.Empty() {
		logger.Warn("UPSTREAM_TOKEN is not set, upstream calls will be rejected")
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
	} else if cfg.Redis.SharedLimiter {
		return nil, errors.New("REDIS_SHARED_LIMITER requires REDIS_ENABLED")
	}

	var limiter upstream.Limiter = upstream.NewLocalLimiter(cfg.Upstream.RPS, cfg.Upstream.Burst)
	if rdb != nil && cfg.Redis.SharedLimiter {
		limiter = redisadapter.NewLimiter(rdb, cfg.Redis.KeyPrefix, cfg.Upstream.RPS, cfg.Upstream.Burst)
	}
	client := upstream.NewClient(limiter, upstream.Config{
		MaxAttempts:    cfg.Upstream.MaxAttempts,
		BackoffBase:    cfg.Upstream.BackoffBase,
		BackoffCap:     cfg.Upstream.BackoffCap,
		MaxQueueWait:   cfg.Upstream.MaxQueueWait,
		RequestTimeout: cfg.Upstream.RequestTimeout,
		PageSize:       cfg.Upstream.PageSize,
		MaxPages:       cfg.Upstream.MaxPages,
	}, logger)
	api := propeller.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Token.Reveal(),
		propeller.WithTimezone(cfg.Upstream.Timezone))
	platform := upstream.NewPlatform(api, client)

	var store port.ConfirmationStore
	if rdb != nil {
		store = redisadapter.NewConfirmationStore(rdb, cfg.Redis.KeyPrefix, tombstoneRetention, time.Now)
	} else {
		mem := memory.NewConfirmationStore(tombstoneRetention, time.Now, logger)
		a.sweeper, a.sweep = mem, cfg.Optimizer.SweepInterval
		store = mem
	}

	recorder, err := a.auditRecorder(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var rules []domain.Rule
	if cfg.Optimizer.RulesFile != "" {
		rules, err = rulefile.Load(cfg.Optimizer.RulesFile)
		if err != nil {
			return nil, err
		}
		logger.Info("custom rules loaded",
			slog.String("path", cfg.Optimizer.RulesFile),
			slog.Int("rules", len(rules)))
	}

	dispatcher := usecase.NewDispatcher(platform, domain.NewMembershipBook(), logger)
	gate := usecase.NewGate(store, dispatcher, recorder, cfg.Optimizer.ConfirmationTTL, time.Now, logger)
	a.Tools = usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Platform: platform,
		Pager:    client,
		Gate:     gate,
		Planner:  usecase.NewPlanner(cfg.Optimizer.BatchMaxSize, time.Now),
		Rules:    rules,
		Defaults: Defaults(cfg),
		Now:      time.Now,
		Logger:   logger,
	})
	return a, nil
}

// auditRecorder always logs dispatched actions and also stores them in
// Postgres when it is enabled.
func (a *App) auditRecorder(ctx context.Context, cfg config.Config, logger *slog.Logger) (port.AuditRecorder, error) {
	logRecorder := audit.NewLogRecorder(logger)
	if !cfg.Psql.Enabled {
		return logRecorder, nil
	}
	if cfg.Psql.RunMigrations {
		if err := db.Migrate(cfg.Psql.Addr.String()); err != nil {
			return nil, err
		}
		logger.Info("migrations applied successfully")
	}
	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)
	return audit.Tee{logRecorder, postgres.NewAuditRepository(pool)}, nil
}

// Defaults converts the optimizer configuration into tool defaults.
func Defaults(cfg config.Config) usecase.Defaults {
	o := cfg.Optimizer
	return usecase.Defaults{
		MinSpend:            o.MinSpend,
		ROIThreshold:        o.ROIThreshold,
		MinConversions:      o.MinConversions,
		ScaleROIThreshold:   o.ScaleROIThreshold,
		ScaleMinConversions: o.ScaleMinConversions,
		ScaleBudgetStep:     o.ScaleBudgetStep,
		TopLimit:            o.TopLimit,
		ZoneReportLimit:     o.ZoneReportLimit,
		WindowDays:          o.WindowDays,
	}
}

// Run starts background work and blocks until ctx is done.
func (a *App) Run(ctx context.Context) {
	if a.sweeper == nil {
		<-ctx.Done()
		return
	}
	a.sweeper.Start(ctx, a.sweep)
	<-ctx.Done()
}

// Close releases external connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// String describes the active backends for the startup log.
func (a *App) String() string {
	store := "redis"
	if a.sweeper != nil {
		store = "memory"
	}
	return fmt.Sprintf("confirmation store: %s, tools: %d", store, len(a.Tools.Tools()))
}
