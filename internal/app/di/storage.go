package di

import (
	"context"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	usageadapters "fxchart_bot/internal/feature/usage/adapters"
	usageusecase "fxchart_bot/internal/feature/usage/usecase"
	"fxchart_bot/internal/platform/config"
	"fxchart_bot/internal/platform/db"
	infraredis "fxchart_bot/internal/platform/redis"
	"fxchart_bot/internal/platform/throttle"
)

// NewRedis connects to Redis when configured. It returns nil when Redis is not configured or unreachable,
// and callers fall back to in-process behavior.
func NewRedis(ctx context.Context, cfg *config.App) *goredis.Client {
	if !cfg.Redis.Enabled() {
		slog.Info("Redis not configured. Running with in-memory throttle and no webhook dedupe.")
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis.Addr(), cfg.Redis.Password)
	if err != nil {
		slog.Warn("Redis unavailable. Running with in-memory throttle and no webhook dedupe.", "error", err)
		return nil
	}
	return rdb
}

// NewDB opens the audit database and migrates the usage table when enabled.
func NewDB(cfg *config.App) (*gorm.DB, error) {
	return db.Open(db.Config{
		Driver:        cfg.DB.Driver,
		DSN:           cfg.DB.DSN,
		RunMigrations: cfg.RunMigrations,
		Debug:         cfg.Debug,
	}, &usageadapters.UsageModel{})
}

// NewUsageUsecase creates the audit recorder. A nil db disables recording.
func NewUsageUsecase(gdb *gorm.DB) *usageusecase.UsageUsecase {
	if gdb == nil {
		return usageusecase.NewUsageUsecase(nil)
	}
	return usageusecase.NewUsageUsecase(usageadapters.NewUsageRepository(gdb))
}

// NewThrottle creates the per-user limiter for rendering commands.
func NewThrottle(rdb *goredis.Client, cfg *config.App) throttle.Limiter {
	return throttle.New(rdb, cfg.Throttle.Limit, cfg.Throttle.Window)
}
