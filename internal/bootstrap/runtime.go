// Package bootstrap wires the runtime dependencies shared by the server and tooling commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"devhabit/internal/cache"
	"devhabit/internal/config"
	"devhabit/internal/database"
	"devhabit/internal/middleware"
	"devhabit/internal/models"
	"devhabit/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with demo users and goals.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	ctx := context.Background()
	if err := prepare(ctx, cfg, db, opts); err != nil {
		return nil, nil, err
	}
	return db, connectRedis(ctx, cfg.RedisURL), nil
}

// connectRedis returns nil when Redis is not configured or not reachable;
// the auth throttles then fail open and readiness reports "disabled".
func connectRedis(ctx context.Context, addr string) *redis.Client {
	rdb, err := cache.Connect(ctx, addr)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		middleware.Logger.Info("REDIS_URL not set, continuing without Redis")
	case err != nil:
		middleware.Logger.Warn("Redis unavailable, continuing without it", slog.String("error", err.Error()))
	default:
		middleware.Logger.Info("Redis connected successfully")
	}
	return rdb
}

func prepare(ctx context.Context, cfg *config.Config, db *gorm.DB, opts Options) error {
	if !opts.SeedDemo || cfg.IsProduction() {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		middleware.Logger.Info("database already has users, skipping demo seed", slog.Int64("users", count))
		return nil
	}

	if _, err := seed.NewSeeder(db, 0).Demo(ctx, seed.SeedOptions{Users: 3, GoalsPerUser: 2, ResourcesPerGoal: 2}); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	return nil
}
