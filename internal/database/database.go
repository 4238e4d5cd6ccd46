// Package database opens the GORM connection and keeps the goal schema in step with the models.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"devhabit/internal/config"
	"devhabit/internal/middleware"
	"devhabit/internal/observability"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// queryLogger sends GORM's statement log through the application slog logger.
// Record-not-found is expected on every lookup miss and never logged.
type queryLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newQueryLogger(l *slog.Logger) logger.Interface {
	return &queryLogger{log: l, level: logger.Warn, slow: slowQueryThreshold}
}

func (q *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *queryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	q.printf(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (q *queryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	q.printf(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (q *queryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	q.printf(ctx, logger.Error, slog.LevelError, msg, data)
}

func (q *queryLogger) printf(ctx context.Context, threshold logger.LogLevel, lvl slog.Level, msg string, data []interface{}) {
	if q.level < threshold {
		return
	}
	q.log.Log(ctx, lvl, fmt.Sprintf(msg, data...))
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	var (
		lvl slog.Level
		msg string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= logger.Error:
		lvl, msg = slog.LevelError, "query failed"
	case q.slow > 0 && elapsed > q.slow && q.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "slow query"
		observability.SlowQueries.Inc()
	case q.level >= logger.Info:
		lvl, msg = slog.LevelInfo, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	q.log.LogAttrs(ctx, lvl, msg, attrs...)
}

// Connect opens the PostgreSQL database named by cfg.DBURI.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	return Open(postgres.Open(cfg.DBURI), cfg)
}

// Open opens a database through the given dialector, applies the pool settings
// from cfg and then the schema mode (see ApplySchema).
func Open(dialector gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	db, err := OpenWithoutSchema(dialector, cfg)
	if err != nil {
		return nil, err
	}
	if err := ApplySchema(context.Background(), db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenWithoutSchema connects and configures the pool but never touches the schema.
// The migrate command uses it so `status` reports the database as found.
func OpenWithoutSchema(dialector gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newQueryLogger(middleware.Logger),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}

	middleware.Logger.Info("Database connected successfully", slog.String("dialect", dialector.Name()))
	return db, nil
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxOpen := cfg.DBMaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	maxIdle := cfg.DBMaxIdleConns
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = min(5, maxOpen)
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	return nil
}

// Ping checks that the database answers within the context deadline.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
