package database

import (
	"context"
	"fmt"
	"log/slog"

	"devhabit/internal/config"
	"devhabit/internal/middleware"

	"gorm.io/gorm"
)

// TableStatus describes one persistent model's table in the connected database.
type TableStatus struct {
	Table          string
	Exists         bool
	MissingColumns []string
}

// SchemaStatus reports how the configured schema mode applies to the connected database.
type SchemaStatus struct {
	Mode            string
	Environment     string
	WillAutoMigrate bool
	Tables          []TableStatus
}

// Pending reports whether any table or column still has to be created.
func (s *SchemaStatus) Pending() bool {
	for _, t := range s.Tables {
		if !t.Exists || len(t.MissingColumns) > 0 {
			return true
		}
	}
	return false
}

// Migrate creates or updates the tables of every persistent model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// ApplySchema migrates the database when cfg selects the auto schema mode.
// In manual mode it only warns when tables are missing.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	switch mode := cfg.SchemaMode(); mode {
	case config.SchemaModeAuto:
		if err := Migrate(db.WithContext(ctx)); err != nil {
			return err
		}
		middleware.Logger.Info("Database migration completed", slog.String("schema_mode", mode))
		return nil
	case config.SchemaModeManual:
		status, err := GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return err
		}
		if status.Pending() {
			middleware.Logger.Warn("database schema is behind the models; run `migrate auto` before serving traffic",
				slog.String("schema_mode", mode),
				slog.String("env", cfg.Env),
			)
		}
		return nil
	default:
		return fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// GetSchemaStatus compares the persistent models against the live tables.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	status := &SchemaStatus{
		Mode:            cfg.SchemaMode(),
		Environment:     cfg.Env,
		WillAutoMigrate: cfg.SchemaMode() == config.SchemaModeAuto,
	}

	migrator := db.WithContext(ctx).Migrator()
	for _, model := range PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}

		ts := TableStatus{Table: stmt.Schema.Table, Exists: migrator.HasTable(model)}
		if ts.Exists {
			for _, field := range stmt.Schema.Fields {
				if field.DBName == "" {
					continue
				}
				if !migrator.HasColumn(model, field.DBName) {
					ts.MissingColumns = append(ts.MissingColumns, field.DBName)
				}
			}
		}
		status.Tables = append(status.Tables, ts)
	}
	return status, nil
}
