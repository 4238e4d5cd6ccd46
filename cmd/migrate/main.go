// Command migrate creates or inspects the devHabit schema. Production servers
// start in manual schema mode, so deployments run `migrate auto` first.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"devhabit/internal/config"
	"devhabit/internal/database"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <auto|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.OpenWithoutSchema(postgres.Open(cfg.DBURI), cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	return execute(context.Background(), db, cfg, flag.Arg(0), os.Stdout)
}

func execute(ctx context.Context, db *gorm.DB, cfg *config.Config, cmd string, out io.Writer) error {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case "auto":
		if err := database.Migrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto migration failed: %w", err)
		}
		fmt.Fprintln(out, "schema migrated")
	case "status":
		status, err := database.GetSchemaStatus(ctx, db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		fmt.Fprintf(out, "mode=%s env=%s auto_migrate=%t pending=%t\n",
			status.Mode, status.Environment, status.WillAutoMigrate, status.Pending())
		for _, t := range status.Tables {
			switch {
			case !t.Exists:
				fmt.Fprintf(out, "missing table: %s\n", t.Table)
			case len(t.MissingColumns) > 0:
				fmt.Fprintf(out, "table %s missing columns: %s\n", t.Table, strings.Join(t.MissingColumns, ", "))
			default:
				fmt.Fprintf(out, "ok: %s\n", t.Table)
			}
		}
	default:
		return usage()
	}
	return nil
}
