// Command main is the entry point for the devHabit API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devhabit/internal/bootstrap"
	"devhabit/internal/config"
	"devhabit/internal/middleware"
	"devhabit/internal/observability"
	"devhabit/internal/server"

	"golang.org/x/sync/errgroup"
)

// @title devHabit API
// @version 1.0
// @description Goal tracking API with category-specific progress metrics and per-goal resource libraries
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@devhabit.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:5000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const (
	version       = "1.0"
	shutdownGrace = 10 * time.Second
)

func main() {
	seedDemo := flag.Bool("seed-demo", false, "Seed demo data into an empty development database")
	flag.Parse()

	if err := run(*seedDemo); err != nil {
		log.Fatal(err)
	}
}

func run(seedDemo bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFrom(cfg, version))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	srv, err := server.NewServer(cfg, bootstrap.Options{SeedDemo: seedDemo})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		middleware.Logger.Info("Shutting down server...")

		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			middleware.Logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
		return shutdownTracing(sctx)
	})
	return g.Wait()
}
