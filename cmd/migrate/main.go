// Command migrate applies the embedded Postgres migrations.
//
// Usage:
//
//	migrate [up|down|status]
//
// The connection string is read from DATABASE_URL.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sethvargo/go-envconfig"

	"github.com/hourbook/volunteer-api/internal/infrastructure/db/postgres"
	"github.com/hourbook/volunteer-api/pkg/logger"
)

type migrateConfig struct {
	DatabaseURL string `env:"DATABASE_URL, required"`
	LogLevel    string `env:"LOG_LEVEL,    default=info"`
}

func main() {
	command := postgres.MigrateUp
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	if err := run(command); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(command string) error {
	switch command {
	case postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus:
	default:
		return fmt.Errorf("unknown command %q (want up, down or status)", command)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg migrateConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Output: os.Stderr, Service: "migrate"})

	pool, err := postgres.Connect(ctx, postgres.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, command, log); err != nil {
		return err
	}
	log.Info().Str("command", command).Msg("migrations done")
	return nil
}
