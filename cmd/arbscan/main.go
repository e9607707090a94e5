package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"arbscan/internal/app"
	"arbscan/internal/config"
	"arbscan/internal/database"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo database.Repository
	if cfg.Database.Host != "" {
		pg, err := database.NewPostgresRepository(ctx, cfg.Database.DSN())
		if err != nil {
			logger.Error("main: database connection failed", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("main: migration failed", "error", err)
			os.Exit(1)
		}
		repo = pg
	} else {
		logger.Warn("main: no database configured, opportunities will not be persisted")
	}

	a, err := app.New(logger, &cfg, repo)
	if err != nil {
		logger.Error("main: failed to build application", "error", err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("main: application exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("main: shutdown complete")
}
