package main

import (
	"context"
	"errors"
	"os"
	"time"

	"carteira/internal/cli"
	"carteira/internal/services"
	"carteira/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap("subscription-worker")
	logger.Info("Starting subscription-worker", "interval", cfg.SubscriptionInterval, "sqlite_db", cfg.SQLiteDBPath)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	roller := services.NewSubscriptionRoller(repo)
	roll := func(ctx context.Context) error {
		_, err := roller.Roll(ctx, time.Now())
		return err
	}

	// Catch up on anything that became due while the worker was down.
	if err := roll(ctx); err != nil {
		logger.Error("Initial subscription roll failed", "error", err)
	}

	if err := worker.Every(ctx, "subscription roll", cfg.SubscriptionInterval, roll); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Subscription worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("subscription-worker stopped")
}
