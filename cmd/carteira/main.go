package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"carteira/internal/amqp"
	"carteira/internal/cache"
	"carteira/internal/cli"
	"carteira/internal/finance"
	apphttp "carteira/internal/http"
	"carteira/internal/services"
	"carteira/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap("carteira")
	logger.Info("Starting carteira server", "port", cfg.Port, "env", cfg.AppEnv)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// AMQP only feeds the spreadsheet export: the API keeps working without it.
	var publisher services.EventPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	}

	summaries := cache.NewLRUCache[finance.Summary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	engine := finance.NewEngine(finance.Options{
		DedupeSubscriptions: cfg.SubscriptionDedupe,
		UpcomingWindowDays:  cfg.UpcomingWindowDays,
	})
	dashboard := services.NewDashboardService(repo, engine, summaries)
	transactions := services.NewTransactionService(repo, publisher, dashboard)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:        repo,
		Transactions: transactions,
		Dashboard:    dashboard,
		SummaryCache: summaries,
		Logger:       logger,
		SessionTTL:   cfg.SessionTTL,
		Development:  cfg.IsDevelopment(),
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return cache.NewManager(summaries).Run(gctx, 10*time.Minute)
	})

	g.Go(func() error {
		return worker.Every(gctx, "session purge", time.Hour, func(ctx context.Context) error {
			_, err := repo.PurgeExpiredSessions(ctx, time.Now())
			return err
		})
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
