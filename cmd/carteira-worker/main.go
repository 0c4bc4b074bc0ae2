package main

import (
	"context"
	"errors"
	"os"

	"carteira/internal/amqp"
	"carteira/internal/cli"
	"carteira/internal/services"
	gsheet "carteira/internal/sheets/google"
	"carteira/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap("carteira-worker")
	logger.Info("Starting carteira-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	// Rows stay pending in SQLite until a spreadsheet is configured.
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, nothing to export")
		<-ctx.Done()
		return
	}

	exporter, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}

	// Without a broker the periodic sweep still exports every pending row.
	var consumer worker.Consumer
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, relying on periodic sweep", "error", err)
	} else {
		defer amqpClient.Close()
		consumer = amqpClient
	}

	processor := services.NewExportProcessor(repo, exporter, services.ExportProcessorConfig{
		BatchSize: cfg.ExportBatchSize,
	})

	w := worker.NewExportWorker(consumer, processor, cfg.ExportInterval)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Export worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("carteira-worker stopped")
}
