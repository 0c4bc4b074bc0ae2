package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"carteira/internal/amqp"
	"carteira/internal/sheets"
	"carteira/internal/storage"
)

// ExportProcessorConfig holds configuration for the export processor
type ExportProcessorConfig struct {
	// BatchSize is the max number of pending transactions handled per sweep (default: 50)
	BatchSize int

	// MaxRetries is the number of failed attempts before a transaction is
	// marked as failed (default: 3)
	MaxRetries int
}

func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		BatchSize:  50,
		MaxRetries: 3,
	}
}

// ExportProcessor appends stored transactions to the spreadsheet. The export
// status kept next to each transaction makes it safe to see the same
// transaction twice, from a redelivered message or from a sweep.
type ExportProcessor struct {
	store    ExportStore
	exporter sheets.TransactionExporter
	config   ExportProcessorConfig

	mu       sync.Mutex
	attempts map[int64]int
}

func NewExportProcessor(store ExportStore, exporter sheets.TransactionExporter, config ExportProcessorConfig) *ExportProcessor {
	def := DefaultExportProcessorConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	return &ExportProcessor{
		store:    store,
		exporter: exporter,
		config:   config,
		attempts: make(map[int64]int),
	}
}

// HandleEvent is the AMQP handler. A returned error asks the broker to
// deliver the message again.
func (p *ExportProcessor) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	switch ev.Event {
	case amqp.EventTransactionCreated:
		_, err := p.Export(ctx, ev.TransactionID)
		return err
	case amqp.EventTransactionDeleted:
		// Exported rows are an append-only ledger.
		slog.DebugContext(ctx, "Ignoring deleted transaction event",
			"transaction_id", ev.TransactionID,
			"message_id", ev.MessageID)
		return nil
	default:
		slog.WarnContext(ctx, "Unknown transaction event",
			"event", ev.Event,
			"message_id", ev.MessageID)
		return nil
	}
}

// Export appends transaction id to the spreadsheet unless it was already
// handled. It reports whether a row was written.
func (p *ExportProcessor) Export(ctx context.Context, id int64) (bool, error) {
	status, err := p.store.ExportStatus(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction no longer exists, skipping export", "transaction_id", id)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get export status %d: %w", id, err)
	}
	if status != storage.ExportPending {
		slog.DebugContext(ctx, "Transaction already handled, skipping export",
			"transaction_id", id,
			"status", status)
		return false, nil
	}

	ref, err := p.append(ctx, id)
	if err != nil {
		return false, p.handleFailure(ctx, id, err)
	}

	p.forget(id)
	if err := p.store.MarkExported(ctx, id); err != nil {
		// The row is in the sheet; a retry would duplicate it.
		slog.WarnContext(ctx, "Failed to mark transaction as exported",
			"transaction_id", id, "error", err)
	}
	slog.InfoContext(ctx, "Exported transaction to Google Sheets",
		"transaction_id", id,
		"sheets_ref", ref)
	return true, nil
}

func (p *ExportProcessor) append(ctx context.Context, id int64) (string, error) {
	t, err := p.store.GetTransaction(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get transaction %d: %w", id, err)
	}
	owner, err := p.store.GetUser(ctx, t.UserID)
	if err != nil {
		return "", fmt.Errorf("get owner %d: %w", t.UserID, err)
	}
	ref, err := p.exporter.AppendTransaction(ctx, sheets.RowFromTransaction(t, owner))
	if err != nil {
		return "", fmt.Errorf("append to sheets: %w", err)
	}
	return ref, nil
}

// handleFailure counts the attempt. Below the limit the error is returned so
// the caller retries; at the limit the transaction is marked as failed.
func (p *ExportProcessor) handleFailure(ctx context.Context, id int64, exportErr error) error {
	p.mu.Lock()
	p.attempts[id]++
	attempt := p.attempts[id]
	p.mu.Unlock()

	slog.WarnContext(ctx, "Export failed",
		"transaction_id", id,
		"attempt", attempt,
		"error", exportErr)

	if attempt < p.config.MaxRetries {
		return exportErr
	}

	p.forget(id)
	if err := p.store.MarkExportError(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark export error",
			"transaction_id", id, "error", err)
		return exportErr
	}
	slog.ErrorContext(ctx, "Export failed permanently after max retries",
		"transaction_id", id,
		"attempts", attempt)
	return nil
}

func (p *ExportProcessor) forget(id int64) {
	p.mu.Lock()
	delete(p.attempts, id)
	p.mu.Unlock()
}

// Sweep exports transactions still pending, catching the ones whose message
// was lost. It returns how many rows were written.
func (p *ExportProcessor) Sweep(ctx context.Context) (int, error) {
	pending, err := p.store.PendingExports(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending exports: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	slog.DebugContext(ctx, "Processing pending exports", "count", len(pending))
	exported := 0
	for _, item := range pending {
		if ctx.Err() != nil {
			return exported, ctx.Err()
		}
		ok, err := p.Export(ctx, item.ID)
		if err != nil {
			// Retried on the next sweep.
			continue
		}
		if ok {
			exported++
		}
	}
	return exported, nil
}
