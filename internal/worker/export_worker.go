package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"carteira/internal/amqp"
)

// Consumer delivers transaction events to a handler until ctx is done.
type Consumer interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error
}

// Exporter is the part of services.ExportProcessor the worker drives.
type Exporter interface {
	HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error
	Sweep(ctx context.Context) (int, error)
}

// ExportWorker exports transactions as their events arrive and periodically
// sweeps the ones whose message never made it.
type ExportWorker struct {
	consumer      Consumer
	exporter      Exporter
	sweepInterval time.Duration
}

// NewExportWorker creates the worker. consumer may be nil, in which case
// only the periodic sweep runs.
func NewExportWorker(consumer Consumer, exporter Exporter, sweepInterval time.Duration) *ExportWorker {
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	return &ExportWorker{
		consumer:      consumer,
		exporter:      exporter,
		sweepInterval: sweepInterval,
	}
}

// Run blocks until ctx is cancelled or consumption fails for good.
func (w *ExportWorker) Run(ctx context.Context) error {
	// Recover whatever was left pending while the worker was down.
	slog.InfoContext(ctx, "Performing startup export check")
	if n, err := w.exporter.Sweep(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed startup export check", "error", err)
	} else {
		slog.InfoContext(ctx, "Startup export check completed", "exported", n)
	}

	g, gctx := errgroup.WithContext(ctx)
	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.ConsumeTransactionEvents(gctx, w.exporter.HandleEvent)
			if err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
				return fmt.Errorf("consume transaction events: %w", err)
			}
			return nil
		})
	} else {
		slog.InfoContext(ctx, "Skipping AMQP consumption - no consumer available")
	}
	g.Go(func() error {
		return Every(gctx, "export sweep", w.sweepInterval, func(ctx context.Context) error {
			n, err := w.exporter.Sweep(ctx)
			if n > 0 {
				slog.InfoContext(ctx, "Periodic export sweep", "exported", n)
			}
			return err
		})
	})
	return g.Wait()
}

// Every runs fn each interval until ctx is done. Failures are logged and the
// loop carries on.
func Every(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic task failed", "task", name, "error", err)
			}
		}
	}
}
