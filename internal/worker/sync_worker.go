// Package worker mirrors the ledger into a spreadsheet, driven by ledger
// events and a periodic backfill.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

const backfillConcurrency = 4

// SyncWorker applies ledger events to a sheets.Mirror. The ledger is the
// source of truth: events carry ids only and rows are re-read on delivery.
type SyncWorker struct {
	ledger    ledger.TransactionQueries
	mirror    sheets.Mirror
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(l ledger.TransactionQueries, mirror sheets.Mirror, batchSize int, logger *log.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &SyncWorker{
		ledger:    l,
		mirror:    mirror,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerEvent processes a single event from AMQP. A returned error
// requeues the message.
func (w *SyncWorker) HandleLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"op", ev.Op,
		log.FieldTransactionID, ev.TransactionID,
		log.FieldUserID, ev.UserID)

	if ev.Op == amqp.OpDeleted {
		if err := w.mirror.Remove(ctx, ev.TransactionID); err != nil {
			return fmt.Errorf("remove mirrored row: %w", err)
		}
		return nil
	}

	t, err := w.ledger.GetTransaction(ctx, ev.UserID, ev.TransactionID)
	if errors.Is(err, core.ErrNotFound) {
		// deleted after the event was published
		if err := w.mirror.Remove(ctx, ev.TransactionID); err != nil {
			return fmt.Errorf("remove mirrored row: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	if err := w.mirror.Upsert(ctx, t); err != nil {
		return fmt.Errorf("upsert mirrored row: %w", err)
	}
	return nil
}

// Backfill re-mirrors every transaction in the ledger, a page at a time.
// It recovers from lost messages and worker downtime.
func (w *SyncWorker) Backfill(ctx context.Context) (int, error) {
	var afterID int64
	synced := 0
	for {
		page, err := w.ledger.ListTransactionsAfter(ctx, afterID, w.batchSize)
		if err != nil {
			return synced, fmt.Errorf("list transactions after %d: %w", afterID, err)
		}
		if len(page) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(backfillConcurrency)
		for _, t := range page {
			t := t
			g.Go(func() error {
				if err := w.mirror.Upsert(gctx, t); err != nil {
					return fmt.Errorf("upsert transaction %d: %w", t.ID, err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return synced, err
		}

		synced += len(page)
		afterID = page[len(page)-1].ID
		if len(page) < w.batchSize {
			break
		}
	}

	w.logger.InfoContext(ctx, "Backfill completed", "synced", synced)
	return synced, nil
}

// RunBackfill runs Backfill immediately and then every interval until ctx
// is done. Failures are logged and retried on the next tick.
func (w *SyncWorker) RunBackfill(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := w.Backfill(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Backfill failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
