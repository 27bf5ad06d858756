// Package worker consumes ledger events and keeps the spreadsheet mirror in
// step with the store.
package worker

import (
	"context"
	"fmt"

	"pocketbot/internal/amqp"
	"pocketbot/internal/log"
)

// Syncer mirrors a single row or a batch of pending rows.
type Syncer interface {
	Sync(ctx context.Context, id string) error
	SyncPending(ctx context.Context, limit int) (int, error)
}

// SyncWorker handles transaction events from the broker.
type SyncWorker struct {
	syncer    Syncer
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(syncer Syncer, batchSize int, logger *log.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &SyncWorker{syncer: syncer, batchSize: batchSize, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleEvent mirrors the row named by ev. Created and deleted events take
// the same path because the mirror applies the row's latest state.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldEventID, ev.MessageID,
		"kind", string(ev.Kind),
		log.FieldTxID, ev.TransactionID,
		"version", ev.Version)

	if err := w.syncer.Sync(ctx, ev.TransactionID); err != nil {
		return fmt.Errorf("sync %s: %w", ev.TransactionID, err)
	}
	return nil
}

// StartupSyncCheck mirrors rows left pending while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	synced, err := w.syncer.SyncPending(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	w.logger.InfoContext(ctx, "Startup sync completed", "synced", synced)
	return nil
}
