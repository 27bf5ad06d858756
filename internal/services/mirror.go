package services

import (
	"context"
	"errors"
	"fmt"

	"pocketbot/internal/core"
	"pocketbot/internal/log"
	"pocketbot/internal/sheets"
	"pocketbot/internal/storage"
)

// SyncRepository is what mirroring needs from a store.
type SyncRepository interface {
	GetRecord(ctx context.Context, id string) (storage.Record, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSync, error)
	MarkSynced(ctx context.Context, id string, version int64) error
	MarkSyncError(ctx context.Context, id string) error
}

// Mirror copies the current state of a ledger row to the spreadsheet.
type Mirror struct {
	repo   SyncRepository
	ledger sheets.Ledger
	logger *log.Logger
}

func NewMirror(repo SyncRepository, ledger sheets.Ledger, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.Nop()
	}
	return &Mirror{repo: repo, ledger: ledger, logger: logger.WithComponent(log.ComponentSheets)}
}

// Sync mirrors the row id. It always applies the row's latest state, so a
// stale event for an older version is harmless.
func (m *Mirror) Sync(ctx context.Context, id string) error {
	rec, err := m.repo.GetRecord(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		m.logger.WarnContext(ctx, "Transaction vanished before sync", log.FieldTxID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", id, err)
	}

	op := log.OpCreate
	if rec.Deleted {
		op = log.OpDelete
		err = m.ledger.DeleteTransaction(ctx, rec.Transaction)
	} else {
		_, err = m.ledger.AppendTransaction(ctx, rec.Transaction)
	}
	if err != nil {
		if markErr := m.repo.MarkSyncError(ctx, id); markErr != nil {
			m.logger.ErrorContext(ctx, "Failed to mark sync error", log.FieldTxID, id, log.FieldError, markErr)
		}
		return fmt.Errorf("mirror %s %s: %w", op, id, err)
	}

	if err := m.repo.MarkSynced(ctx, id, rec.Version); err != nil {
		// the sheet already has it; the next pass is idempotent
		m.logger.ErrorContext(ctx, "Failed to mark as synced", log.FieldTxID, id, log.FieldError, err)
	}
	m.logger.DebugContext(ctx, "Synced transaction",
		log.FieldTxID, id,
		log.FieldOperation, op,
		"version", rec.Version)
	return nil
}

// SyncPending mirrors up to limit rows that are not synced yet and returns
// how many succeeded.
func (m *Mirror) SyncPending(ctx context.Context, limit int) (int, error) {
	pending, err := m.repo.GetPendingSync(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending transactions: %w", err)
	}

	synced := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		if err := m.Sync(ctx, p.ID); err != nil {
			m.logger.ErrorContext(ctx, "Failed to sync pending transaction", log.FieldTxID, p.ID, log.FieldError, err)
			continue
		}
		synced++
	}
	if len(pending) > 0 {
		m.logger.InfoContext(ctx, "Processed pending transactions", "total", len(pending), "synced", synced)
	}
	return synced, nil
}
