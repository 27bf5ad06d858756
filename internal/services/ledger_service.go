// Package services orchestrates ledger writes across the store, the event
// broker and the spreadsheet mirror.
package services

import (
	"context"
	"errors"
	"fmt"

	"pocketbot/internal/amqp"
	"pocketbot/internal/core"
	"pocketbot/internal/log"
	"pocketbot/internal/storage"
)

// LedgerRepository is the transaction side of a store.
type LedgerRepository interface {
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Find(ctx context.Context, id, userID string) (core.Transaction, error)
	Delete(ctx context.Context, id, userID string) error
	GetRecord(ctx context.Context, id string) (storage.Record, error)
}

// Publisher announces ledger writes to the mirror worker.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, kind amqp.EventKind, txID string, version int64) error
}

// LedgerService saves transactions locally first and then publishes an
// event. A publish failure is logged, never returned: the row stays pending
// and the worker's backstop picks it up.
type LedgerService struct {
	repo      LedgerRepository
	publisher Publisher
	logger    *log.Logger
}

// NewLedgerService builds the service. publisher may be nil.
func NewLedgerService(repo LedgerRepository, publisher Publisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Nop()
	}
	return &LedgerService{repo: repo, publisher: publisher, logger: logger.WithComponent(log.ComponentStorage)}
}

func (s *LedgerService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	created, err := s.repo.Create(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.publish(ctx, amqp.TransactionCreated, created.ID, 1)
	return created, nil
}

func (s *LedgerService) Find(ctx context.Context, id, userID string) (core.Transaction, error) {
	return s.repo.Find(ctx, id, userID)
}

func (s *LedgerService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete transaction: %w", err)
	}

	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read deleted transaction", log.FieldTxID, id, log.FieldError, err)
		return nil
	}
	s.publish(ctx, amqp.TransactionDeleted, id, rec.Version)
	return nil
}

func (s *LedgerService) publish(ctx context.Context, kind amqp.EventKind, id string, version int64) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping event", "kind", string(kind), log.FieldTxID, id)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, kind, id, version); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			"kind", string(kind),
			log.FieldTxID, id,
			log.FieldError, err)
	}
}
