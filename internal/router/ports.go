package router

import (
	"context"
	"time"

	"pocketbot/internal/core"
)

// UserDirectory resolves chat identities to linked accounts. It returns
// core.ErrNotFound for identities that were never linked.
type UserDirectory interface {
	FindByLineID(ctx context.Context, lineUserID string) (core.User, error)
}

// CategoryStore lists a user's pockets in the user's own order.
type CategoryStore interface {
	FindUserCategories(ctx context.Context, userID string) ([]core.UserCategory, error)
}

// TransactionStore persists ledger entries. Find and Delete return
// core.ErrNotFound when the id does not belong to userID.
type TransactionStore interface {
	Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	Find(ctx context.Context, id, userID string) (core.Transaction, error)
	Delete(ctx context.Context, id, userID string) error
}

// SummaryReader totals a user's transactions over [from, to).
type SummaryReader interface {
	Summarize(ctx context.Context, userID string, from, to time.Time) (core.Summary, error)
}
