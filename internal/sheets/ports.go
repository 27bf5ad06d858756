// Package sheets defines the ledger mirror: a spreadsheet copy of every
// transaction kept for the user to browse outside the chat.
package sheets

import (
	"context"
	"errors"
	"time"

	"pocketbot/internal/core"
)

// Ports for outbound mirror adapters.
type (
	// LedgerWriter appends a transaction row. Appending an id that is
	// already mirrored returns the existing row reference.
	LedgerWriter interface {
		AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// LedgerDeleter removes the row of a transaction. Deleting one that is
	// not mirrored is not an error.
	LedgerDeleter interface {
		DeleteTransaction(ctx context.Context, tx core.Transaction) error
	}

	Ledger interface {
		LedgerWriter
		LedgerDeleter
	}
)

// ErrMissingID is returned when a transaction without id is mirrored.
var ErrMissingID = errors.New("transaction id required")

// Header is the first row of a mirror sheet.
var Header = []string{"ID", "Date", "Type", "Category", "Description", "Amount", "LINE user"}

// Row renders tx in Header order, with the date in loc.
func Row(tx core.Transaction, loc *time.Location) []any {
	if loc == nil {
		loc = time.UTC
	}
	amount := tx.Amount
	if tx.Type == core.Expense {
		amount = -amount
	}
	return []any{
		tx.ID,
		tx.OccurredAt.In(loc).Format("2006-01-02 15:04"),
		tx.Type.String(),
		tx.CategoryName,
		tx.Description,
		amount,
		tx.LineUserID,
	}
}
