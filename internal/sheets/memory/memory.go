// Package memory is an in-process ledger mirror used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pocketbot/internal/core"
	"pocketbot/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	loc  *time.Location
	rows [][]any
	ids  []string
}

var _ sheets.Ledger = (*Mirror)(nil)

func New(loc *time.Location) *Mirror {
	return &Mirror{loc: loc}
}

// AppendTransaction stores the row and returns a synthetic row reference.
func (m *Mirror) AppendTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if tx.ID == "" {
		return "", sheets.ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range m.ids {
		if id == tx.ID {
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	m.ids = append(m.ids, tx.ID)
	m.rows = append(m.rows, sheets.Row(tx, m.loc))
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) DeleteTransaction(_ context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, id := range m.ids {
		if id == tx.ID {
			m.ids = append(m.ids[:i], m.ids[i+1:]...)
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

// Rows returns a copy of the mirrored rows.
func (m *Mirror) Rows() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]any, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
