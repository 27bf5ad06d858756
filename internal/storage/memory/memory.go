// Package memory is an in-process store for development and tests. It
// offers the same operations as the SQLite repository.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"pocketbot/internal/core"
	"pocketbot/internal/storage"
)

type Store struct {
	mu     sync.RWMutex
	now    func() time.Time
	users  map[string]core.User // by line user id
	cats   map[string][]core.UserCategory
	txs    map[string]*storage.Record
	serial []string // tx ids in insertion order
}

func NewStore() *Store {
	return &Store{
		now:   time.Now,
		users: make(map[string]core.User),
		cats:  make(map[string][]core.UserCategory),
		txs:   make(map[string]*storage.Record),
	}
}

// WithClock sets the clock used when a transaction has no time.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Close() error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) UpsertUser(_ context.Context, lineUserID, displayName string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[lineUserID]
	if !ok {
		u = core.User{ID: uuid.NewString(), LineUserID: lineUserID}
	}
	u.DisplayName = displayName
	s.users[lineUserID] = u
	return u, nil
}

func (s *Store) FindByLineID(_ context.Context, lineUserID string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[lineUserID]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.UserCategory) (core.UserCategory, bool, error) {
	if err := c.Validate(); err != nil {
		return core.UserCategory{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.cats[c.UserID] {
		if existing.Name == c.Name && existing.Type == c.Type {
			return core.UserCategory{}, false, nil
		}
	}
	c.ID = uuid.NewString()
	s.cats[c.UserID] = append(s.cats[c.UserID], c)
	return c, true, nil
}

func (s *Store) FindUserCategories(_ context.Context, userID string) ([]core.UserCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.UserCategory(nil), s.cats[userID]...), nil
}

func (s *Store) Create(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = uuid.NewString()
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = s.now()
	}
	s.txs[tx.ID] = &storage.Record{Transaction: tx, Version: 1, SyncStatus: storage.SyncPending}
	s.serial = append(s.serial, tx.ID)
	return tx, nil
}

func (s *Store) Find(_ context.Context, id, userID string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.txs[id]
	if !ok || rec.Deleted || rec.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return rec.Transaction, nil
}

func (s *Store) Delete(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.txs[id]
	if !ok || rec.Deleted || rec.UserID != userID {
		return core.ErrNotFound
	}
	rec.Deleted = true
	rec.Version++
	rec.SyncStatus = storage.SyncPending
	return nil
}

func (s *Store) Summarize(_ context.Context, userID string, from, to time.Time) (core.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := core.Summary{From: from, To: to}
	for _, rec := range s.txs {
		if rec.Deleted || rec.UserID != userID {
			continue
		}
		if rec.OccurredAt.Before(from) || !rec.OccurredAt.Before(to) {
			continue
		}
		sum.Add(rec.Transaction)
	}
	return sum, nil
}

func (s *Store) GetRecord(_ context.Context, id string) (storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.txs[id]
	if !ok {
		return storage.Record{}, core.ErrNotFound
	}
	return *rec, nil
}

func (s *Store) GetPendingSync(_ context.Context, limit int) ([]storage.PendingSync, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []storage.PendingSync
	for _, id := range s.serial {
		if len(out) == limit {
			break
		}
		rec := s.txs[id]
		if rec.SyncStatus == storage.SyncSynced {
			continue
		}
		out = append(out, storage.PendingSync{ID: id, Version: rec.Version, CreatedAt: rec.OccurredAt})
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.txs[id]; ok && rec.Version == version {
		rec.SyncStatus = storage.SyncSynced
	}
	return nil
}

func (s *Store) MarkSyncError(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.txs[id]; ok {
		rec.SyncStatus = storage.SyncError
	}
	return nil
}
