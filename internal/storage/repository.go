package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"pocketbot/internal/core"
	"pocketbot/internal/log"

	_ "modernc.org/sqlite"
)

// Record is a ledger row together with its mirror bookkeeping.
type Record struct {
	core.Transaction
	Version    int64
	SyncStatus string
	Deleted    bool
}

// PendingSync identifies a row whose latest version has not reached the
// mirror yet.
type PendingSync struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
	now     func() time.Time
}

type RepositoryOption func(*SQLiteRepository)

func WithLogger(l *log.Logger) RepositoryOption {
	return func(r *SQLiteRepository) { r.logger = l.WithComponent(log.ComponentStorage) }
}

func WithClock(now func() time.Time) RepositoryOption {
	return func(r *SQLiteRepository) { r.now = now }
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// migrates it to the latest schema.
func NewSQLiteRepository(dbPath string, opts ...RepositoryOption) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  log.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo, nil
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// UpsertUser links lineUserID to an account, creating it on first sight.
func (r *SQLiteRepository) UpsertUser(ctx context.Context, lineUserID, displayName string) (core.User, error) {
	u, err := r.queries.UpsertUser(ctx, UpsertUserParams{
		ID:          uuid.NewString(),
		LineUserID:  lineUserID,
		DisplayName: displayName,
		CreatedAt:   r.now().UnixMilli(),
	})
	if err != nil {
		return core.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return core.User{ID: u.ID, LineUserID: u.LineUserID, DisplayName: u.DisplayName}, nil
}

func (r *SQLiteRepository) FindByLineID(ctx context.Context, lineUserID string) (core.User, error) {
	u, err := r.queries.GetUserByLineID(ctx, lineUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by line id: %w", err)
	}
	return core.User{ID: u.ID, LineUserID: u.LineUserID, DisplayName: u.DisplayName}, nil
}

// CreateCategory appends c to the user's pockets. created is false when a
// pocket with the same name and type already exists.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.UserCategory) (core.UserCategory, bool, error) {
	if err := c.Validate(); err != nil {
		return core.UserCategory{}, false, err
	}
	c.ID = uuid.NewString()
	created, err := r.queries.CreateCategory(ctx, CreateCategoryParams{
		ID:        c.ID,
		UserID:    c.UserID,
		Name:      c.Name,
		Type:      c.Type.String(),
		Icon:      c.Icon,
		CreatedAt: r.now().UnixMilli(),
	})
	if err != nil {
		return core.UserCategory{}, false, fmt.Errorf("create category %q: %w", c.Name, err)
	}
	if !created {
		return core.UserCategory{}, false, nil
	}
	return c, true, nil
}

func (r *SQLiteRepository) FindUserCategories(ctx context.Context, userID string) ([]core.UserCategory, error) {
	rows, err := r.queries.ListCategoriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	cats := make([]core.UserCategory, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, core.UserCategory{
			ID:     row.ID,
			UserID: row.UserID,
			Name:   row.Name,
			Type:   core.TransactionType(row.Type),
			Icon:   row.Icon,
		})
	}
	return cats, nil
}

// Create stores tx under a fresh id.
func (r *SQLiteRepository) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = uuid.NewString()
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = r.now()
	}

	err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		ID:           tx.ID,
		UserID:       tx.UserID,
		CategoryID:   tx.CategoryID,
		CategoryName: tx.CategoryName,
		Type:         tx.Type.String(),
		Amount:       tx.Amount,
		Description:  tx.Description,
		OccurredAt:   tx.OccurredAt.UnixMilli(),
		LineUserID:   tx.LineUserID,
		CreatedAt:    r.now().UnixMilli(),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction saved",
		log.FieldTxID, tx.ID,
		log.FieldAmount, tx.Amount,
		log.FieldCategoryID, tx.CategoryID)
	return tx, nil
}

func (r *SQLiteRepository) Find(ctx context.Context, id, userID string) (core.Transaction, error) {
	row, err := r.queries.GetActiveTransaction(ctx, GetActiveTransactionParams{ID: id, UserID: userID})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return toRecord(row).Transaction, nil
}

// Delete soft-deletes the transaction so the mirror can still remove it.
func (r *SQLiteRepository) Delete(ctx context.Context, id, userID string) error {
	n, err := r.queries.SoftDeleteTransaction(ctx, SoftDeleteTransactionParams{
		DeletedAt: r.now().UnixMilli(),
		ID:        id,
		UserID:    userID,
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Summarize(ctx context.Context, userID string, from, to time.Time) (core.Summary, error) {
	row, err := r.queries.SummarizeTransactions(ctx, SummarizeTransactionsParams{
		UserID: userID,
		From:   from.UnixMilli(),
		To:     to.UnixMilli(),
	})
	if err != nil {
		return core.Summary{}, fmt.Errorf("summarize transactions: %w", err)
	}
	return core.Summary{
		From:         from,
		To:           to,
		TotalIncome:  row.TotalIncome,
		TotalExpense: row.TotalExpense,
		Count:        int(row.Count),
	}, nil
}

// GetRecord returns the row by id, deleted or not.
func (r *SQLiteRepository) GetRecord(ctx context.Context, id string) (Record, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, core.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get transaction: %w", err)
	}
	return toRecord(row), nil
}

func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.queries.GetPendingSyncTransactions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync: %w", err)
	}
	out := make([]PendingSync, 0, len(rows))
	for _, row := range rows {
		out = append(out, PendingSync{ID: row.ID, Version: row.Version, CreatedAt: time.UnixMilli(row.CreatedAt)})
	}
	return out, nil
}

// MarkSynced records that version reached the mirror. A newer version
// written in the meantime stays pending.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, version int64) error {
	if err := r.queries.MarkTransactionSynced(ctx, MarkTransactionSyncedParams{ID: id, Version: version}); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.MarkTransactionSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	return nil
}

func toRecord(row Transaction) Record {
	return Record{
		Transaction: core.Transaction{
			ID:           row.ID,
			UserID:       row.UserID,
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			Type:         core.TransactionType(row.Type),
			Amount:       row.Amount,
			Description:  row.Description,
			OccurredAt:   time.UnixMilli(row.OccurredAt),
			LineUserID:   row.LineUserID,
		},
		Version:    row.Version,
		SyncStatus: row.SyncStatus,
		Deleted:    row.DeletedAt.Valid,
	}
}
