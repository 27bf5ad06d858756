package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL statements of the ledger schema.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type User struct {
	ID          string
	LineUserID  string
	DisplayName string
	CreatedAt   int64
}

type Category struct {
	ID        string
	UserID    string
	Name      string
	Type      string
	Icon      string
	Position  int64
	CreatedAt int64
}

type Transaction struct {
	ID           string
	UserID       string
	CategoryID   string
	CategoryName string
	Type         string
	Amount       int64
	Description  string
	OccurredAt   int64
	LineUserID   string
	Version      int64
	SyncStatus   string
	DeletedAt    sql.NullInt64
	CreatedAt    int64
}

const upsertUser = `
INSERT INTO users (id, line_user_id, display_name, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (line_user_id) DO UPDATE SET display_name = excluded.display_name
RETURNING id, line_user_id, display_name, created_at`

type UpsertUserParams struct {
	ID          string
	LineUserID  string
	DisplayName string
	CreatedAt   int64
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, upsertUser, arg.ID, arg.LineUserID, arg.DisplayName, arg.CreatedAt)
	var u User
	err := row.Scan(&u.ID, &u.LineUserID, &u.DisplayName, &u.CreatedAt)
	return u, err
}

const getUserByLineID = `
SELECT id, line_user_id, display_name, created_at FROM users WHERE line_user_id = ?`

func (q *Queries) GetUserByLineID(ctx context.Context, lineUserID string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByLineID, lineUserID)
	var u User
	err := row.Scan(&u.ID, &u.LineUserID, &u.DisplayName, &u.CreatedAt)
	return u, err
}

const createCategory = `
INSERT INTO categories (id, user_id, name, type, icon, position, created_at)
VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM categories WHERE user_id = ?), ?)
ON CONFLICT (user_id, name, type) DO NOTHING`

type CreateCategoryParams struct {
	ID        string
	UserID    string
	Name      string
	Type      string
	Icon      string
	CreatedAt int64
}

// CreateCategory appends a category to the user's list. It reports false
// when an identical name and type already exists.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, createCategory,
		arg.ID, arg.UserID, arg.Name, arg.Type, arg.Icon, arg.UserID, arg.CreatedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const listCategoriesByUser = `
SELECT id, user_id, name, type, icon, position, created_at
FROM categories WHERE user_id = ?
ORDER BY position, created_at`

func (q *Queries) ListCategoriesByUser(ctx context.Context, userID string) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategoriesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Icon, &c.Position, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const createTransaction = `
INSERT INTO transactions (id, user_id, category_id, category_name, type, amount, description, occurred_at, line_user_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateTransactionParams struct {
	ID           string
	UserID       string
	CategoryID   string
	CategoryName string
	Type         string
	Amount       int64
	Description  string
	OccurredAt   int64
	LineUserID   string
	CreatedAt    int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, createTransaction,
		arg.ID, arg.UserID, arg.CategoryID, arg.CategoryName, arg.Type,
		arg.Amount, arg.Description, arg.OccurredAt, arg.LineUserID, arg.CreatedAt)
	return err
}

const transactionColumns = `id, user_id, category_id, category_name, type, amount, description,
       occurred_at, line_user_id, version, sync_status, deleted_at, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.CategoryName, &t.Type, &t.Amount, &t.Description,
		&t.OccurredAt, &t.LineUserID, &t.Version, &t.SyncStatus, &t.DeletedAt, &t.CreatedAt)
	return t, err
}

var getActiveTransaction = `
SELECT ` + transactionColumns + `
FROM transactions WHERE id = ? AND user_id = ? AND deleted_at IS NULL`

type GetActiveTransactionParams struct {
	ID     string
	UserID string
}

func (q *Queries) GetActiveTransaction(ctx context.Context, arg GetActiveTransactionParams) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getActiveTransaction, arg.ID, arg.UserID))
}

var getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

// GetTransaction returns the row including soft-deleted ones.
func (q *Queries) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const softDeleteTransaction = `
UPDATE transactions
SET deleted_at = ?, version = version + 1, sync_status = 'pending'
WHERE id = ? AND user_id = ? AND deleted_at IS NULL`

type SoftDeleteTransactionParams struct {
	DeletedAt int64
	ID        string
	UserID    string
}

func (q *Queries) SoftDeleteTransaction(ctx context.Context, arg SoftDeleteTransactionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, softDeleteTransaction, arg.DeletedAt, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const summarizeTransactions = `
SELECT
    COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE 0 END), 0) AS total_income,
    COALESCE(SUM(CASE WHEN type = 'expense' THEN amount ELSE 0 END), 0) AS total_expense,
    COUNT(*) AS count
FROM transactions
WHERE user_id = ? AND deleted_at IS NULL AND occurred_at >= ? AND occurred_at < ?`

type SummarizeTransactionsParams struct {
	UserID string
	From   int64
	To     int64
}

type SummarizeTransactionsRow struct {
	TotalIncome  int64
	TotalExpense int64
	Count        int64
}

func (q *Queries) SummarizeTransactions(ctx context.Context, arg SummarizeTransactionsParams) (SummarizeTransactionsRow, error) {
	var r SummarizeTransactionsRow
	err := q.db.QueryRowContext(ctx, summarizeTransactions, arg.UserID, arg.From, arg.To).
		Scan(&r.TotalIncome, &r.TotalExpense, &r.Count)
	return r, err
}

const getPendingSyncTransactions = `
SELECT id, version, created_at FROM transactions
WHERE sync_status IN ('pending', 'error')
ORDER BY created_at
LIMIT ?`

type GetPendingSyncTransactionsRow struct {
	ID        string
	Version   int64
	CreatedAt int64
}

func (q *Queries) GetPendingSyncTransactions(ctx context.Context, limit int64) ([]GetPendingSyncTransactionsRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncTransactions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetPendingSyncTransactionsRow
	for rows.Next() {
		var r GetPendingSyncTransactionsRow
		if err := rows.Scan(&r.ID, &r.Version, &r.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const markTransactionSynced = `
UPDATE transactions SET sync_status = 'synced' WHERE id = ? AND version = ?`

type MarkTransactionSyncedParams struct {
	ID      string
	Version int64
}

func (q *Queries) MarkTransactionSynced(ctx context.Context, arg MarkTransactionSyncedParams) error {
	_, err := q.db.ExecContext(ctx, markTransactionSynced, arg.ID, arg.Version)
	return err
}

const markTransactionSyncError = `UPDATE transactions SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkTransactionSyncError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markTransactionSyncError, id)
	return err
}
