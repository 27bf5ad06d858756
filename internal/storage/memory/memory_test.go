package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbot/internal/core"
	"pocketbot/internal/storage"
)

func TestStoreUsersAndPockets(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.FindByLineID(ctx, "U1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	u, err := s.UpsertUser(ctx, "U1", "old")
	require.NoError(t, err)
	again, err := s.UpsertUser(ctx, "U1", "new")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "new", again.DisplayName)

	food := core.UserCategory{UserID: u.ID, Name: "Food", Type: core.Expense}
	_, created, err := s.CreateCategory(ctx, food)
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = s.CreateCategory(ctx, food)
	require.NoError(t, err)
	assert.False(t, created)

	_, _, err = s.CreateCategory(ctx, core.UserCategory{UserID: u.ID, Type: core.Expense})
	assert.ErrorIs(t, err, core.ErrEmptyCategory)

	cats, err := s.FindUserCategories(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	cats[0].Name = "mutated"
	cats, _ = s.FindUserCategories(ctx, u.ID)
	assert.Equal(t, "Food", cats[0].Name)
}

func TestStoreTransactions(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore().WithClock(func() time.Time { return fixed })
	ctx := context.Background()

	tx, err := s.Create(ctx, core.Transaction{
		UserID: "u1", CategoryID: "c1", CategoryName: "Food",
		Type: core.Expense, Amount: 120, Description: "lunch",
	})
	require.NoError(t, err)
	assert.True(t, fixed.Equal(tx.OccurredAt))

	_, err = s.Create(ctx, core.Transaction{
		UserID: "u1", CategoryID: "c2", CategoryName: "Salary",
		Type: core.Income, Amount: 500, Description: "pay", OccurredAt: fixed,
	})
	require.NoError(t, err)

	sum, err := s.Summarize(ctx, "u1", fixed.Add(-time.Hour), fixed.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(500), sum.TotalIncome)
	assert.Equal(t, int64(120), sum.TotalExpense)
	assert.Equal(t, int64(380), sum.Balance())

	_, err = s.Find(ctx, tx.ID, "someone-else")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, tx.ID, "someone-else"), core.ErrNotFound)

	require.NoError(t, s.Delete(ctx, tx.ID, "u1"))
	assert.ErrorIs(t, s.Delete(ctx, tx.ID, "u1"), core.ErrNotFound)

	rec, err := s.GetRecord(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, rec.Deleted)
	assert.Equal(t, int64(2), rec.Version)

	// a stale version does not clear the pending flag
	require.NoError(t, s.MarkSynced(ctx, tx.ID, 1))
	pending, err := s.GetPendingSync(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	require.NoError(t, s.MarkSynced(ctx, tx.ID, 2))
	pending, err = s.GetPendingSync(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.NotEqual(t, tx.ID, pending[0].ID)

	require.NoError(t, s.MarkSyncError(ctx, pending[0].ID))
	rec, err = s.GetRecord(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, storage.SyncError, rec.SyncStatus)
}
