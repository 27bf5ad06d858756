package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbot/internal/config"
	"pocketbot/internal/core"
	"pocketbot/internal/storage"
)

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	tests := []struct {
		name       string
		config     Config
		wantCached bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"memory with cache", Config{Type: MemoryBackend, CategoryCacheTTL: time.Minute, CategoryCacheSize: 10}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "pb.db")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.config)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, res.Cleanup()) })

			require.NoError(t, res.Store.Ping(ctx))
			_, cached := res.Categories.(*storage.CachedCategories)
			assert.Equal(t, tt.wantCached, cached)

			user, err := res.Store.UpsertUser(ctx, "U1", "A")
			require.NoError(t, err)
			pocket, _, err := res.Categories.CreateCategory(ctx, core.UserCategory{UserID: user.ID, Name: "Food", Type: core.Expense})
			require.NoError(t, err)

			tx, err := res.Ledger.Create(ctx, core.Transaction{
				UserID: user.ID, CategoryID: pocket.ID, CategoryName: pocket.Name,
				Type: core.Expense, Amount: 10, Description: "snack",
			})
			require.NoError(t, err)

			pending, err := res.Store.GetPendingSync(ctx, 10)
			require.NoError(t, err)
			require.Len(t, pending, 1)
			assert.Equal(t, tx.ID, pending[0].ID)
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	f := NewFactory(nil)
	for name, cfg := range map[string]Config{
		"unknown type":   {Type: "sheets"},
		"sqlite no path": {Type: SQLiteBackend},
		"amqp no queue":  {Type: MemoryBackend, AMQPURL: "amqp://localhost/", AMQPExchange: "x"},
		"negative ttl":   {Type: MemoryBackend, CategoryCacheTTL: -time.Second},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.CreateBackend(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	got, err := FromAppConfig(&config.Config{
		DataBackend:      "sqlite",
		SQLiteDBPath:     "x.db",
		CategoryCacheTTL: time.Minute,
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, got.Type)
	assert.Equal(t, "x.db", got.SQLiteDBPath)
	assert.Equal(t, defaultCategoryCacheSize, got.CategoryCacheSize)
}
