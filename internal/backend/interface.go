package backend

import (
	"context"
	"time"

	"pocketbot/internal/router"
	"pocketbot/internal/services"
	"pocketbot/internal/storage"
)

// Store is everything the bot and the sync worker need from persistence.
// Both storage.SQLiteRepository and memory.Store satisfy it.
type Store interface {
	router.UserDirectory
	router.SummaryReader
	storage.CategoryRepository
	services.AccountRepository
	services.LedgerRepository
	services.SyncRepository

	Ping(ctx context.Context) error
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult holds the wired persistence layer.
type BackendResult struct {
	Store Store

	// Categories reads pockets through the per-user cache when one is
	// configured, otherwise it is Store.
	Categories storage.CategoryRepository

	// Ledger saves transactions and publishes their events.
	Ledger *services.LedgerService

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Optional event publishing; empty URL disables it
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Category snapshot cache; zero TTL disables it
	CategoryCacheTTL  time.Duration
	CategoryCacheSize int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
