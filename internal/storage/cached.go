package storage

import (
	"context"
	"slices"
	"time"

	"pocketbot/internal/cache"
	"pocketbot/internal/core"
)

// CategoryRepository is the category side of a store.
type CategoryRepository interface {
	FindUserCategories(ctx context.Context, userID string) ([]core.UserCategory, error)
	CreateCategory(ctx context.Context, c core.UserCategory) (core.UserCategory, bool, error)
}

// CachedCategories keeps a per-user snapshot of the pocket list. Writes
// through it drop the user's snapshot.
type CachedCategories struct {
	next  CategoryRepository
	cache *cache.LRU[[]core.UserCategory]
}

func NewCachedCategories(next CategoryRepository, maxUsers int, ttl time.Duration) *CachedCategories {
	return &CachedCategories{
		next:  next,
		cache: cache.NewLRU[[]core.UserCategory](maxUsers, ttl),
	}
}

func (c *CachedCategories) FindUserCategories(ctx context.Context, userID string) ([]core.UserCategory, error) {
	if cats, ok := c.cache.Get(userID); ok {
		return slices.Clone(cats), nil
	}
	cats, err := c.next.FindUserCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(userID, slices.Clone(cats))
	return cats, nil
}

func (c *CachedCategories) CreateCategory(ctx context.Context, cat core.UserCategory) (core.UserCategory, bool, error) {
	defer c.cache.Delete(cat.UserID)
	return c.next.CreateCategory(ctx, cat)
}

// Cache exposes the underlying cache so it can be registered for cleanup.
func (c *CachedCategories) Cache() *cache.LRU[[]core.UserCategory] {
	return c.cache
}
