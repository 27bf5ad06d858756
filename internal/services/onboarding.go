package services

import (
	"context"
	"fmt"

	"pocketbot/internal/catalog"
	"pocketbot/internal/core"
)

// AccountRepository links chat identities and creates their pockets.
type AccountRepository interface {
	UpsertUser(ctx context.Context, lineUserID, displayName string) (core.User, error)
	CreateCategory(ctx context.Context, c core.UserCategory) (core.UserCategory, bool, error)
}

// LinkResult reports what LinkUser did.
type LinkResult struct {
	User    core.User
	Created []core.UserCategory
}

// LinkUser links lineUserID to an account and gives it the catalog's
// essential pockets. Pockets the user already has are kept as they are.
func LinkUser(ctx context.Context, repo AccountRepository, cat *catalog.Catalog, lineUserID, displayName string) (LinkResult, error) {
	if lineUserID == "" {
		return LinkResult{}, fmt.Errorf("link user: %w", core.ErrEmptyUser)
	}
	user, err := repo.UpsertUser(ctx, lineUserID, displayName)
	if err != nil {
		return LinkResult{}, fmt.Errorf("link user: %w", err)
	}

	res := LinkResult{User: user}
	for _, d := range cat.Essentials() {
		c, created, err := repo.CreateCategory(ctx, core.UserCategory{
			UserID: user.ID,
			Name:   d.PrimaryName,
			Type:   d.Type,
			Icon:   d.Icon,
		})
		if err != nil {
			return res, fmt.Errorf("create pocket %s: %w", d.ID, err)
		}
		if created {
			res.Created = append(res.Created, c)
		}
	}
	return res, nil
}
