package repositories

import (
	"context"

	"roundreview/internal/domain/models"
)

// UserRepository defines data access operations for user accounts
type UserRepository interface {
	// GetByID returns the user including deleted ones
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByName resolves a username (join/unjoin targets)
	GetByName(ctx context.Context, name string) (*models.User, error)

	// GetByAPIKeyHash resolves an API key to its owner
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error)

	SetDeleted(ctx context.Context, id string, deleted bool) error
	SetAPIKeyHash(ctx context.Context, id string, hash *string) error
	SetWebhookURL(ctx context.Context, id string, url *string) error
}
