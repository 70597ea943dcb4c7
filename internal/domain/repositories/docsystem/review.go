package docsystem

import (
	"context"

	"roundreview/internal/domain/models/docsystem"
)

// ReviewRepository defines data access operations for reviews
type ReviewRepository interface {
	// Create returns a *domain.ConflictError when the user already reviewed the object
	Create(ctx context.Context, review *docsystem.Review) error

	GetByID(ctx context.Context, id string) (*docsystem.Review, error)

	Exists(ctx context.Context, objectID, userID string) (bool, error)

	// ListByObject returns reviews newest first
	ListByObject(ctx context.Context, objectID string) ([]docsystem.Review, error)

	// ListByUser returns the user's reviews newest first
	ListByUser(ctx context.Context, userID string) ([]docsystem.Review, error)

	Delete(ctx context.Context, id string) error
}
