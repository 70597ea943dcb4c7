package docsystem

import (
	"context"

	"roundreview/internal/domain/models/docsystem"
)

// ObjectUpdate holds the new stored values of an update request, keyed by
// field. Status is its display name; comments are JSON text. Only keys present
// are written, in a single statement.
type ObjectUpdate map[docsystem.ObjectField]string

// ObjectRepository defines data access operations for objects
type ObjectRepository interface {
	Create(ctx context.Context, object *docsystem.Object) error

	// GetByID returns a live object without its raw content
	GetByID(ctx context.Context, id string) (*docsystem.Object, error)

	// GetOwnership returns domain.ErrNotFound if the object was never created
	GetOwnership(ctx context.Context, id string) (*docsystem.ObjectOwnership, error)

	// ListByProject returns live objects ordered by path then name
	ListByProject(ctx context.Context, projectID string) ([]docsystem.Object, error)

	Update(ctx context.Context, id string, update ObjectUpdate) (*docsystem.Object, error)

	SoftDelete(ctx context.Context, id string) error

	LoadRaw(ctx context.Context, id string) ([]byte, error)
}
