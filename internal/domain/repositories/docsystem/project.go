package docsystem

import (
	"context"

	"roundreview/internal/domain/models/docsystem"
)

// ProjectRepository defines data access operations for projects
type ProjectRepository interface {
	// Create inserts the project and fills in its ID and timestamps
	Create(ctx context.Context, project *docsystem.Project) error

	// GetByID returns the project even when soft-deleted; callers decide visibility
	GetByID(ctx context.Context, id string) (*docsystem.Project, error)

	// ListForUser returns live projects the user is a member of, newest first
	ListForUser(ctx context.Context, userID string) ([]docsystem.Project, error)

	UpdateTitle(ctx context.Context, id, title string) (*docsystem.Project, error)

	// SoftDelete marks the project deleted
	SoftDelete(ctx context.Context, id string) error
}
