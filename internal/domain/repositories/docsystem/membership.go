package docsystem

import (
	"context"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/models/docsystem"
)

// MembershipRepository stores the (project, user) -> role relation.
// Roles are persisted as their display names and parsed fail-closed on read.
type MembershipRepository interface {
	// GetProjectRole returns NoRole when there is no row, or the project or
	// user is deleted.
	GetProjectRole(ctx context.Context, projectID, userID string) (models.Role, error)

	// GetMembership reports the raw membership row, regardless of role parse.
	GetMembership(ctx context.Context, projectID, userID string) (role models.Role, found bool, err error)

	CountOwners(ctx context.Context, projectID string) (int, error)

	// AddMember returns a *domain.ConflictError if the user is already a member
	AddMember(ctx context.Context, projectID, userID string, role models.Role) error

	// RemoveMember returns domain.ErrNotFound if there is no membership row
	RemoveMember(ctx context.Context, projectID, userID string) error

	// ListMembers returns members of the project whose accounts are not deleted
	ListMembers(ctx context.Context, projectID string) ([]docsystem.ProjectMember, error)

	// ListWebhookRecipients returns every live member with their role and
	// personal webhook URL (empty when unset)
	ListWebhookRecipients(ctx context.Context, projectID string) ([]models.WebhookRecipient, error)
}
