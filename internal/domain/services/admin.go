package services

import (
	"context"

	"roundreview/internal/domain/models"
)

// AdminService exposes system administration to admins
type AdminService interface {
	// ListProperties returns every system property with its description
	ListProperties(ctx context.Context, actor models.Actor) ([]models.SystemProperty, error)

	// UpdateProperties writes a batch atomically; one invalid entry rejects all
	UpdateProperties(ctx context.Context, actor models.Actor, updates map[string]string) ([]models.SystemProperty, error)

	// ListAuditLog returns entries newest first
	ListAuditLog(ctx context.Context, actor models.Actor, filter models.AuditLogFilter) ([]models.AuditLogEntry, error)

	DeleteUser(ctx context.Context, actor models.Actor, userID string) error
	UndeleteUser(ctx context.Context, actor models.Actor, userID string) error
}
