package repositories

import (
	"context"

	"roundreview/internal/domain/models"
)

// AuditLogRepository is append-only storage for audit entries
type AuditLogRepository interface {
	Append(ctx context.Context, entry *models.AuditLogEntry) error

	// List returns entries matching filter, newest first
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error)
}
