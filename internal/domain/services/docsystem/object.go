package docsystem

import (
	"context"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/models/docsystem"
)

// CreateObjectRequest represents an uploaded document and its metadata
type CreateObjectRequest struct {
	ProjectID   string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Version     string `json:"version"`
	Status      string `json:"status"`
	ContentType string `json:"-"`
	Raw         []byte `json:"-"`
}

// ObjectService defines business logic operations for objects
type ObjectService interface {
	CreateObject(ctx context.Context, actor models.Actor, req *CreateObjectRequest) (*docsystem.Object, error)

	ListObjects(ctx context.Context, actor models.Actor, projectID string) ([]docsystem.Object, error)

	// GetObject returns the object; withRaw also loads its content
	GetObject(ctx context.Context, actor models.Actor, objectID string, withRaw bool) (*docsystem.Object, error)

	// UpdateObject applies a partial update keyed by field name. The whole
	// request is rejected if any key is outside the actor's allowlist.
	UpdateObject(ctx context.Context, actor models.Actor, objectID string, updates map[string]any) (*docsystem.Object, error)

	DeleteObject(ctx context.Context, actor models.Actor, objectID string) error
}

// StatusNotifier is told about object status changes.
type StatusNotifier interface {
	Enqueue(ctx context.Context, projectID, objectID string, updatedFields map[string]string, recipients []models.WebhookRecipient)
}
