package services

import (
	"context"

	"roundreview/internal/domain/models"
)

// APIKeyResult carries a freshly generated key. The key is shown only once.
type APIKeyResult struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"api_key,omitempty"`
}

// UpdateWebhookRequest sets or clears the personal webhook URL
type UpdateWebhookRequest struct {
	URL string `json:"url"`
}

// SettingsService manages a user's developer settings
type SettingsService interface {
	GetProfile(ctx context.Context, actor models.Actor) (*models.User, error)

	// EnableAPIKey replaces any existing key with a new one
	EnableAPIKey(ctx context.Context, actor models.Actor) (*APIKeyResult, error)

	// DisableAPIKey removes the key
	DisableAPIKey(ctx context.Context, actor models.Actor) error

	// SetWebhook stores a verified URL; an empty URL clears it
	SetWebhook(ctx context.Context, actor models.Actor, req *UpdateWebhookRequest) (*models.User, error)
}
