package repositories

import (
	"context"

	"roundreview/internal/domain/models"
)

// SystemPropertyRepository stores the system actor's key/value flags.
// Get returns (nil, nil) for a key that was never written.
type SystemPropertyRepository interface {
	Get(ctx context.Context, key models.SystemPropertyKey) (*string, error)
	List(ctx context.Context) (map[models.SystemPropertyKey]string, error)
	Set(ctx context.Context, key models.SystemPropertyKey, value string) error
}
