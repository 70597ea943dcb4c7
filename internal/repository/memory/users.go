package memory

import (
	"context"
	"fmt"

	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
)

type userRepo struct{ s *Store }

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return copyUser(u), nil
}

func (r *userRepo) GetByName(ctx context.Context, name string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Name == name {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", name, domain.ErrNotFound)
}

func (r *userRepo) GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.APIKeyHash != nil && *u.APIKeyHash == hash {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("api key: %w", domain.ErrNotFound)
}

func (r *userRepo) SetDeleted(ctx context.Context, id string, deleted bool) error {
	return r.update(id, func(u *models.User) { u.Deleted = deleted })
}

func (r *userRepo) SetAPIKeyHash(ctx context.Context, id string, hash *string) error {
	return r.update(id, func(u *models.User) { u.APIKeyHash = hash })
}

func (r *userRepo) SetWebhookURL(ctx context.Context, id string, url *string) error {
	return r.update(id, func(u *models.User) { u.WebhookURL = url })
}

func (r *userRepo) update(id string, fn func(u *models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	fn(u)
	return nil
}
