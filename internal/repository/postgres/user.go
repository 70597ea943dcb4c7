package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
)

const userColumns = `id, name, email, is_admin, is_system, deleted, api_key_hash, webhook_url, created_at`

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) *PostgresUserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

var _ repositories.UserRepository = (*PostgresUserRepository)(nil)

// GetByID retrieves a user by ID, including deleted accounts
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, r.tables.Users)
	return r.getOne(ctx, query, "user "+id, id)
}

// GetByName retrieves a user by username
func (r *PostgresUserRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE name = $1`, userColumns, r.tables.Users)
	return r.getOne(ctx, query, "user "+name, name)
}

// GetByAPIKeyHash resolves an API key hash to its owner
func (r *PostgresUserRepository) GetByAPIKeyHash(ctx context.Context, hash string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE api_key_hash = $1`, userColumns, r.tables.Users)
	return r.getOne(ctx, query, "api key", hash)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query, label string, arg any) (*models.User, error) {
	var u models.User
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.IsAdmin,
		&u.IsSystem,
		&u.Deleted,
		&u.APIKeyHash,
		&u.WebhookURL,
		&u.CreatedAt,
	)
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("%s: %w", label, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", label, err)
	}
	return &u, nil
}

// SetDeleted flips the soft-delete flag
func (r *PostgresUserRepository) SetDeleted(ctx context.Context, id string, deleted bool) error {
	return r.setColumn(ctx, id, "deleted", deleted)
}

// SetAPIKeyHash stores or clears (nil) the API key hash
func (r *PostgresUserRepository) SetAPIKeyHash(ctx context.Context, id string, hash *string) error {
	return r.setColumn(ctx, id, "api_key_hash", hash)
}

// SetWebhookURL stores or clears (nil) the personal webhook URL
func (r *PostgresUserRepository) SetWebhookURL(ctx context.Context, id string, url *string) error {
	return r.setColumn(ctx, id, "webhook_url", url)
}

// setColumn is only called with column names from this file
func (r *PostgresUserRepository) setColumn(ctx context.Context, id, column string, value any) error {
	if !ValidID(id) {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $2 WHERE id = $1`, r.tables.Users, column)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, value)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("%s is already in use", column),
				ResourceType: "user",
				ResourceID:   id,
			}
		}
		return fmt.Errorf("update user %s: %w", column, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Upsert inserts the user or refreshes the profile columns of an existing
// row with the same ID. Accounts are provisioned outside the HTTP API, so this
// is used by bootstrap and seeding only.
func (r *PostgresUserRepository) Upsert(ctx context.Context, u *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, is_admin, is_system, api_key_hash, webhook_url)
		VALUES (COALESCE(NULLIF($1, '')::uuid, uuid_generate_v4()), $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    is_admin = EXCLUDED.is_admin,
		    is_system = EXCLUDED.is_system
		RETURNING id, deleted, created_at
	`, r.tables.Users)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.IsAdmin,
		u.IsSystem,
		u.APIKeyHash,
		u.WebhookURL,
	).Scan(&u.ID, &u.Deleted, &u.CreatedAt)
	if err != nil {
		if IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("user '%s' already exists", u.Name),
				ResourceType: "user",
			}
		}
		return fmt.Errorf("upsert user: %w", err)
	}

	r.logger.Debug("user upserted", "user_id", u.ID, "name", u.Name)
	return nil
}
