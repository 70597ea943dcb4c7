package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
)

// PostgresSystemPropertyRepository implements the SystemPropertyRepository interface
type PostgresSystemPropertyRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewSystemPropertyRepository creates a new system property repository
func NewSystemPropertyRepository(config *RepositoryConfig) repositories.SystemPropertyRepository {
	return &PostgresSystemPropertyRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Get returns the stored value, or nil when the key was never written
func (r *PostgresSystemPropertyRepository) Get(ctx context.Context, key models.SystemPropertyKey) (*string, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, r.tables.SystemProperties)

	var value string
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, string(key)).Scan(&value); err != nil {
		if IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get system property %s: %w", key, err)
	}
	return &value, nil
}

// List returns every stored property
func (r *PostgresSystemPropertyRepository) List(ctx context.Context) (map[models.SystemPropertyKey]string, error) {
	query := fmt.Sprintf(`SELECT key, value FROM %s`, r.tables.SystemProperties)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list system properties: %w", err)
	}
	defer rows.Close()

	out := make(map[models.SystemPropertyKey]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan system property: %w", err)
		}
		out[models.SystemPropertyKey(key)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate system properties: %w", err)
	}
	return out, nil
}

// Set inserts or overwrites a property
func (r *PostgresSystemPropertyRepository) Set(ctx context.Context, key models.SystemPropertyKey, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`, r.tables.SystemProperties)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, string(key), value); err != nil {
		return fmt.Errorf("set system property %s: %w", key, err)
	}
	return nil
}
