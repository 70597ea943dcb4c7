package docsystem

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"roundreview/internal/domain"
	models "roundreview/internal/domain/models/docsystem"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
	"roundreview/internal/repository/postgres"
)

const reviewColumns = `id, name, icon, url, url_text, value, created_at, user_id, object_id`

// PostgresReviewRepository implements the ReviewRepository interface
type PostgresReviewRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(config *postgres.RepositoryConfig) docsysRepo.ReviewRepository {
	return &PostgresReviewRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a review; a second review by the same user on the object conflicts
func (r *PostgresReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, icon, url, url_text, value, user_id, object_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, r.tables.Reviews)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		review.Name,
		review.Icon,
		review.URL,
		review.URLText,
		review.Value,
		review.UserID,
		review.ObjectID,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			existingID, queryErr := r.getExistingReviewID(ctx, review.ObjectID, review.UserID)
			if queryErr != nil {
				return fmt.Errorf("review already exists for this object: %w", domain.ErrConflict)
			}
			return &domain.ConflictError{
				Message:      "review already exists for this object",
				ResourceType: "review",
				ResourceID:   existingID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("object %s: %w", review.ObjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *PostgresReviewRepository) getExistingReviewID(ctx context.Context, objectID, userID string) (string, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s WHERE object_id = $1 AND user_id = $2
	`, r.tables.Reviews)

	var id string
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, objectID, userID).Scan(&id)
	return id, err
}

// GetByID retrieves a review by ID
func (r *PostgresReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	if !postgres.ValidID(id) {
		return nil, fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, reviewColumns, r.tables.Reviews)

	var rv models.Review
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&rv.ID,
		&rv.Name,
		&rv.Icon,
		&rv.URL,
		&rv.URLText,
		&rv.Value,
		&rv.CreatedAt,
		&rv.UserID,
		&rv.ObjectID,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &rv, nil
}

// Exists reports whether the user already reviewed the object
func (r *PostgresReviewRepository) Exists(ctx context.Context, objectID, userID string) (bool, error) {
	if !postgres.ValidID(objectID, userID) {
		return false, nil
	}

	_, err := r.getExistingReviewID(ctx, objectID, userID)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return false, nil
		}
		return false, fmt.Errorf("check review: %w", err)
	}
	return true, nil
}

// ListByObject returns the object's reviews, newest first
func (r *PostgresReviewRepository) ListByObject(ctx context.Context, objectID string) ([]models.Review, error) {
	return r.list(ctx, "object_id", objectID)
}

// ListByUser returns the user's reviews, newest first
func (r *PostgresReviewRepository) ListByUser(ctx context.Context, userID string) ([]models.Review, error) {
	return r.list(ctx, "user_id", userID)
}

func (r *PostgresReviewRepository) list(ctx context.Context, column, value string) ([]models.Review, error) {
	if !postgres.ValidID(value) {
		return []models.Review{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = $1 ORDER BY created_at DESC
	`, reviewColumns, r.tables.Reviews, column)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.Name,
			&rv.Icon,
			&rv.URL,
			&rv.URLText,
			&rv.Value,
			&rv.CreatedAt,
			&rv.UserID,
			&rv.ObjectID,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, nil
}

// Delete removes a review
func (r *PostgresReviewRepository) Delete(ctx context.Context, id string) error {
	if !postgres.ValidID(id) {
		return fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Reviews)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
