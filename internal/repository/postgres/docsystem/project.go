package docsystem

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"roundreview/internal/domain"
	domainModels "roundreview/internal/domain/models"
	models "roundreview/internal/domain/models/docsystem"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
	"roundreview/internal/repository/postgres"
)

// PostgresProjectRepository implements the ProjectRepository interface
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(config *postgres.RepositoryConfig) docsysRepo.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create creates a new project
func (r *PostgresProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (title)
		VALUES ($1)
		RETURNING id, deleted, created_at, updated_at
	`, r.tables.Projects)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, project.Title).Scan(
		&project.ID,
		&project.Deleted,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by ID, including soft-deleted ones
func (r *PostgresProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	if !postgres.ValidID(id) {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT id, title, deleted, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, r.tables.Projects)

	var project models.Project
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Title,
		&project.Deleted,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

// ListForUser returns live projects where the user holds a recognised role
func (r *PostgresProjectRepository) ListForUser(ctx context.Context, userID string) ([]models.Project, error) {
	if !postgres.ValidID(userID) {
		return []models.Project{}, nil
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.title, p.deleted, p.created_at, p.updated_at
		FROM %s p
		JOIN %s pu ON pu.project_id = p.id
		WHERE pu.user_id = $1 AND NOT p.deleted AND pu.role = ANY($2)
		ORDER BY p.created_at DESC
	`, r.tables.Projects, r.tables.ProjectUsers)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, memberRoleNames())
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Title, &p.Deleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

// UpdateTitle renames a live project
func (r *PostgresProjectRepository) UpdateTitle(ctx context.Context, id, title string) (*models.Project, error) {
	if !postgres.ValidID(id) {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $2, updated_at = NOW()
		WHERE id = $1 AND NOT deleted
		RETURNING id, title, deleted, created_at, updated_at
	`, r.tables.Projects)

	var project models.Project
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, title).Scan(
		&project.ID,
		&project.Title,
		&project.Deleted,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	return &project, nil
}

// SoftDelete marks a live project deleted
func (r *PostgresProjectRepository) SoftDelete(ctx context.Context, id string) error {
	if !postgres.ValidID(id) {
		return  fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT deleted
	`, r.tables.Projects)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// memberRoleNames lists the stored names that grant project access. Rows
// holding anything else are treated as no membership.
func memberRoleNames() []string {
	var names []string
	for _, role := range domainModels.Roles() {
		if role.IsMember() {
			names = append(names, role.String())
		}
	}
	return names
}
