package docsystem

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roundreview/internal/domain"
	models "roundreview/internal/domain/models/docsystem"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
	"roundreview/internal/repository/postgres"
)

const objectColumns = `id, path, user_id, project_id, name, description, comments, version, status, upload_date, update_date`

// objectFieldColumns maps updatable fields to their columns
var objectFieldColumns = map[models.ObjectField]string{
	models.FieldName:        "name",
	models.FieldDescription: "description",
	models.FieldComments:    "comments",
	models.FieldVersion:     "version",
	models.FieldStatus:      "status",
	models.FieldPath:        "path",
}

// PostgresObjectRepository implements the ObjectRepository interface
type PostgresObjectRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewObjectRepository creates a new object repository
func NewObjectRepository(config *postgres.RepositoryConfig) docsysRepo.ObjectRepository {
	return &PostgresObjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts the object with its raw content
func (r *PostgresObjectRepository) Create(ctx context.Context, object *models.Object) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (path, user_id, project_id, name, description, comments, version, status, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, upload_date, update_date
	`, r.tables.Objects)

	raw := object.Raw
	if raw == nil {
		raw = []byte{}
	}

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		object.Path,
		object.OwnerID,
		object.ProjectID,
		object.Name,
		object.Description,
		object.Comments,
		object.Version,
		object.Status.String(),
		raw,
	).Scan(&object.ID, &object.UploadDate, &object.UpdateDate)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s: %w", object.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("create object: %w", err)
	}
	return nil
}

// GetByID returns a live object without its raw content
func (r *PostgresObjectRepository) GetByID(ctx context.Context, id string) (*models.Object, error) {
	if !postgres.ValidID(id) {
		return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE id = $1 AND NOT deleted
	`, objectColumns, r.tables.Objects)

	executor := postgres.GetExecutor(ctx, r.pool)
	object, err := scanObject(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	return object, nil
}

// GetOwnership returns the authorization view, including deleted objects
func (r *PostgresObjectRepository) GetOwnership(ctx context.Context, id string) (*models.ObjectOwnership, error) {
	if !postgres.ValidID(id) {
		return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.user_id, o.project_id, o.deleted, COALESCE(p.deleted, TRUE)
		FROM %s o
		LEFT JOIN %s p ON p.id = o.project_id
		WHERE o.id = $1
	`, r.tables.Objects, r.tables.Projects)

	var own models.ObjectOwnership
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&own.ObjectID,
		&own.OwnerID,
		&own.ProjectID,
		&own.Deleted,
		&own.ProjectDeleted,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get object ownership: %w", err)
	}
	return &own, nil
}

// ListByProject returns live objects ordered by path then name
func (r *PostgresObjectRepository) ListByProject(ctx context.Context, projectID string) ([]models.Object, error) {
	if !postgres.ValidID(projectID) {
		return []models.Object{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1 AND NOT deleted
		ORDER BY path, name
	`, objectColumns, r.tables.Objects)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	defer rows.Close()

	objects := []models.Object{}
	for rows.Next() {
		object, err := scanObject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan object: %w", err)
		}
		objects = append(objects, *object)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objects: %w", err)
	}
	return objects, nil
}

// Update writes every field in update in one statement
func (r *PostgresObjectRepository) Update(ctx context.Context, id string, update docsysRepo.ObjectUpdate) (*models.Object, error) {
	if !postgres.ValidID(id) {
		return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}

	fields := make([]models.ObjectField, 0, len(update))
	for field := range update {
		if _, ok := objectFieldColumns[field]; !ok {
			return nil, fmt.Errorf("unknown object field %q: %w", field, domain.ErrValidation)
		}
		fields = append(fields, field)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	args := []any{id}
	sets := []string{"update_date = NOW()"}
	for _, field := range fields {
		args = append(args, update[field])
		sets = append(sets, fmt.Sprintf("%s = $%d", objectFieldColumns[field], len(args)))
	}

	query := fmt.Sprintf(`
		UPDATE %s SET %s
		WHERE id = $1 AND NOT deleted
		RETURNING %s
	`, r.tables.Objects, strings.Join(sets, ", "), objectColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	object, err := scanObject(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("update object: %w", err)
	}
	return object, nil
}

// SoftDelete marks a live object deleted
func (r *PostgresObjectRepository) SoftDelete(ctx context.Context, id string) error {
	if !postgres.ValidID(id) {
		return fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET deleted = TRUE, update_date = NOW()
		WHERE id = $1 AND NOT deleted
	`, r.tables.Objects)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// LoadRaw returns the stored content of a live object
func (r *PostgresObjectRepository) LoadRaw(ctx context.Context, id string) ([]byte, error) {
	if !postgres.ValidID(id) {
		return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		SELECT raw FROM %s WHERE id = $1 AND NOT deleted
	`, r.tables.Objects)

	var raw []byte
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("object %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load object content: %w", err)
	}
	return raw, nil
}

// scanObject reads objectColumns from a row
func scanObject(row pgx.Row) (*models.Object, error) {
	var (
		o      models.Object
		status string
	)
	err := row.Scan(
		&o.ID,
		&o.Path,
		&o.OwnerID,
		&o.ProjectID,
		&o.Name,
		&o.Description,
		&o.Comments,
		&o.Version,
		&status,
		&o.UploadDate,
		&o.UpdateDate,
	)
	if err != nil {
		return nil, err
	}
	o.Status = models.ParseStatus(status)
	return &o, nil
}
