package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
)

// PostgresAuditLogRepository implements the AuditLogRepository interface.
// The table is only ever inserted into.
type PostgresAuditLogRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(config *RepositoryConfig) repositories.AuditLogRepository {
	return &PostgresAuditLogRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Append inserts an entry and fills in its ID and date
func (r *PostgresAuditLogRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, action)
		VALUES ($1, $2)
		RETURNING id, date
	`, r.tables.AuditLogs)

	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, entry.ActorID, entry.Action).Scan(&entry.ID, &entry.Date); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// List returns matching entries, newest first
func (r *PostgresAuditLogRepository) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		conds = append(conds, fmt.Sprintf("user_id::text = $%d", len(args)))
	}
	if filter.Action != "" {
		args = append(args, "%"+escapeLike(filter.Action)+"%")
		conds = append(conds, fmt.Sprintf("action LIKE $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT id, date, user_id, action FROM %s`, r.tables.AuditLogs)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditLogEntry{}
	for rows.Next() {
		var e models.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.Date, &e.ActorID, &e.Action); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit log: %w", err)
	}
	return entries, nil
}

// escapeLike escapes LIKE wildcards so the filter is a plain substring match
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
