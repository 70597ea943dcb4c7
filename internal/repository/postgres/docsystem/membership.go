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

// PostgresMembershipRepository implements the MembershipRepository interface.
// Roles are stored by name and parsed with domainModels.ParseRole on read.
type PostgresMembershipRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(config *postgres.RepositoryConfig) docsysRepo.MembershipRepository {
	return &PostgresMembershipRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetProjectRole returns the effective role; deleted projects and users yield NoRole
func (r *PostgresMembershipRepository) GetProjectRole(ctx context.Context, projectID, userID string) (domainModels.Role, error) {
	if !postgres.ValidID(projectID, userID) {
		return domainModels.NoRole, nil
	}

	query := fmt.Sprintf(`
		SELECT pu.role
		FROM %s pu
		JOIN %s p ON p.id = pu.project_id
		JOIN %s u ON u.id = pu.user_id
		WHERE pu.project_id = $1 AND pu.user_id = $2 AND NOT p.deleted AND NOT u.deleted
	`, r.tables.ProjectUsers, r.tables.Projects, r.tables.Users)

	var raw string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, projectID, userID).Scan(&raw); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return domainModels.NoRole, nil
		}
		return domainModels.NoRole, fmt.Errorf("get project role: %w", err)
	}
	return domainModels.ParseRole(raw), nil
}

// GetMembership reads the membership row without liveness filtering
func (r *PostgresMembershipRepository) GetMembership(ctx context.Context, projectID, userID string) (domainModels.Role, bool, error) {
	if !postgres.ValidID(projectID, userID) {
		return domainModels.NoRole, false, nil
	}

	query := fmt.Sprintf(`
		SELECT role FROM %s WHERE project_id = $1 AND user_id = $2
	`, r.tables.ProjectUsers)

	var raw string
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, projectID, userID).Scan(&raw); err != nil {
		if postgres.IsPgNoRowsError(err) {
			return domainModels.NoRole, false, nil
		}
		return domainModels.NoRole, false, fmt.Errorf("get membership: %w", err)
	}
	return domainModels.ParseRole(raw), true, nil
}

// CountOwners counts live users holding exactly the Owner role
func (r *PostgresMembershipRepository) CountOwners(ctx context.Context, projectID string) (int, error) {
	if !postgres.ValidID(projectID) {
		return 0, nil
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s pu
		JOIN %s u ON u.id = pu.user_id
		WHERE pu.project_id = $1 AND pu.role = $2 AND NOT u.deleted
	`, r.tables.ProjectUsers, r.tables.Users)

	var n int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, projectID, domainModels.Owner.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("count owners: %w", err)
	}
	return n, nil
}

// AddMember inserts a membership row
func (r *PostgresMembershipRepository) AddMember(ctx context.Context, projectID, userID string, role domainModels.Role) error {
	if !postgres.ValidID(projectID, userID) {
		return fmt.Errorf("project %s or user %s: %w", projectID, userID, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, user_id, role)
		VALUES ($1, $2, $3)
	`, r.tables.ProjectUsers)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, projectID, userID, role.String()); err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      "user is already a member of this project",
				ResourceType: "membership",
				ResourceID:   userID,
			}
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("project %s or user %s: %w", projectID, userID, domain.ErrNotFound)
		}
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row
func (r *PostgresMembershipRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	if !postgres.ValidID(projectID, userID) {
		return fmt.Errorf("membership %s/%s: %w", projectID, userID, domain.ErrNotFound)
	}

	query := fmt.Sprintf(`
		DELETE FROM %s WHERE project_id = $1 AND user_id = $2
	`, r.tables.ProjectUsers)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("membership %s/%s: %w", projectID, userID, domain.ErrNotFound)
	}
	return nil
}

// ListMembers returns members whose accounts are not deleted, by name
func (r *PostgresMembershipRepository) ListMembers(ctx context.Context, projectID string) ([]models.ProjectMember, error) {
	if !postgres.ValidID(projectID) {
		return []models.ProjectMember{}, nil
	}

	query := fmt.Sprintf(`
		SELECT pu.project_id, pu.user_id, u.name, pu.role
		FROM %s pu
		JOIN %s u ON u.id = pu.user_id
		WHERE pu.project_id = $1 AND NOT u.deleted
		ORDER BY u.name
	`, r.tables.ProjectUsers, r.tables.Users)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []models.ProjectMember{}
	for rows.Next() {
		var (
			m   models.ProjectMember
			raw string
		)
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Name, &raw); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.Role = domainModels.ParseRole(raw)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// ListWebhookRecipients returns every live member with their webhook URL
func (r *PostgresMembershipRepository) ListWebhookRecipients(ctx context.Context, projectID string) ([]domainModels.WebhookRecipient, error) {
	if !postgres.ValidID(projectID) {
		return []domainModels.WebhookRecipient{}, nil
	}

	query := fmt.Sprintf(`
		SELECT pu.user_id, pu.role, COALESCE(u.webhook_url, ''), u.is_system
		FROM %s pu
		JOIN %s u ON u.id = pu.user_id
		WHERE pu.project_id = $1 AND NOT u.deleted
		ORDER BY pu.user_id
	`, r.tables.ProjectUsers, r.tables.Users)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list webhook recipients: %w", err)
	}
	defer rows.Close()

	recipients := []domainModels.WebhookRecipient{}
	for rows.Next() {
		var (
			rcpt domainModels.WebhookRecipient
			raw  string
		)
		if err := rows.Scan(&rcpt.UserID, &raw, &rcpt.WebhookURL, &rcpt.IsSystem); err != nil {
			return nil, fmt.Errorf("scan webhook recipient: %w", err)
		}
		rcpt.Role = domainModels.ParseRole(raw)
		recipients = append(recipients, rcpt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate webhook recipients: %w", err)
	}
	return recipients, nil
}
