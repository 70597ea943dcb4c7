package service

import (
	"context"
	"log/slog"
	"sort"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
	"roundreview/internal/domain/services"
	"roundreview/internal/service/audit"
	"roundreview/internal/service/policy"
	"roundreview/internal/service/sysprop"
)

// AdminService implements the AdminService interface
type AdminService struct {
	users     repositories.UserRepository
	props     *sysprop.Store
	audit     *audit.Log
	evaluator *policy.Evaluator
	facts     *policy.FactLoader
	logger    *slog.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	users repositories.UserRepository,
	props *sysprop.Store,
	auditLog *audit.Log,
	evaluator *policy.Evaluator,
	facts *policy.FactLoader,
	logger *slog.Logger,
) services.AdminService {
	return &AdminService{
		users:     users,
		props:     props,
		audit:     auditLog,
		evaluator: evaluator,
		facts:     facts,
		logger:    logger,
	}
}

// ListProperties returns every system property
func (s *AdminService) ListProperties(ctx context.Context, actor models.Actor) ([]models.SystemProperty, error) {
	if err := authorize(s.evaluator, s.logger, actor, policy.KindSystemProperty, policy.Resource{}, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.props.All(ctx)
}

// UpdateProperties validates and writes a batch of system properties
func (s *AdminService) UpdateProperties(ctx context.Context, actor models.Actor, updates map[string]string) ([]models.SystemProperty, error) {
	res := policy.Resource{Properties: updates}
	if err := authorize(s.evaluator, s.logger, actor, policy.KindSystemProperty, res, policy.ActionUpdate); err != nil {
		return nil, err
	}

	typed := make(map[models.SystemPropertyKey]string, len(updates))
	keys := make([]string, 0, len(updates))
	for k, v := range updates {
		key, _ := models.ParseSystemPropertyKey(k)
		typed[key] = v
		keys = append(keys, k)
	}
	if err := s.props.Set(ctx, typed); err != nil {
		return nil, err
	}

	sort.Strings(keys)
	for _, k := range keys {
		s.audit.Record(ctx, actor.ID, audit.Action("system property update", "key", k, "value", updates[k]))
	}
	return s.props.All(ctx)
}

// ListAuditLog returns audit entries newest first
func (s *AdminService) ListAuditLog(ctx context.Context, actor models.Actor, filter models.AuditLogFilter) ([]models.AuditLogEntry, error) {
	if err := authorize(s.evaluator, s.logger, actor, policy.KindAuditLog, policy.Resource{}, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, filter)
}

// DeleteUser soft-deletes a user account
func (s *AdminService) DeleteUser(ctx context.Context, actor models.Actor, userID string) error {
	return s.setDeleted(ctx, actor, userID, true)
}

// UndeleteUser restores a soft-deleted user account
func (s *AdminService) UndeleteUser(ctx context.Context, actor models.Actor, userID string) error {
	return s.setDeleted(ctx, actor, userID, false)
}

func (s *AdminService) setDeleted(ctx context.Context, actor models.Actor, userID string, deleted bool) error {
	target, err := s.facts.User(ctx, userID)
	if err != nil {
		return err
	}
	if err := authorize(s.evaluator, s.logger, actor, policy.KindUser, policy.Resource{Target: target}, policy.ActionDelete); err != nil {
		return err
	}

	if err := s.users.SetDeleted(ctx, userID, deleted); err != nil {
		return err
	}

	what := "user undeleted"
	if deleted {
		what = "user deleted"
	}
	s.audit.Record(ctx, actor.ID, audit.Action(what, "user_id", userID))
	s.logger.Info(what,
		"user_id", userID,
		"by", actor.ID,
	)
	return nil
}
