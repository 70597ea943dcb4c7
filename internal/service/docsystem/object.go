package docsystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	docsysModels "roundreview/internal/domain/models/docsystem"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
	docsysSvc "roundreview/internal/domain/services/docsystem"
	"roundreview/internal/service/audit"
	"roundreview/internal/service/policy"
)

// objectService implements the ObjectService interface
type objectService struct {
	objectRepo     docsysRepo.ObjectRepository
	membershipRepo docsysRepo.MembershipRepository
	facts          *policy.FactLoader
	auth           authorizer
	audit          *audit.Log
	notifier       docsysSvc.StatusNotifier
	logger         *slog.Logger
}

// NewObjectService creates a new object service
func NewObjectService(
	objectRepo docsysRepo.ObjectRepository,
	membershipRepo docsysRepo.MembershipRepository,
	evaluator *policy.Evaluator,
	facts *policy.FactLoader,
	auditLog *audit.Log,
	notifier docsysSvc.StatusNotifier,
	logger *slog.Logger,
) docsysSvc.ObjectService {
	return &objectService{
		objectRepo:     objectRepo,
		membershipRepo: membershipRepo,
		facts:          facts,
		auth:           authorizer{evaluator: evaluator, logger: logger},
		audit:          auditLog,
		notifier:       notifier,
		logger:         logger,
	}
}

// CreateObject stores an uploaded document owned by the actor
func (s *objectService) CreateObject(ctx context.Context, actor models.Actor, req *docsysSvc.CreateObjectRequest) (*docsysModels.Object, error) {
	project, err := s.facts.Project(ctx, actor.ID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	flags, err := s.facts.Flags(ctx)
	if err != nil {
		return nil, err
	}
	res := policy.Resource{Project: project, UploadBytes: int64(len(req.Raw)), Flags: flags}
	if err := s.auth.check(actor, policy.KindObject, res, policy.ActionCreate); err != nil {
		return nil, err
	}

	path, status, err := validateUpload(req.Name, req.Path, req.Version, req.Status, req.ContentType, req.Raw)
	if err != nil {
		return nil, err
	}

	object := &docsysModels.Object{
		Path:        path,
		OwnerID:     actor.ID,
		ProjectID:   req.ProjectID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Version:     req.Version,
		Status:      docsysModels.ParseStatus(status),
		Raw:         req.Raw,
	}
	if err := s.objectRepo.Create(ctx, object); err != nil {
		return nil, fmt.Errorf("create object: %w", err)
	}
	object.Raw = nil

	s.audit.Record(ctx, actor.ID, audit.Action("project object add",
		"project_id", req.ProjectID, "object_id", object.ID))
	s.logger.Info("object created",
		"id", object.ID,
		"project_id", req.ProjectID,
		"size", len(req.Raw),
		"user_id", actor.ID,
	)
	return object, nil
}

// ListObjects returns the live objects of a project
func (s *objectService) ListObjects(ctx context.Context, actor models.Actor, projectID string) ([]docsysModels.Object, error) {
	project, err := s.facts.Project(ctx, actor.ID, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.check(actor, policy.KindObject, policy.Resource{Project: project}, policy.ActionList); err != nil {
		return nil, err
	}
	return s.objectRepo.ListByProject(ctx, projectID)
}

// GetObject returns an object, optionally with its content
func (s *objectService) GetObject(ctx context.Context, actor models.Actor, objectID string, withRaw bool) (*docsysModels.Object, error) {
	project, object, err := s.facts.Object(ctx, actor.ID, objectID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.check(actor, policy.KindObject, policy.Resource{Project: project, Object: object}, policy.ActionRead); err != nil {
		return nil, err
	}

	result, err := s.objectRepo.GetByID(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if withRaw {
		if result.Raw, err = s.objectRepo.LoadRaw(ctx, objectID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// UpdateObject applies a partial update; a status change notifies reviewers
func (s *objectService) UpdateObject(ctx context.Context, actor models.Actor, objectID string, updates map[string]any) (*docsysModels.Object, error) {
	project, object, err := s.facts.Object(ctx, actor.ID, objectID)
	if err != nil {
		return nil, err
	}
	fields := updateFields(updates)
	res := policy.Resource{Project: project, Object: object, Fields: fields}
	if err := s.auth.check(actor, policy.KindObject, res, policy.ActionUpdate); err != nil {
		return nil, err
	}

	change, err := buildObjectUpdate(updates)
	if err != nil {
		return nil, err
	}

	updated, err := s.objectRepo.Update(ctx, objectID, change)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.ID, audit.Action("project object update",
		"project_id", updated.ProjectID, "keys", strings.Join(fields, "|")))
	s.logger.Info("object updated",
		"id", objectID,
		"fields", fields,
		"user_id", actor.ID,
	)

	if status, ok := change[docsysModels.FieldStatus]; ok {
		s.notifyStatus(ctx, updated.ProjectID, objectID, status)
	}
	return updated, nil
}

// notifyStatus hands a status change to the notifier. Failures to resolve
// recipients are logged; the update itself has already succeeded.
func (s *objectService) notifyStatus(ctx context.Context, projectID, objectID, status string) {
	if s.notifier == nil {
		return
	}
	recipients, err := s.membershipRepo.ListWebhookRecipients(ctx, projectID)
	if err != nil {
		s.logger.Error("list webhook recipients failed",
			"project_id", projectID,
			"object_id", objectID,
			"error", err,
		)
		return
	}
	s.notifier.Enqueue(ctx, projectID, objectID, map[string]string{string(docsysModels.FieldStatus): status}, recipients)
}

// DeleteObject soft-deletes an object
func (s *objectService) DeleteObject(ctx context.Context, actor models.Actor, objectID string) error {
	project, object, err := s.facts.Object(ctx, actor.ID, objectID)
	if err != nil {
		return err
	}
	flags, err := s.facts.Flags(ctx)
	if err != nil {
		return err
	}
	res := policy.Resource{Project: project, Object: object, Flags: flags}
	if err := s.auth.check(actor, policy.KindObject, res, policy.ActionDelete); err != nil {
		return err
	}

	if err := s.objectRepo.SoftDelete(ctx, objectID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Message: "object not found"}
		}
		return err
	}

	s.audit.Record(ctx, actor.ID, audit.Action("project object delete",
		"project_id", project.ID, "object_id", objectID))
	s.logger.Info("object deleted",
		"id", objectID,
		"project_id", project.ID,
		"user_id", actor.ID,
	)
	return nil
}
