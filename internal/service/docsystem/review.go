package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"roundreview/internal/config"
	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	docsysModels "roundreview/internal/domain/models/docsystem"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
	docsysSvc "roundreview/internal/domain/services/docsystem"
	"roundreview/internal/service/audit"
	"roundreview/internal/service/policy"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// reviewService implements the ReviewService interface
type reviewService struct {
	reviewRepo docsysRepo.ReviewRepository
	facts      *policy.FactLoader
	auth       authorizer
	audit      *audit.Log
	logger     *slog.Logger
}

// NewReviewService creates a new review service
func NewReviewService(
	reviewRepo docsysRepo.ReviewRepository,
	evaluator *policy.Evaluator,
	facts *policy.FactLoader,
	auditLog *audit.Log,
	logger *slog.Logger,
) docsysSvc.ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		facts:      facts,
		auth:       authorizer{evaluator: evaluator, logger: logger},
		audit:      auditLog,
		logger:     logger,
	}
}

// objectInProject loads object facts and hides objects addressed through the
// wrong project.
func (s *reviewService) objectInProject(ctx context.Context, actor models.Actor, projectID, objectID string) (*policy.ProjectFacts, *policy.ObjectFacts, error) {
	project, object, err := s.facts.Object(ctx, actor.ID, objectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil || project.ID != projectID {
		return nil, nil, &domain.NotFoundError{Message: "object not found"}
	}
	return project, object, nil
}

// ListReviews returns every review recorded on an object
func (s *reviewService) ListReviews(ctx context.Context, actor models.Actor, projectID, objectID string) ([]docsysModels.Review, error) {
	project, object, err := s.objectInProject(ctx, actor, projectID, objectID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.check(actor, policy.KindReview, policy.Resource{Project: project, Object: object}, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.reviewRepo.ListByObject(ctx, objectID)
}

// CreateReview records the actor's review of an object
func (s *reviewService) CreateReview(ctx context.Context, actor models.Actor, projectID, objectID string, req *docsysSvc.CreateReviewRequest) (*docsysModels.Review, error) {
	project, object, err := s.objectInProject(ctx, actor, projectID, objectID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.check(actor, policy.KindReview, policy.Resource{Project: project, Object: object}, policy.ActionCreate); err != nil {
		return nil, err
	}

	if err := validateCreateReview(req); err != nil {
		return nil, err
	}

	review := &docsysModels.Review{
		Name:     req.Name,
		Icon:     req.Icon,
		URL:      req.URL,
		URLText:  req.URLText,
		Value:    req.Value,
		UserID:   actor.ID,
		ObjectID: objectID,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.ID, audit.Action("project object review add",
		"project_id", projectID, "object_id", objectID, "review_id", review.ID))
	s.logger.Info("review created",
		"id", review.ID,
		"object_id", objectID,
		"user_id", actor.ID,
	)
	return review, nil
}

// ListOwnReviews returns the actor's reviews across all objects
func (s *reviewService) ListOwnReviews(ctx context.Context, actor models.Actor, withValues bool) ([]docsysModels.Review, error) {
	reviews, err := s.reviewRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !withValues {
		for i := range reviews {
			reviews[i].Value = ""
		}
	}
	return reviews, nil
}

// DeleteReview removes a review
func (s *reviewService) DeleteReview(ctx context.Context, actor models.Actor, reviewID string) error {
	review, project, object, err := s.facts.Review(ctx, actor.ID, reviewID)
	if err != nil {
		return err
	}
	if review == nil {
		return &domain.NotFoundError{Message: "review not found"}
	}
	res := policy.Resource{Project: project, Object: object, Review: review}
	if err := s.auth.check(actor, policy.KindReview, res, policy.ActionDelete); err != nil {
		return err
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, audit.Action("object review delete", "review_id", reviewID))
	s.logger.Info("review deleted",
		"id", reviewID,
		"user_id", actor.ID,
	)
	return nil
}

func validateCreateReview(req *docsysSvc.CreateReviewRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.RuneLength(1, config.MaxReviewNameLength)),
		validation.Field(&req.Value, validation.Required, validation.RuneLength(1, config.MaxReviewValueLength)),
		validation.Field(&req.Icon, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxReviewIconLength)),
		validation.Field(&req.URL, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxReviewURLLength)),
		validation.Field(&req.URLText, validation.NilOrNotEmpty, validation.RuneLength(1, config.MaxReviewURLTextLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
