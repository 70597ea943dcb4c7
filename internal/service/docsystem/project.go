package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"roundreview/internal/config"
	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	docsysModels "roundreview/internal/domain/models/docsystem"
	"roundreview/internal/domain/repositories"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
	docsysSvc "roundreview/internal/domain/services/docsystem"
	"roundreview/internal/service/audit"
	"roundreview/internal/service/policy"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// projectService implements the ProjectService interface
type projectService struct {
	projectRepo    docsysRepo.ProjectRepository
	membershipRepo docsysRepo.MembershipRepository
	txManager      repositories.TransactionManager
	facts          *policy.FactLoader
	auth           authorizer
	audit          *audit.Log
	logger         *slog.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo docsysRepo.ProjectRepository,
	membershipRepo docsysRepo.MembershipRepository,
	txManager repositories.TransactionManager,
	evaluator *policy.Evaluator,
	facts *policy.FactLoader,
	auditLog *audit.Log,
	logger *slog.Logger,
) docsysSvc.ProjectService {
	return &projectService{
		projectRepo:    projectRepo,
		membershipRepo: membershipRepo,
		txManager:      txManager,
		facts:          facts,
		auth:           authorizer{evaluator: evaluator, logger: logger},
		audit:          auditLog,
		logger:         logger,
	}
}

// CreateProject creates a new project owned by the actor
func (s *projectService) CreateProject(ctx context.Context, actor models.Actor, req *docsysSvc.CreateProjectRequest) (*docsysModels.Project, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}

	flags, err := s.facts.Flags(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.auth.check(actor, policy.KindProject, policy.Resource{Flags: flags}, policy.ActionCreate); err != nil {
		return nil, err
	}

	project := &docsysModels.Project{Title: strings.TrimSpace(req.Title)}
	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.Create(txCtx, project); err != nil {
			return err
		}
		return s.membershipRepo.AddMember(txCtx, project.ID, actor.ID, models.Owner)
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.audit.Record(ctx, actor.ID, audit.Action("project add", "project_id", project.ID))
	s.audit.Record(ctx, actor.ID, audit.Action("project user add",
		"project_id", project.ID, "user_id", actor.ID, "role", models.Owner.String()))

	s.logger.Info("project created",
		"id", project.ID,
		"title", project.Title,
		"user_id", actor.ID,
	)
	return project, nil
}

// ListProjects returns the projects the actor belongs to
func (s *projectService) ListProjects(ctx context.Context, actor models.Actor) ([]docsysModels.Project, error) {
	projects, err := s.projectRepo.ListForUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject retrieves a project visible to the actor
func (s *projectService) GetProject(ctx context.Context, actor models.Actor, projectID string) (*docsysModels.Project, error) {
	facts, err := s.facts.Project(ctx, actor.ID, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.check(actor, policy.KindProject, policy.Resource{Project: facts}, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.projectRepo.GetByID(ctx, projectID)
}

// RenameProject changes a project's title
func (s *projectService) RenameProject(ctx context.Context, actor models.Actor, projectID string, req *docsysSvc.UpdateProjectRequest) (*docsysModels.Project, error) {
	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}

	facts, err := s.facts.Project(ctx, actor.ID, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.check(actor, policy.KindProject, policy.Resource{Project: facts}, policy.ActionRename); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.UpdateTitle(ctx, projectID, strings.TrimSpace(req.Title))
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor.ID, audit.Action("project update", "project_id", projectID, "keys", "title"))
	s.logger.Info("project renamed",
		"id", projectID,
		"title", project.Title,
		"user_id", actor.ID,
	)
	return project, nil
}

// DeleteProject soft-deletes a project
func (s *projectService) DeleteProject(ctx context.Context, actor models.Actor, projectID string) error {
	facts, err := s.facts.Project(ctx, actor.ID, projectID)
	if err != nil {
		return err
	}
	if err := s.auth.check(actor, policy.KindProject, policy.Resource{Project: facts}, policy.ActionDelete); err != nil {
		return err
	}

	if err := s.projectRepo.SoftDelete(ctx, projectID); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, audit.Action("project delete", "project_id", projectID))
	s.logger.Info("project deleted",
		"id", projectID,
		"user_id", actor.ID,
	)
	return nil
}

// ListMembers returns the project's members
func (s *projectService) ListMembers(ctx context.Context, actor models.Actor, projectID string) ([]docsysModels.ProjectMember, error) {
	facts, err := s.facts.Project(ctx, actor.ID, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.auth.check(actor, policy.KindProject, policy.Resource{Project: facts}, policy.ActionRead); err != nil {
		return nil, err
	}
	return s.membershipRepo.ListMembers(ctx, projectID)
}

// JoinProject adds a user to the project with the requested role
func (s *projectService) JoinProject(ctx context.Context, actor models.Actor, projectID string, req *docsysSvc.JoinProjectRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required),
		validation.Field(&req.Role, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	project, err := s.facts.Project(ctx, actor.ID, projectID)
	if err != nil {
		return err
	}
	var target *policy.TargetFacts
	if project != nil {
		if target, err = s.facts.Member(ctx, projectID, req.Username, req.Role); err != nil {
			return err
		}
	}
	res := policy.Resource{Project: project, Target: target}
	if err := s.auth.check(actor, policy.KindProject, res, policy.ActionJoin); err != nil {
		return err
	}

	role := models.ParseRole(req.Role)
	if err := s.membershipRepo.AddMember(ctx, projectID, target.UserID, role); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, audit.Action("project user join",
		"project_id", projectID, "user_id", target.UserID, "role", role.String()))
	s.logger.Info("project member added",
		"project_id", projectID,
		"user_id", target.UserID,
		"role", role.String(),
		"by", actor.ID,
	)
	return nil
}

// UnjoinProject removes a user from the project
func (s *projectService) UnjoinProject(ctx context.Context, actor models.Actor, projectID string, req *docsysSvc.UnjoinProjectRequest) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	project, err := s.facts.Project(ctx, actor.ID, projectID)
	if err != nil {
		return err
	}
	var target *policy.TargetFacts
	if project != nil {
		if target, err = s.facts.Member(ctx, projectID, req.Username, ""); err != nil {
			return err
		}
	}
	res := policy.Resource{Project: project, Target: target}
	if err := s.auth.check(actor, policy.KindProject, res, policy.ActionUnjoin); err != nil {
		return err
	}

	if err := s.membershipRepo.RemoveMember(ctx, projectID, target.UserID); err != nil {
		return err
	}

	s.audit.Record(ctx, actor.ID, audit.Action("project user unjoin",
		"project_id", projectID, "user_id", target.UserID))
	s.logger.Info("project member removed",
		"project_id", projectID,
		"user_id", target.UserID,
		"by", actor.ID,
	)
	return nil
}

func validateTitle(title string) error {
	err := validation.Validate(title,
		validation.Required,
		validation.RuneLength(1, config.MaxProjectTitleLength),
		validation.By(notBlank),
	)
	if err != nil {
		return fmt.Errorf("%w: title: %v", domain.ErrValidation, err)
	}
	return nil
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("cannot be blank")
	}
	return nil
}
