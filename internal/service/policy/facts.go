package policy

import (
	"context"
	"errors"
	"fmt"

	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/domain/repositories"
	docsysRepo "roundreview/internal/domain/repositories/docsystem"
)

// FlagSource supplies the current system property snapshot.
type FlagSource interface {
	Flags(ctx context.Context) (models.SystemFlags, error)
}

// FactLoader reads the facts the evaluator needs from storage. A resource that
// does not exist yields a nil fact, never an error.
type FactLoader struct {
	projects    docsysRepo.ProjectRepository
	memberships docsysRepo.MembershipRepository
	objects     docsysRepo.ObjectRepository
	reviews     docsysRepo.ReviewRepository
	users       repositories.UserRepository
	flags       FlagSource
}

// NewFactLoader creates a fact loader over the given repositories.
func NewFactLoader(
	projects docsysRepo.ProjectRepository,
	memberships docsysRepo.MembershipRepository,
	objects docsysRepo.ObjectRepository,
	reviews docsysRepo.ReviewRepository,
	users repositories.UserRepository,
	flags FlagSource,
) *FactLoader {
	return &FactLoader{
		projects:    projects,
		memberships: memberships,
		objects:     objects,
		reviews:     reviews,
		users:       users,
		flags:       flags,
	}
}

// Flags returns the current system flags.
func (l *FactLoader) Flags(ctx context.Context) (models.SystemFlags, error) {
	flags, err := l.flags.Flags(ctx)
	if err != nil {
		return models.SystemFlags{}, fmt.Errorf("load system flags: %w", err)
	}
	return flags, nil
}

// Project loads a project and the actor's role in it.
func (l *FactLoader) Project(ctx context.Context, actorID, projectID string) (*ProjectFacts, error) {
	project, err := l.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load project facts: %w", err)
	}

	role, err := l.memberships.GetProjectRole(ctx, projectID, actorID)
	if err != nil {
		return nil, fmt.Errorf("load project role: %w", err)
	}
	owners, err := l.memberships.CountOwners(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("count project owners: %w", err)
	}

	return &ProjectFacts{
		ID:         project.ID,
		Deleted:    project.Deleted,
		ActorRole:  role,
		OwnerCount: owners,
	}, nil
}

// Object loads an object together with its project. Both are nil if the
// object does not exist.
func (l *FactLoader) Object(ctx context.Context, actorID, objectID string) (*ProjectFacts, *ObjectFacts, error) {
	own, err := l.objects.GetOwnership(ctx, objectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("load object ownership: %w", err)
	}

	project, err := l.Project(ctx, actorID, own.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	reviewed, err := l.reviews.Exists(ctx, objectID, actorID)
	if err != nil {
		return nil, nil, fmt.Errorf("check existing review: %w", err)
	}

	return project, &ObjectFacts{
		ID:            own.ObjectID,
		OwnerID:       own.OwnerID,
		Deleted:       own.Deleted,
		ActorReviewed: reviewed,
	}, nil
}

// Review loads a review with its object and project.
func (l *FactLoader) Review(ctx context.Context, actorID, reviewID string) (*ReviewFacts, *ProjectFacts, *ObjectFacts, error) {
	review, err := l.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, nil, nil
		}
		return nil, nil, nil, fmt.Errorf("load review: %w", err)
	}

	project, object, err := l.Object(ctx, actorID, review.ObjectID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &ReviewFacts{ID: review.ID, AuthorID: review.UserID}, project, object, nil
}

// Member loads a user by name and their membership in projectID.
// requestedRole is carried through for join decisions.
func (l *FactLoader) Member(ctx context.Context, projectID, username, requestedRole string) (*TargetFacts, error) {
	user, err := l.users.GetByName(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load target user: %w", err)
	}

	role, found, err := l.memberships.GetMembership(ctx, projectID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load target membership: %w", err)
	}

	return &TargetFacts{
		UserID:        user.ID,
		IsSystem:      user.IsSystem,
		IsDeleted:     user.Deleted,
		IsMember:      found,
		Role:          role,
		RequestedRole: requestedRole,
	}, nil
}

// User loads a user account as a target of administration.
func (l *FactLoader) User(ctx context.Context, userID string) (*TargetFacts, error) {
	user, err := l.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load target user: %w", err)
	}
	return &TargetFacts{
		UserID:    user.ID,
		IsSystem:  user.IsSystem,
		IsDeleted: user.Deleted,
	}, nil
}
