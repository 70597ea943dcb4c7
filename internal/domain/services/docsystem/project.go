package docsystem

import (
	"context"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/models/docsystem"
)

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Title string `json:"title"`
}

// UpdateProjectRequest represents a request to rename a project
type UpdateProjectRequest struct {
	Title string `json:"title"`
}

// JoinProjectRequest adds a user to a project by username
type JoinProjectRequest struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UnjoinProjectRequest removes a user from a project by username
type UnjoinProjectRequest struct {
	Username string `json:"username"`
}

// ProjectService defines business logic operations for projects and their members
type ProjectService interface {
	// CreateProject creates a project with the actor as its first Owner
	CreateProject(ctx context.Context, actor models.Actor, req *CreateProjectRequest) (*docsystem.Project, error)

	// ListProjects returns the live projects the actor is a member of
	ListProjects(ctx context.Context, actor models.Actor) ([]docsystem.Project, error)

	GetProject(ctx context.Context, actor models.Actor, projectID string) (*docsystem.Project, error)

	// RenameProject changes the title (Owner only)
	RenameProject(ctx context.Context, actor models.Actor, projectID string, req *UpdateProjectRequest) (*docsystem.Project, error)

	// DeleteProject soft-deletes the project (Owner only)
	DeleteProject(ctx context.Context, actor models.Actor, projectID string) error

	ListMembers(ctx context.Context, actor models.Actor, projectID string) ([]docsystem.ProjectMember, error)

	JoinProject(ctx context.Context, actor models.Actor, projectID string, req *JoinProjectRequest) error

	UnjoinProject(ctx context.Context, actor models.Actor, projectID string, req *UnjoinProjectRequest) error
}
