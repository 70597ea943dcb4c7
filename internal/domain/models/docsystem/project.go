package docsystem

import (
	"time"

	"roundreview/internal/domain/models"
)

// Project is a collaboration space. Soft-deleted projects are invisible to
// every non-admin operation.
type Project struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Deleted   bool      `json:"deleted" db:"deleted"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectMember is one membership row joined with the user's name.
type ProjectMember struct {
	ProjectID string      `json:"project_id" db:"project_id"`
	UserID    string      `json:"id" db:"user_id"`
	Name      string      `json:"name" db:"name"`
	Role      models.Role `json:"role" db:"role"`
}
