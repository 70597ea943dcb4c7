package docsystem

import (
	"context"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/models/docsystem"
)

// CreateReviewRequest represents an integration review
type CreateReviewRequest struct {
	Name    string  `json:"name"`
	Value   string  `json:"value"`
	Icon    *string `json:"icon,omitempty"`
	URL     *string `json:"url,omitempty"`
	URLText *string `json:"url_text,omitempty"`
}

// ReviewService defines business logic operations for reviews
type ReviewService interface {
	ListReviews(ctx context.Context, actor models.Actor, projectID, objectID string) ([]docsystem.Review, error)

	CreateReview(ctx context.Context, actor models.Actor, projectID, objectID string, req *CreateReviewRequest) (*docsystem.Review, error)

	// ListOwnReviews returns the actor's reviews; values are blanked unless withValues
	ListOwnReviews(ctx context.Context, actor models.Actor, withValues bool) ([]docsystem.Review, error)

	DeleteReview(ctx context.Context, actor models.Actor, reviewID string) error
}
