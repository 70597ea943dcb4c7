package handler

import (
	"log/slog"
	"net/http"

	docsysSvc "roundreview/internal/domain/services/docsystem"
	"roundreview/internal/httputil"
)

// ReviewHandler handles review HTTP requests
type ReviewHandler struct {
	reviewService docsysSvc.ReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviewService docsysSvc.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// ListReviews lists the reviews of an object
// GET /api/projects/{id}/objects/{object_id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	reviews, err := h.reviewService.ListReviews(r.Context(), actor, r.PathValue("id"), r.PathValue("object_id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, reviews)
}

// CreateReview records a review
// POST /api/projects/{id}/objects/{object_id}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req docsysSvc.CreateReviewRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := h.reviewService.CreateReview(r.Context(), actor, r.PathValue("id"), r.PathValue("object_id"), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, review)
}

// ListOwnReviews lists the caller's reviews; ?value=1 includes values
// GET /api/reviews
func (h *ReviewHandler) ListOwnReviews(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	reviews, err := h.reviewService.ListOwnReviews(r.Context(), actor, httputil.QueryFlag(r, "value"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, reviews)
}

// DeleteReview deletes a review
// DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(r.Context(), actor, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}
