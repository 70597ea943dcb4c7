package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/httputil"
	"roundreview/internal/service/policy"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var denied *policy.DeniedError
	var httpErr domain.HTTPError
	var conflictErr *domain.ConflictError

	switch {
	case errors.As(err, &denied):
		httputil.RespondErrorWithExtras(w, denied.StatusCode(), denied.Error(), map[string]interface{}{
			"reason": string(denied.Decision.Reason),
		})
	case errors.As(err, &conflictErr):
		extras := map[string]interface{}{}
		if conflictErr.ResourceType != "" {
			extras["resource_type"] = conflictErr.ResourceType
		}
		if conflictErr.ResourceID != "" {
			extras["resource_id"] = conflictErr.ResourceID
		}
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), extras)
	case errors.As(err, &httpErr):
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, "forbidden")
	default:
		slog.Error("request failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// actorFrom returns the authenticated actor or writes 401.
func actorFrom(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	actor, ok := httputil.GetActor(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
	}
	return actor, ok
}
