package handler

import (
	"log/slog"
	"net/http"

	"roundreview/internal/domain/models"
	"roundreview/internal/domain/services"
	"roundreview/internal/httputil"
	"roundreview/internal/service/policy"
	"roundreview/internal/service/webhook"
)

// WebhookMonitor reports the dispatcher's queue state.
type WebhookMonitor interface {
	Status() webhook.Stats
}

// AdminHandler handles system administration HTTP requests
type AdminHandler struct {
	adminService services.AdminService
	webhooks     WebhookMonitor
	evaluator    *policy.Evaluator
	logger       *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService services.AdminService, webhooks WebhookMonitor, evaluator *policy.Evaluator, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		webhooks:     webhooks,
		evaluator:    evaluator,
		logger:       logger,
	}
}

// ListProperties returns the system properties
// GET /api/admin/properties
func (h *AdminHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	props, err := h.adminService.ListProperties(r.Context(), actor)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, props)
}

// UpdateProperties writes a batch of system properties
// PATCH /api/admin/properties
func (h *AdminHandler) UpdateProperties(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var updates map[string]string
	if err := httputil.ParseJSON(w, r, &updates); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	props, err := h.adminService.UpdateProperties(r.Context(), actor, updates)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, props)
}

// ListAuditLog returns audit entries, filtered by ?user_id, ?action and ?limit
// GET /api/admin/audit
func (h *AdminHandler) ListAuditLog(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	filter := models.AuditLogFilter{
		ActorID: r.URL.Query().Get("user_id"),
		Action:  r.URL.Query().Get("action"),
		Limit:   httputil.QueryInt(r, "limit", 100),
	}
	entries, err := h.adminService.ListAuditLog(r.Context(), actor, filter)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entries)
}

// DeleteUser soft-deletes a user
// DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), actor, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

// UndeleteUser restores a soft-deleted user
// POST /api/admin/users/{id}/restore
func (h *AdminHandler) UndeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.adminService.UndeleteUser(r.Context(), actor, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

// WebhookStatus reports the webhook queue
// GET /api/admin/webhooks
func (h *AdminHandler) WebhookStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.evaluator.Decide(actor, policy.KindWebhookQueue, policy.Resource{}, policy.ActionRead).Err(); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, h.webhooks.Status())
}
