package handler

import (
	"log/slog"
	"net/http"

	"roundreview/internal/domain/services"
	"roundreview/internal/httputil"
)

// SettingsHandler handles developer settings HTTP requests
type SettingsHandler struct {
	settingsService services.SettingsService
	logger          *slog.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService services.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

type profileResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	IsAdmin    bool    `json:"is_admin"`
	APIKey     bool    `json:"api_key_enabled"`
	WebhookURL *string `json:"webhook_url"`
}

// GetSettings returns the caller's profile and developer settings
// GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	user, err := h.settingsService.GetProfile(r.Context(), actor)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, profileResponse{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		IsAdmin:    user.IsAdmin,
		APIKey:     user.HasAPIKey(),
		WebhookURL: user.WebhookURL,
	})
}

// EnableAPIKey issues a new API key, returned only in this response
// POST /api/settings/api-key
func (h *SettingsHandler) EnableAPIKey(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	res, err := h.settingsService.EnableAPIKey(r.Context(), actor)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, res)
}

// DisableAPIKey removes the caller's API key
// DELETE /api/settings/api-key
func (h *SettingsHandler) DisableAPIKey(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.settingsService.DisableAPIKey(r.Context(), actor); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}

// SetWebhook sets or clears the caller's webhook URL
// PUT /api/settings/webhook
func (h *SettingsHandler) SetWebhook(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var req services.UpdateWebhookRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.settingsService.SetWebhook(r.Context(), actor, &req); err != nil {
		handleError(w, err)
		return
	}

	h.GetSettings(w, r)
}
