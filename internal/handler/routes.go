package handler

import (
	"net/http"

	"roundreview/internal/httputil"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Projects *ProjectHandler
	Objects  *ObjectHandler
	Reviews  *ReviewHandler
	Admin    *AdminHandler
	Settings *SettingsHandler
}

// NewRouter registers all routes. Everything under /api/ passes through auth;
// /health does not.
func NewRouter(h *Handlers, auth func(http.Handler) http.Handler) http.Handler {
	api := http.NewServeMux()

	// Project routes
	api.HandleFunc("GET /api/projects", h.Projects.ListProjects)
	api.HandleFunc("POST /api/projects", h.Projects.CreateProject)
	api.HandleFunc("GET /api/projects/{id}", h.Projects.GetProject)
	api.HandleFunc("PATCH /api/projects/{id}", h.Projects.UpdateProject)
	api.HandleFunc("DELETE /api/projects/{id}", h.Projects.DeleteProject)

	// Membership routes
	api.HandleFunc("GET /api/projects/{id}/users", h.Projects.ListMembers)
	api.HandleFunc("POST /api/projects/{id}/users", h.Projects.JoinProject)
	api.HandleFunc("DELETE /api/projects/{id}/users/{username}", h.Projects.UnjoinProject)

	// Object routes
	api.HandleFunc("GET /api/projects/{id}/objects", h.Objects.ListObjects)
	api.HandleFunc("POST /api/projects/{id}/objects", h.Objects.CreateObject)
	api.HandleFunc("GET /api/objects/{id}", h.Objects.GetObject)
	api.HandleFunc("PATCH /api/objects/{id}", h.Objects.UpdateObject)
	api.HandleFunc("DELETE /api/objects/{id}", h.Objects.DeleteObject)

	// Review routes
	api.HandleFunc("GET /api/projects/{id}/objects/{object_id}/reviews", h.Reviews.ListReviews)
	api.HandleFunc("POST /api/projects/{id}/objects/{object_id}/reviews", h.Reviews.CreateReview)
	api.HandleFunc("GET /api/reviews", h.Reviews.ListOwnReviews)
	api.HandleFunc("DELETE /api/reviews/{id}", h.Reviews.DeleteReview)

	// Admin routes
	api.HandleFunc("GET /api/admin/properties", h.Admin.ListProperties)
	api.HandleFunc("PATCH /api/admin/properties", h.Admin.UpdateProperties)
	api.HandleFunc("GET /api/admin/audit", h.Admin.ListAuditLog)
	api.HandleFunc("DELETE /api/admin/users/{id}", h.Admin.DeleteUser)
	api.HandleFunc("POST /api/admin/users/{id}/restore", h.Admin.UndeleteUser)
	api.HandleFunc("GET /api/admin/webhooks", h.Admin.WebhookStatus)

	// Developer settings
	api.HandleFunc("GET /api/settings", h.Settings.GetSettings)
	api.HandleFunc("POST /api/settings/api-key", h.Settings.EnableAPIKey)
	api.HandleFunc("DELETE /api/settings/api-key", h.Settings.DisableAPIKey)
	api.HandleFunc("PUT /api/settings/webhook", h.Settings.SetWebhook)

	root := http.NewServeMux()
	root.HandleFunc("GET /health", HealthCheck)
	root.Handle("/api/", auth(api))
	return root
}

// HealthCheck reports liveness
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
