package handler

import (
	"io"
	"log/slog"
	"net/http"

	"roundreview/internal/config"
	docsysSvc "roundreview/internal/domain/services/docsystem"
	"roundreview/internal/httputil"
)

// maxUploadBody admits the largest configurable upload plus form overhead;
// the effective cap is enforced by the object service.
const maxUploadBody = (config.MaxUploadSizeMB + 1) << 20

// ObjectHandler handles object HTTP requests
type ObjectHandler struct {
	objectService docsysSvc.ObjectService
	logger        *slog.Logger
}

// NewObjectHandler creates a new object handler
func NewObjectHandler(objectService docsysSvc.ObjectService, logger *slog.Logger) *ObjectHandler {
	return &ObjectHandler{
		objectService: objectService,
		logger:        logger,
	}
}

// ListObjects lists the objects of a project
// GET /api/projects/{id}/objects
func (h *ObjectHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	objects, err := h.objectService.ListObjects(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, objects)
}

// CreateObject uploads a document as multipart/form-data with a "file" part
// POST /api/projects/{id}/objects
func (h *ObjectHandler) CreateObject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadBody); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Unreadable file")
		return
	}

	req := docsysSvc.CreateObjectRequest{
		ProjectID:   r.PathValue("id"),
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Path:        r.FormValue("path"),
		Version:     r.FormValue("version"),
		Status:      r.FormValue("status"),
		ContentType: header.Header.Get("Content-Type"),
		Raw:         raw,
	}
	if req.Name == "" {
		req.Name = header.Filename
	}

	object, err := h.objectService.CreateObject(r.Context(), actor, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, object)
}

// GetObject retrieves an object; ?raw=1 includes its content
// GET /api/objects/{id}
func (h *ObjectHandler) GetObject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	object, err := h.objectService.GetObject(r.Context(), actor, r.PathValue("id"), httputil.QueryFlag(r, "raw"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, object)
}

// UpdateObject applies a partial update
// PATCH /api/objects/{id}
func (h *ObjectHandler) UpdateObject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	var updates map[string]any
	if err := httputil.ParseJSON(w, r, &updates); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	object, err := h.objectService.UpdateObject(r.Context(), actor, r.PathValue("id"), updates)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, object)
}

// DeleteObject deletes an object
// DELETE /api/objects/{id}
func (h *ObjectHandler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if err := h.objectService.DeleteObject(r.Context(), actor, r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondNoContent(w)
}
