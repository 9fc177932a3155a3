package handler

import (
	"log/slog"
	"net/http"

	driveSvc "droply/internal/domain/services/drive"
	"droply/internal/httputil"
)

// EntryHandler handles file and folder HTTP requests
type EntryHandler struct {
	entries   driveSvc.EntryService
	lifecycle driveSvc.LifecycleService
	logger    *slog.Logger
}

// NewEntryHandler creates a new entry handler
func NewEntryHandler(entries driveSvc.EntryService, lifecycle driveSvc.LifecycleService, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{
		entries:   entries,
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// createFolderRequest is the body of POST /api/folders
type createFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// flagRequest is the body of the star and trash toggles
type flagRequest struct {
	Value *bool `json:"value"`
}

// ListRoot lists the caller's top-level entries
// GET /api/entries
func (h *EntryHandler) ListRoot(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	entries, err := h.entries.GetRoot(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entries)
}

// ListStarred lists starred entries outside the trash
// GET /api/entries/starred
func (h *EntryHandler) ListStarred(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	entries, err := h.entries.ListStarred(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entries)
}

// ListTrash lists trashed entries
// GET /api/entries/trash
func (h *EntryHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	entries, err := h.entries.ListTrash(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entries)
}

// EmptyTrash permanently deletes everything in the trash
// DELETE /api/entries/trash
func (h *EntryHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	result, err := h.lifecycle.EmptyTrash(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// CreateFolder creates a new folder
// POST /api/folders
func (h *EntryHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := h.entries.CreateEntry(r.Context(), &driveSvc.CreateEntryRequest{
		OwnerID:  userID,
		Name:     req.Name,
		IsFolder: true,
		ParentID: req.ParentID,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// GetEntry retrieves an entry with its computed location
// GET /api/entries/{id}
func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entry, err := h.entries.GetEntry(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entry)
}

// GetChildren lists the contents of a folder
// GET /api/entries/{id}/children
func (h *EntryHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	children, err := h.entries.GetChildren(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, children)
}

// GetBreadcrumbs returns the path from the root to the entry
// GET /api/entries/{id}/breadcrumbs
func (h *EntryHandler) GetBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	crumbs, err := h.entries.Breadcrumbs(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, crumbs)
}

// UpdateEntry renames and/or moves an entry.
// "parent_id": null moves to the root; omitting it leaves the entry in place.
// PATCH /api/entries/{id}
func (h *EntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req driveSvc.UpdateEntryRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.entries.UpdateEntry(r.Context(), userID, id, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entry)
}

// SetStarred stars or unstars an entry
// PUT /api/entries/{id}/star
func (h *EntryHandler) SetStarred(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	value, ok := parseFlag(w, r)
	if !ok {
		return
	}

	entry, err := h.lifecycle.SetStarred(r.Context(), userID, id, value)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entry)
}

// SetTrashed moves an entry to or from the trash
// PUT /api/entries/{id}/trash
func (h *EntryHandler) SetTrashed(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	value, ok := parseFlag(w, r)
	if !ok {
		return
	}

	entry, err := h.lifecycle.SetTrashed(r.Context(), userID, id, value)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, entry)
}

// Purge permanently deletes an entry
// DELETE /api/entries/{id}
func (h *EntryHandler) Purge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.lifecycle.Purge(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// parseFlag reads {"value": bool}; the field is required
func parseFlag(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req flagRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return false, false
	}
	if req.Value == nil {
		httputil.RespondError(w, http.StatusBadRequest, "value is required")
		return false, false
	}
	return *req.Value, true
}
