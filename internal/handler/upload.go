package handler

import (
	"errors"
	"log/slog"
	"net/http"

	driveSvc "droply/internal/domain/services/drive"
	"droply/internal/httputil"
)

// multipartOverhead leaves room for form fields and boundaries on top of the file
const multipartOverhead = 1 << 20

// UploadHandler handles file uploads
type UploadHandler struct {
	uploads  driveSvc.UploadService
	maxBytes int64
	logger   *slog.Logger
}

// NewUploadHandler creates a new upload handler. maxBytes is the largest
// accepted file.
func NewUploadHandler(uploads driveSvc.UploadService, maxBytes int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploads:  uploads,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Upload accepts a multipart form with a "file" part and an optional
// "parent_id" field, stores the bytes and records the entry
// POST /api/files/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload limit")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer func() { _ = file.Close() }()

	var parentID *string
	if v := r.FormValue("parent_id"); v != "" {
		parentID = &v
	}

	entry, err := h.uploads.Upload(r.Context(), &driveSvc.UploadRequest{
		OwnerID:     userID,
		ParentID:    parentID,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, entry)
}

// Register records a file the client uploaded to storage directly.
// The body's owner_id must match the authenticated user.
// POST /api/files
func (h *UploadHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req driveSvc.RegisterUploadRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	entry, err := h.uploads.RegisterUpload(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, entry)
}
