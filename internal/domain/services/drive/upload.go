package drive

import (
	"context"
	"io"

	"droply/internal/domain/models/drive"
)

// UploadService stores file bytes through the ObjectStore and records the entry
type UploadService interface {
	// Upload streams a file to storage and creates its entry
	Upload(ctx context.Context, req *UploadRequest) (*drive.Entry, error)

	// RegisterUpload records a file the client already uploaded to storage
	RegisterUpload(ctx context.Context, userID string, req *RegisterUploadRequest) (*drive.Entry, error)
}

// UploadRequest represents a multipart upload
type UploadRequest struct {
	OwnerID     string
	ParentID    *string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// RegisterUploadRequest carries the storage descriptor of a finished upload.
// OwnerID is client-supplied and must match the authenticated user.
type RegisterUploadRequest struct {
	OwnerID  string                `json:"owner_id"`
	Name     string                `json:"name"`
	ParentID *string               `json:"parent_id,omitempty"`
	Storage  drive.StorageMetadata `json:"storage"`
}
