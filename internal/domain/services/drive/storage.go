package drive

import (
	"context"
	"io"

	"droply/internal/domain/models/drive"
)

// ObjectStore is the external file-hosting collaborator. It owns the bytes;
// this service only keeps metadata.
type ObjectStore interface {
	// Put uploads an object and returns its storage descriptor
	Put(ctx context.Context, obj *PutObjectInput) (*drive.StorageMetadata, error)

	// Delete removes an object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// PutObjectInput describes an object to upload
type PutObjectInput struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}
