package drive

import (
	"context"

	"droply/internal/domain/models/drive"
	"droply/internal/httputil"
)

// EntryService handles creation and reads of files and folders
type EntryService interface {
	// CreateEntry validates and inserts a file or folder
	CreateEntry(ctx context.Context, req *CreateEntryRequest) (*drive.Entry, error)

	// GetEntry retrieves an owned entry with its computed location
	GetEntry(ctx context.Context, ownerID, entryID string) (*drive.Entry, error)

	// GetChildren lists the children of an owned folder
	GetChildren(ctx context.Context, ownerID, folderID string) ([]drive.Entry, error)

	// GetRoot lists the owner's top-level entries
	GetRoot(ctx context.Context, ownerID string) ([]drive.Entry, error)

	// ListStarred lists starred entries that are not in the trash
	ListStarred(ctx context.Context, ownerID string) ([]drive.Entry, error)

	// ListTrash lists trashed entries
	ListTrash(ctx context.Context, ownerID string) ([]drive.Entry, error)

	// Breadcrumbs returns the ancestor chain from the root to the entry
	Breadcrumbs(ctx context.Context, ownerID, entryID string) ([]drive.Breadcrumb, error)

	// UpdateEntry renames and/or reparents an entry
	UpdateEntry(ctx context.Context, ownerID, entryID string, req *UpdateEntryRequest) (*drive.Entry, error)
}

// CreateEntryRequest represents a file or folder creation request.
// OwnerID always comes from the authenticated identity, never from the body.
type CreateEntryRequest struct {
	OwnerID  string                 `json:"-"`
	Name     string                 `json:"name"`
	IsFolder bool                   `json:"is_folder"`
	ParentID *string                `json:"parent_id,omitempty"` // null for root
	Storage  *drive.StorageMetadata `json:"storage,omitempty"`   // required for files
}

// UpdateEntryRequest represents a rename and/or move
type UpdateEntryRequest struct {
	Name     *string                 `json:"name,omitempty"`      // rename
	ParentID httputil.OptionalString `json:"parent_id,omitempty"` // move (null for root)
}
