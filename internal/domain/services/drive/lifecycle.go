package drive

import (
	"context"

	"droply/internal/domain/models/drive"
)

// LifecycleService manages the star/trash flags and permanent deletion
type LifecycleService interface {
	// SetStarred sets the starred flag. Idempotent.
	SetStarred(ctx context.Context, ownerID, entryID string, value bool) (*drive.Entry, error)

	// SetTrashed moves an entry to or from the trash. Idempotent.
	// Restoring fails with *domain.DanglingParentError if the original
	// parent was purged in the meantime.
	SetTrashed(ctx context.Context, ownerID, entryID string, value bool) (*drive.Entry, error)

	// Purge permanently deletes an entry and its non-trashed descendants,
	// then asks the object store to drop the underlying files.
	Purge(ctx context.Context, ownerID, entryID string) (*PurgeResult, error)

	// EmptyTrash purges every trashed entry of the owner
	EmptyTrash(ctx context.Context, ownerID string) (*PurgeResult, error)
}

// DeletionIntent tells the storage collaborator an object is no longer referenced
type DeletionIntent struct {
	EntryID string `json:"entry_id"`
	OwnerID string `json:"owner_id"`
	Path    string `json:"path"`
}

// PurgeResult reports what a purge removed
type PurgeResult struct {
	PurgedIDs []string         `json:"purged_ids"`
	Intents   []DeletionIntent `json:"-"`
}
