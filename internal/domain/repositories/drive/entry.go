package drive

import (
	"context"

	"droply/internal/domain/models/drive"
)

// EntryRepository defines data access operations for file and folder entries.
// Every method except GetByIDOnly is scoped to an owner: rows belonging to
// another owner behave exactly like missing rows (domain.ErrNotFound).
type EntryRepository interface {
	// Create inserts a new entry and fills in its ID and timestamps
	Create(ctx context.Context, entry *drive.Entry) error

	// GetByID retrieves an entry owned by ownerID
	GetByID(ctx context.Context, id, ownerID string) (*drive.Entry, error)

	// GetByIDForUpdate retrieves an owned entry and locks its row until the
	// surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id, ownerID string) (*drive.Entry, error)

	// GetByIDForShare retrieves an owned entry and share-locks its row until
	// the surrounding transaction ends. Used for parents, which must not be
	// purged while a child is attached to them.
	GetByIDForShare(ctx context.Context, id, ownerID string) (*drive.Entry, error)

	// LockOwner serializes structural changes (create under a parent, move,
	// restore, purge) of one owner's tree until the surrounding transaction
	// ends. It has no effect outside a transaction.
	LockOwner(ctx context.Context, ownerID string) error

	// GetByIDOnly retrieves an entry by ID without owner scoping.
	// Use only where authorization is checked separately.
	GetByIDOnly(ctx context.Context, id string) (*drive.Entry, error)

	// Update persists name, parent, flags and updated_at
	Update(ctx context.Context, entry *drive.Entry) error

	// Delete removes the row permanently
	Delete(ctx context.Context, id, ownerID string) error

	// ListChildren lists immediate children that are not in the trash; a nil
	// parentID lists the root level
	ListChildren(ctx context.Context, parentID *string, ownerID string) ([]drive.Entry, error)

	// ListStarred lists starred, non-trashed entries
	ListStarred(ctx context.Context, ownerID string) ([]drive.Entry, error)

	// ListTrashed lists trashed entries, most recently trashed first
	ListTrashed(ctx context.Context, ownerID string) ([]drive.Entry, error)

	// ListAll retrieves every entry of an owner (flat list)
	ListAll(ctx context.Context, ownerID string) ([]drive.Entry, error)

	// SubtreeHeight returns how many levels lie below the entry, trashed
	// descendants included (0 for a file or an empty folder)
	SubtreeHeight(ctx context.Context, id, ownerID string) (int, error)

	// GetAncestors returns the chain from the root down to (and including) the entry
	GetAncestors(ctx context.Context, id, ownerID string) ([]drive.Breadcrumb, error)
}
