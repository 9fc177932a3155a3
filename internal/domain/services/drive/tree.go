package drive

import (
	"context"

	"droply/internal/domain/models/drive"
)

// TreeRules enforces structural rules before a write reaches the store
type TreeRules interface {
	// ValidateParent checks that parentID is an existing folder owned by ownerID
	// with room for one more level below it. Returns *domain.InvalidParentError,
	// or *domain.ValidationError when the folder sits at the depth limit.
	ValidateParent(ctx context.Context, ownerID, parentID string) error

	// Reparent moves an entry under newParentID (nil = root).
	// Returns *domain.CycleError if the target is the entry or one of its descendants,
	// and *domain.ValidationError if the moved subtree would end up too deep.
	Reparent(ctx context.Context, ownerID, entryID string, newParentID *string) (*drive.Entry, error)

	// Rename changes the display name of an owned entry
	Rename(ctx context.Context, ownerID, entryID, name string) (*drive.Entry, error)
}

// TreeService builds the nested folder tree for the dashboard sidebar
type TreeService interface {
	GetTree(ctx context.Context, ownerID string) (*drive.TreeNode, error)
}
