package drive

import "time"

// TreeNode represents the root of an owner's folder tree
type TreeNode struct {
	Folders []*FolderTreeNode `json:"folders"`
	Files   []FileTreeNode    `json:"files"`
}

// FolderTreeNode represents a folder in the tree with nested children
type FolderTreeNode struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	ParentID  *string           `json:"parent_id"`
	IsStarred bool              `json:"is_starred"`
	CreatedAt time.Time         `json:"created_at"`
	Folders   []*FolderTreeNode `json:"folders"` // Pointers for proper nesting
	Files     []FileTreeNode    `json:"files"`
}

// FileTreeNode represents a file in the tree (metadata only, no storage URLs)
type FileTreeNode struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parent_id"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type"`
	IsStarred bool      `json:"is_starred"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Breadcrumb is one step of the ancestor chain from the root to an entry
type Breadcrumb struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
