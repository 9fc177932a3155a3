package drive

import (
	"time"
)

// Entry is a single file or folder record. Folders and files share one table;
// IsFolder is fixed at creation and the storage fields are only set for files.
type Entry struct {
	ID           string     `json:"id" db:"id"`
	OwnerID      string     `json:"owner_id" db:"owner_id"`
	ParentID     *string    `json:"parent_id" db:"parent_id"` // NULL = root level
	Name         string     `json:"name" db:"name"`
	IsFolder     bool       `json:"is_folder" db:"is_folder"`
	Path         *string    `json:"path,omitempty" db:"path"` // object key in the storage service
	StorageURL   *string    `json:"storage_url,omitempty" db:"storage_url"`
	ThumbnailURL *string    `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	Size         *int64     `json:"size,omitempty" db:"size"`
	MimeType     *string    `json:"mime_type,omitempty" db:"mime_type"`
	IsStarred    bool       `json:"is_starred" db:"is_starred"`
	IsTrashed    bool       `json:"is_trashed" db:"is_trashed"`
	TrashedAt    *time.Time `json:"trashed_at,omitempty" db:"trashed_at"`
	Location     string     `json:"location,omitempty"` // Computed display path of ancestors, not stored in DB
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// StorageMetadata is the descriptor returned by the storage collaborator
// after an upload. It becomes the storage fields of a file entry.
type StorageMetadata struct {
	Path         string  `json:"file_path"`
	StorageURL   string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	Size         int64   `json:"size"`
	MimeType     string  `json:"mime_type"`
}

// ApplyStorage copies an upload descriptor onto a file entry.
func (e *Entry) ApplyStorage(m *StorageMetadata) {
	if m == nil {
		return
	}
	path, url, mime, size := m.Path, m.StorageURL, m.MimeType, m.Size
	e.Path = &path
	e.StorageURL = &url
	e.ThumbnailURL = m.ThumbnailURL
	e.Size = &size
	e.MimeType = &mime
}

// HasStorage reports whether any storage field is set.
func (e *Entry) HasStorage() bool {
	return e.Path != nil || e.StorageURL != nil || e.ThumbnailURL != nil || e.Size != nil || e.MimeType != nil
}

// IsRoot reports whether the entry sits at the top level.
func (e *Entry) IsRoot() bool {
	return e.ParentID == nil
}
