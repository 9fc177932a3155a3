package drive

import (
	"context"
	"log/slog"

	models "droply/internal/domain/models/drive"
	driveRepo "droply/internal/domain/repositories/drive"
	driveSvc "droply/internal/domain/services/drive"
)

// treeService implements the TreeService interface
type treeService struct {
	entryRepo driveRepo.EntryRepository
	logger    *slog.Logger
}

// NewTreeService creates a new tree service
func NewTreeService(entryRepo driveRepo.EntryRepository, logger *slog.Logger) driveSvc.TreeService {
	return &treeService{
		entryRepo: entryRepo,
		logger:    logger,
	}
}

// GetTree builds the nested folder/file tree of the owner's non-trashed
// entries. Entries below a trashed folder are hidden together with it.
func (s *treeService) GetTree(ctx context.Context, ownerID string) (*models.TreeNode, error) {
	all, err := s.entryRepo.ListAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var folders, files []models.Entry
	for _, e := range all {
		if e.IsTrashed {
			continue
		}
		if e.IsFolder {
			folders = append(folders, e)
		} else {
			files = append(files, e)
		}
	}

	// First pass: create all folder nodes
	folderMap := make(map[string]*models.FolderTreeNode, len(folders))
	for _, f := range folders {
		folderMap[f.ID] = &models.FolderTreeNode{
			ID:        f.ID,
			Name:      f.Name,
			ParentID:  f.ParentID,
			IsStarred: f.IsStarred,
			CreatedAt: f.CreatedAt,
			Folders:   []*models.FolderTreeNode{},
			Files:     []models.FileTreeNode{},
		}
	}

	// Second pass: nest folders under their parents
	rootFolders := make([]*models.FolderTreeNode, 0)
	for _, f := range folders {
		node := folderMap[f.ID]
		if f.ParentID == nil {
			rootFolders = append(rootFolders, node)
			continue
		}
		if parent, exists := folderMap[*f.ParentID]; exists {
			parent.Folders = append(parent.Folders, node)
		}
	}

	// Third pass: attach files
	rootFiles := make([]models.FileTreeNode, 0)
	for _, f := range files {
		node := models.FileTreeNode{
			ID:        f.ID,
			Name:      f.Name,
			ParentID:  f.ParentID,
			IsStarred: f.IsStarred,
			UpdatedAt: f.UpdatedAt,
		}
		if f.Size != nil {
			node.Size = *f.Size
		}
		if f.MimeType != nil {
			node.MimeType = *f.MimeType
		}

		if f.ParentID == nil {
			rootFiles = append(rootFiles, node)
			continue
		}
		if parent, exists := folderMap[*f.ParentID]; exists {
			parent.Files = append(parent.Files, node)
		}
	}

	s.logger.Debug("tree built",
		"owner_id", ownerID,
		"folder_count", len(folders),
		"file_count", len(files),
	)

	return &models.TreeNode{
		Folders: rootFolders,
		Files:   rootFiles,
	}, nil
}
