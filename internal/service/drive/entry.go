package drive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"droply/internal/domain"
	models "droply/internal/domain/models/drive"
	"droply/internal/domain/repositories"
	driveRepo "droply/internal/domain/repositories/drive"
	"droply/internal/domain/services"
	driveSvc "droply/internal/domain/services/drive"
)

type entryService struct {
	entryRepo  driveRepo.EntryRepository
	rules      driveSvc.TreeRules
	txManager  repositories.TransactionManager
	authorizer services.ResourceAuthorizer
	logger     *slog.Logger
}

// NewEntryService creates a new entry service
func NewEntryService(
	entryRepo driveRepo.EntryRepository,
	rules driveSvc.TreeRules,
	txManager repositories.TransactionManager,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) driveSvc.EntryService {
	return &entryService{
		entryRepo:  entryRepo,
		rules:      rules,
		txManager:  txManager,
		authorizer: authorizer,
		logger:     logger,
	}
}

// CreateEntry validates and inserts a file or folder.
// The parent check and the insert share one transaction, ordered after any
// move or purge of the same owner's tree.
func (s *entryService) CreateEntry(ctx context.Context, req *driveSvc.CreateEntryRequest) (*models.Entry, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ParentID = normalizeParentID(req.ParentID)

	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	entry := &models.Entry{
		OwnerID:   req.OwnerID,
		ParentID:  req.ParentID,
		Name:      req.Name,
		IsFolder:  req.IsFolder,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !req.IsFolder {
		entry.ApplyStorage(req.Storage)
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if req.ParentID != nil {
			if err := s.entryRepo.LockOwner(txCtx, req.OwnerID); err != nil {
				return err
			}
			if err := s.rules.ValidateParent(txCtx, req.OwnerID, *req.ParentID); err != nil {
				return err
			}
		}
		return s.entryRepo.Create(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.fillLocation(ctx, entry)

	s.logger.Info("entry created",
		"id", entry.ID,
		"owner_id", entry.OwnerID,
		"name", entry.Name,
		"is_folder", entry.IsFolder,
		"parent_id", entry.ParentID,
	)

	return entry, nil
}

// GetEntry retrieves an entry with its computed location.
// Authorization is checked first via the injected authorizer.
func (s *entryService) GetEntry(ctx context.Context, ownerID, entryID string) (*models.Entry, error) {
	if err := checkID(entryID); err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessEntry(ctx, ownerID, entryID); err != nil {
		return nil, err
	}

	entry, err := s.entryRepo.GetByID(ctx, entryID, ownerID)
	if err != nil {
		return nil, err
	}

	s.fillLocation(ctx, entry)
	return entry, nil
}

// GetChildren lists the children of an owned folder. A file ID, or a folder
// owned by someone else, is reported as not found.
func (s *entryService) GetChildren(ctx context.Context, ownerID, folderID string) ([]models.Entry, error) {
	if err := checkID(folderID); err != nil {
		return nil, err
	}

	folder, err := s.entryRepo.GetByID(ctx, folderID, ownerID)
	if err != nil {
		return nil, err
	}
	if !folder.IsFolder {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("folder %s not found", folderID)}
	}

	return s.entryRepo.ListChildren(ctx, &folder.ID, ownerID)
}

// GetRoot lists the owner's top-level entries
func (s *entryService) GetRoot(ctx context.Context, ownerID string) ([]models.Entry, error) {
	return s.entryRepo.ListChildren(ctx, nil, ownerID)
}

// ListStarred lists starred entries that are not in the trash
func (s *entryService) ListStarred(ctx context.Context, ownerID string) ([]models.Entry, error) {
	return s.entryRepo.ListStarred(ctx, ownerID)
}

// ListTrash lists trashed entries, most recent first
func (s *entryService) ListTrash(ctx context.Context, ownerID string) ([]models.Entry, error) {
	return s.entryRepo.ListTrashed(ctx, ownerID)
}

// Breadcrumbs returns the chain from the root down to the entry
func (s *entryService) Breadcrumbs(ctx context.Context, ownerID, entryID string) ([]models.Breadcrumb, error) {
	if err := checkID(entryID); err != nil {
		return nil, err
	}
	if err := s.authorizer.CanAccessEntry(ctx, ownerID, entryID); err != nil {
		return nil, err
	}
	return s.entryRepo.GetAncestors(ctx, entryID, ownerID)
}

// UpdateEntry renames and/or moves an entry in one transaction
func (s *entryService) UpdateEntry(ctx context.Context, ownerID, entryID string, req *driveSvc.UpdateEntryRequest) (*models.Entry, error) {
	if err := checkID(entryID); err != nil {
		return nil, err
	}
	if err := validateUpdateRequest(req); err != nil {
		return nil, err
	}

	var entry *models.Entry
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		if req.Name != nil {
			if entry, err = s.rules.Rename(txCtx, ownerID, entryID, *req.Name); err != nil {
				return err
			}
		}
		// Tri-state: only move if parent_id was present in the request
		if req.ParentID.Present {
			if entry, err = s.rules.Reparent(txCtx, ownerID, entryID, req.ParentID.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.fillLocation(ctx, entry)
	return entry, nil
}

// fillLocation computes the display path of the entry's ancestors,
// e.g. "Photos/2024". Root entries have an empty location.
func (s *entryService) fillLocation(ctx context.Context, entry *models.Entry) {
	if entry.ParentID == nil {
		entry.Location = ""
		return
	}

	crumbs, err := s.entryRepo.GetAncestors(ctx, entry.ID, entry.OwnerID)
	if err != nil {
		s.logger.Warn("failed to compute location", "entry_id", entry.ID, "error", err)
		return
	}

	names := make([]string, 0, len(crumbs))
	for _, c := range crumbs[:len(crumbs)-1] {
		names = append(names, c.Name)
	}
	entry.Location = strings.Join(names, "/")
}
