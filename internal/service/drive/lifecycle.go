package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"droply/internal/domain"
	models "droply/internal/domain/models/drive"
	"droply/internal/domain/repositories"
	driveRepo "droply/internal/domain/repositories/drive"
	driveSvc "droply/internal/domain/services/drive"
)

type lifecycleService struct {
	entryRepo driveRepo.EntryRepository
	txManager repositories.TransactionManager
	store     driveSvc.ObjectStore
	logger    *slog.Logger
}

// NewLifecycleService creates the star/trash/purge service
func NewLifecycleService(
	entryRepo driveRepo.EntryRepository,
	txManager repositories.TransactionManager,
	store driveSvc.ObjectStore,
	logger *slog.Logger,
) driveSvc.LifecycleService {
	return &lifecycleService{
		entryRepo: entryRepo,
		txManager: txManager,
		store:     store,
		logger:    logger,
	}
}

// SetStarred sets the starred flag. Setting the current value again only
// refreshes updated_at.
func (s *lifecycleService) SetStarred(ctx context.Context, ownerID, entryID string, value bool) (*models.Entry, error) {
	if err := checkID(entryID); err != nil {
		return nil, err
	}

	var entry *models.Entry
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		entry, err = s.entryRepo.GetByIDForUpdate(txCtx, entryID, ownerID)
		if err != nil {
			return err
		}

		entry.IsStarred = value
		entry.UpdatedAt = time.Now()
		return s.entryRepo.Update(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("entry starred", "id", entry.ID, "owner_id", ownerID, "value", value)

	return entry, nil
}

// SetTrashed moves an entry to or from the trash. Only the entry's own flag
// changes; descendants keep theirs. Restoring requires the original parent
// row to still exist; the entry is never promoted to the root on its own.
func (s *lifecycleService) SetTrashed(ctx context.Context, ownerID, entryID string, value bool) (*models.Entry, error) {
	if err := checkID(entryID); err != nil {
		return nil, err
	}

	var entry *models.Entry
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if !value {
			if err := s.entryRepo.LockOwner(txCtx, ownerID); err != nil {
				return err
			}
		}

		var err error
		entry, err = s.entryRepo.GetByIDForUpdate(txCtx, entryID, ownerID)
		if err != nil {
			return err
		}

		now := time.Now()
		switch {
		case value && !entry.IsTrashed:
			entry.IsTrashed = true
			entry.TrashedAt = &now
		case !value && entry.IsTrashed:
			if err := s.checkRestorable(txCtx, entry); err != nil {
				return err
			}
			entry.IsTrashed = false
			entry.TrashedAt = nil
		}

		entry.UpdatedAt = now
		return s.entryRepo.Update(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("entry trash flag set", "id", entry.ID, "owner_id", ownerID, "value", value)

	return entry, nil
}

// checkRestorable fails with DanglingParentError when the parent was purged.
// The parent stays share-locked until commit so a purge cannot slip in
// between the check and the restore.
func (s *lifecycleService) checkRestorable(ctx context.Context, entry *models.Entry) error {
	if entry.ParentID == nil {
		return nil
	}

	_, err := s.entryRepo.GetByIDForShare(ctx, *entry.ParentID, entry.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.DanglingParentError{EntryID: entry.ID, ParentID: *entry.ParentID}
		}
		return fmt.Errorf("check parent for restore: %w", err)
	}
	return nil
}

// Purge permanently deletes an entry and its non-trashed descendants.
// Trashed descendants stay in the trash with a dangling parent. Storage
// objects are released only after the metadata commit. The owner lock orders
// the purge against creates, moves and restores in the same tree.
func (s *lifecycleService) Purge(ctx context.Context, ownerID, entryID string) (*driveSvc.PurgeResult, error) {
	if err := checkID(entryID); err != nil {
		return nil, err
	}

	result := &driveSvc.PurgeResult{PurgedIDs: []string{}}
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.entryRepo.LockOwner(txCtx, ownerID); err != nil {
			return err
		}

		entry, err := s.entryRepo.GetByIDForUpdate(txCtx, entryID, ownerID)
		if err != nil {
			return err
		}
		return s.purgeTree(txCtx, entry, map[string]bool{}, result)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("entry purged",
		"id", entryID,
		"owner_id", ownerID,
		"purged_count", len(result.PurgedIDs),
	)

	s.emitDeletionIntents(ctx, result.Intents)
	return result, nil
}

// EmptyTrash purges every trashed entry of the owner in one transaction
func (s *lifecycleService) EmptyTrash(ctx context.Context, ownerID string) (*driveSvc.PurgeResult, error) {
	result := &driveSvc.PurgeResult{PurgedIDs: []string{}}
	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.entryRepo.LockOwner(txCtx, ownerID); err != nil {
			return err
		}

		trashed, err := s.entryRepo.ListTrashed(txCtx, ownerID)
		if err != nil {
			return err
		}

		seen := map[string]bool{}
		for i := range trashed {
			if seen[trashed[i].ID] {
				continue
			}
			if err := s.purgeTree(txCtx, &trashed[i], seen, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("trash emptied", "owner_id", ownerID, "purged_count", len(result.PurgedIDs))

	s.emitDeletionIntents(ctx, result.Intents)
	return result, nil
}

// purgeTree deletes root and its non-trashed descendants, children first.
// ListChildren already leaves trashed children out. seen guards against
// revisiting rows if the data contains a loop.
func (s *lifecycleService) purgeTree(ctx context.Context, root *models.Entry, seen map[string]bool, result *driveSvc.PurgeResult) error {
	seen[root.ID] = true

	if root.IsFolder {
		children, err := s.entryRepo.ListChildren(ctx, &root.ID, root.OwnerID)
		if err != nil {
			return fmt.Errorf("list children of %s: %w", root.ID, err)
		}
		for i := range children {
			child := &children[i]
			if seen[child.ID] {
				continue
			}
			if err := s.purgeTree(ctx, child, seen, result); err != nil {
				return err
			}
		}
	}

	if err := s.entryRepo.Delete(ctx, root.ID, root.OwnerID); err != nil {
		return fmt.Errorf("delete %s: %w", root.ID, err)
	}

	result.PurgedIDs = append(result.PurgedIDs, root.ID)
	if !root.IsFolder && root.Path != nil {
		result.Intents = append(result.Intents, driveSvc.DeletionIntent{
			EntryID: root.ID,
			OwnerID: root.OwnerID,
			Path:    *root.Path,
		})
	}

	s.logger.Debug("purged entry", "id", root.ID, "name", root.Name, "is_folder", root.IsFolder)
	return nil
}

// emitDeletionIntents hands each released object to the object store.
// Metadata is already committed, so failures are logged and not returned.
func (s *lifecycleService) emitDeletionIntents(ctx context.Context, intents []driveSvc.DeletionIntent) {
	for _, intent := range intents {
		if err := s.store.Delete(ctx, intent.Path); err != nil {
			s.logger.Error("failed to delete storage object",
				"entry_id", intent.EntryID,
				"owner_id", intent.OwnerID,
				"path", intent.Path,
				"error", err,
			)
			continue
		}
		s.logger.Debug("storage object deleted", "entry_id", intent.EntryID, "path", intent.Path)
	}
}
