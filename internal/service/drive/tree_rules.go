package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"droply/internal/config"
	"droply/internal/domain"
	models "droply/internal/domain/models/drive"
	"droply/internal/domain/repositories"
	driveRepo "droply/internal/domain/repositories/drive"
	driveSvc "droply/internal/domain/services/drive"
)

type treeRules struct {
	entryRepo driveRepo.EntryRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewTreeRules creates the structural rule checker used before any write
func NewTreeRules(
	entryRepo driveRepo.EntryRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) driveSvc.TreeRules {
	return &treeRules{
		entryRepo: entryRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// ValidateParent ensures parentID is an existing folder owned by ownerID that
// can take another level of nesting. Inside a transaction the parent row stays
// share-locked until commit, so a purge of the parent either commits first and
// this check fails, or waits and then sees the new child.
func (r *treeRules) ValidateParent(ctx context.Context, ownerID, parentID string) error {
	chain, err := r.lockParent(ctx, ownerID, parentID)
	if err != nil {
		return err
	}
	return checkDepth(len(chain), 0)
}

// Reparent moves an entry under newParentID, or to the root when it is nil.
// Moves of one owner serialize on the owner lock, so each cycle check sees
// every move committed before it. Two opposite moves (A into B, B into A)
// cannot both pass.
func (r *treeRules) Reparent(ctx context.Context, ownerID, entryID string, newParentID *string) (*models.Entry, error) {
	if err := checkID(entryID); err != nil {
		return nil, err
	}
	newParentID = normalizeParentID(newParentID)

	var entry *models.Entry
	err := r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := r.entryRepo.LockOwner(txCtx, ownerID); err != nil {
			return err
		}

		var err error
		entry, err = r.entryRepo.GetByIDForUpdate(txCtx, entryID, ownerID)
		if err != nil {
			return err
		}

		if newParentID != nil {
			if err := r.validateMove(txCtx, ownerID, entryID, *newParentID); err != nil {
				return err
			}
		}

		entry.ParentID = newParentID
		entry.UpdatedAt = time.Now()
		return r.entryRepo.Update(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("entry moved",
		"id", entry.ID,
		"owner_id", ownerID,
		"parent_id", entry.ParentID,
	)

	return entry, nil
}

// Rename changes the name of an owned entry
func (r *treeRules) Rename(ctx context.Context, ownerID, entryID, name string) (*models.Entry, error) {
	if err := checkID(entryID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}

	var entry *models.Entry
	err := r.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		entry, err = r.entryRepo.GetByIDForUpdate(txCtx, entryID, ownerID)
		if err != nil {
			return err
		}

		entry.Name = name
		entry.UpdatedAt = time.Now()
		return r.entryRepo.Update(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("entry renamed", "id", entry.ID, "owner_id", ownerID, "name", entry.Name)

	return entry, nil
}

// validateMove checks that entryID can hang under newParentID: the parent is
// a folder outside the entry's subtree, and the deepest descendant still fits
// under MaxTreeDepth afterwards.
func (r *treeRules) validateMove(ctx context.Context, ownerID, entryID, newParentID string) error {
	cycle := &domain.CycleError{EntryID: entryID, NewParentID: newParentID}
	if newParentID == entryID {
		return cycle
	}

	chain, err := r.lockParent(ctx, ownerID, newParentID)
	if err != nil {
		if errors.Is(err, domain.ErrCycle) {
			return cycle
		}
		return err
	}
	if slices.Contains(chain, entryID) {
		return cycle
	}

	height, err := r.entryRepo.SubtreeHeight(ctx, entryID, ownerID)
	if err != nil {
		return fmt.Errorf("measure subtree: %w", err)
	}
	return checkDepth(len(chain), height)
}

// lockParent share-locks the parent folder and returns its ID followed by the
// IDs of its ancestors, nearest first.
func (r *treeRules) lockParent(ctx context.Context, ownerID, parentID string) ([]string, error) {
	if checkID(parentID) != nil {
		return nil, &domain.InvalidParentError{ParentID: parentID, Problem: domain.ParentMissing}
	}

	parent, err := r.entryRepo.GetByIDForShare(ctx, parentID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.InvalidParentError{ParentID: parentID, Problem: domain.ParentMissing}
		}
		return nil, fmt.Errorf("validate parent: %w", err)
	}

	if !parent.IsFolder {
		return nil, &domain.InvalidParentError{ParentID: parentID, Problem: domain.ParentNotFolder}
	}

	return r.ancestorChain(ctx, ownerID, parent)
}

// ancestorChain walks parent links from the given entry towards the root. A
// purged ancestor ends the walk like the root does. The walk stops once the
// chain is longer than MaxTreeDepth, which is already too deep for any write.
// An ID seen twice means the stored links loop.
func (r *treeRules) ancestorChain(ctx context.Context, ownerID string, from *models.Entry) ([]string, error) {
	chain := []string{from.ID}
	seen := map[string]bool{from.ID: true}

	current := from
	for current.ParentID != nil && len(chain) <= config.MaxTreeDepth {
		nextID := *current.ParentID
		if seen[nextID] {
			r.logger.Warn("ancestor links loop",
				"entry_id", from.ID,
				"repeated_id", nextID,
			)
			return nil, fmt.Errorf("ancestors of %s revisit %s: %w", from.ID, nextID, domain.ErrCycle)
		}

		next, err := r.entryRepo.GetByID(ctx, nextID, ownerID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				break
			}
			return nil, fmt.Errorf("walk ancestors: %w", err)
		}

		seen[nextID] = true
		chain = append(chain, nextID)
		current = next
	}

	return chain, nil
}

// checkDepth rejects a write that would put an entry at depth MaxTreeDepth or
// below. parentLevels counts the new parent and its ancestors; height is how
// far the moved subtree reaches below its top entry.
func checkDepth(parentLevels, height int) error {
	if parentLevels+height >= config.MaxTreeDepth {
		return &domain.ValidationError{
			Message: fmt.Sprintf("parent_id: folders cannot be nested more than %d levels deep", config.MaxTreeDepth),
		}
	}
	return nil
}
