package auth

import (
	"context"
	"errors"
	"fmt"

	"droply/internal/domain"
	driveRepo "droply/internal/domain/repositories/drive"
)

// OwnerBasedAuthorizer implements ResourceAuthorizer using ownership checks.
// A user can access an entry only if they created it.
type OwnerBasedAuthorizer struct {
	entryRepo driveRepo.EntryRepository
}

// NewOwnerBasedAuthorizer creates a new ownership-based authorizer
func NewOwnerBasedAuthorizer(entryRepo driveRepo.EntryRepository) *OwnerBasedAuthorizer {
	return &OwnerBasedAuthorizer{entryRepo: entryRepo}
}

// CanAccessEntry checks if user owns the entry. Someone else's entry is
// reported exactly like a missing one.
func (a *OwnerBasedAuthorizer) CanAccessEntry(ctx context.Context, userID, entryID string) error {
	if userID == "" {
		return &domain.UnauthorizedError{Message: "missing user identity"}
	}

	// Get entry by UUID only (no owner scoping)
	entry, err := a.entryRepo.GetByIDOnly(ctx, entryID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.NotFoundError{Message: fmt.Sprintf("entry %s not found", entryID)}
		}
		return fmt.Errorf("get entry for auth: %w", err)
	}

	if entry.OwnerID != userID {
		return &domain.NotFoundError{Message: fmt.Sprintf("entry %s not found", entryID)}
	}
	return nil
}

// CheckClaimedOwner compares a client-supplied owner ID with the
// authenticated user
func (a *OwnerBasedAuthorizer) CheckClaimedOwner(userID, claimedOwnerID string) error {
	if userID == "" {
		return &domain.UnauthorizedError{Message: "missing user identity"}
	}
	if claimedOwnerID != userID {
		return &domain.UnauthorizedError{Message: "owner_id does not match the authenticated user"}
	}
	return nil
}
