package services

import "context"

// ResourceAuthorizer checks if a user can access resources.
// Current implementation: single-owner (the user who created the entry).
//
// Services call the authorizer before touching a resource by ID, which keeps
// "who may access" separate from "which resource".
type ResourceAuthorizer interface {
	// CanAccessEntry returns domain.ErrNotFound when the entry is missing or
	// owned by someone else, so existence is never revealed across users.
	CanAccessEntry(ctx context.Context, userID, entryID string) error

	// CheckClaimedOwner rejects a client-supplied owner ID that differs from
	// the authenticated user with domain.ErrUnauthorized.
	CheckClaimedOwner(userID, claimedOwnerID string) error
}
