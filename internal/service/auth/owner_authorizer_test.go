package auth

import (
	"context"
	"errors"
	"testing"

	"droply/internal/domain"
	"droply/internal/domain/models/drive"
	driveRepo "droply/internal/domain/repositories/drive"

	"github.com/stretchr/testify/assert"
)

// stubEntryRepo only answers GetByIDOnly; other methods panic if called
type stubEntryRepo struct {
	driveRepo.EntryRepository
	entries map[string]*drive.Entry
	err     error
}

func (s *stubEntryRepo) GetByIDOnly(_ context.Context, id string) (*drive.Entry, error) {
	if s.err != nil {
		return nil, s.err
	}
	e, ok := s.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func TestCanAccessEntry(t *testing.T) {
	repo := &stubEntryRepo{entries: map[string]*drive.Entry{
		"e1": {ID: "e1", OwnerID: "user_alice"},
	}}
	authorizer := NewOwnerBasedAuthorizer(repo)
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  string
		entryID string
		wantErr error
	}{
		{"owner", "user_alice", "e1", nil},
		{"other user sees not found", "user_bob", "e1", domain.ErrNotFound},
		{"missing entry", "user_alice", "e2", domain.ErrNotFound},
		{"no identity", "", "e1", domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authorizer.CanAccessEntry(ctx, tt.userID, tt.entryID)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCanAccessEntry_RepositoryFailure(t *testing.T) {
	authorizer := NewOwnerBasedAuthorizer(&stubEntryRepo{err: errors.New("connection refused")})

	err := authorizer.CanAccessEntry(context.Background(), "user_alice", "e1")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCheckClaimedOwner(t *testing.T) {
	authorizer := NewOwnerBasedAuthorizer(&stubEntryRepo{})

	assert.NoError(t, authorizer.CheckClaimedOwner("user_alice", "user_alice"))
	assert.ErrorIs(t, authorizer.CheckClaimedOwner("user_alice", "user_bob"), domain.ErrUnauthorized)
	assert.ErrorIs(t, authorizer.CheckClaimedOwner("user_alice", ""), domain.ErrUnauthorized)
	assert.ErrorIs(t, authorizer.CheckClaimedOwner("", ""), domain.ErrUnauthorized)
}
