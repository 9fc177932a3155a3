package drive

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"droply/internal/config"
	"droply/internal/domain"
	models "droply/internal/domain/models/drive"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParent(t *testing.T) {
	env := newTestEnv()
	folder := env.folder(alice, "Folder", nil)
	file := env.file(alice, "a.txt", nil)
	bobs := env.folder(bob, "Bob", nil)

	tests := []struct {
		name     string
		parentID string
		problem  domain.ParentProblem
		wantErr  bool
	}{
		{name: "owned folder", parentID: folder.ID},
		{name: "file", parentID: file.ID, problem: domain.ParentNotFolder, wantErr: true},
		{name: "other owner's folder", parentID: bobs.ID, problem: domain.ParentMissing, wantErr: true},
		{name: "unknown id", parentID: "0b8f6f2e-8e55-4d3e-9d0a-6d1f0c2b7a11", problem: domain.ParentMissing, wantErr: true},
		{name: "malformed id", parentID: "../etc", problem: domain.ParentMissing, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.rules.ValidateParent(context.Background(), alice, tt.parentID)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var invalid *domain.InvalidParentError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.problem, invalid.Problem)
			assert.Equal(t, tt.parentID, invalid.ParentID)
		})
	}
}

func TestReparent_MovesEntry(t *testing.T) {
	env := newTestEnv()
	a := env.folder(alice, "A", nil)
	b := env.folder(alice, "B", nil)
	before, err := env.repo.GetByID(context.Background(), a.ID, alice)
	require.NoError(t, err)
	sleepTick()

	moved, err := env.rules.Reparent(context.Background(), alice, a.ID, &b.ID)
	require.NoError(t, err)

	assert.Equal(t, b.ID, *moved.ParentID)
	assert.True(t, moved.UpdatedAt.After(before.UpdatedAt))

	children, err := env.entries.GetChildren(context.Background(), alice, b.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, a.ID, children[0].ID)
}

func TestReparent_ToRoot(t *testing.T) {
	env := newTestEnv()
	a := env.folder(alice, "A", nil)
	b := env.folder(alice, "B", &a.ID)

	moved, err := env.rules.Reparent(context.Background(), alice, b.ID, nil)

	require.NoError(t, err)
	assert.True(t, moved.IsRoot())
}

func TestReparent_IntoItself(t *testing.T) {
	env := newTestEnv()
	a := env.folder(alice, "A", nil)

	_, err := env.rules.Reparent(context.Background(), alice, a.ID, &a.ID)

	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, a.ID, cycle.EntryID)
}

func TestReparent_IntoDescendant(t *testing.T) {
	env := newTestEnv()
	a := env.folder(alice, "A", nil)
	b := env.folder(alice, "B", &a.ID)
	c := env.folder(alice, "C", &b.ID)

	_, err := env.rules.Reparent(context.Background(), alice, a.ID, &c.ID)

	assert.ErrorIs(t, err, domain.ErrCycle)

	// Nothing moved
	stored, err := env.repo.GetByID(context.Background(), a.ID, alice)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)
}

func TestReparent_IntoFile(t *testing.T) {
	env := newTestEnv()
	a := env.folder(alice, "A", nil)
	f := env.file(alice, "f.txt", nil)

	_, err := env.rules.Reparent(context.Background(), alice, a.ID, &f.ID)

	assert.ErrorIs(t, err, domain.ErrInvalidParent)
}

func TestReparent_SiblingSubtreeIsAllowed(t *testing.T) {
	env := newTestEnv()
	root := env.folder(alice, "Root", nil)
	left := env.folder(alice, "Left", &root.ID)
	right := env.folder(alice, "Right", &root.ID)
	deep := env.folder(alice, "Deep", &right.ID)

	moved, err := env.rules.Reparent(context.Background(), alice, left.ID, &deep.ID)

	require.NoError(t, err)
	assert.Equal(t, deep.ID, *moved.ParentID)
}

func TestReparent_OtherOwner(t *testing.T) {
	env := newTestEnv()
	mine := env.folder(alice, "Mine", nil)
	target := env.folder(bob, "Target", nil)
	theirs := env.folder(bob, "Theirs", nil)

	t.Run("entry owned by someone else", func(t *testing.T) {
		_, err := env.rules.Reparent(context.Background(), bob, mine.ID, &target.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("parent owned by someone else", func(t *testing.T) {
		_, err := env.rules.Reparent(context.Background(), alice, mine.ID, &theirs.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidParent)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestReparent_NeverCreatesCycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Build a small forest and try every ordered pair of folders
	a := env.folder(alice, "A", nil)
	b := env.folder(alice, "B", &a.ID)
	c := env.folder(alice, "C", &b.ID)
	d := env.folder(alice, "D", nil)
	e := env.folder(alice, "E", &d.ID)
	folders := []*models.Entry{a, b, c, d, e}

	for _, x := range folders {
		for _, p := range folders {
			_, _ = env.rules.Reparent(ctx, alice, x.ID, &p.ID)
			assertAcyclic(t, env, alice)
		}
	}
}

// assertAcyclic walks from every entry to the root and fails on a loop
func assertAcyclic(t *testing.T, env *testEnv, ownerID string) {
	t.Helper()

	all, err := env.repo.ListAll(context.Background(), ownerID)
	require.NoError(t, err)

	byID := make(map[string]models.Entry, len(all))
	for _, e := range all {
		byID[e.ID] = e
	}

	for _, start := range all {
		seen := map[string]bool{}
		current := start
		for current.ParentID != nil {
			require.False(t, seen[current.ID], "cycle through %s", current.Name)
			seen[current.ID] = true
			parent, ok := byID[*current.ParentID]
			if !ok {
				break
			}
			current = parent
		}
	}
}

func TestReparent_CorruptLoopIsCycle(t *testing.T) {
	env := newTestEnv()
	a := env.folder(alice, "A", nil)
	b := env.folder(alice, "B", nil)
	target := env.folder(alice, "Target", nil)

	// Force a loop A <-> B directly in storage
	env.repo.mu.Lock()
	ea := env.repo.entries[a.ID]
	ea.ParentID = &b.ID
	env.repo.entries[a.ID] = ea
	eb := env.repo.entries[b.ID]
	eb.ParentID = &a.ID
	env.repo.entries[b.ID] = eb
	env.repo.mu.Unlock()

	_, err := env.rules.Reparent(context.Background(), alice, target.ID, &a.ID)

	assert.ErrorIs(t, err, domain.ErrCycle)
	stored, err := env.repo.GetByID(context.Background(), target.ID, alice)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)
}

func TestReparent_LocksOwnerThenEntryThenParent(t *testing.T) {
	env := newTestEnv()
	a := env.folder(alice, "A", nil)
	b := env.folder(alice, "B", nil)
	env.repo.resetLocks()

	_, err := env.rules.Reparent(context.Background(), alice, a.ID, &b.ID)
	require.NoError(t, err)

	assert.Equal(t, []lockCall{
		{kind: "owner", key: alice, inTx: true},
		{kind: "update", key: a.ID, inTx: true},
		{kind: "share", key: b.ID, inTx: true},
	}, env.repo.lockCalls())
}

// Scenario: two clients move A into B and B into A at the same time.
func TestReparent_ConcurrentOppositeMovesNeverCreateCycle(t *testing.T) {
	for i := 0; i < 50; i++ {
		env := newTestEnv()
		ctx := context.Background()
		a := env.folder(alice, "A", nil)
		b := env.folder(alice, "B", nil)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = env.rules.Reparent(ctx, alice, a.ID, &b.ID)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = env.rules.Reparent(ctx, alice, b.ID, &a.ID)
		}()
		wg.Wait()

		assertAcyclic(t, env, alice)
		failed := 0
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrCycle)
				failed++
			}
		}
		assert.Equal(t, 1, failed, "exactly one of the opposite moves must lose")
	}
}

// chain creates n nested folders under the root and returns them, outermost first
func (e *testEnv) chain(ownerID string, n int) []*models.Entry {
	folders := make([]*models.Entry, 0, n)
	var parentID *string
	for i := 0; i < n; i++ {
		f := e.folder(ownerID, fmt.Sprintf("level-%d", i), parentID)
		folders = append(folders, f)
		parentID = &f.ID
	}
	return folders
}

func TestReparent_UnderDeepFolderIsNotACycle(t *testing.T) {
	env := newTestEnv()
	levels := env.chain(alice, config.MaxTreeDepth-1)
	deepest := levels[len(levels)-1]
	other := env.folder(alice, "Other", nil)

	moved, err := env.rules.Reparent(context.Background(), alice, other.ID, ptr(deepest.ID))

	require.NoError(t, err)
	assert.Equal(t, deepest.ID, *moved.ParentID)
}

func TestReparent_SubtreeBeyondMaxDepthIsRejected(t *testing.T) {
	env := newTestEnv()
	levels := env.chain(alice, config.MaxTreeDepth-1)
	deepest := levels[len(levels)-1]
	other := env.folder(alice, "Other", nil)
	inner := env.folder(alice, "Inner", &other.ID)
	_, err := env.lifecycle.SetTrashed(context.Background(), alice, inner.ID, true)
	require.NoError(t, err)

	// The trashed child still counts: restoring it later must not exceed the limit
	_, err = env.rules.Reparent(context.Background(), alice, other.ID, ptr(deepest.ID))

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrCycle)
	stored, err := env.repo.GetByID(context.Background(), other.ID, alice)
	require.NoError(t, err)
	assert.Nil(t, stored.ParentID)
}

func TestValidateParent_DepthLimit(t *testing.T) {
	env := newTestEnv()
	levels := env.chain(alice, config.MaxTreeDepth)

	err := env.rules.ValidateParent(context.Background(), alice, levels[len(levels)-2].ID)
	assert.NoError(t, err)

	err = env.rules.ValidateParent(context.Background(), alice, levels[len(levels)-1].ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRename(t *testing.T) {
	env := newTestEnv()
	file := env.file(alice, "a.txt", nil)

	renamed, err := env.rules.Rename(context.Background(), alice, file.ID, " b.txt ")
	require.NoError(t, err)
	assert.Equal(t, "b.txt", renamed.Name)

	_, err = env.rules.Rename(context.Background(), alice, file.ID, "bad/name")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.rules.Rename(context.Background(), bob, file.ID, "stolen.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
