package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"droply/internal/config"
	"droply/internal/domain"
	models "droply/internal/domain/models/drive"
	"droply/internal/domain/repositories"
	driveRepo "droply/internal/domain/repositories/drive"
	driveSvc "droply/internal/domain/services/drive"
	serviceAuth "droply/internal/service/auth"

	"github.com/google/uuid"
)

// memEntryRepo is an in-memory EntryRepository with the same owner scoping
// and error behavior as the postgres implementation. Owner locks block like
// advisory locks; row locks are only recorded.
type memEntryRepo struct {
	mu      sync.Mutex
	entries map[string]models.Entry
	owners  map[string]*sync.Mutex
	locks   []lockCall

	failCreate error // returned by Create when set
}

// lockCall records one lock request: kind is "owner", "update" or "share"
type lockCall struct {
	kind string
	key  string
	inTx bool
}

var _ driveRepo.EntryRepository = (*memEntryRepo)(nil)

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{
		entries: map[string]models.Entry{},
		owners:  map[string]*sync.Mutex{},
	}
}

func notFound(id string) error {
	return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
}

func (r *memEntryRepo) Create(ctx context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreate != nil {
		return r.failCreate
	}
	entry.ID = uuid.NewString()
	r.remember(ctx, entry.ID)
	r.entries[entry.ID] = *entry
	return nil
}

func (r *memEntryRepo) GetByID(_ context.Context, id, ownerID string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return nil, notFound(id)
	}
	return &e, nil
}

func (r *memEntryRepo) GetByIDForUpdate(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	r.record(ctx, "update", id)
	return r.GetByID(ctx, id, ownerID)
}

func (r *memEntryRepo) GetByIDForShare(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	r.record(ctx, "share", id)
	return r.GetByID(ctx, id, ownerID)
}

// LockOwner holds a per-owner mutex until the transaction in ctx ends.
// Re-locking inside the same transaction is a no-op, like a stacked
// advisory lock.
func (r *memEntryRepo) LockOwner(ctx context.Context, ownerID string) error {
	r.record(ctx, "owner", ownerID)

	tx := txFrom(ctx)
	if tx == nil || tx.holds[ownerID] {
		return nil
	}

	r.mu.Lock()
	mu, ok := r.owners[ownerID]
	if !ok {
		mu = &sync.Mutex{}
		r.owners[ownerID] = mu
	}
	r.mu.Unlock()

	mu.Lock()
	tx.holds[ownerID] = true
	tx.release = append(tx.release, mu.Unlock)
	return nil
}

func (r *memEntryRepo) GetByIDOnly(_ context.Context, id string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, notFound(id)
	}
	return &e, nil
}

func (r *memEntryRepo) Update(ctx context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.entries[entry.ID]
	if !ok || stored.OwnerID != entry.OwnerID {
		return notFound(entry.ID)
	}
	r.remember(ctx, entry.ID)
	stored.ParentID = entry.ParentID
	stored.Name = entry.Name
	stored.IsStarred = entry.IsStarred
	stored.IsTrashed = entry.IsTrashed
	stored.TrashedAt = entry.TrashedAt
	stored.UpdatedAt = entry.UpdatedAt
	r.entries[entry.ID] = stored
	return nil
}

func (r *memEntryRepo) Delete(ctx context.Context, id, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return notFound(id)
	}
	r.remember(ctx, id)
	delete(r.entries, id)
	return nil
}

func (r *memEntryRepo) ListChildren(_ context.Context, parentID *string, ownerID string) ([]models.Entry, error) {
	return r.filter(ownerID, func(e models.Entry) bool {
		if e.IsTrashed {
			return false
		}
		if parentID == nil {
			return e.ParentID == nil
		}
		return e.ParentID != nil && *e.ParentID == *parentID
	}), nil
}

func (r *memEntryRepo) ListStarred(_ context.Context, ownerID string) ([]models.Entry, error) {
	return r.filter(ownerID, func(e models.Entry) bool { return e.IsStarred && !e.IsTrashed }), nil
}

func (r *memEntryRepo) ListTrashed(_ context.Context, ownerID string) ([]models.Entry, error) {
	return r.filter(ownerID, func(e models.Entry) bool { return e.IsTrashed }), nil
}

func (r *memEntryRepo) ListAll(_ context.Context, ownerID string) ([]models.Entry, error) {
	return r.filter(ownerID, func(models.Entry) bool { return true }), nil
}

func (r *memEntryRepo) GetAncestors(_ context.Context, id, ownerID string) ([]models.Breadcrumb, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var chain []models.Breadcrumb
	currentID := id
	for depth := 0; depth <= config.MaxTreeDepth; depth++ {
		e, ok := r.entries[currentID]
		if !ok || e.OwnerID != ownerID {
			break
		}
		chain = append([]models.Breadcrumb{{ID: e.ID, Name: e.Name}}, chain...)
		if e.ParentID == nil {
			break
		}
		currentID = *e.ParentID
	}
	if len(chain) == 0 {
		return nil, notFound(id)
	}
	return chain, nil
}

// SubtreeHeight walks the descendants level by level, trashed ones included
func (r *memEntryRepo) SubtreeHeight(_ context.Context, id, ownerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; !ok || e.OwnerID != ownerID {
		return 0, notFound(id)
	}

	height := 0
	seen := map[string]bool{id: true}
	level := []string{id}
	for height < config.MaxTreeDepth {
		var next []string
		for _, e := range r.entries {
			if e.OwnerID != ownerID || e.ParentID == nil || seen[e.ID] {
				continue
			}
			if slices.Contains(level, *e.ParentID) {
				seen[e.ID] = true
				next = append(next, e.ID)
			}
		}
		if len(next) == 0 {
			break
		}
		height++
		level = next
	}
	return height, nil
}

// filter returns matching entries, folders first then by name
func (r *memEntryRepo) filter(ownerID string, keep func(models.Entry) bool) []models.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Entry{}
	for _, e := range r.entries {
		if e.OwnerID == ownerID && keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFolder != out[j].IsFolder {
			return out[i].IsFolder
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// remember logs the row's current state in the transaction's undo log.
// Callers hold r.mu.
func (r *memEntryRepo) remember(ctx context.Context, id string) {
	tx := txFrom(ctx)
	if tx == nil {
		return
	}
	var prev *models.Entry
	if e, ok := r.entries[id]; ok {
		prev = &e
	}
	tx.undo = append(tx.undo, undoStep{id: id, prev: prev})
}

// rollback replays an undo log newest first
func (r *memEntryRepo) rollback(undo []undoStep) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(undo) - 1; i >= 0; i-- {
		step := undo[i]
		if step.prev == nil {
			delete(r.entries, step.id)
			continue
		}
		r.entries[step.id] = *step.prev
	}
}

func (r *memEntryRepo) record(ctx context.Context, kind, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, lockCall{kind: kind, key: key, inTx: txFrom(ctx) != nil})
}

// lockCalls returns the lock requests made since the last resetLocks
func (r *memEntryRepo) lockCalls() []lockCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.locks)
}

func (r *memEntryRepo) resetLocks() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = nil
}

// count returns how many rows exist
func (r *memEntryRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

type memTxKey struct{}

// memTx is the per-transaction state carried in the context
type memTx struct {
	undo    []undoStep
	holds   map[string]bool
	release []func()
}

type undoStep struct {
	id   string
	prev *models.Entry // nil when the row did not exist
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

// memTxManager rolls the in-memory repository back when fn fails and
// releases owner locks when the transaction ends. Nested calls join the
// outer transaction.
type memTxManager struct {
	repo *memEntryRepo
}

var _ repositories.TransactionManager = (*memTxManager)(nil)

func (m *memTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx := &memTx{holds: map[string]bool{}}
	err := fn(context.WithValue(ctx, memTxKey{}, tx))
	if err != nil {
		m.repo.rollback(tx.undo)
	}
	for _, release := range tx.release {
		release()
	}
	return err
}

// memObjectStore records puts and deletes
type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	failPut    error
	failDelete error
}

var _ driveSvc.ObjectStore = (*memObjectStore)(nil)

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}}
}

func (s *memObjectStore) Put(_ context.Context, obj *driveSvc.PutObjectInput) (*models.StorageMetadata, error) {
	if s.failPut != nil {
		return nil, s.failPut
	}
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Key] = data
	return &models.StorageMetadata{
		Path:       obj.Key,
		StorageURL: "https://cdn.test/" + obj.Key,
		Size:       int64(len(data)),
		MimeType:   obj.ContentType,
	}, nil
}

func (s *memObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleted = append(s.deleted, key)
	if s.failDelete != nil {
		return s.failDelete
	}
	delete(s.objects, key)
	return nil
}

func (s *memObjectStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// testEnv wires every drive service over the in-memory fakes
type testEnv struct {
	repo      *memEntryRepo
	tx        *memTxManager
	store     *memObjectStore
	rules     driveSvc.TreeRules
	entries   driveSvc.EntryService
	lifecycle driveSvc.LifecycleService
	tree      driveSvc.TreeService
}

const (
	alice = "user_alice"
	bob   = "user_bob"
)

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemEntryRepo()
	tx := &memTxManager{repo: repo}
	store := newMemObjectStore()
	authorizer := serviceAuth.NewOwnerBasedAuthorizer(repo)
	rules := NewTreeRules(repo, tx, logger)

	return &testEnv{
		repo:      repo,
		tx:        tx,
		store:     store,
		rules:     rules,
		entries:   NewEntryService(repo, rules, tx, authorizer, logger),
		lifecycle: NewLifecycleService(repo, tx, store, logger),
		tree:      NewTreeService(repo, logger),
	}
}

func (e *testEnv) folder(ownerID, name string, parentID *string) *models.Entry {
	entry, err := e.entries.CreateEntry(context.Background(), &driveSvc.CreateEntryRequest{
		OwnerID:  ownerID,
		Name:     name,
		IsFolder: true,
		ParentID: parentID,
	})
	if err != nil {
		panic(fmt.Sprintf("create folder %q: %v", name, err))
	}
	return entry
}

func (e *testEnv) file(ownerID, name string, parentID *string) *models.Entry {
	key := "droply/" + ownerID + "/" + strings.ReplaceAll(name, " ", "_")
	entry, err := e.entries.CreateEntry(context.Background(), &driveSvc.CreateEntryRequest{
		OwnerID:  ownerID,
		Name:     name,
		IsFolder: false,
		ParentID: parentID,
		Storage: &models.StorageMetadata{
			Path:       key,
			StorageURL: "https://cdn.test/" + key,
			Size:       42,
			MimeType:   "text/plain",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("create file %q: %v", name, err))
	}
	return entry
}

// exists reports whether a row with id is stored, regardless of owner
func (e *testEnv) exists(id string) bool {
	_, err := e.repo.GetByIDOnly(context.Background(), id)
	return !errors.Is(err, domain.ErrNotFound)
}

func ptr[T any](v T) *T { return &v }

// sleepTick makes successive updated_at values distinguishable
func sleepTick() { time.Sleep(2 * time.Millisecond) }
