package drive

import (
	"context"
	"fmt"
	"log/slog"

	"droply/internal/config"
	"droply/internal/domain"
	models "droply/internal/domain/models/drive"
	driveRepo "droply/internal/domain/repositories/drive"
	"droply/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `id, owner_id, parent_id, name, is_folder, path, storage_url, thumbnail_url,
	size, mime_type, is_starred, is_trashed, trashed_at, created_at, updated_at`

// PostgresEntryRepository implements the EntryRepository interface
type PostgresEntryRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(cfg *postgres.RepositoryConfig) driveRepo.EntryRepository {
	return &PostgresEntryRepository{
		pool:   cfg.Pool,
		tables: cfg.Tables,
		logger: cfg.Logger,
	}
}

// Create inserts a new entry. The database generates the ID.
func (r *PostgresEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, parent_id, name, is_folder, path, storage_url, thumbnail_url,
			size, mime_type, is_starred, is_trashed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, r.tables.Entries)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		entry.OwnerID,
		entry.ParentID,
		entry.Name,
		entry.IsFolder,
		entry.Path,
		entry.StorageURL,
		entry.ThumbnailURL,
		entry.Size,
		entry.MimeType,
		entry.IsStarred,
		entry.IsTrashed,
		entry.CreatedAt,
		entry.UpdatedAt,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)

	if err != nil {
		if postgres.IsPgCheckViolation(err) {
			return fmt.Errorf("entry %q violates storage metadata rules: %w", entry.Name, domain.ErrValidation)
		}
		return fmt.Errorf("create entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry owned by ownerID
func (r *PostgresEntryRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, entryColumns, r.tables.Entries)

	return r.getOne(ctx, id, query, id, ownerID)
}

// GetByIDForUpdate retrieves an owned entry and locks it for the rest of the
// surrounding transaction. Outside a transaction the lock is released at once.
func (r *PostgresEntryRepository) GetByIDForUpdate(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`, entryColumns, r.tables.Entries)

	return r.getOne(ctx, id, query, id, ownerID)
}

// GetByIDForShare retrieves an owned entry and share-locks it. A concurrent
// FOR UPDATE (purge, move) of the same row waits, and vice versa.
func (r *PostgresEntryRepository) GetByIDForShare(ctx context.Context, id, ownerID string) (*models.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
		FOR SHARE
	`, entryColumns, r.tables.Entries)

	return r.getOne(ctx, id, query, id, ownerID)
}

// LockOwner takes a transaction-scoped advisory lock keyed by table and
// owner. Two owners hashing to the same key only serialize needlessly.
func (r *PostgresEntryRepository) LockOwner(ctx context.Context, ownerID string) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, r.tables.Entries+":"+ownerID); err != nil {
		return fmt.Errorf("lock owner tree: %w", err)
	}
	return nil
}

// GetByIDOnly retrieves an entry by UUID only (no owner scoping)
// Use when authorization is handled separately (e.g., by ResourceAuthorizer)
func (r *PostgresEntryRepository) GetByIDOnly(ctx context.Context, id string) (*models.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, entryColumns, r.tables.Entries)

	return r.getOne(ctx, id, query, id)
}

// Update persists the mutable columns. owner_id and is_folder are never written.
func (r *PostgresEntryRepository) Update(ctx context.Context, entry *models.Entry) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, is_starred = $3, is_trashed = $4, trashed_at = $5, updated_at = $6
		WHERE id = $7 AND owner_id = $8
	`, r.tables.Entries)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		entry.ParentID,
		entry.Name,
		entry.IsStarred,
		entry.IsTrashed,
		entry.TrashedAt,
		entry.UpdatedAt,
		entry.ID,
		entry.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("entry %s: %w", entry.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete permanently removes an entry row. Children are not touched: the
// table has no foreign key on parent_id, so their reference is left dangling.
func (r *PostgresEntryRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND owner_id = $2
	`, r.tables.Entries)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, ownerID)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("delete entry: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListChildren lists immediate children outside the trash, folders first
// then by name
func (r *PostgresEntryRepository) ListChildren(ctx context.Context, parentID *string, ownerID string) ([]models.Entry, error) {
	var query string
	var args []any

	if parentID == nil {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND parent_id IS NULL AND NOT is_trashed
			ORDER BY is_folder DESC, name ASC
		`, entryColumns, r.tables.Entries)
		args = append(args, ownerID)
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND parent_id = $2 AND NOT is_trashed
			ORDER BY is_folder DESC, name ASC
		`, entryColumns, r.tables.Entries)
		args = append(args, ownerID, *parentID)
	}

	return r.list(ctx, "list children", query, args...)
}

// ListStarred lists starred entries that are not in the trash
func (r *PostgresEntryRepository) ListStarred(ctx context.Context, ownerID string) ([]models.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND is_starred AND NOT is_trashed
		ORDER BY updated_at DESC
	`, entryColumns, r.tables.Entries)

	return r.list(ctx, "list starred", query, ownerID)
}

// ListTrashed lists trashed entries, most recently trashed first
func (r *PostgresEntryRepository) ListTrashed(ctx context.Context, ownerID string) ([]models.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND is_trashed
		ORDER BY trashed_at DESC NULLS LAST, name ASC
	`, entryColumns, r.tables.Entries)

	return r.list(ctx, "list trashed", query, ownerID)
}

// ListAll retrieves every entry of an owner (flat list)
func (r *PostgresEntryRepository) ListAll(ctx context.Context, ownerID string) ([]models.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`, entryColumns, r.tables.Entries)

	return r.list(ctx, "list all", query, ownerID)
}

// SubtreeHeight measures the deepest descendant with a recursive CTE,
// bounded like GetAncestors
func (r *PostgresEntryRepository) SubtreeHeight(ctx context.Context, id, ownerID string) (int, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE subtree AS (
			SELECT id, 0 AS depth
			FROM %s
			WHERE id = $1 AND owner_id = $2
			UNION ALL
			SELECT e.id, s.depth + 1
			FROM %s e
			JOIN subtree s ON e.parent_id = s.id
			WHERE e.owner_id = $2 AND s.depth < $3
		)
		SELECT COALESCE(MAX(depth), 0) FROM subtree
	`, r.tables.Entries, r.tables.Entries)

	var height int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, id, ownerID, config.MaxTreeDepth).Scan(&height); err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return 0, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("subtree height: %w", err)
	}
	return height, nil
}

// GetAncestors walks parent links with a recursive CTE and returns the chain
// ordered from the root down to the entry itself. The depth column bounds
// the recursion in case a cycle slipped into the data.
func (r *PostgresEntryRepository) GetAncestors(ctx context.Context, id, ownerID string) ([]models.Breadcrumb, error) {
	query := fmt.Sprintf(`
		WITH RECURSIVE ancestors AS (
			SELECT id, name, parent_id, 0 AS depth
			FROM %s
			WHERE id = $1 AND owner_id = $2
			UNION ALL
			SELECT e.id, e.name, e.parent_id, a.depth + 1
			FROM %s e
			JOIN ancestors a ON e.id = a.parent_id
			WHERE e.owner_id = $2 AND a.depth < $3
		)
		SELECT id, name FROM ancestors ORDER BY depth DESC
	`, r.tables.Entries, r.tables.Entries)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, id, ownerID, config.MaxTreeDepth)
	if err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get ancestors: %w", err)
	}
	defer rows.Close()

	crumbs := []models.Breadcrumb{}
	for rows.Next() {
		var crumb models.Breadcrumb
		if err := rows.Scan(&crumb.ID, &crumb.Name); err != nil {
			return nil, fmt.Errorf("scan ancestor: %w", err)
		}
		crumbs = append(crumbs, crumb)
	}

	if err := rows.Err(); err != nil {
		if postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("iterate ancestors: %w", err)
	}

	if len(crumbs) == 0 {
		return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
	}

	return crumbs, nil
}

func (r *PostgresEntryRepository) getOne(ctx context.Context, id, query string, args ...any) (*models.Entry, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	entry, err := scanEntry(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidTextError(err) {
			return nil, fmt.Errorf("entry %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

func (r *PostgresEntryRepository) list(ctx context.Context, op, query string, args ...any) ([]models.Entry, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// scanEntry scans one row selected with entryColumns
func scanEntry(row pgx.Row) (*models.Entry, error) {
	var entry models.Entry
	err := row.Scan(
		&entry.ID,
		&entry.OwnerID,
		&entry.ParentID,
		&entry.Name,
		&entry.IsFolder,
		&entry.Path,
		&entry.StorageURL,
		&entry.ThumbnailURL,
		&entry.Size,
		&entry.MimeType,
		&entry.IsStarred,
		&entry.IsTrashed,
		&entry.TrashedAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
