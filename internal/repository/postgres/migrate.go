package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// migration is one schema step. Statements are built from TableNames so each
// environment prefix gets its own tables and its own goose version table.
type migration struct {
	version int64
	up      func(t *TableNames) []string
	down    func(t *TableNames) []string
}

var migrations = []migration{
	{
		version: 1,
		up: func(t *TableNames) []string {
			return []string{
				`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
				// parent_id deliberately has no foreign key: purging a folder
				// leaves trashed children pointing at it, and restore must see that.
				`CREATE TABLE IF NOT EXISTS ` + t.Entries + ` (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					owner_id TEXT NOT NULL,
					parent_id UUID,
					name TEXT NOT NULL CHECK (length(name) > 0),
					is_folder BOOLEAN NOT NULL DEFAULT FALSE,
					path TEXT,
					storage_url TEXT,
					thumbnail_url TEXT,
					size BIGINT CHECK (size >= 0),
					mime_type TEXT,
					is_starred BOOLEAN NOT NULL DEFAULT FALSE,
					is_trashed BOOLEAN NOT NULL DEFAULT FALSE,
					trashed_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CONSTRAINT ` + t.Prefix + `entries_storage_metadata CHECK (
						(is_folder AND path IS NULL AND storage_url IS NULL AND size IS NULL AND mime_type IS NULL)
						OR (NOT is_folder AND path IS NOT NULL AND storage_url IS NOT NULL AND size IS NOT NULL AND mime_type IS NOT NULL)
					),
					CONSTRAINT ` + t.Prefix + `entries_not_own_parent CHECK (parent_id IS NULL OR parent_id <> id)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_` + t.Prefix + `entries_owner_parent ON ` + t.Entries + ` (owner_id, parent_id)`,
				`CREATE INDEX IF NOT EXISTS idx_` + t.Prefix + `entries_owner_starred ON ` + t.Entries + ` (owner_id) WHERE is_starred AND NOT is_trashed`,
				`CREATE INDEX IF NOT EXISTS idx_` + t.Prefix + `entries_owner_trashed ON ` + t.Entries + ` (owner_id, trashed_at DESC) WHERE is_trashed`,
			}
		},
		down: func(t *TableNames) []string {
			return []string{`DROP TABLE IF EXISTS ` + t.Entries}
		},
	},
}

// gooseMigrations converts the migration list into goose Go migrations
func gooseMigrations(tables *TableNames) []*goose.Migration {
	out := make([]*goose.Migration, 0, len(migrations))
	for _, m := range migrations {
		out = append(out, goose.NewGoMigration(m.version,
			&goose.GoFunc{RunTx: execAll(m.up(tables))},
			&goose.GoFunc{RunTx: execAll(m.down(tables))},
		))
	}
	return out
}

func execAll(statements []string) func(ctx context.Context, tx *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec %.60q: %w", stmt, err)
			}
		}
		return nil
	}
}

// RunMigrations applies pending schema migrations through goose, using a
// database/sql handle borrowed from the pgx pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	store, err := database.NewStore(database.DialectPostgres, tables.MigrationTable)
	if err != nil {
		return fmt.Errorf("create migration store: %w", err)
	}

	provider, err := goose.NewProvider("", db, nil,
		goose.WithStore(store),
		goose.WithGoMigrations(gooseMigrations(tables)...),
	)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	for _, res := range results {
		logger.Info("migration applied",
			"version", res.Source.Version,
			"duration", res.Duration,
		)
	}

	return nil
}
