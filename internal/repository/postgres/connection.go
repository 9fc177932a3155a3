package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"droply/internal/domain/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix         string
	Entries        string
	MigrationTable string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix:         prefix,
		Entries:        fmt.Sprintf("%sentries", prefix),
		MigrationTable: fmt.Sprintf("%sgoose_db_version", prefix),
	}
}

// PoolSize bounds the number of pooled connections
type PoolSize struct {
	Max int32
	Min int32
}

// CreateConnectionPool creates a pgx pool and verifies it with a ping.
//
// pgx defaults to cached prepared statements. Transaction-mode poolers
// (PgBouncer, commonly on port 6543) reject those, so for that port the
// pool switches to QueryExecModeCacheDescribe, which still uses the extended
// protocol but never creates named statements. An explicit
// default_query_exec_mode in the URL wins over this detection.
//
// Table names are interpolated with fmt.Sprintf before the SQL reaches the
// server; they come from configuration, never from requests.
func CreateConnectionPool(ctx context.Context, databaseURL string, size PoolSize) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = size.Max
	config.MinConns = min(size.Min, size.Max)

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction carried by ctx, or the pool when there
// is none, so repositories join an enclosing ExecTx automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
