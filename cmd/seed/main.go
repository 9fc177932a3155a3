package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"droply/internal/config"
	models "droply/internal/domain/models/drive"
	driveSvc "droply/internal/domain/services/drive"
	"droply/internal/repository/postgres"
	postgresDrive "droply/internal/repository/postgres/drive"
	serviceAuth "droply/internal/service/auth"
	serviceDrive "droply/internal/service/drive"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only run migrations, don't seed entries")
	clearData := flag.Bool("clear-data", false, "Clear all entries of the seed user (keep schema)")
	userID := flag.String("user", "", "Owner ID (identity provider subject) to seed entries for")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}
	if !*schemaOnly && *userID == "" {
		log.Fatalf("--user is required unless --schema-only is set")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	// Create database connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.PoolSize{
		Max: int32(cfg.DBMaxConns),
		Min: int32(cfg.DBMinConns),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Drop tables if requested
	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	// Run migrations to ensure tables exist
	if err := postgres.RunMigrations(ctx, pool, tables, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}

	log.Println("Clearing existing entries...")
	if err := clearUserData(ctx, pool, tables, *userID); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	if *clearData {
		log.Println("Data cleared successfully")
		return
	}

	// Create repositories and services
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	entryRepo := postgresDrive.NewEntryRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)
	authorizer := serviceAuth.NewOwnerBasedAuthorizer(entryRepo)
	treeRules := serviceDrive.NewTreeRules(entryRepo, txManager, logger)
	entryService := serviceDrive.NewEntryService(entryRepo, treeRules, txManager, authorizer, logger)

	created := 0
	for _, node := range seedTree() {
		n, err := createNode(ctx, entryService, *userID, nil, cfg.StorageKeyPrefix, node)
		created += n
		if err != nil {
			log.Fatalf("Failed to seed %q: %v", node.name, err)
		}
	}

	log.Printf("Seeding complete: %d entries", created)
}

type seedNode struct {
	name     string
	size     int64
	mimeType string
	children []seedNode // non-nil marks a folder
}

func (n seedNode) isFolder() bool {
	return n.children != nil
}

func seedTree() []seedNode {
	return []seedNode{
		{name: "Photos", children: []seedNode{
			{name: "2024", children: []seedNode{
				{name: "beach.jpg", size: 2_481_112, mimeType: "image/jpeg"},
				{name: "mountains.png", size: 5_120_334, mimeType: "image/png"},
			}},
			{name: "2025", children: []seedNode{}},
		}},
		{name: "Documents", children: []seedNode{
			{name: "resume.pdf", size: 182_004, mimeType: "application/pdf"},
			{name: "notes.txt", size: 1_204, mimeType: "text/plain"},
		}},
		{name: "welcome.md", size: 512, mimeType: "text/markdown"},
	}
}

// createNode creates an entry and its subtree, returning how many entries it made.
// Files get storage metadata pointing at placeholder keys; no bytes are uploaded.
func createNode(ctx context.Context, entries driveSvc.EntryService, ownerID string, parentID *string, keyPrefix string, node seedNode) (int, error) {
	req := &driveSvc.CreateEntryRequest{
		OwnerID:  ownerID,
		Name:     node.name,
		IsFolder: node.isFolder(),
		ParentID: parentID,
	}
	if !node.isFolder() {
		key := fmt.Sprintf("%s/%s/seed/%s", keyPrefix, ownerID, node.name)
		req.Storage = &models.StorageMetadata{
			Path:       key,
			StorageURL: "https://example.invalid/" + key,
			Size:       node.size,
			MimeType:   node.mimeType,
		}
	}

	entry, err := entries.CreateEntry(ctx, req)
	if err != nil {
		return 0, err
	}
	log.Printf("Created %s (ID: %s)", node.name, entry.ID)

	count := 1
	for _, child := range node.children {
		n, err := createNode(ctx, entries, ownerID, &entry.ID, keyPrefix, child)
		count += n
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

// dropAllTables drops the entries table and the migration history
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.Entries, tables.MigrationTable} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  Dropped %s", table)
	}
	return nil
}

// clearUserData removes every entry owned by userID
func clearUserData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, userID string) error {
	_, err := pool.Exec(ctx, "DELETE FROM "+tables.Entries+" WHERE owner_id = $1", userID)
	return err
}
