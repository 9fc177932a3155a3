package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"droply/internal/auth"
	"droply/internal/config"
	"droply/internal/handler"
	"droply/internal/middleware"
	"droply/internal/policy"
	"droply/internal/repository/postgres"
	postgresDrive "droply/internal/repository/postgres/drive"
	serviceAuth "droply/internal/service/auth"
	serviceDrive "droply/internal/service/drive"
	"droply/internal/storage/s3"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	if cfg.AuthJWKSURL == "" {
		log.Fatal("AUTH_JWKS_URL is required")
	}

	// Create JWT verifier for the identity provider
	jwtVerifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL, auth.VerifierOptions{
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer func() { _ = jwtVerifier.Close() }()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.PoolSize{
		Max: int32(cfg.DBMaxConns),
		Min: int32(cfg.DBMinConns),
	})
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", pool.Config().MaxConns,
		"min_conns", pool.Config().MinConns,
	)

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(ctx, pool, tables, logger); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	entryRepo := postgresDrive.NewEntryRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// External collaborators
	objectStore, err := s3.NewStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create object store: %v", err)
	}

	uploadPolicy, err := policy.Load()
	if err != nil {
		log.Fatalf("Failed to load upload policy: %v", err)
	}
	logger.Info("upload policy loaded",
		"max_upload_bytes", uploadPolicy.MaxUploadBytes(),
		"blocked_types", len(uploadPolicy.BlockedTypes()),
	)

	// Create services
	authorizer := serviceAuth.NewOwnerBasedAuthorizer(entryRepo)
	treeRules := serviceDrive.NewTreeRules(entryRepo, txManager, logger)
	entryService := serviceDrive.NewEntryService(entryRepo, treeRules, txManager, authorizer, logger)
	lifecycleService := serviceDrive.NewLifecycleService(entryRepo, txManager, objectStore, logger)
	treeService := serviceDrive.NewTreeService(entryRepo, logger)
	uploadService := serviceDrive.NewUploadService(
		entryService,
		treeRules,
		objectStore,
		uploadPolicy,
		authorizer,
		cfg.StorageKeyPrefix,
		logger,
	)

	// Create handlers
	healthHandler := handler.NewHealthHandler(pool, logger)
	entryHandler := handler.NewEntryHandler(entryService, lifecycleService, logger)
	treeHandler := handler.NewTreeHandler(treeService, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, uploadPolicy.MaxUploadBytes(), logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.HealthCheck)

	// Listings (literal segments take precedence over {id})
	mux.HandleFunc("GET /api/entries", entryHandler.ListRoot)
	mux.HandleFunc("GET /api/entries/tree", treeHandler.GetTree)
	mux.HandleFunc("GET /api/entries/starred", entryHandler.ListStarred)
	mux.HandleFunc("GET /api/entries/trash", entryHandler.ListTrash)
	mux.HandleFunc("DELETE /api/entries/trash", entryHandler.EmptyTrash)

	// Creation
	mux.HandleFunc("POST /api/folders", entryHandler.CreateFolder)
	mux.HandleFunc("POST /api/files", uploadHandler.Register)
	mux.HandleFunc("POST /api/files/upload", uploadHandler.Upload)

	// Entry routes
	mux.HandleFunc("GET /api/entries/{id}", entryHandler.GetEntry)
	mux.HandleFunc("GET /api/entries/{id}/children", entryHandler.GetChildren)
	mux.HandleFunc("GET /api/entries/{id}/breadcrumbs", entryHandler.GetBreadcrumbs)
	mux.HandleFunc("PATCH /api/entries/{id}", entryHandler.UpdateEntry)
	mux.HandleFunc("PUT /api/entries/{id}/star", entryHandler.SetStarred)
	mux.HandleFunc("PUT /api/entries/{id}/trash", entryHandler.SetTrashed)
	mux.HandleFunc("DELETE /api/entries/{id}", entryHandler.Purge)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → [RequestLogger] → Auth → Routes
	root = middleware.AuthMiddleware(jwtVerifier)(root)
	if cfg.Debug {
		root = middleware.RequestLogger(logger)(root)
	}
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  5 * time.Minute, // large uploads
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
