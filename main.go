package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/windrose-energy/windrose-engine/pkg/auth"
	"github.com/windrose-energy/windrose-engine/pkg/config"
	"github.com/windrose-energy/windrose-engine/pkg/database"
	"github.com/windrose-energy/windrose-engine/pkg/geocode"
	"github.com/windrose-energy/windrose-engine/pkg/handlers"
	"github.com/windrose-energy/windrose-engine/pkg/llm"
	"github.com/windrose-energy/windrose-engine/pkg/logging"
	"github.com/windrose-energy/windrose-engine/pkg/mcp"
	"github.com/windrose-energy/windrose-engine/pkg/mcp/tools"
	"github.com/windrose-energy/windrose-engine/pkg/middleware"
	"github.com/windrose-energy/windrose-engine/pkg/repositories"
	"github.com/windrose-energy/windrose-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load("", Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Environment: %s", cfg.Env)
	log.Printf("  Base URL: %s", cfg.BaseURL)
	log.Printf("  Auth verification: %v", cfg.Auth.EnableVerification)
	log.Printf("  Database: %s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	log.Printf("  Redis: %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	log.Printf("  Dedup radius: %.1f km", cfg.Dedup.DefaultRadiusKm)

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// Project store
	db, err := database.NewConnection(ctx, &database.PostgresConfig{
		ConnString:     cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Migrations run on a separate database/sql connection; golang-migrate
	// does not speak pgx pools.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to open migration connection: %v", err)
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	_ = migrationDB.Close()

	// Session store
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if redisClient == nil {
		log.Fatalf("Redis is required for the session store; set REDIS_HOST")
	}
	defer func() { _ = redisClient.Close() }()

	geocoder, err := geocode.NewNominatimClient(&geocode.NominatimConfig{
		BaseURL:   cfg.Geocoder.BaseURL,
		UserAgent: cfg.Geocoder.UserAgent,
		Timeout:   time.Duration(cfg.Geocoder.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create geocoder: %v", err)
	}

	// Optional LLM assistance for ambiguous project references. The resolver
	// degrades to deterministic matching when chat is nil.
	var chat llm.ChatClient
	if cfg.ResolverAI.Enabled() {
		chat, err = llm.NewChatClient(&llm.Config{
			Provider: cfg.ResolverAI.Provider,
			Endpoint: cfg.ResolverAI.BaseURL,
			Model:    cfg.ResolverAI.Model,
			APIKey:   cfg.ResolverAI.APIKey,
		}, logger)
		if err != nil {
			log.Fatalf("Failed to create LLM client: %v", err)
		}
		log.Printf("  Resolver AI: %s/%s", cfg.ResolverAI.Provider, cfg.ResolverAI.Model)
	}

	projectRepo := repositories.NewProjectRepository(db)
	sessionRepo := repositories.NewSessionRepository(redisClient)

	names := services.NewNameGenerator(geocoder, projectRepo, logger)
	sessions := services.NewSessionContextManager(sessionRepo, logger)
	resolver := services.NewProjectResolver(projectRepo, chat, logger)
	lifecycle := services.NewProjectLifecycleManager(
		projectRepo, sessions, resolver, names, cfg.Dedup.DefaultRadiusKm, logger)

	mcpServer := mcp.NewServer("windrose-engine", cfg.Version, logger)
	deps := &tools.Deps{Lifecycle: lifecycle, Logger: logger}
	tools.RegisterLifecycleTools(mcpServer.MCP(), deps)
	tools.RegisterProjectTools(mcpServer.MCP(), deps)
	tools.RegisterDuplicateTools(mcpServer.MCP(), deps)
	tools.RegisterExportTools(mcpServer.MCP(), deps)
	tools.RegisterResultTools(mcpServer.MCP(), deps)
	tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)

	validator, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		log.Fatalf("Failed to create JWKS client: %v", err)
	}
	defer validator.Close()

	authMiddleware := auth.NewMiddleware(validator, cfg.Auth.EnableVerification, logger)

	var mcpHandler http.Handler = mcpServer.NewStreamableHTTPServer()
	mcpHandler = middleware.ToolCallLogger(logger)(mcpHandler)
	mcpHandler = authMiddleware.Wrap(mcpHandler)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpHandler)
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger.Named("http"))(mux)

	logger.Info("Starting windrose-engine",
		zap.String("port", cfg.Port),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(cfg.BindAddr+":"+cfg.Port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
