package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ci-pae/engine/pkg/auth"
	"github.com/ci-pae/engine/pkg/config"
	"github.com/ci-pae/engine/pkg/database"
	"github.com/ci-pae/engine/pkg/handlers"
	"github.com/ci-pae/engine/pkg/llm"
	"github.com/ci-pae/engine/pkg/logging"
	"github.com/ci-pae/engine/pkg/middleware"
	"github.com/ci-pae/engine/pkg/pipeline"
	"github.com/ci-pae/engine/pkg/schema"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", cfg.Database.Database),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model))

	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.Database.AdminURL(), cfg.MigrationsPath, logger); err != nil {
			logger.Fatal("Migrations failed", zap.Error(err))
		}
	}

	schemaCtx, err := schema.Load(cfg.SchemaContextPath)
	if err != nil {
		logger.Fatal("Failed to load schema context", zap.Error(err))
	}
	logger.Info("Schema context loaded",
		zap.String("version", schemaCtx.Version),
		zap.Strings("tables", schemaCtx.TableNames()))

	gateway, err := llm.NewClient(&llm.Config{
		Provider:    cfg.LLM.Provider,
		Endpoint:    cfg.LLM.Endpoint,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		MaxRetries:  cfg.LLM.MaxRetries,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	resolver := database.NewResolver(&cfg.Database, logger)
	defer resolver.Close()

	stageTimeout := time.Duration(cfg.Pipeline.StageTimeoutSeconds) * time.Second
	orchestrator := pipeline.NewOrchestrator(
		pipeline.NewPlanner(gateway, schemaCtx, logger),
		pipeline.NewSynthesizer(gateway, schemaCtx, logger),
		pipeline.NewExecutor(resolver, schemaCtx, cfg.Pipeline.MaxResultRows, logger),
		pipeline.NewReporter(gateway, logger),
		stageTimeout,
		logger,
	)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(orchestrator, logger).RegisterRoutes(mux)
	handlers.NewSQLExecHandler(resolver, cfg.Pipeline.MaxResultRows, logger).RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = auth.RoleMiddleware(logger)(handler)
	handler = middleware.RequestLogger(logger)(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(handler)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting ci-pae-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Shutdown incomplete", zap.Error(err))
	}
}
