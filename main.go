package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/campuskit/attendance-engine/pkg/config"
	"github.com/campuskit/attendance-engine/pkg/database"
	"github.com/campuskit/attendance-engine/pkg/handlers"
	"github.com/campuskit/attendance-engine/pkg/llm"
	"github.com/campuskit/attendance-engine/pkg/logging"
	"github.com/campuskit/attendance-engine/pkg/middleware"
	"github.com/campuskit/attendance-engine/pkg/repositories"
	"github.com/campuskit/attendance-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("bind", cfg.BindAddr+":"+cfg.Port),
		zap.String("mongo_uri", logging.SanitizeURI(cfg.Mongo.URI)),
		zap.String("mongo_database", cfg.Mongo.Database),
		zap.String("ai_endpoint", cfg.AI.Endpoint),
		zap.String("ai_model", cfg.AI.Model))

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
		ConnectTimeout: cfg.Mongo.ConnectTimeout(),
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			logger.Warn("error closing MongoDB connection", zap.Error(err))
		}
	}()

	store := repositories.NewMongoStore(db, cfg.Mongo.QueryTimeout())

	llmClient, err := llm.NewClient(&llm.Config{
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
		Timeout:  cfg.AI.RequestTimeout(),
	}, logger)
	if err != nil {
		logger.Fatal("failed to create LLM client", zap.Error(err))
	}

	queryGenerator := services.NewQueryGenerator(llmClient, store, cfg.AI.Temperature, logger)
	chatService := services.NewChatService(queryGenerator, llmClient, logger)
	dashboardService := services.NewDashboardService(store, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewChatHandler(chatService, logger).RegisterRoutes(mux)
	handlers.NewDashboardHandler(dashboardService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("starting attendance-engine", zap.String("addr", addr), zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// newLogger builds the zap logger for the environment: human-readable in
// local development, JSON in deployed environments.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopmentConfig().Build()
	}
	return zap.NewProductionConfig().Build()
}
