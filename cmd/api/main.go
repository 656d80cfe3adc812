package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/falconleb/shopify-tracker/internal/config"
	"github.com/falconleb/shopify-tracker/internal/handler"
	"github.com/falconleb/shopify-tracker/internal/interest"
	"github.com/falconleb/shopify-tracker/internal/logger"
	"github.com/falconleb/shopify-tracker/internal/queue/sqs"
	"github.com/falconleb/shopify-tracker/internal/repository/sqlite"
	"github.com/falconleb/shopify-tracker/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	// Initialize SQS client (publisher for the bulk ingestion path)
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize SQLite client
	sqliteClient, err := sqlite.NewClient(&cfg.SQLite, log)
	if err != nil {
		log.Fatal("Failed to create SQLite client", zap.Error(err))
	}

	// Initialize repository
	repo := sqlite.NewRepository(sqliteClient, log)
	defer func() {
		if err := repo.Close(); err != nil {
			log.Error("Failed to close repository", zap.Error(err))
		}
	}()

	// Initialize schema (create tables if not exist)
	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	// Initialize services
	tracker := service.NewTrackerService(repo, sqsClient, log)
	scorer := interest.NewScorer(interest.Keywords{
		Dog: cfg.Interest.DogKeywords,
		Cat: cfg.Interest.CatKeywords,
	})
	analytics := service.NewAnalyticsService(repo, scorer, log)

	// Initialize handler
	h := handler.NewHandler(tracker, analytics, repo, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	log.Info("API server starting", zap.String("address", addr))

	if err := http.ListenAndServe(addr, h); err != nil {
		log.Fatal("Failed to start API server", zap.Error(err))
	}
}
