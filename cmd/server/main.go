package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shopsnap/backend/config"
	httpDelivery "github.com/shopsnap/backend/internal/delivery/http"
	"github.com/shopsnap/backend/internal/domain"
	"github.com/shopsnap/backend/internal/infrastructure/gemini"
	"github.com/shopsnap/backend/internal/infrastructure/store"
	"github.com/shopsnap/backend/internal/usecase"
	"github.com/shopsnap/backend/pkg/logging"
)

func main() {
	logging.Setup()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("starting ShopSnap backend",
		"version", "1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"store", cfg.Store.Type)

	// Initialize the catalog store
	var catalogStore domain.CatalogStore
	switch cfg.Store.Type {
	case "sqlite":
		catalogStore, err = store.NewSQLiteStore(cfg.Store.Path)
	default:
		catalogStore, err = store.NewFileStore(cfg.Store.Path)
	}
	if err != nil {
		slog.Error("failed to initialize catalog store", "error", err)
		os.Exit(1)
	}
	defer catalogStore.Close()
	slog.Info("catalog store initialized", "type", cfg.Store.Type, "path", cfg.Store.Path)

	// Initialize the vision client
	visionClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model, cfg.RateLimit.Gemini)

	// Enable debug mode in development environment
	debug := cfg.Server.Environment == "development"
	if debug {
		visionClient.SetDebug(true)
		slog.Info("vision client debug mode enabled")
	}
	slog.Info("vision API configured", "base_url", cfg.Gemini.BaseURL, "model", cfg.Gemini.Model)

	// Initialize usecase layer
	catalogService := usecase.NewCatalogService(catalogStore)
	identifyService := usecase.NewIdentifyService(visionClient, usecase.IdentifyServiceConfig{
		EnableDebugLogging: debug,
	})

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(catalogService, identifyService)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	slog.Info("server listening", "addr", addr)

	if err := router.Run(addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
