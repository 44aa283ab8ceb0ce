package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yishak-cs/bookstore-apriori/internal/apriori"
	"github.com/yishak-cs/bookstore-apriori/internal/database"
	"github.com/yishak-cs/bookstore-apriori/internal/handlers"
	"github.com/yishak-cs/bookstore-apriori/internal/logging"
	"github.com/yishak-cs/bookstore-apriori/internal/services"
	"github.com/yishak-cs/bookstore-apriori/pkg/helper"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	config, err := helper.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(config.Logging)
	if envErr != nil {
		logging.Warn().Err(envErr).Msg("no .env file loaded")
	}

	ctx := context.Background()

	store, err := database.Open(ctx, config.Store)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", config.Store.Driver).Msg("failed to open transaction store")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			logging.Error().Err(err).Msg("error closing store")
		}
	}()

	if err := runImport(ctx, store, config.Import); err != nil {
		logging.Error().Err(err).Msg("CSV import failed")
		os.Exit(1)
	}

	// Initialize services
	analyzer := apriori.NewAnalyzer(logging.With().Str("component", "apriori").Logger())
	bundleService := services.NewBundleService(store, analyzer, config.ServiceConfig())

	// Initialize API handlers
	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.NewAPIHandler(bundleService))

	// Create server with graceful shutdown
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Server.Port),
		Handler: router,
	}

	go func() {
		logging.Info().Str("port", config.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	logging.Info().Msg("server exited properly")
}

// runImport loads the CSV export into Neo4j when an import URL is configured.
func runImport(ctx context.Context, store database.Store, cfg helper.ImportConfig) error {
	if cfg.BaseURL == "" {
		return nil
	}

	neo4jStore, ok := store.(*database.Neo4jStore)
	if !ok {
		logging.Warn().Msg("IMPORT_BASE_URL is only used with the neo4j store, skipping import")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	importer := database.NewCSVImporter(neo4jStore.Client())
	if err := importer.ImportAllData(ctx, cfg.BaseURL); err != nil {
		return err
	}

	status, err := importer.GetImportStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get import status: %w", err)
	}
	logging.Info().
		Int("books", status["books"]).
		Int("transactions", status["transactions"]).
		Int("line_items", status["line_items"]).
		Msg("import status")
	return nil
}
