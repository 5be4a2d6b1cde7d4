package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pipeline-analytics/api/rest/handlers"
	"pipeline-analytics/api/rest/routes"
	"pipeline-analytics/config"
	"pipeline-analytics/core/history"
	"pipeline-analytics/core/repository"
	"pipeline-analytics/core/verify"
	"pipeline-analytics/core/window"
	"pipeline-analytics/storage"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Database connected successfully")

	// Initialize run repository and history loader
	runRepo, err := repository.NewRunRepository(db, repository.HistorySource(cfg.HistorySource), cfg.HistoryTable)
	if err != nil {
		log.Fatalf("Failed to initialize run repository: %v", err)
	}
	resolver := window.Resolver{RetentionDays: cfg.RetentionDays}
	loader := history.NewLoader(runRepo, resolver)

	// Initialize stage client
	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		log.Fatalf("Failed to load AWS configuration: %v", err)
	}
	stageClient := s3.NewFromConfig(awsCfg)

	sessions := storage.NewSessionManager(func() (*storage.Store, error) {
		return storage.NewStore(stageClient, cfg.StageBucket, cfg.StagePrefix), nil
	})

	// Initialize configuration registry and resource checks
	registry := config.NewRegistry(cfg)
	checker := verify.NewChecker(db.DB, stageClient, cfg.HistoryTable, cfg.StageBucket, cfg.StagePrefix)

	// Setup routes
	r := mux.NewRouter()
	runHandler := handlers.NewRunHandler(loader)
	artifactHandler := handlers.NewArtifactHandler(sessions)
	configHandler := handlers.NewConfigHandler(registry, checker)
	routes.SetupRoutes(r, runHandler, artifactHandler, configHandler)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
