package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipforge/internal/api"
	"clipforge/internal/config"
	"clipforge/internal/db"
	"clipforge/internal/media"
	"clipforge/internal/pipeline"
	"clipforge/internal/queue"
	"clipforge/internal/storage"
	"clipforge/internal/subtitles"
	"clipforge/internal/worker"
)

func main() {
	log.Println("Starting ClipForge API...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database (runs migrations)
	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database")

	// Connect to Redis queue
	q, err := queue.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()
	log.Println("Connected to Redis queue")

	// Initialize the media store
	store, err := storage.New(cfg.MediaRoot)
	if err != nil {
		log.Fatalf("Failed to initialize media root: %v", err)
	}
	log.Printf("Media root: %s", store.Root())

	// Media tooling
	runner := media.NewRunner(cfg.FFmpegBin, cfg.FFprobeBin, time.Duration(cfg.EncodeTimeoutSeconds)*time.Second)
	probe := media.NewProbe(runner)
	builder := media.NewBuilder(runner)

	// Create API handler
	handler := api.NewHandler(database, q, store, probe)
	router := api.NewRouter(handler, api.RouterConfig{
		BackendAPIKey:      cfg.BackendAPIKey,
		CorsAllowedOrigins: cfg.CorsAllowedOrigins,
	})

	if cfg.BackendAPIKey != "" {
		log.Println("API key authentication enabled")
	} else {
		log.Println("WARNING: No BACKEND_API_KEY set, API is unprotected (dev mode)")
	}

	// Start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	// Start worker if enabled
	var workerCtx context.Context
	var workerCancel context.CancelFunc
	if cfg.WorkerEnabled {
		log.Println("Worker enabled, starting background processing...")

		renderPipeline := pipeline.New(database, builder, probe, store)

		transcriber := subtitles.NewTranscriber(cfg.WhisperAPIKey, cfg.WhisperBaseURL, cfg.WhisperFallbackBaseURL)
		if cfg.WhisperBaseURL != "" {
			log.Printf("Whisper endpoint: %s (fallback: %s)", cfg.WhisperBaseURL, cfg.WhisperFallbackBaseURL)
		}
		subtitleSvc := subtitles.NewService(database, transcriber, builder, store, cfg.SubtitleLanguage)

		w := worker.New(q, renderPipeline, subtitleSvc)

		workerCtx, workerCancel = context.WithCancel(context.Background())
		go w.Start(workerCtx, cfg.MaxConcurrentJobs)
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server listening on :%s", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Shutdown worker
	if workerCancel != nil {
		workerCancel()
	}

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
