package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kahani-labs/kahani/internal/config"
	"github.com/kahani-labs/kahani/internal/engine"
	"github.com/kahani-labs/kahani/internal/handlers"
	"github.com/kahani-labs/kahani/internal/logger"
	"github.com/kahani-labs/kahani/internal/media"
	"github.com/kahani-labs/kahani/internal/middleware"
	"github.com/kahani-labs/kahani/internal/services"
	"github.com/kahani-labs/kahani/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Kahani API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"generator_provider", cfg.GeneratorProvider,
		"storage_backend", cfg.StorageBackend)

	var generator services.TextGenerator
	switch strings.ToLower(cfg.GeneratorProvider) {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			log.Error("OpenAI API key is required when using openai provider")
			os.Exit(1)
		}
		generator = services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		log.Info("Using OpenAI generator provider", "model", cfg.OpenAIModel)
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			log.Error("Gemini API key is required when using gemini provider")
			os.Exit(1)
		}
		generator = services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)
		log.Info("Using Gemini generator provider", "model", cfg.GeminiModel)
	default:
		log.Error("Invalid generator provider specified", "provider", cfg.GeneratorProvider, "supported", []string{config.ProviderOpenAI, config.ProviderGemini})
		os.Exit(1)
	}

	var store storage.Storage
	switch cfg.StorageBackend {
	case config.StorageRedis:
		redisStore := storage.NewRedisStore(cfg.RedisURL, log)
		storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		if err := redisStore.WaitForConnection(storageCtx); err != nil {
			storageCancel()
			log.Error("Failed to connect to storage", "error", err)
			os.Exit(1)
		}
		storageCancel()
		store = redisStore
		log.Info("Storage connection established successfully")
	case config.StorageMemory:
		store = storage.NewMemoryStore()
		log.Warn("Using in-memory storage; records do not survive restarts")
	default:
		log.Error("Invalid storage backend specified", "backend", cfg.StorageBackend, "supported", []string{config.StorageRedis, config.StorageMemory})
		os.Exit(1)
	}

	content := services.NewContentService(generator, log)
	sessionEngine := engine.New(store, content, log)

	// Media adapters degrade to placeholder output when keys are
	// absent, so they are always constructed.
	audioGen := services.NewElevenLabsService(cfg.ElevenLabsAPIKey, log)
	imageGen := services.NewStabilityService(cfg.StabilityAPIKey, log)
	mediaService := media.NewService(store, content, audioGen, imageGen, cfg.MediaDir, log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, generator, log)
	mux.Handle("/health", healthHandler)

	storyHandler := handlers.NewStoryHandler(store, content, log)
	mux.Handle("/v1/stories", storyHandler)
	mux.Handle("/v1/stories/", storyHandler)

	interactiveHandler := handlers.NewInteractiveHandler(sessionEngine, log)
	mux.Handle("/v1/interactive/", interactiveHandler)

	mediaHandler := handlers.NewMediaHandler(mediaService, log)
	mux.Handle("/v1/media/", mediaHandler)

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.MediaDir))))

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
