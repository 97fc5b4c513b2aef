package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Generator providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Storage backends.
const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	StorageBackend string
	RedisURL       string

	GeneratorProvider string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	GeminiAPIKey      string
	GeminiModel       string

	ElevenLabsAPIKey string
	StabilityAPIKey  string
	MediaDir         string
}

func Load() *Config {
	// Optional; real deployments use the environment directly.
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageRedis),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379"),

		GeneratorProvider: getEnv("GENERATOR_PROVIDER", ProviderGemini),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),
		StabilityAPIKey:  getEnv("STABILITY_API_KEY", ""),
		MediaDir:         getEnv("MEDIA_DIR", "media"),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
