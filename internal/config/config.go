package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	WorkerEnabled      bool
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Media
	MediaRoot            string
	FFmpegBin            string
	FFprobeBin           string
	EncodeTimeoutSeconds int

	// Whisper (subtitle transcription)
	WhisperAPIKey          string
	WhisperBaseURL         string // accelerated endpoint (empty = OpenAI default)
	WhisperFallbackBaseURL string // retried on 5xx/connection errors (empty = no fallback)
	SubtitleLanguage       string

	// Worker
	MaxConcurrentJobs int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		WorkerEnabled:      getEnvBool("WORKER_ENABLED", true),
		BackendAPIKey:      getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),

		MediaRoot:            getEnv("MEDIA_ROOT", "media"),
		FFmpegBin:            getEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:           getEnv("FFPROBE_BIN", "ffprobe"),
		EncodeTimeoutSeconds: getEnvInt("ENCODE_TIMEOUT_SECONDS", 1800),

		WhisperAPIKey:          getEnv("WHISPER_API_KEY", ""),
		WhisperBaseURL:         getEnv("WHISPER_BASE_URL", ""),
		WhisperFallbackBaseURL: getEnv("WHISPER_FALLBACK_BASE_URL", ""),
		SubtitleLanguage:       getEnv("SUBTITLE_LANGUAGE", "pt"),

		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 2),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.WorkerEnabled && cfg.WhisperAPIKey == "" {
		return nil, fmt.Errorf("WHISPER_API_KEY is required when the worker is enabled")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
