package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	Env         string // "dev" or "prod"

	UploadDir         string
	MaxFileSize       int64
	AllowedExtensions []string

	TokenSecret string
	TokenTTL    time.Duration

	LLMBaseURL     string
	LLMAPIKey      string
	CaptionModel   string
	EmbeddingModel string
	EmbeddingDim   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", "./imago.db"),
		Env:               getEnv("APP_ENV", "dev"),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		MaxFileSize:       getEnvInt64("MAX_FILE_SIZE", 10*1024*1024),
		AllowedExtensions: splitList(getEnv("ALLOWED_EXTENSIONS", "jpg,jpeg,png")),
		TokenSecret:       os.Getenv("TOKEN_SECRET"),
		TokenTTL:          time.Duration(getEnvInt64("TOKEN_TTL_MINUTES", 30)) * time.Minute,
		LLMBaseURL:        getEnv("LLM_BASE_URL", "http://localhost:11434/v1"),
		LLMAPIKey:         os.Getenv("LLM_API_KEY"),
		CaptionModel:      getEnv("CAPTION_MODEL", "llava"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "all-minilm"),
		EmbeddingDim:      int(getEnvInt64("EMBEDDING_DIM", 384)),
	}

	if cfg.Env == "prod" {
		if cfg.TokenSecret == "" {
			return nil, fmt.Errorf("prod: TOKEN_SECRET is required")
		}
		if cfg.LLMAPIKey == "" && !strings.Contains(cfg.LLMBaseURL, "localhost") {
			return nil, fmt.Errorf("prod: LLM_API_KEY is required for remote providers")
		}
	} else {
		if cfg.TokenSecret == "" {
			cfg.TokenSecret = "dev-secret-keep-it-simple-but-not-safe"
		}
	}

	if cfg.EmbeddingDim < 1 {
		return nil, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
