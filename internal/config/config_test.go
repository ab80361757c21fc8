package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want dev", cfg.Env)
	}
	if cfg.MaxFileSize != 10*1024*1024 {
		t.Errorf("MaxFileSize = %d", cfg.MaxFileSize)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.TokenSecret == "" {
		t.Error("dev mode should fall back to a default secret")
	}
	if cfg.EmbeddingDim != 384 {
		t.Errorf("EmbeddingDim = %d, want 384", cfg.EmbeddingDim)
	}
	if len(cfg.AllowedExtensions) != 3 {
		t.Errorf("AllowedExtensions = %v", cfg.AllowedExtensions)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_EXTENSIONS", "JPG, png ,")
	t.Setenv("TOKEN_TTL_MINUTES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.TokenTTL != 5*time.Minute {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}

	want := []string{"jpg", "png"}
	if len(cfg.AllowedExtensions) != len(want) {
		t.Fatalf("AllowedExtensions = %v, want %v", cfg.AllowedExtensions, want)
	}
	for i := range want {
		if cfg.AllowedExtensions[i] != want[i] {
			t.Errorf("AllowedExtensions[%d] = %q, want %q", i, cfg.AllowedExtensions[i], want[i])
		}
	}
}

func TestLoadProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TOKEN_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error in prod without TOKEN_SECRET")
	}

	t.Setenv("TOKEN_SECRET", "prod-secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TokenSecret != "prod-secret" {
		t.Errorf("TokenSecret = %q", cfg.TokenSecret)
	}
}

func TestLoadRejectsInvalidDimension(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero embedding dimension")
	}
}
