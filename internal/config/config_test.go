package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEADHUNTER_API_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LEADHUNTER_HTTP_TIMEOUT", "")
	t.Setenv("QUANTITY_MIN", "")
	t.Setenv("QUANTITY_MAX", "")
	t.Setenv("SESSION_STORE", "")
	cfg := FromEnv()
	if cfg.APIBaseURL != "http://localhost:8000" {
		t.Fatalf("expected default api url, got %s", cfg.APIBaseURL)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level, got %s", cfg.LogLevel)
	}
	if cfg.HTTPTimeout != 0 {
		t.Fatalf("expected no client timeout by default, got %s", cfg.HTTPTimeout)
	}
	if cfg.QuantityMin != 10 || cfg.QuantityMax != 300 {
		t.Fatalf("expected default quantity bounds, got [%d,%d]", cfg.QuantityMin, cfg.QuantityMax)
	}
	if cfg.SessionStore != "file" {
		t.Fatalf("expected file session store, got %s", cfg.SessionStore)
	}
	if len(cfg.DemoAllowedOrigins) != 2 {
		t.Fatalf("expected default demo origins, got %v", cfg.DemoAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEADHUNTER_API_URL", "https://api.example.com/")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LEADHUNTER_HTTP_TIMEOUT", "45s")
	t.Setenv("QUANTITY_MIN", "5")
	t.Setenv("QUANTITY_MAX", "50")
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("SESSION_TTL", "12h")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("EXPORT_S3_BUCKET", "leads-bucket")
	t.Setenv("DEMO_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	cfg := FromEnv()
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected lowercase log format, got %s", cfg.LogFormat)
	}
	if cfg.HTTPTimeout != 45*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.HTTPTimeout)
	}
	if cfg.QuantityMin != 5 || cfg.QuantityMax != 50 {
		t.Fatalf("expected bounds override, got [%d,%d]", cfg.QuantityMin, cfg.QuantityMax)
	}
	if cfg.SessionStore != "redis" || cfg.SessionTTL != 12*time.Hour || !cfg.RedisTLS {
		t.Fatalf("unexpected session settings: %+v", cfg)
	}
	if cfg.ExportS3Bucket != "leads-bucket" {
		t.Fatalf("expected bucket override, got %s", cfg.ExportS3Bucket)
	}
	if len(cfg.DemoAllowedOrigins) != 2 || cfg.DemoAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.DemoAllowedOrigins)
	}
}

func TestSwappedQuantityBoundsAreNormalized(t *testing.T) {
	t.Setenv("QUANTITY_MIN", "300")
	t.Setenv("QUANTITY_MAX", "10")
	cfg := FromEnv()
	if cfg.QuantityMin != 10 || cfg.QuantityMax != 300 {
		t.Fatalf("expected normalized bounds, got [%d,%d]", cfg.QuantityMin, cfg.QuantityMax)
	}
}

func TestLoadFileAppliesDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LEADHUNTER_USER_AGENT=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("LEADHUNTER_USER_AGENT", "")
	os.Unsetenv("LEADHUNTER_USER_AGENT")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.UserAgent != "from-dotenv" {
		t.Fatalf("expected dotenv value, got %s", cfg.UserAgent)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatal("expected error for missing dotenv file")
	}
}
