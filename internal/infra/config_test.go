package infra

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BASE_URL", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("MAX_PROFILE_IMAGES", "")
	t.Setenv("RESULT_TTL_MINUTES", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("GENERATION_MIN_INTERVAL_MS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.StorageBaseURL != "/static" {
		t.Fatalf("StorageBaseURL mismatch: got %q", cfg.StorageBaseURL)
	}
	if cfg.GeminiModel != "gemini-2.5-flash-image" {
		t.Fatalf("GeminiModel mismatch: got %q", cfg.GeminiModel)
	}
	if cfg.MaxProfileImages != 10 {
		t.Fatalf("MaxProfileImages mismatch: got %d", cfg.MaxProfileImages)
	}
	if cfg.ResultTTL != time.Hour {
		t.Fatalf("ResultTTL mismatch: got %s", cfg.ResultTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.GenerationPacing != 0 {
		t.Fatalf("GenerationPacing should default to off, got %s", cfg.GenerationPacing)
	}
}

func TestLoadConfigHonorsOverrides(t *testing.T) {
	t.Setenv("STORAGE_BASE_URL", "https://cdn.example.com/static/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MAX_UPLOAD_MB", "8")
	t.Setenv("GENERATION_MIN_INTERVAL_MS", "1500")
	t.Setenv("OTEL_TRACE_SAMPLE_RATE", "0.25")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StorageBaseURL != "https://cdn.example.com/static" {
		t.Fatalf("StorageBaseURL mismatch: got %q", cfg.StorageBaseURL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("CORSAllowedOrigins mismatch: %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.MaxUploadBytes != 8<<20 {
		t.Fatalf("MaxUploadBytes mismatch: got %d", cfg.MaxUploadBytes)
	}
	if cfg.GenerationPacing != 1500*time.Millisecond {
		t.Fatalf("GenerationPacing mismatch: got %s", cfg.GenerationPacing)
	}
	if cfg.TraceSampleRate != 0.25 {
		t.Fatalf("TraceSampleRate mismatch: got %v", cfg.TraceSampleRate)
	}
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("MAX_PROFILE_IMAGES", "ten")
	t.Setenv("RESULT_TTL_MINUTES", "0")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected error for invalid configuration")
	}
	for _, key := range []string{"MAX_PROFILE_IMAGES", "RESULT_TTL_MINUTES"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q does not mention %s", err, key)
		}
	}
}
