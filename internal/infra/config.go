package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	LogLevel           string
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string
	GeminiTimeout      time.Duration
	StoragePath        string
	StorageBaseURL     string
	ResultTTL          time.Duration
	StyleCatalogPath   string
	MaxProfileImages   int
	MaxUploadBytes     int64
	CORSAllowedOrigins []string
	GeoIPDBPath        string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	GenerationPacing   time.Duration
	OTLPEndpoint       string
	TraceSampleRate    float64
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	var errs []error
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		GeminiTimeout:      time.Second * time.Duration(intVar("GEMINI_TIMEOUT_SECONDS", 120)),
		StoragePath:        getEnv("STORAGE_PATH", "./data"),
		StorageBaseURL:     strings.TrimRight(getEnv("STORAGE_BASE_URL", "/static"), "/"),
		ResultTTL:          time.Minute * time.Duration(intVar("RESULT_TTL_MINUTES", 60)),
		StyleCatalogPath:   os.Getenv("STYLE_CATALOG_PATH"),
		MaxProfileImages:   intVar("MAX_PROFILE_IMAGES", 10),
		MaxUploadBytes:     int64(intVar("MAX_UPLOAD_MB", 32)) << 20,
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		HTTPReadTimeout:    time.Second * time.Duration(intVar("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout:   time.Second * time.Duration(intVar("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(intVar("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    intVar("RATE_LIMIT_PER_MINUTE", 30),
		GenerationPacing:   time.Millisecond * time.Duration(intVar("GENERATION_MIN_INTERVAL_MS", 0)),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	rate, err := getEnvFloat("OTEL_TRACE_SAMPLE_RATE", 1)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.TraceSampleRate = rate

	if cfg.MaxProfileImages <= 0 {
		errs = append(errs, fmt.Errorf("MAX_PROFILE_IMAGES must be positive"))
	}
	if cfg.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_MB must be positive"))
	}
	if cfg.ResultTTL <= 0 {
		errs = append(errs, fmt.Errorf("RESULT_TTL_MINUTES must be positive"))
	}
	if cfg.GenerationPacing < 0 {
		errs = append(errs, fmt.Errorf("GENERATION_MIN_INTERVAL_MS must not be negative"))
	}
	if cfg.TraceSampleRate < 0 || cfg.TraceSampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_TRACE_SAMPLE_RATE must be within [0,1]"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fallback, fmt.Errorf("%s: invalid integer %q", key, v)
		}
		return i, nil
	}
	return fallback, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fallback, fmt.Errorf("%s: invalid number %q", key, v)
		}
		return f, nil
	}
	return fallback, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
