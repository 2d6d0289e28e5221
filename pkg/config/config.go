package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Environment        string
	ServerPort         int
	LogLevel           string
	CORSAllowedOrigins []string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisURL string

	JWTSecret  string
	SessionTTL time.Duration

	ImageDir             string
	ImageBasePath        string
	MaxUploadBytes       int64
	JanitorInterval      time.Duration
	ImageRetentionWindow time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	sessionHours, err := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_HOURS: %w", err)
	}

	maxUploadMB, err := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_MB: %w", err)
	}

	janitorMinutes, err := strconv.Atoi(getEnv("IMAGE_JANITOR_INTERVAL_MINUTES", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_JANITOR_INTERVAL_MINUTES: %w", err)
	}

	retentionMinutes, err := strconv.Atoi(getEnv("IMAGE_RETENTION_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid IMAGE_RETENTION_MINUTES: %w", err)
	}

	cfg := &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         port,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "drukstay"),
		DBPassword: getEnv("DB_PASSWORD", "dev"),
		DBName:     getEnv("DB_NAME", "drukstay"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: time.Duration(sessionHours) * time.Hour,

		ImageDir:             getEnv("IMAGE_DIR", "./data/property"),
		ImageBasePath:        getEnv("IMAGE_BASE_PATH", "/property"),
		MaxUploadBytes:       int64(maxUploadMB) << 20,
		JanitorInterval:      time.Duration(janitorMinutes) * time.Minute,
		ImageRetentionWindow: time.Duration(retentionMinutes) * time.Minute,
	}

	if cfg.Environment == "production" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production hardening
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
