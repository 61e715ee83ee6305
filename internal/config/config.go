// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"promptlib/internal/models"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Where site configuration lives: "d1" (PostgreSQL behind the API) or "local".
	StorageMode models.StorageMode

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost       string
	ValkeyPort       string
	ValkeyPassword   string
	SettingsCacheTTL time.Duration

	// Admin write access
	AdminTokenHash  string // bcrypt hash of the admin bearer token
	AdminTOTPSecret string // optional base32 TOTP secret

	// Logging
	LogLevel slog.Level
	LogFile  string // rotate logs into this file in addition to stdout

	// Preview image uploads allowed per client IP per minute.
	UploadRateLimit int
}

// LoadDotEnv reads KEY=value pairs from the given files (default ".env")
// into the environment. Variables already set are left alone and missing
// files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "promptlib"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "promptlib"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		AdminTokenHash:  os.Getenv("ADMIN_TOKEN_HASH"),
		AdminTOTPSecret: strings.ToUpper(strings.TrimSpace(os.Getenv("ADMIN_TOTP_SECRET"))),

		LogFile: os.Getenv("LOG_FILE"),
	}

	mode, err := models.ParseStorageMode(envOrDefault("STORAGE_TYPE", string(models.StorageD1)))
	if err != nil {
		return nil, fmt.Errorf("STORAGE_TYPE: %w", err)
	}
	cfg.StorageMode = mode

	if cfg.SettingsCacheTTL, err = time.ParseDuration(envOrDefault("SETTINGS_CACHE_TTL", "10m")); err != nil {
		return nil, fmt.Errorf("SETTINGS_CACHE_TTL: %w", err)
	}
	if cfg.SettingsCacheTTL < 0 {
		return nil, fmt.Errorf("SETTINGS_CACHE_TTL must not be negative")
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.UploadRateLimit, err = strconv.Atoi(envOrDefault("UPLOAD_RATE_LIMIT", "20")); err != nil || cfg.UploadRateLimit < 1 {
		return nil, fmt.Errorf("UPLOAD_RATE_LIMIT must be a positive integer")
	}

	if cfg.AdminTokenHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.AdminTokenHash)); err != nil {
			return nil, fmt.Errorf("ADMIN_TOKEN_HASH is not a bcrypt hash: %w", err)
		}
	}

	if cfg.Env == "production" && cfg.StorageMode == models.StorageD1 {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.AdminTokenHash == "" {
			return nil, fmt.Errorf("ADMIN_TOKEN_HASH must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
