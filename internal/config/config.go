package config

import (
	"fmt"
	"os"
	"time"
)

const defaultWebAppURL = "https://wishlistme-tg.onrender.com"

// Config holds all configuration for the application
type Config struct {
	TelegramToken string
	DatabaseURL   string
	LogLevel      string
	Port          string
	WebAppURL     string
	PublicDir     string
	AuthMaxAge    time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		Port:      getEnvOrDefault("PORT", "8080"),
		WebAppURL: getEnvOrDefault("WEBAPP_URL", defaultWebAppURL),
		PublicDir: getEnvOrDefault("PUBLIC_DIR", "public"),
	}

	// Required environment variables
	if cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN"); cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	if cfg.DatabaseURL = os.Getenv("DATABASE_URL"); cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	// Login payloads older than this are rejected; "0" disables the check.
	maxAge, err := time.ParseDuration(getEnvOrDefault("AUTH_MAX_AGE", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_MAX_AGE: %w", err)
	}
	cfg.AuthMaxAge = maxAge

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
