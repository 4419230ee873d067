package config

import (
	"os"

	"github.com/joho/godotenv"
)

// DefaultAPIBaseURL is the production TrashDash API, versioned path included.
const DefaultAPIBaseURL = "https://api.trashdash.com/api/v1"

// Config holds all configuration for the application
type Config struct {
	// API Configuration
	API APIConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds backend API configuration
type APIConfig struct {
	BaseURL string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// API base URL - production backend by default, overridable for dev
	baseURL := os.Getenv("TRASHDASH_API_URL")
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}

	// Logging configuration - console output suits an interactive CLI
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	return &Config{
		API: APIConfig{
			BaseURL: baseURL,
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}, nil
}
