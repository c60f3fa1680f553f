package config

import (
	"fmt"
	"os"
	"time"
)

// placeholderAPIKey is the value shipped in .env.example; deploying
// with it still set is a configuration mistake, not a usable key.
const placeholderAPIKey = "your_gemini_api_key_here"

// ConfigurationError reports a missing or unusable configuration
// value. It is startup-fatal: the process must abort rather than run
// degraded.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
}

// Config holds all configuration for the service. Loaded once at
// startup and read-only afterwards, so concurrent reads need no
// synchronization.
type Config struct {
	GeminiAPIKey string
	GeminiModel  string

	Port      string
	JWTSecret string

	// Credentials for the token endpoint. The secret is configured as
	// its SHA-256 hex digest so the raw value never sits in the
	// environment.
	APIKey        string
	APISecretHash string

	// GenerationTimeout bounds each remote model call. Zero disables
	// the bound and defers to the provider's defaults.
	GenerationTimeout time.Duration
}

// Load reads configuration from environment variables, applying
// defaults for optional fields and failing fast on missing or
// placeholder credentials.
func Load() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, &ConfigurationError{Key: "GEMINI_API_KEY", Reason: "is required"}
	}
	if apiKey == placeholderAPIKey {
		return nil, &ConfigurationError{Key: "GEMINI_API_KEY", Reason: "is still set to the placeholder value"}
	}

	cfg := &Config{
		GeminiAPIKey:  apiKey,
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		APIKey:        os.Getenv("API_KEY"),
		APISecretHash: os.Getenv("API_SECRET_HASH"),
	}

	if cfg.JWTSecret == "" {
		return nil, &ConfigurationError{Key: "JWT_SECRET", Reason: "is required"}
	}
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Key: "API_KEY", Reason: "is required"}
	}
	if cfg.APISecretHash == "" {
		return nil, &ConfigurationError{Key: "API_SECRET_HASH", Reason: "is required"}
	}

	timeoutStr := getEnv("GENERATION_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, &ConfigurationError{Key: "GENERATION_TIMEOUT", Reason: fmt.Sprintf("is not a valid duration: %q", timeoutStr)}
	}
	if timeout < 0 {
		return nil, &ConfigurationError{Key: "GENERATION_TIMEOUT", Reason: "must not be negative"}
	}
	cfg.GenerationTimeout = timeout

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
