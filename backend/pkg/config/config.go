package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port string
	Env  string

	// Sessions
	SessionIdleTimeout time.Duration // Zero disables idle expiry
	SweepSchedule      string        // cron spec for the idle sweep

	// Ingestion
	FetchTimeout     time.Duration
	FetchConcurrency int
	MaxPageBytes     int64
	UserAgent        string

	// LLM (optional, summaries and entity extraction)
	LLMBaseURL string
	LLMAPIKey  string
	ModelID    string

	// Neo4j archive (optional)
	ArchiveEnabled bool
	Neo4jURI       string
	Neo4jUser      string
	Neo4jPassword  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "5000"),
		Env:                getEnv("ENV", "development"),
		SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		SweepSchedule:      getEnv("SESSION_SWEEP_SCHEDULE", "@every 5m"),
		FetchTimeout:       getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchConcurrency:   getEnvInt("FETCH_CONCURRENCY", 4),
		MaxPageBytes:       int64(getEnvInt("MAX_PAGE_BYTES", 2<<20)),
		UserAgent:          getEnv("USER_AGENT", "continuum-ingest/1.0"),
		LLMBaseURL:         getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		ModelID:            getEnv("MODEL_ID", "gpt-4o-mini"),
		ArchiveEnabled:     getEnvBool("ARCHIVE_ENABLED", false),
		Neo4jURI:           getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be at least 1")
	}
	if c.MaxPageBytes < 1 {
		return fmt.Errorf("MAX_PAGE_BYTES must be positive")
	}
	if c.SessionIdleTimeout < 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT cannot be negative")
	}
	if c.ArchiveEnabled {
		if c.Neo4jURI == "" {
			return fmt.Errorf("NEO4J_URI is required when ARCHIVE_ENABLED is set")
		}
		if c.Neo4jUser == "" {
			return fmt.Errorf("NEO4J_USER is required when ARCHIVE_ENABLED is set")
		}
	}
	// LLM settings are optional; summaries fall back to a static message
	return nil
}

// LLMEnabled reports whether an LLM endpoint is configured
func (c *Config) LLMEnabled() bool {
	return c.LLMBaseURL != "" || c.LLMAPIKey != ""
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
