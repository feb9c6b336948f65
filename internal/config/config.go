// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"

	"github.com/aristath/degiro/internal/domain"
)

// DefaultBaseURL is the DEGIRO web trader host
const DefaultBaseURL = "https://trader.degiro.nl"

// Config holds application configuration
type Config struct {
	BaseURL           string        // DEGIRO web trader host
	Username          string        // Optional, prompted when empty
	Password          string        // Optional, prompted when empty
	CredentialsFile   string        // TOML or JSON file with username/password
	TwoFactor         bool          // Prompt for a one-time password at login
	ReferenceCurrency string        // Currency portfolio summaries are computed in
	Timeout           time.Duration // HTTP timeout per request
	LogLevel          string
	LogPretty         bool
	DataDir           string        // Base directory for the history archive (always absolute)
	Port              int           // Local HTTP API port
	ArchiveSchedule   string        // Cron schedule for archiving while serving, empty disables
	ArchiveLookback   time.Duration // Window each scheduled archive run covers
}

// Load reads configuration from environment variables.
// envFiles are optional .env files; missing files are ignored.
func Load(envFiles ...string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(envFiles...)

	dataDir, err := filepath.Abs(getEnv("DEGIRO_DATA_DIR", "data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	cfg := &Config{
		BaseURL:           strings.TrimRight(getEnv("DEGIRO_BASE_URL", DefaultBaseURL), "/"),
		Username:          getEnv("DEGIRO_USERNAME", ""),
		Password:          getEnv("DEGIRO_PASSWORD", ""),
		CredentialsFile:   getEnv("DEGIRO_CREDENTIALS_FILE", ""),
		TwoFactor:         getEnvAsBool("DEGIRO_TWO_FACTOR", false),
		ReferenceCurrency: strings.ToUpper(getEnv("DEGIRO_REFERENCE_CURRENCY", domain.DefaultReferenceCurrency.String())),
		Timeout:           getEnvAsDuration("DEGIRO_TIMEOUT", 30*time.Second),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", true),
		DataDir:           dataDir,
		Port:              getEnvAsInt("PORT", 8080),
		ArchiveSchedule:   getEnv("DEGIRO_ARCHIVE_SCHEDULE", ""),
		ArchiveLookback:   getEnvAsDuration("DEGIRO_ARCHIVE_LOOKBACK", 30*24*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configuration values are usable
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("DEGIRO_BASE_URL must not be empty")
	}
	if money.GetCurrency(c.ReferenceCurrency) == nil {
		return fmt.Errorf("unknown reference currency %q", c.ReferenceCurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.ArchiveSchedule != "" && c.ArchiveLookback <= 0 {
		return fmt.Errorf("archive lookback must be positive, got %s", c.ArchiveLookback)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// ArchivePath returns the location of the history archive database
func (c *Config) ArchivePath() string {
	return filepath.Join(c.DataDir, "archive.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
