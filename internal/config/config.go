package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Reports   ReportsConfig   `yaml:"reports"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// SnapshotConfig controls the snapshot builder and its scheduler
type SnapshotConfig struct {
	AutoRunEnabled      bool   `yaml:"auto_run_enabled"`
	AutoRunTime         string `yaml:"auto_run_time"` // HH:MM
	BuildTimeoutSeconds int    `yaml:"build_timeout_seconds"`
	TimelinessDays      int    `yaml:"timeliness_days"`
	AutoCreatedBy       string `yaml:"auto_created_by"`
}

// RateLimitConfig contains rate limiting settings for expensive endpoints
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// ReportsConfig controls generated document output
type ReportsConfig struct {
	OutputDir     string `yaml:"output_dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			AutoRunEnabled:      false,
			AutoRunTime:         "02:00",
			BuildTimeoutSeconds: 300,
			TimelinessDays:      30,
			AutoCreatedBy:       "scheduler",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 5,
			RequestsPerHour:   60,
		},
		Reports: ReportsConfig{
			OutputDir:     "/app/data/reports",
			RetentionDays: 90,
		},
		Logging: LoggingConfig{
			Level:       "info",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// BuildTimeout returns the snapshot build budget as a duration
func (c *SnapshotConfig) BuildTimeout() time.Duration {
	if c.BuildTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.BuildTimeoutSeconds) * time.Second
}
