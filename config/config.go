// Package config provides configuration management for the schedtrack
// CLI. Settings are loaded from a YAML file and overlaid with
// SCHEDTRACK_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
)

// Default configuration values.
const (
	DefaultConfigDir    = ".schedtrack"
	DefaultConfigFile   = "config.yaml"
	DefaultOutputFormat = OutputFormatText
	DefaultRedisAddr    = "localhost:6379"
)

// DatabaseConfig holds PostgreSQL connection settings for the session
// store.
type DatabaseConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Database string `yaml:"database,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// IsConfigured returns true when the required database fields are set.
func (c *DatabaseConfig) IsConfigured() bool {
	return c != nil && c.Host != "" && c.Database != "" && c.User != ""
}

// ConnectionString returns the PostgreSQL connection string, or the
// empty string when the database is not configured.
func (c *DatabaseConfig) ConnectionString() string {
	if !c.IsConfigured() {
		return ""
	}
	port := c.Port
	if port == 0 {
		port = 5432
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, port, c.Database, sslmode)
}

// Config holds the schedtrack CLI configuration.
type Config struct {
	// ScheduleURL is the upstream schedule document endpoint.
	ScheduleURL string `yaml:"schedule_url,omitempty"`

	// CacheDir is where downloaded documents and HTTP validators are
	// cached. Defaults to <config dir>/cache.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// OutputFormat specifies the default output format for commands.
	OutputFormat OutputFormat `yaml:"output_format"`

	// RedisAddr is the Redis endpoint for events and preferences.
	RedisAddr string `yaml:"redis_addr,omitempty"`

	// Database holds the session store connection settings.
	Database *DatabaseConfig `yaml:"database,omitempty"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		OutputFormat: DefaultOutputFormat,
		RedisAddr:    DefaultRedisAddr,
	}
}

// ConfigDir returns the configuration directory path. Uses
// $SCHEDTRACK_CONFIG_DIR if set, otherwise ~/.schedtrack.
func ConfigDir() (string, error) {
	if dir := os.Getenv("SCHEDTRACK_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir), nil
}

// Load loads the configuration from file and environment variables.
// Later sources override earlier ones: defaults, then the config file,
// then SCHEDTRACK_* environment variables.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, DefaultConfigFile)
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	loadFromEnv(cfg)

	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(dir, "cache")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv("SCHEDTRACK_SCHEDULE_URL"); v != "" {
		cfg.ScheduleURL = v
	}
	if v := os.Getenv("SCHEDTRACK_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("SCHEDTRACK_OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if v := os.Getenv("SCHEDTRACK_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("SCHEDTRACK_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}
	loadDatabaseFromEnv(cfg)
}

func loadDatabaseFromEnv(cfg *Config) {
	host := os.Getenv("SCHEDTRACK_DB_HOST")
	database := os.Getenv("SCHEDTRACK_DB_NAME")
	user := os.Getenv("SCHEDTRACK_DB_USER")
	if host == "" && database == "" && user == "" {
		return
	}

	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if host != "" {
		cfg.Database.Host = host
	}
	if database != "" {
		cfg.Database.Database = database
	}
	if user != "" {
		cfg.Database.User = user
	}
	if v := os.Getenv("SCHEDTRACK_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("SCHEDTRACK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("SCHEDTRACK_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text or json)", c.OutputFormat)
	}
	return nil
}

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON:
		return true
	default:
		return false
	}
}

func (f OutputFormat) String() string {
	return string(f)
}

// Save writes the configuration to the config file, creating the
// directory if needed.
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
