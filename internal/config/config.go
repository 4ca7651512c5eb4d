// ABOUTME: Configuration management for jotter with YAML config loading.
// ABOUTME: Handles storage, insight, and logging settings, env overrides, and ~ expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config stores jotter configuration loaded from ~/.config/jotter/config.yaml.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Insight InsightConfig `yaml:"insight"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig selects the durable backend and where it keeps data.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"data_dir,omitempty"`
}

// InsightConfig holds the language-model endpoint settings.
type InsightConfig struct {
	Provider   string        `yaml:"provider"`
	APIURL     string        `yaml:"api_url"`
	APIKey     string        `yaml:"api_key,omitempty"`
	Model      string        `yaml:"model,omitempty"`
	MaxTokens  int           `yaml:"max_tokens"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default values.
const (
	DefaultBackend    = "disk"
	DefaultProvider   = "proxy"
	DefaultAPIURL     = "http://localhost:3001"
	DefaultMaxTokens  = 1000
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 2
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Environment variables that override the config file.
const (
	EnvDataDir    = "JOTTER_DATA_DIR"
	EnvBackend    = "JOTTER_BACKEND"
	EnvInsightURL = "JOTTER_INSIGHT_URL"
	EnvInsightKey = "JOTTER_INSIGHT_KEY"
	EnvLogLevel   = "JOTTER_LOG_LEVEL"
)

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Backend: DefaultBackend},
		Insight: InsightConfig{
			Provider:   DefaultProvider,
			APIURL:     DefaultAPIURL,
			MaxTokens:  DefaultMaxTokens,
			Timeout:    DefaultTimeout,
			MaxRetries: DefaultMaxRetries,
		},
		Log: LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// HasInsight returns true if an insight endpoint is configured.
func (c *Config) HasInsight() bool {
	if strings.EqualFold(c.Insight.Provider, "openai") {
		return c.Insight.APIKey != ""
	}
	return c.Insight.APIURL != ""
}

// GetDataDir returns the storage directory, defaulting to $XDG_DATA_HOME/jotter.
func (c *Config) GetDataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return ExpandPath(c.Storage.DataDir)
	}
	return DefaultDataDir()
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "jotter"), nil
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "jotter", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from disk and applies environment overrides. Returns
// the default config if the file doesn't exist.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadFile reads config from disk without environment overrides. Fields
// missing from the file keep their defaults.
func LoadFile() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from JOTTER_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvDataDir); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv(EnvInsightURL); v != "" {
		c.Insight.APIURL = v
	}
	if v := os.Getenv(EnvInsightKey); v != "" {
		c.Insight.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "disk", "sqlite", "memory":
	default:
		return fmt.Errorf("storage.backend must be disk, sqlite, or memory, got %q", c.Storage.Backend)
	}
	switch strings.ToLower(c.Insight.Provider) {
	case "proxy", "openai":
	default:
		return fmt.Errorf("insight.provider must be proxy or openai, got %q", c.Insight.Provider)
	}
	if c.Insight.Timeout <= 0 {
		return fmt.Errorf("insight.timeout must be positive, got %s", c.Insight.Timeout)
	}
	if c.Insight.MaxRetries < 0 {
		return fmt.Errorf("insight.max_retries must not be negative, got %d", c.Insight.MaxRetries)
	}
	return nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
