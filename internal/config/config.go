// Package config holds the client configuration: where the gateway lives,
// where local state is kept, and how output is formatted. Configuration is
// a YAML file under ~/.shop with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	// API configures the remote gateway connection.
	API APIConfig `yaml:"api"`

	// Storage configures the durable local store.
	Storage StorageConfig `yaml:"storage"`

	// Display configures money and table rendering.
	Display DisplayConfig `yaml:"display"`

	// Logging configures diagnostic output.
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the gateway connection.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// StorageConfig configures the local store and catalog cache.
type StorageConfig struct {
	// Dir holds per-key state files (tokens, cart).
	Dir string `yaml:"dir"`
	// CatalogDB is the SQLite product cache path.
	CatalogDB string `yaml:"catalog_db"`
}

// DisplayConfig configures rendering.
type DisplayConfig struct {
	Locale string `yaml:"locale"`
}

// LoggingConfig configures diagnostics.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the defaults applied before any file or env
// override.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".shop")
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: "30s",
		},
		Storage: StorageConfig{
			Dir:       filepath.Join(base, "store"),
			CatalogDB: filepath.Join(base, "catalog.db"),
		},
		Display: DisplayConfig{
			Locale: "en-US",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the config file location under the home directory.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".shop", "config.yaml")
}

// Load reads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("SHOP_API_URL"); url != "" {
		c.API.BaseURL = url
	}
	if dir := os.Getenv("SHOP_STORE_DIR"); dir != "" {
		c.Storage.Dir = dir
	}
	if db := os.Getenv("SHOP_CATALOG_DB"); db != "" {
		c.Storage.CatalogDB = db
	}
	if locale := os.Getenv("SHOP_LOCALE"); locale != "" {
		c.Display.Locale = locale
	}
	if level := os.Getenv("SHOP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetAPITimeout returns the request timeout as a duration.
func (c *Config) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}
