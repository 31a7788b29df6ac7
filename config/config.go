package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendBolt   = "bolt"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Config holds all configuration for the vector store.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Startup   StartupConfig   `yaml:"startup"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// StoreConfig holds index and storage configuration.
type StoreConfig struct {
	Backend   string `yaml:"backend"`   // "bolt", "badger", "memory"
	Dimension int    `yaml:"dimension"` // embedding length D
	Path      string `yaml:"path"`      // relative to the store directory unless absolute
}

// StartupConfig controls what happens at the startup boundary.
type StartupConfig struct {
	// RebuildFromLog replays the durable log into the in-memory index
	// after the snapshot is restored.
	RebuildFromLog bool `yaml:"rebuild_from_log"`
}

// SearchConfig holds search configuration.
type SearchConfig struct {
	DefaultK  int `yaml:"default_k"`
	CacheSize int `yaml:"cache_size"` // 0 disables the result cache
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// EmbeddingConfig selects an embedder used when a command is given text
// instead of an embedding. An empty provider disables it.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "deepseek", "jina", "ollama", "mock"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   BackendBolt,
			Dimension: 768,
		},
		Startup: StartupConfig{
			RebuildFromLog: false,
		},
		Search: SearchConfig{
			DefaultK:  10,
			CacheSize: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Embedding: EmbeddingConfig{
			APIKeyEnv: "OPENAI_API_KEY",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// LoadFromDir loads configuration from a directory (looks for vecdb.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "vecdb.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".vecdb", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// ApplyEnv overrides configuration from VECDB_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("VECDB_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("VECDB_DIMENSION"); v != "" {
		dim, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VECDB_DIMENSION %q: %w", v, err)
		}
		c.Store.Dimension = dim
	}
	if v := os.Getenv("VECDB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return c.Validate()
}

// Validate reports configuration values the store cannot run with.
func (c *Config) Validate() error {
	if c.Store.Dimension <= 0 {
		return fmt.Errorf("store.dimension must be positive, got %d", c.Store.Dimension)
	}
	switch c.Store.Backend {
	case BackendBolt, BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("unsupported store.backend %q", c.Store.Backend)
	}
	if c.Search.CacheSize < 0 {
		return fmt.Errorf("search.cache_size must not be negative, got %d", c.Search.CacheSize)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataPath returns where the backend keeps its files for the store in dir.
func DataPath(c *Config, dir string) string {
	if c.Store.Path != "" {
		if filepath.IsAbs(c.Store.Path) {
			return c.Store.Path
		}
		return filepath.Join(dir, c.Store.Path)
	}
	if c.Store.Backend == BackendBadger {
		return filepath.Join(dir, ".vecdb", "badger")
	}
	return filepath.Join(dir, ".vecdb", "store.db")
}

// EnsureDataDir ensures the .vecdb directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".vecdb"), 0755)
}
