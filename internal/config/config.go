package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the rci service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Sync        SyncConfig        `yaml:"sync"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Cache       CacheConfig       `yaml:"cache"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownTimeout int `yaml:"shutdown_timeout_sec"`
}

// SyncConfig holds the default parameters for a Sync run.
type SyncConfig struct {
	SourcePath      string   `yaml:"source_path"`
	DefaultPackages []string `yaml:"default_packages"`
}

// BudgetConfig holds token budget settings for the embedding provider.
type BudgetConfig struct {
	DailyTokenLimit      int64   `yaml:"daily_token_limit"`       // 0 = unlimited
	MonthlyTokenLimit    int64   `yaml:"monthly_token_limit"`     // 0 = unlimited
	CostPerMillionTokens float64 `yaml:"cost_per_million_tokens"` // for the dashboard
	Action               string  `yaml:"action"`                  // "reject" | "warn" (default)
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider  string       `yaml:"provider"` // openai (default)
	Model     string       `yaml:"model"`
	APIKey    string       `yaml:"api_key"`
	BaseURL   string       `yaml:"base_url"`
	Dimension int          `yaml:"dimension"`
	Budget    BudgetConfig `yaml:"budget"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Type string `yaml:"type"` // file (default, only supported type)
	Path string `yaml:"path"`
}

// CacheConfig holds SmartCache settings.
type CacheConfig struct {
	Enabled             bool    `yaml:"enabled"`
	TTLSeconds          int     `yaml:"ttl_seconds"`
	MaxSize             int     `yaml:"max_size"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR} / ${VAR:-default}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimension <= 0 {
		c.Embedding.Dimension = 1536
	}
	if c.Embedding.Budget.Action == "" {
		c.Embedding.Budget.Action = "warn"
	}
	if c.VectorStore.Type == "" {
		c.VectorStore.Type = "file"
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = "data/vectorstore"
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 3600
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = 1000
	}
	if c.Cache.SimilarityThreshold <= 0 {
		c.Cache.SimilarityThreshold = 0.92
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action,
		)
	}
	if c.VectorStore.Type != "file" {
		return fmt.Errorf("vector_store.type must be \"file\", got %q", c.VectorStore.Type)
	}
	if c.VectorStore.Path == "" {
		return fmt.Errorf("vector_store.path is required")
	}
	if c.Cache.SimilarityThreshold < 0 || c.Cache.SimilarityThreshold > 1 {
		return fmt.Errorf("cache.similarity_threshold must be between 0 and 1, got %f", c.Cache.SimilarityThreshold)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
