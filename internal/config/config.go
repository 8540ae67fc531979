// Package config loads ibcrag settings from a TOML file with environment
// overrides. A missing file yields the defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Embedding providers
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderLocal  = "local"
)

// ErrInvalidConfig indicates a configuration that fails validation
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete ibcrag configuration
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Merge     MergeConfig     `toml:"merge"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Indexer   IndexerConfig   `toml:"indexer"`
	Output    OutputConfig    `toml:"output"`
}

// DatabaseConfig locates the SQLite index
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// MergeConfig holds the token budgets of the merge pass
type MergeConfig struct {
	MinTokens  int    `toml:"min_tokens"`
	MaxTokens  int    `toml:"max_tokens"`
	TinyTokens int    `toml:"tiny_tokens"`
	Encoding   string `toml:"encoding"`
}

// ChunkingConfig controls segmentation
type ChunkingConfig struct {
	MinSubPointChars int `toml:"min_subpoint_chars"`
}

// EmbeddingConfig selects and throttles the embedding provider
type EmbeddingConfig struct {
	Provider          string  `toml:"provider"`
	Model             string  `toml:"model"`
	APIKey            string  `toml:"api_key"`
	Endpoint          string  `toml:"endpoint"`
	Deployment        string  `toml:"deployment"`
	APIVersion        string  `toml:"api_version"`
	CacheSize         int     `toml:"cache_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// IndexerConfig controls batch indexing
type IndexerConfig struct {
	Workers    int      `toml:"workers"`
	BatchSize  int      `toml:"batch_size"`
	Extensions []string `toml:"extensions"`
	Family     string   `toml:"family"`
}

// OutputConfig controls record export
type OutputConfig struct {
	Dir      string `toml:"dir"`
	Validate bool   `toml:"validate"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: filepath.Join(homeDir(), "index.db")},
		Merge: MergeConfig{
			MinTokens:  150,
			MaxTokens:  600,
			TinyTokens: 20,
			Encoding:   "cl100k_base",
		},
		Chunking: ChunkingConfig{MinSubPointChars: 100},
		Embedding: EmbeddingConfig{
			Provider:          ProviderLocal,
			APIVersion:        "2024-02-01",
			CacheSize:         10000,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Indexer: IndexerConfig{
			Workers:    4,
			BatchSize:  20,
			Extensions: []string{".txt", ".md"},
		},
		Output: OutputConfig{Dir: "output", Validate: true},
	}
}

// DefaultPath returns ~/.ibcrag/config.toml
func DefaultPath() string {
	return filepath.Join(homeDir(), "config.toml")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ibcrag"
	}
	return filepath.Join(home, ".ibcrag")
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path means DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strict.String())
		}
		return err
	}
	return nil
}

// ApplyEnv applies environment overrides read through getenv
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("IBCRAG_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := getenv("IBCRAG_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = strings.ToLower(v)
	}
	if v := getenv("IBCRAG_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Indexer.Workers = n
		}
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if v := getenv("OPENAI_API_KEY"); v != "" {
			c.Embedding.APIKey = v
		}
	case ProviderAzure:
		if v := getenv("AZURE_OPENAI_API_KEY"); v != "" {
			c.Embedding.APIKey = v
		}
		if v := getenv("AZURE_OPENAI_ENDPOINT"); v != "" {
			c.Embedding.Endpoint = v
		}
		if v := getenv("AZURE_OPENAI_DEPLOYMENT"); v != "" {
			c.Embedding.Deployment = v
		}
	}
}

// Validate checks budgets and provider settings
func (c *Config) Validate() error {
	m := c.Merge
	if m.MinTokens <= 0 || m.MaxTokens <= 0 || m.TinyTokens <= 0 {
		return fmt.Errorf("%w: merge token budgets must be positive", ErrInvalidConfig)
	}
	if m.MinTokens >= m.MaxTokens {
		return fmt.Errorf("%w: merge.min_tokens (%d) must be below merge.max_tokens (%d)", ErrInvalidConfig, m.MinTokens, m.MaxTokens)
	}
	if m.TinyTokens > m.MinTokens {
		return fmt.Errorf("%w: merge.tiny_tokens (%d) exceeds merge.min_tokens (%d)", ErrInvalidConfig, m.TinyTokens, m.MinTokens)
	}
	if c.Chunking.MinSubPointChars <= 0 {
		return fmt.Errorf("%w: chunking.min_subpoint_chars must be positive", ErrInvalidConfig)
	}

	switch c.Embedding.Provider {
	case ProviderLocal, ProviderOpenAI:
	case ProviderAzure:
		if c.Embedding.APIKey != "" && (c.Embedding.Endpoint == "" || c.Embedding.Deployment == "") {
			return fmt.Errorf("%w: azure provider needs an endpoint and a deployment", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}
	if c.Embedding.RequestsPerSecond < 0 || c.Embedding.Burst < 0 {
		return fmt.Errorf("%w: embedding rate limits cannot be negative", ErrInvalidConfig)
	}

	if c.Indexer.Workers <= 0 || c.Indexer.BatchSize <= 0 {
		return fmt.Errorf("%w: indexer workers and batch_size must be positive", ErrInvalidConfig)
	}
	return nil
}

// Save writes the configuration as TOML
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
