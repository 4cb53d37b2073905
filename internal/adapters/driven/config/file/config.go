// Package file loads the typed application configuration from a TOML
// file, merged with environment variable overrides for secrets.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/agrichat/agrichat/internal/core/domain"
)

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "config.toml"

// Config is the full application configuration.
type Config struct {
	LLM        LLMConfig        `toml:"llm"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Storage    StorageConfig    `toml:"storage"`
	Search     SearchConfig     `toml:"search"`
	Generation GenerationConfig `toml:"generation"`
	Ingest     IngestConfig     `toml:"ingest"`
}

// LLMConfig configures the answer-generation model.
type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

// EmbeddingConfig configures the embedding model.
type EmbeddingConfig struct {
	Provider          string  `toml:"provider"`
	Model             string  `toml:"model"`
	BaseURL           string  `toml:"base_url"`
	APIKey            string  `toml:"api_key"`
	Dimensions        int     `toml:"dimensions"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// StorageConfig configures persistence backends.
type StorageConfig struct {
	// DataDir holds the SQLite database (default: ~/.agrichat/data).
	DataDir string `toml:"data_dir"`

	// PostgresDSN is the pgvector connection string. Empty selects the
	// in-memory vector index.
	PostgresDSN string `toml:"postgres_dsn"`

	// Table is the pgvector chunk table name.
	Table string `toml:"table"`
}

// SearchConfig configures hybrid retrieval.
type SearchConfig struct {
	LexicalWeight float64 `toml:"lexical_weight"`
	VectorWeight  float64 `toml:"vector_weight"`
	DefaultK      int     `toml:"default_k"`
	MaxK          int     `toml:"max_k"`
	HistoryLimit  int     `toml:"history_limit"`
}

// GenerationConfig configures answer generation.
type GenerationConfig struct {
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens"`
	Streaming   bool    `toml:"streaming"`
}

// IngestConfig configures document ingestion.
type IngestConfig struct {
	ChunkSize     int   `toml:"chunk_size"`
	ChunkOverlap  int   `toml:"chunk_overlap"`
	MaxFileSizeMB int64 `toml:"max_file_size_mb"`
}

// Default returns a configuration with sensible defaults; the TOML
// file and environment override it.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "openai",
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
		},
		Search: SearchConfig{
			LexicalWeight: 0.5,
			VectorWeight:  0.5,
			DefaultK:      5,
			MaxK:          20,
			HistoryLimit:  10,
		},
		Generation: GenerationConfig{
			Temperature: 0.7,
			MaxTokens:   2000,
			Streaming:   true,
		},
		Ingest: IngestConfig{
			ChunkSize:     1000,
			ChunkOverlap:  200,
			MaxFileSizeMB: 50,
		},
	}
}

// Load reads the TOML file at path (if it exists), applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// No file is fine; environment alone can carry the secrets.
	default:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the file values.
// Secrets belong in the environment, not in a checked-in TOML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("AGRICHAT_LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("AGRICHAT_EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("AGRICHAT_POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
	}

	// Common provider keys, used when no explicit override is set.
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = providerKeyFromEnv(c.LLM.Provider)
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = providerKeyFromEnv(c.Embedding.Provider)
	}
}

func providerKeyFromEnv(provider string) string {
	switch domain.AIProvider(provider) {
	case domain.AIProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case domain.AIProviderGemini:
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

// Validate checks the configuration, failing fast on values the
// services would reject later.
func (c Config) Validate() error {
	if !domain.AIProvider(c.LLM.Provider).IsValid() {
		return fmt.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}
	if !domain.AIProvider(c.Embedding.Provider).IsValid() {
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Search.LexicalWeight < 0 || c.Search.VectorWeight < 0 {
		return fmt.Errorf("config: search weights must be non-negative")
	}
	if c.Search.LexicalWeight+c.Search.VectorWeight <= 0 {
		return fmt.Errorf("config: search weights must sum to a positive value")
	}
	if c.Search.DefaultK < 1 || c.Search.DefaultK > c.Search.MaxK {
		return fmt.Errorf("config: default_k must be in [1, max_k]")
	}
	if c.Search.MaxK < 1 || c.Search.MaxK > 20 {
		return fmt.Errorf("config: max_k must be in [1, 20]")
	}
	if c.Search.HistoryLimit < 0 {
		return fmt.Errorf("config: history_limit must be non-negative")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 1 {
		return fmt.Errorf("config: temperature must be in [0, 1]")
	}
	if c.Generation.MaxTokens < 0 {
		return fmt.Errorf("config: max_tokens must be non-negative")
	}
	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk_size must be positive")
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("config: chunk_overlap must be in [0, chunk_size)")
	}
	if c.Ingest.MaxFileSizeMB <= 0 {
		return fmt.Errorf("config: max_file_size_mb must be positive")
	}
	return nil
}

// LLMSettings converts the config into domain settings for the AI factory.
func (c Config) LLMSettings() domain.LLMSettings {
	return domain.LLMSettings{
		Provider: domain.AIProvider(c.LLM.Provider),
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
		APIKey:   c.LLM.APIKey,
	}
}

// EmbeddingSettings converts the config into domain settings for the AI factory.
func (c Config) EmbeddingSettings() domain.EmbeddingSettings {
	return domain.EmbeddingSettings{
		Provider:          domain.AIProvider(c.Embedding.Provider),
		Model:             c.Embedding.Model,
		BaseURL:           c.Embedding.BaseURL,
		APIKey:            c.Embedding.APIKey,
		Dimensions:        c.Embedding.Dimensions,
		RequestsPerSecond: c.Embedding.RequestsPerSecond,
	}
}

// MaxFileSize returns the ingestion size limit in bytes.
func (c Config) MaxFileSize() int64 {
	return c.Ingest.MaxFileSizeMB * 1024 * 1024
}
