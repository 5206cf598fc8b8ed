package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the job-posting RAG pipeline.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Rerank    RerankConfig    `yaml:"rerank"`
	Generate  GenerateConfig  `yaml:"generate"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig selects and configures the vector store backend.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "postgres" or "bolt"
	URL      string `yaml:"url"`    // full DSN; overrides the discrete fields
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	Table    string `yaml:"table"`
	Path     string `yaml:"path"` // bolt database file
}

// DSN builds the postgres connection string. DATABASE_URL wins when set,
// then the url field, then the discrete fields.
func (d DatabaseConfig) DSN() string {
	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env
	}
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode)
}

// LogString returns the DSN with any password elided, safe for logging.
func (d DatabaseConfig) LogString() string {
	dsn := d.DSN()
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		u.User = url.User(u.User.Username())
		return u.String()
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s", d.Host, d.Port, d.Name)
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	Limit           int     `yaml:"limit"`
	OverfetchFactor int     `yaml:"overfetch_factor"`
	MinFetch        int     `yaml:"min_fetch"`
	MaxDistance     float64 `yaml:"max_distance"` // <= 0 disables the ceiling
	CacheSize       int     `yaml:"cache_size"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// RerankConfig holds cross-encoder scorer configuration.
type RerankConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	TopK      int    `yaml:"top_k"`
}

// GenerateConfig holds answer generation configuration.
type GenerateConfig struct {
	Model           string `yaml:"model"`
	APIKeyEnv       string `yaml:"api_key_env"`
	MaxContextChars int    `yaml:"max_context_chars"`
	FinalCount      int    `yaml:"final_count"`
	RetrieveLimit   int    `yaml:"retrieve_limit"`
	MaxTokens       int    `yaml:"max_tokens"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			Name:    "postgres",
			User:    "postgres",
			SSLMode: "disable",
			Table:   "job_embeddings",
			Path:    ".jobrag/vectors.db",
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Retrieve: RetrieveConfig{
			Limit:           10,
			OverfetchFactor: 15,
			MinFetch:        100,
			MaxDistance:     0,
			CacheSize:       100,
			CacheTTLSeconds: 300,
		},
		Rerank: RerankConfig{
			Endpoint:  "https://api.cohere.ai/v1/rerank",
			Model:     "rerank-multilingual-v3.0",
			APIKeyEnv: "COHERE_API_KEY",
			TopK:      5,
		},
		Generate: GenerateConfig{
			Model:           "gpt-4o-mini",
			APIKeyEnv:       "OPENAI_API_KEY",
			MaxContextChars: 6000,
			FinalCount:      5,
			RetrieveLimit:   20,
			MaxTokens:       1024,
		},
		Logging: LoggingConfig{
			Level: "info",
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

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for jobrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "jobrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".jobrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
