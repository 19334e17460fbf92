// Package config provides unified configuration loading for the chatbot engine.
// Supports YAML files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the chatbot engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Vector        VectorConfig        `yaml:"vector"`
	Cache         CacheConfig         `yaml:"cache"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	LLM           LLMConfig           `yaml:"llm"`
	Retrieval     RetrievalConfig     `yaml:"retrieval"`
	Chatbot       ChatbotConfig       `yaml:"chatbot"`
	Admin         AdminConfig         `yaml:"admin"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver      string         `yaml:"driver"` // sqlite or postgres
	AutoMigrate bool           `yaml:"auto_migrate"`
	SQLite      SQLiteConfig   `yaml:"sqlite"`
	Postgres    PostgresConfig `yaml:"postgres"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	JournalMode  string `yaml:"journal_mode"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// VectorConfig holds vector store settings.
type VectorConfig struct {
	Adapter    string         `yaml:"adapter"` // memory or pgvector
	Collection string         `yaml:"collection"`
	PGVector   PGVectorConfig `yaml:"pgvector"`
}

// PGVectorConfig holds pgvector-specific settings.
type PGVectorConfig struct {
	DSN   string `yaml:"dsn"` // falls back to database.postgres.dsn
	Table string `yaml:"table"`
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"` // openai, local or mock
	Model      string        `yaml:"model"`
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Dimension  int           `yaml:"dimension"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	ModelPath  string        `yaml:"model_path"` // local provider only
}

// LLMConfig holds chat completion settings.
type LLMConfig struct {
	Model        string        `yaml:"model"`
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	VariantCount int           `yaml:"variant_count"`
	Breaker      BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for the LLM client.
type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// RetrievalConfig holds retrieval settings.
type RetrievalConfig struct {
	TopK          int  `yaml:"top_k"`
	MultiQuery    bool `yaml:"multi_query"`
	CacheVariants bool `yaml:"cache_variants"`
}

// ChatbotConfig holds request-level limits and stats defaults.
type ChatbotConfig struct {
	MaxQuestionLength int `yaml:"max_question_length"`
	StatsDays         int `yaml:"stats_days"`
	HistoryLimit      int `yaml:"history_limit"`
}

// AdminConfig guards the maintenance endpoints.
type AdminConfig struct {
	Token string `yaml:"token"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     90 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   75 * time.Second,
			GracefulShutdown: 10 * time.Second,
			AllowedOrigins:   []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			AutoMigrate: true,
			SQLite: SQLiteConfig{
				Path:         "/tmp/chatbot-engine.db",
				MaxOpenConns: 1,
				JournalMode:  "WAL",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Vector: VectorConfig{
			Adapter:    "memory",
			Collection: "company_knowledge",
			PGVector: PGVectorConfig{
				Table: "knowledge_vectors",
			},
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        30 * time.Minute,
			MaxEntries: 5000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-3-small",
			BaseURL:    "https://api.openai.com/v1",
			Dimension:  1536,
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		LLM: LLMConfig{
			Model:        "gpt-4o",
			BaseURL:      "https://api.openai.com/v1",
			Temperature:  0.1,
			Timeout:      60 * time.Second,
			MaxRetries:   2,
			VariantCount: 3,
			Breaker: BreakerConfig{
				MaxFailures: 5,
				OpenTimeout: 30 * time.Second,
			},
		},
		Retrieval: RetrievalConfig{
			TopK:          10,
			MultiQuery:    true,
			CacheVariants: true,
		},
		Chatbot: ChatbotConfig{
			MaxQuestionLength: 1000,
			StatsDays:         7,
			HistoryLimit:      50,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "debug",
			LogFormat:   "json",
			ServiceName: "chatbot-engine",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid database driver: %s", c.Database.Driver)
	}

	if c.Vector.Adapter != "memory" && c.Vector.Adapter != "pgvector" {
		return fmt.Errorf("invalid vector adapter: %s", c.Vector.Adapter)
	}

	if c.Vector.Adapter == "pgvector" && c.PGVectorDSN() == "" {
		return fmt.Errorf("pgvector adapter requires a postgres dsn")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	switch c.Embedding.Provider {
	case "openai", "mock":
	case "local":
		if c.Embedding.ModelPath == "" {
			return fmt.Errorf("local embedding provider requires model_path")
		}
	default:
		return fmt.Errorf("invalid embedding provider: %s", c.Embedding.Provider)
	}

	if c.Embedding.Dimension < 1 {
		return fmt.Errorf("embedding dimension must be positive")
	}

	if c.Retrieval.TopK < 1 || c.Retrieval.TopK > 50 {
		return fmt.Errorf("top_k must be between 1 and 50")
	}

	if c.Chatbot.MaxQuestionLength < 1 {
		return fmt.Errorf("max_question_length must be positive")
	}

	return nil
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLite.Path
	}
	return c.Database.Postgres.DSN
}

// PGVectorDSN returns the connection string used by the pgvector adapter.
func (c *Config) PGVectorDSN() string {
	if c.Vector.PGVector.DSN != "" {
		return c.Vector.PGVector.DSN
	}
	return c.Database.Postgres.DSN
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Database.Driver = "sqlite"
			cfg.Database.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Database.Driver = "postgres"
			cfg.Database.Postgres.DSN = v
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("VECTOR_ADAPTER"); v != "" {
		cfg.Vector.Adapter = v
	}

	if v := os.Getenv("PGVECTOR_DSN"); v != "" {
		cfg.Vector.PGVector.DSN = v
	}

	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}

	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	if v := os.Getenv("EMBEDDING_MODEL_PATH"); v != "" {
		cfg.Embedding.ModelPath = v
	}

	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}

	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	// OPENAI_API_KEY seeds both clients unless a dedicated key is set.
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
		if cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
	}

	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}

	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Admin.Token = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
