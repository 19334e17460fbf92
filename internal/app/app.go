// Package app wires configuration into the chatbot components shared by the
// API server and the CLI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/toktokhan/chatbot-engine/internal/cache"
	"github.com/toktokhan/chatbot-engine/internal/chatbot"
	"github.com/toktokhan/chatbot-engine/internal/config"
	"github.com/toktokhan/chatbot-engine/internal/embedding"
	"github.com/toktokhan/chatbot-engine/internal/fewshot"
	"github.com/toktokhan/chatbot-engine/internal/ingest"
	"github.com/toktokhan/chatbot-engine/internal/intent"
	"github.com/toktokhan/chatbot-engine/internal/llm"
	"github.com/toktokhan/chatbot-engine/internal/monitoring"
	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/prompt"
	"github.com/toktokhan/chatbot-engine/internal/retrieval"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

// App holds the constructed components. Close releases every resource it opened.
type App struct {
	Config    *config.Config
	Logger    *observability.Logger
	DB        *sql.DB
	Repos     *storage.Repositories
	Knowledge *storage.Knowledge
	Cache     cache.Client
	Embedder  embedding.Embedder
	Index     retrieval.VectorIndex
	Store     *retrieval.VectorStore
	LLM       *llm.Client
	Examples  *fewshot.Registry
	Scorer    *intent.Scorer
	Chatbot   *chatbot.Service
	Logs      *monitoring.ConversationLogger
	Stats     *monitoring.StatsService
	Indexer   *ingest.Indexer
	Seeder    *ingest.Seeder

	closers []io.Closer
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
}

// OpenDatabase connects to the configured database and applies migrations
// when auto_migrate is set.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*sql.DB, error) {
	opts := storage.OpenOptions{}
	switch cfg.Database.Driver {
	case "sqlite":
		opts.MaxOpenConns = cfg.Database.SQLite.MaxOpenConns
		opts.JournalMode = cfg.Database.SQLite.JournalMode
	case "postgres":
		opts.MaxOpenConns = cfg.Database.Postgres.MaxOpenConns
		opts.MaxIdleConns = cfg.Database.Postgres.MaxIdleConns
		opts.ConnMaxLifetime = cfg.Database.Postgres.ConnMaxLifetime
	}

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.DatabaseDSN(), opts)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		version, err := storage.Migrate(db, cfg.Database.Driver)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info().
			Str("driver", cfg.Database.Driver).
			Int("version", int(version)).
			Msg("Database migrated")
	}
	return db, nil
}

// New builds every component. The LLM client is only required for answering;
// without an API key Chatbot is nil and the maintenance components still work.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	if logger == nil {
		logger = NewLogger(cfg)
	}
	a := &App{Config: cfg, Logger: logger}

	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	db, err := OpenDatabase(ctx, cfg, a.Logger)
	if err != nil {
		return err
	}
	a.DB = db
	a.closers = append(a.closers, db)
	a.Repos = storage.NewRepositories(db)
	a.Knowledge = storage.NewKnowledge(a.Repos)

	if a.Cache, err = newCache(cfg); err != nil {
		return err
	}
	a.closers = append(a.closers, a.Cache)

	base, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	if c, ok := base.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	a.Embedder = embedding.NewCachedEmbedder(base, a.Cache, cfg.Cache.TTL, a.Logger)

	if a.Index, err = a.newVectorIndex(ctx); err != nil {
		return err
	}
	a.closers = append(a.closers, a.Index)
	a.Store = retrieval.NewVectorStore(a.Index, a.Embedder, a.Logger)

	a.Examples = fewshot.NewDefaultRegistry()
	a.Scorer = intent.NewScorer()
	a.Logs = monitoring.NewConversationLogger(a.Repos.ConversationLogs, a.Logger)
	a.Stats = monitoring.NewStatsService(a.Repos.ConversationLogs, a.Scorer, a.Logger)
	a.Indexer = ingest.NewIndexer(a.Knowledge, a.Store, a.Repos.VectorIndex, a.Logger)
	a.Seeder = ingest.NewSeeder(db, a.Logger)

	if cfg.Vector.Adapter != "pgvector" {
		if err := a.rebuildMemoryIndex(ctx); err != nil {
			return err
		}
	}

	if cfg.LLM.APIKey == "" {
		a.Logger.Warn().Msg("LLM API key not set, question answering disabled")
		return nil
	}

	a.LLM, err = llm.NewClient(llm.Config{
		APIKey:             cfg.LLM.APIKey,
		Model:              cfg.LLM.Model,
		BaseURL:            cfg.LLM.BaseURL,
		Temperature:        cfg.LLM.Temperature,
		Timeout:            cfg.LLM.Timeout,
		MaxRetries:         cfg.LLM.MaxRetries,
		BreakerMaxFailures: cfg.LLM.Breaker.MaxFailures,
		BreakerOpenTimeout: cfg.LLM.Breaker.OpenTimeout,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}

	var variants retrieval.VariantGenerator
	if cfg.Retrieval.MultiQuery {
		var opts []llm.VariantOption
		if cfg.Retrieval.CacheVariants {
			opts = append(opts, llm.WithVariantCache(a.Cache, cfg.Cache.TTL))
		}
		variants = llm.NewVariantGenerator(a.LLM, cfg.LLM.VariantCount, a.Logger, opts...)
	}

	a.Chatbot, err = chatbot.NewService(chatbot.Dependencies{
		Classifier: a.Scorer,
		Retriever:  retrieval.NewRetriever(a.Store, variants, a.Logger),
		Aggregator: retrieval.NewAggregator(a.Knowledge, a.Logger),
		Related:    retrieval.NewRelatedFinder(a.Knowledge, a.Logger),
		Prompts:    prompt.NewBuilder(a.Examples),
		Completer:  a.LLM,
		Recorder:   a.Logs,
		TopK:       cfg.Retrieval.TopK,
		Logger:     a.Logger,
	})
	return err
}

func newCache(cfg *config.Config) (cache.Client, error) {
	if cfg.Cache.Driver == "redis" {
		c, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return c, nil
	}
	c, err := cache.NewMemoryClient(cfg.Cache.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return c, nil
}

func newEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "mock":
		return embedding.NewMockClient(cfg.Embedding.Dimension), nil
	case "local":
		e, err := embedding.NewLocalEmbedder(embedding.LocalConfig{
			ModelPath: cfg.Embedding.ModelPath,
			Dimension: cfg.Embedding.Dimension,
		})
		if err != nil {
			return nil, fmt.Errorf("load local embedding model: %w", err)
		}
		return e, nil
	default:
		c, err := embedding.NewClient(embedding.Config{
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			BaseURL:    cfg.Embedding.BaseURL,
			Dimension:  cfg.Embedding.Dimension,
			Timeout:    cfg.Embedding.Timeout,
			MaxRetries: cfg.Embedding.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("create embedding client: %w", err)
		}
		return c, nil
	}
}

func (a *App) newVectorIndex(ctx context.Context) (retrieval.VectorIndex, error) {
	cfg := a.Config
	if cfg.Vector.Adapter != "pgvector" {
		return retrieval.NewMemoryIndex(a.Embedder.Dimension()), nil
	}

	db := a.DB
	if cfg.Database.Driver != "postgres" || cfg.PGVectorDSN() != cfg.Database.Postgres.DSN {
		var err error
		db, err = storage.Open(ctx, "postgres", cfg.PGVectorDSN(), storage.OpenOptions{
			MaxOpenConns: cfg.Database.Postgres.MaxOpenConns,
		})
		if err != nil {
			return nil, fmt.Errorf("open pgvector database: %w", err)
		}
		a.closers = append(a.closers, db)
	}

	idx, err := retrieval.NewPGVectorIndex(db, retrieval.PGVectorConfig{
		Table:      cfg.Vector.PGVector.Table,
		Collection: cfg.Vector.Collection,
		Dimension:  a.Embedder.Dimension(),
	})
	if err != nil {
		return nil, err
	}
	if err := idx.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// rebuildMemoryIndex re-embeds every registered record. The in-process index
// starts empty in each process while the registry outlives it.
func (a *App) rebuildMemoryIndex(ctx context.Context) error {
	registered, err := a.Repos.VectorIndex.Count(ctx)
	if err != nil {
		return fmt.Errorf("count vector index entries: %w", err)
	}
	if registered == 0 {
		return nil
	}

	a.Logger.Warn().
		Int("registered", registered).
		Msg("Memory vector index is process-local, re-embedding knowledge")
	if _, err := a.Indexer.EmbedAll(ctx, nil); err != nil {
		return fmt.Errorf("rebuild memory vector index: %w", err)
	}

	n, err := a.Store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count vectors: %w", err)
	}
	a.Logger.Info().Int64("vectors", n).Msg("Memory vector index rebuilt")
	return nil
}

// Close releases resources in reverse order of creation.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
