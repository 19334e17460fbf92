package retrieval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PGVectorConfig holds pgvector index configuration.
type PGVectorConfig struct {
	Table      string
	Collection string
	Dimension  int
}

// PGVectorIndex implements VectorIndex on PostgreSQL with the pgvector extension.
type PGVectorIndex struct {
	db         *sql.DB
	table      string
	collection string
	dimension  int
}

// NewPGVectorIndex creates a pgvector-backed index. Call EnsureSchema before use
// on a fresh database.
func NewPGVectorIndex(db *sql.DB, cfg PGVectorConfig) (*PGVectorIndex, error) {
	if cfg.Table == "" {
		cfg.Table = "knowledge_vectors"
	}
	if !identifierPattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid vector table name %q", cfg.Table)
	}
	if cfg.Collection == "" {
		cfg.Collection = "company_knowledge"
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vector dimension is required")
	}

	return &PGVectorIndex{
		db:         db,
		table:      cfg.Table,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
	}, nil
}

// EnsureSchema creates the extension, table and HNSW index if missing.
func (a *PGVectorIndex) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key TEXT NOT NULL,
			collection TEXT NOT NULL,
			source_type TEXT NOT NULL,
			content TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			embedding vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, key)
		)`, a.table, a.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`,
			a.table, a.table),
	}
	for _, stmt := range statements {
		if _, err := a.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure pgvector schema: %w", err)
		}
	}
	return nil
}

// Search finds the k nearest neighbours by cosine distance.
func (a *PGVectorIndex) Search(ctx context.Context, query []float32, k int) ([]VectorResult, error) {
	if len(query) != a.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrVectorDimensionMismatch, a.dimension, len(query))
	}

	q := fmt.Sprintf(`
		SELECT key, content, metadata, embedding <=> $1 AS distance
		FROM %s
		WHERE collection = $2
		ORDER BY distance, key
		LIMIT $3
	`, a.table)

	rows, err := a.db.QueryContext(ctx, q, pgvector.NewVector(query), a.collection, k)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	var results []VectorResult
	for rows.Next() {
		var (
			r        VectorResult
			rawMeta  []byte
			distance float64
		)
		if err := rows.Scan(&r.Key, &r.Text, &rawMeta, &distance); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &r.Metadata); err != nil {
				return nil, fmt.Errorf("decode vector metadata: %w", err)
			}
		}
		r.Distance = float32(distance)
		r.Score = 1 - r.Distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// Upsert inserts or replaces entries in a single transaction.
func (a *PGVectorIndex) Upsert(ctx context.Context, entries []VectorEntry) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := fmt.Sprintf(`
		INSERT INTO %s (key, collection, source_type, content, metadata, embedding, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (collection, key) DO UPDATE SET
			source_type = excluded.source_type,
			content = excluded.content,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = NOW()
	`, a.table)

	for _, e := range entries {
		if len(e.Vector) != a.dimension {
			return fmt.Errorf("%w: expected %d, got %d for key %s",
				ErrVectorDimensionMismatch, a.dimension, len(e.Vector), e.Key)
		}
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", e.Key, err)
		}
		if _, err := tx.ExecContext(ctx, q,
			e.Key, a.collection, e.SourceType, e.Text, string(meta), pgvector.NewVector(e.Vector),
		); err != nil {
			return fmt.Errorf("upsert vector %s: %w", e.Key, err)
		}
	}
	return tx.Commit()
}

// Delete removes entries by key.
func (a *PGVectorIndex) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	q := fmt.Sprintf(`DELETE FROM %s WHERE collection = $1 AND key = ANY($2)`, a.table)
	if _, err := a.db.ExecContext(ctx, q, a.collection, pq.Array(keys)); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

// Count returns the number of entries in the collection.
func (a *PGVectorIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE collection = $1`, a.table)
	if err := a.db.QueryRowContext(ctx, q, a.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return n, nil
}

// Close does not close the shared database handle.
func (a *PGVectorIndex) Close() error {
	return nil
}

var _ VectorIndex = (*PGVectorIndex)(nil)
