package retrieval

import (
	"context"
	"fmt"
	"strconv"

	"github.com/toktokhan/chatbot-engine/internal/embedding"
	"github.com/toktokhan/chatbot-engine/internal/observability"
)

// Metadata is the attribute map stored next to an embedded document.
// Every document carries source_type and content_id.
type Metadata map[string]interface{}

// String returns the value at key rendered as a string, or "".
func (m Metadata) String(key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// SourceType returns the source_type entry.
func (m Metadata) SourceType() string { return m.String("source_type") }

// ContentID returns the content_id entry.
func (m Metadata) ContentID() string { return m.String("content_id") }

// Document is a retrieved or indexable text with its metadata.
type Document struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// VectorStore embeds texts and delegates storage and search to a VectorIndex.
type VectorStore struct {
	index    VectorIndex
	embedder embedding.Embedder
	logger   *observability.Logger
}

// NewVectorStore creates a vector store.
func NewVectorStore(index VectorIndex, embedder embedding.Embedder, logger *observability.Logger) *VectorStore {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &VectorStore{index: index, embedder: embedder, logger: logger.WithComponent("vector_store")}
}

// SimilaritySearch returns the k documents closest to query.
func (s *VectorStore) SimilaritySearch(ctx context.Context, query string, k int) ([]Document, error) {
	vec, err := s.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(hits))
	for i, h := range hits {
		docs[i] = Document{Text: h.Text, Metadata: h.Metadata}
	}
	return docs, nil
}

// AddDocuments embeds docs and upserts them under the given keys.
func (s *VectorStore) AddDocuments(ctx context.Context, docs []Document, keys []string) error {
	if len(docs) != len(keys) {
		return fmt.Errorf("got %d documents but %d keys", len(docs), len(keys))
	}
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}

	entries := make([]VectorEntry, len(docs))
	for i, d := range docs {
		entries[i] = VectorEntry{
			Key:        keys[i],
			SourceType: d.Metadata.SourceType(),
			Text:       d.Text,
			Vector:     vectors[i],
			Metadata:   d.Metadata,
		}
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	s.logger.Debug().Strs("keys", keys).Msg("Documents indexed")
	return nil
}

// Delete removes documents by key.
func (s *VectorStore) Delete(ctx context.Context, keys []string) error {
	return s.index.Delete(ctx, keys)
}

// Count returns the number of indexed documents.
func (s *VectorStore) Count(ctx context.Context) (int64, error) {
	return s.index.Count(ctx)
}

// EmbeddingModel returns the model used for documents.
func (s *VectorStore) EmbeddingModel() string {
	return s.embedder.Model()
}
