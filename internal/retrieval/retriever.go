package retrieval

import (
	"context"
	"fmt"
	"sync"

	"github.com/toktokhan/chatbot-engine/internal/observability"
)

// DefaultTopK is the number of documents retrieved per question.
const DefaultTopK = 10

// Searcher runs a single similarity search.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]Document, error)
}

// VariantGenerator produces alternative phrasings of a query.
type VariantGenerator interface {
	GenerateQueryVariants(ctx context.Context, query string) ([]string, error)
}

// Retriever fetches documents for a processed question. With a variant
// generator it searches every phrasing and merges the results; any failure on
// that path degrades to a single direct search.
type Retriever struct {
	store      Searcher
	variants   VariantGenerator
	maxWorkers int
	logger     *observability.Logger
}

// NewRetriever creates a retriever. A nil variants disables multi-query search.
func NewRetriever(store Searcher, variants VariantGenerator, logger *observability.Logger) *Retriever {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Retriever{
		store:      store,
		variants:   variants,
		maxWorkers: 4,
		logger:     logger.WithComponent("retriever"),
	}
}

// Retrieve never fails: a broken search path yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, processed string, k int) []Document {
	if k <= 0 {
		k = DefaultTopK
	}

	if r.variants != nil {
		docs, err := r.multiQuery(ctx, processed, k)
		if err == nil {
			return docs
		}
		r.logger.WithContext(ctx).Warn().
			Err(err).
			Str("query", processed).
			Msg("Multi-query retrieval failed, falling back to direct search")
	}

	docs, err := r.store.SimilaritySearch(ctx, processed, k)
	if err != nil {
		r.logger.WithContext(ctx).Error().
			Err(err).
			Str("query", processed).
			Msg("Direct search failed, continuing without documents")
		return []Document{}
	}
	return docs
}

func (r *Retriever) multiQuery(ctx context.Context, processed string, k int) ([]Document, error) {
	variants, err := r.variants.GenerateQueryVariants(ctx, processed)
	if err != nil {
		return nil, err
	}
	queries := append([]string{processed}, variants...)

	perQuery, err := r.searchAll(ctx, queries, k)
	if err != nil {
		return nil, err
	}

	type docKey struct{ sourceType, contentID, text string }
	seen := make(map[docKey]bool)
	merged := make([]Document, 0, k)
	for _, docs := range perQuery {
		for _, d := range docs {
			key := docKey{d.Metadata.SourceType(), d.Metadata.ContentID(), d.Text}
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, d)
			if len(merged) == k {
				return merged, nil
			}
		}
	}
	return merged, nil
}

// searchAll runs one search per query on a small worker pool and returns the
// results in query order.
func (r *Retriever) searchAll(ctx context.Context, queries []string, k int) ([][]Document, error) {
	type workItem struct {
		index int
		query string
	}

	workChan := make(chan workItem, len(queries))
	for i, q := range queries {
		workChan <- workItem{index: i, query: q}
	}
	close(workChan)

	results := make([][]Document, len(queries))
	errs := make([]error, len(queries))
	var wg sync.WaitGroup

	for i := 0; i < r.maxWorkers && i < len(queries); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workChan {
				results[item.index], errs[item.index] = r.store.SimilaritySearch(ctx, item.query, k)
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("search variant %d: %w", i, err)
		}
	}
	return results, nil
}
