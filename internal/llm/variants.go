package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toktokhan/chatbot-engine/internal/cache"
	"github.com/toktokhan/chatbot-engine/internal/observability"
)

const variantPrompt = `You are an AI language model assistant. Your task is to generate %d different versions of the given user question to retrieve relevant documents from a vector database. By generating multiple perspectives on the user question, your goal is to help the user overcome some of the limitations of distance-based similarity search. Provide these alternative questions separated by newlines. Original question: %s`

// VariantGenerator asks the completion model for paraphrases of a query.
type VariantGenerator struct {
	completer Completer
	count     int
	cache     cache.Client
	ttl       time.Duration
	logger    *observability.Logger
}

// VariantOption configures a VariantGenerator.
type VariantOption func(*VariantGenerator)

// WithVariantCache stores generated variants so repeated questions skip the model call.
func WithVariantCache(c cache.Client, ttl time.Duration) VariantOption {
	return func(g *VariantGenerator) {
		g.cache = c
		g.ttl = ttl
	}
}

// NewVariantGenerator creates a generator producing count variants per query.
func NewVariantGenerator(completer Completer, count int, logger *observability.Logger, opts ...VariantOption) *VariantGenerator {
	if count <= 0 {
		count = 3
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	g := &VariantGenerator{
		completer: completer,
		count:     count,
		logger:    logger.WithComponent("query_variants"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateQueryVariants returns the model's paraphrases of query, one per
// non-empty output line. The original query is not included.
func (g *VariantGenerator) GenerateQueryVariants(ctx context.Context, query string) ([]string, error) {
	key := g.cacheKey(query)
	if g.cache != nil {
		if raw, err := g.cache.Get(ctx, key); err == nil {
			var cached []string
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			g.logger.Warn().Err(err).Msg("Variant cache read failed")
		}
	}

	out, err := g.completer.Complete(ctx, []Message{{Role: "user", Content: fmt.Sprintf(variantPrompt, g.count, query)}})
	if err != nil {
		return nil, fmt.Errorf("generate query variants: %w", err)
	}
	variants := parseLines(out)

	if g.cache != nil && len(variants) > 0 {
		if raw, err := json.Marshal(variants); err == nil {
			if err := g.cache.Set(ctx, key, raw, g.ttl); err != nil {
				g.logger.Warn().Err(err).Msg("Variant cache write failed")
			}
		}
	}
	return variants, nil
}

// VariantCachePrefix starts every cached variant key.
const VariantCachePrefix = "variants:"

func (g *VariantGenerator) cacheKey(query string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", g.count, query)))
	return VariantCachePrefix + hex.EncodeToString(sum[:])
}

func parseLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
