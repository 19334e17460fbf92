package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/toktokhan/chatbot-engine/internal/cache"
	"github.com/toktokhan/chatbot-engine/internal/observability"
)

// CachedEmbedder memoizes embeddings of identical texts in a cache.
// Cache failures are logged and never fail the call.
type CachedEmbedder struct {
	inner  Embedder
	cache  cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewCachedEmbedder wraps inner with a cache.
func NewCachedEmbedder(inner Embedder, c cache.Client, ttl time.Duration, logger *observability.Logger) *CachedEmbedder {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CachedEmbedder{inner: inner, cache: c, ttl: ttl, logger: logger.WithComponent("embedding_cache")}
}

// Embed returns cached vectors where available and embeds the rest in one call.
func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int

	for i, text := range texts {
		raw, err := e.cache.Get(ctx, e.key(text))
		if err == nil {
			if v, decodeErr := decodeVector(raw); decodeErr == nil {
				out[i] = v
				continue
			}
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn().Err(err).Msg("Embedding cache read failed")
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return out, nil
	}

	fresh, err := e.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(fresh))
	}
	for j, v := range fresh {
		out[missingIdx[j]] = v
		if err := e.cache.Set(ctx, e.key(missing[j]), encodeVector(v), e.ttl); err != nil {
			e.logger.Warn().Err(err).Msg("Embedding cache write failed")
		}
	}
	return out, nil
}

// EmbedSingle generates an embedding for a single text.
func (e *CachedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// Model returns the wrapped model name.
func (e *CachedEmbedder) Model() string {
	return e.inner.Model()
}

// Dimension returns the wrapped dimension.
func (e *CachedEmbedder) Dimension() int {
	return e.inner.Dimension()
}

// CachePrefix starts every cached embedding key.
const CachePrefix = "emb:"

func (e *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return CachePrefix + cache.Key(e.inner.Model(), hex.EncodeToString(sum[:]))
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("invalid vector encoding length %d", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}

var (
	_ Embedder = (*Client)(nil)
	_ Embedder = (*MockClient)(nil)
	_ Embedder = (*LocalEmbedder)(nil)
	_ Embedder = (*CachedEmbedder)(nil)
)
