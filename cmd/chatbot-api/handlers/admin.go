package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/toktokhan/chatbot-engine/internal/embedding"
	"github.com/toktokhan/chatbot-engine/internal/fewshot"
	"github.com/toktokhan/chatbot-engine/internal/ingest"
	"github.com/toktokhan/chatbot-engine/internal/intent"
	"github.com/toktokhan/chatbot-engine/internal/llm"
	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

// ExampleRegistry accepts custom few-shot examples.
type ExampleRegistry interface {
	Add(category intent.Category, examples ...fewshot.Example) error
	Count(category intent.Category) int
}

// EmbeddingRefresher re-embeds knowledge records.
type EmbeddingRefresher interface {
	EmbedAll(ctx context.Context, progress ingest.ProgressFunc) (*ingest.EmbedReport, error)
	UpdateSingle(ctx context.Context, id uuid.UUID, contentType string) error
}

// CachePurger drops cached entries by key prefix.
type CachePurger interface {
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// cacheScopes maps the flushable scopes to their key prefixes.
var cacheScopes = map[string][]string{
	"variants":   {llm.VariantCachePrefix},
	"embeddings": {embedding.CachePrefix},
	"all":        {llm.VariantCachePrefix, embedding.CachePrefix},
}

// AdminHandler serves the maintenance endpoints.
type AdminHandler struct {
	logger   *observability.Logger
	examples ExampleRegistry
	indexer  EmbeddingRefresher
	cache    CachePurger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(logger *observability.Logger, examples ExampleRegistry, indexer EmbeddingRefresher, cache CachePurger) *AdminHandler {
	return &AdminHandler{logger: logger, examples: examples, indexer: indexer, cache: cache}
}

// AddExamplesRequest is the body of POST /admin/examples.
type AddExamplesRequest struct {
	Category string            `json:"category"`
	Examples []fewshot.Example `json:"examples"`
}

// AddExamples handles POST /admin/examples.
func (h *AdminHandler) AddExamples(w http.ResponseWriter, r *http.Request) {
	var req AddExamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Examples) == 0 {
		writeError(w, http.StatusBadRequest, "examples are required", "")
		return
	}

	category := intent.Category(req.Category)
	if err := h.examples.Add(category, req.Examples...); err != nil {
		if errors.Is(err, fewshot.ErrUnknownCategory) {
			writeError(w, http.StatusBadRequest, "unknown category", req.Category)
			return
		}
		writeInternal(w, r, h.logger, err, "Failed to add examples")
		return
	}

	h.logger.WithContext(r.Context()).Info().
		Str("category", req.Category).
		Int("added", len(req.Examples)).
		Msg("Few-shot examples added")
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"category": req.Category,
		"count":    h.examples.Count(category),
	})
}

// EmbedAll handles POST /admin/embeddings.
func (h *AdminHandler) EmbedAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.indexer.EmbedAll(r.Context(), nil)
	if err != nil {
		writeInternal(w, r, h.logger, err, "Embedding refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"company_contents": report.CompanyContents,
		"projects":         report.Projects,
		"blog_posts":       report.BlogPosts,
		"duration_ms":      report.Duration.Milliseconds(),
	})
}

// EmbedOne handles POST /admin/embeddings/{contentType}/{contentId}.
func (h *AdminHandler) EmbedOne(w http.ResponseWriter, r *http.Request) {
	contentType := chi.URLParam(r, "contentType")
	id, err := uuid.Parse(chi.URLParam(r, "contentId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid content id", err.Error())
		return
	}

	err = h.indexer.UpdateSingle(r.Context(), id, contentType)
	switch {
	case errors.Is(err, ingest.ErrUnknownContentType):
		writeError(w, http.StatusBadRequest, "unknown content type", contentType)
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found", "")
	case err != nil:
		writeInternal(w, r, h.logger, err, "Single embedding refresh failed")
	default:
		ct, _ := storage.ParseContentType(contentType)
		writeJSON(w, http.StatusOK, map[string]string{
			"content_type": contentType,
			"content_id":   id.String(),
			"vector_key":   ct.VectorKey(id),
		})
	}
}

// FlushCache handles DELETE /admin/cache/{scope}. Cached query variants
// outlive prompt and model changes until they expire; this drops them early.
func (h *AdminHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	prefixes, ok := cacheScopes[scope]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown cache scope", scope)
		return
	}

	for _, prefix := range prefixes {
		if err := h.cache.DeleteByPrefix(r.Context(), prefix); err != nil {
			writeInternal(w, r, h.logger, err, "Cache flush failed")
			return
		}
	}

	h.logger.WithContext(r.Context()).Info().Str("scope", scope).Msg("Cache flushed")
	writeJSON(w, http.StatusOK, map[string]interface{}{"scope": scope, "prefixes": prefixes})
}
