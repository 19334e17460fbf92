// Package ingest embeds knowledge records into the vector store and loads
// seed fixtures into the knowledge base.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/retrieval"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

// ErrUnknownContentType is returned for content types other than
// company_content, project and blog_post.
var ErrUnknownContentType = errors.New("unknown content type")

// DefaultCollection is the vector collection recorded in the index registry.
const DefaultCollection = "company_knowledge"

// KnowledgeSource lists and loads the records to embed.
type KnowledgeSource interface {
	ActiveCompanyContents(ctx context.Context) ([]*storage.CompanyContent, error)
	AllProjects(ctx context.Context) ([]*storage.Project, error)
	ActiveBlogPosts(ctx context.Context) ([]*storage.BlogPost, error)
	CompanyContent(ctx context.Context, id uuid.UUID) (*storage.CompanyContent, error)
	Project(ctx context.Context, id uuid.UUID) (*storage.Project, error)
	BlogPost(ctx context.Context, id uuid.UUID) (*storage.BlogPost, error)
}

// DocumentStore embeds and stores documents under explicit keys.
type DocumentStore interface {
	AddDocuments(ctx context.Context, docs []retrieval.Document, keys []string) error
	Delete(ctx context.Context, keys []string) error
	EmbeddingModel() string
}

// IndexRegistry records which records have been embedded.
type IndexRegistry interface {
	Upsert(ctx context.Context, e *storage.VectorIndexEntry) error
	Keys(ctx context.Context) ([]string, error)
}

// ProgressFunc is called after each embedded record.
type ProgressFunc func(done, total int, key string)

// EmbedReport summarizes a full refresh.
type EmbedReport struct {
	CompanyContents int
	Projects        int
	BlogPosts       int
	Duration        time.Duration
}

// Total returns the number of embedded records.
func (r *EmbedReport) Total() int {
	return r.CompanyContents + r.Projects + r.BlogPosts
}

// Indexer keeps the vector store and the index registry in step with the
// knowledge base.
type Indexer struct {
	source     KnowledgeSource
	store      DocumentStore
	registry   IndexRegistry
	collection string
	logger     *observability.Logger
}

// NewIndexer creates an indexer.
func NewIndexer(source KnowledgeSource, store DocumentStore, registry IndexRegistry, logger *observability.Logger) *Indexer {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Indexer{
		source:     source,
		store:      store,
		registry:   registry,
		collection: DefaultCollection,
		logger:     logger.WithComponent("indexer"),
	}
}

// EmbedAll embeds active company content, every project and active blog
// posts, in that order. Vectors of deleted records are left in place.
func (i *Indexer) EmbedAll(ctx context.Context, progress ProgressFunc) (*EmbedReport, error) {
	start := time.Now()

	companies, err := i.source.ActiveCompanyContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list company contents: %w", err)
	}
	projects, err := i.source.AllProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	blogs, err := i.source.ActiveBlogPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blog posts: %w", err)
	}

	total := len(companies) + len(projects) + len(blogs)
	i.logger.Info().
		Int("company_contents", len(companies)).
		Int("projects", len(projects)).
		Int("blog_posts", len(blogs)).
		Msg("Starting embedding refresh")

	report := &EmbedReport{}
	done := 0
	step := func(ct storage.ContentType, id uuid.UUID, doc retrieval.Document) error {
		if err := i.embed(ctx, ct, id, doc); err != nil {
			return err
		}
		done++
		if progress != nil {
			progress(done, total, ct.VectorKey(id))
		}
		return nil
	}

	for _, c := range companies {
		if err := step(storage.ContentTypeCompany, c.ID, companyDocument(c)); err != nil {
			return report, err
		}
		report.CompanyContents++
	}
	for _, p := range projects {
		if err := step(storage.ContentTypeProject, p.ID, projectDocument(p)); err != nil {
			return report, err
		}
		report.Projects++
	}
	for _, b := range blogs {
		if err := step(storage.ContentTypeBlog, b.ID, blogDocument(b)); err != nil {
			return report, err
		}
		report.BlogPosts++
	}

	report.Duration = time.Since(start)
	i.logger.Info().
		Int("total", report.Total()).
		Dur("duration", report.Duration).
		Msg("Embedding refresh complete")
	return report, nil
}

// UpdateSingle re-embeds one record.
func (i *Indexer) UpdateSingle(ctx context.Context, id uuid.UUID, contentType string) error {
	ct, ok := storage.ParseContentType(contentType)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	var doc retrieval.Document
	switch ct {
	case storage.ContentTypeCompany:
		c, err := i.source.CompanyContent(ctx, id)
		if err != nil {
			return fmt.Errorf("load company content %s: %w", id, err)
		}
		doc = companyDocument(c)
	case storage.ContentTypeProject:
		p, err := i.source.Project(ctx, id)
		if err != nil {
			return fmt.Errorf("load project %s: %w", id, err)
		}
		doc = projectDocument(p)
	case storage.ContentTypeBlog:
		b, err := i.source.BlogPost(ctx, id)
		if err != nil {
			return fmt.Errorf("load blog post %s: %w", id, err)
		}
		doc = blogDocument(b)
	}

	if err := i.embed(ctx, ct, id, doc); err != nil {
		return err
	}
	i.logger.WithContext(ctx).Info().
		Str("content_type", string(ct)).
		Str("content_id", id.String()).
		Msg("Record re-embedded")
	return nil
}

// Purge removes the vectors of every registered record from the store. The
// registry itself is left alone; callers clearing the knowledge base drop it
// with the records.
func (i *Indexer) Purge(ctx context.Context) (int, error) {
	keys, err := i.registry.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list vector keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := i.store.Delete(ctx, keys); err != nil {
		return 0, fmt.Errorf("delete vectors: %w", err)
	}
	i.logger.Info().Int("vectors", len(keys)).Msg("Vectors purged")
	return len(keys), nil
}

func (i *Indexer) embed(ctx context.Context, ct storage.ContentType, id uuid.UUID, doc retrieval.Document) error {
	key := ct.VectorKey(id)
	if err := i.store.AddDocuments(ctx, []retrieval.Document{doc}, []string{key}); err != nil {
		return fmt.Errorf("embed %s: %w", key, err)
	}

	entry := &storage.VectorIndexEntry{
		ContentType:       ct,
		ContentID:         id,
		VectorKey:         key,
		CollectionName:    i.collection,
		EmbeddingModel:    i.store.EmbeddingModel(),
		SourceContentHash: contentHash(doc.Text),
		NeedsUpdate:       false,
	}
	if err := i.registry.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("record index entry %s: %w", key, err)
	}
	return nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
