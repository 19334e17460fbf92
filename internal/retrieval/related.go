package retrieval

import (
	"context"
	"fmt"

	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

const (
	// MaxRelatedContent caps the links returned with an answer.
	MaxRelatedContent = 5

	blogsPerProject = 2
	excerptRunes    = 100

	relevanceSearchResult = "검색 결과"
)

// RelatedContent is a blog link recommended with an answer.
type RelatedContent struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Excerpt   string `json:"excerpt"`
	Relevance string `json:"relevance"`
}

// Links converts related content to the title/url pairs stored in chat logs.
func Links(items []RelatedContent) []storage.Link {
	links := make([]storage.Link, len(items))
	for i, item := range items {
		links[i] = storage.Link{Title: item.Title, URL: item.URL}
	}
	return links
}

// RelatedFinder picks blog posts to recommend alongside an answer.
type RelatedFinder struct {
	store  KnowledgeStore
	logger *observability.Logger
}

// NewRelatedFinder creates a finder over the knowledge store.
func NewRelatedFinder(store KnowledgeStore, logger *observability.Logger) *RelatedFinder {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &RelatedFinder{store: store, logger: logger.WithComponent("related_finder")}
}

// Find returns up to MaxRelatedContent entries. Blogs resolved by retrieval
// come first, then active posts linked to the resolved projects. A post
// appears at most once.
func (f *RelatedFinder) Find(ctx context.Context, bundle *ContextBundle, question string) ([]RelatedContent, error) {
	related := make([]RelatedContent, 0, MaxRelatedContent)
	seen := make(map[string]bool)

	add := func(post *storage.BlogPost, relevance string) {
		if seen[post.ID.String()] {
			return
		}
		seen[post.ID.String()] = true
		related = append(related, RelatedContent{
			Title:     post.Title,
			URL:       post.URL,
			Excerpt:   excerpt(post.Excerpt),
			Relevance: relevance,
		})
	}

	for _, post := range bundle.Blogs {
		add(post, relevanceSearchResult)
	}

	for _, project := range bundle.Projects {
		if len(related) >= MaxRelatedContent {
			break
		}
		posts, err := f.store.ActiveBlogsForProject(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("load blogs for project %s: %w", project.ID, err)
		}
		taken := 0
		for _, post := range posts {
			if taken == blogsPerProject {
				break
			}
			if seen[post.ID.String()] {
				continue
			}
			add(post, project.Name+" 관련")
			taken++
		}
	}

	if len(related) > MaxRelatedContent {
		related = related[:MaxRelatedContent]
	}

	f.logger.WithContext(ctx).Debug().
		Int("count", len(related)).
		Int("question_runes", len([]rune(question))).
		Msg("Related content selected")
	return related, nil
}

func excerpt(s string) string {
	if s == "" {
		return ""
	}
	return truncate(s, excerptRunes) + "..."
}
