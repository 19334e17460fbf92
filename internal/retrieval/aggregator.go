package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

// KnowledgeStore is the read side of the knowledge base used while answering.
type KnowledgeStore interface {
	CompanyContent(ctx context.Context, id uuid.UUID) (*storage.CompanyContent, error)
	Project(ctx context.Context, id uuid.UUID) (*storage.Project, error)
	BlogPost(ctx context.Context, id uuid.UUID) (*storage.BlogPost, error)
	HighlightProjects(ctx context.Context) ([]*storage.Project, error)
	ActiveBlogsForProject(ctx context.Context, projectID uuid.UUID) ([]*storage.BlogPost, error)
}

// OutcomeStatus tells whether a retrieved document was resolved.
type OutcomeStatus string

const (
	OutcomeResolved OutcomeStatus = "resolved"
	OutcomeSkipped  OutcomeStatus = "skipped"
)

// ReasonStaleReference marks a document whose record no longer exists.
const ReasonStaleReference = "stale_reference"

// Outcome records what happened to one retrieved document.
type Outcome struct {
	SourceType string        `json:"source_type"`
	ContentID  string        `json:"content_id"`
	Status     OutcomeStatus `json:"status"`
	Reason     string        `json:"reason,omitempty"`
}

// ContextBundle is the resolved knowledge for one question.
type ContextBundle struct {
	Companies []*storage.CompanyContent
	Projects  []*storage.Project
	Blogs     []*storage.BlogPost
	Text      string
	Summary   string
	Sources   []Metadata
	Outcomes  []Outcome
}

// CompanyIDs returns the resolved company content ids.
func (b *ContextBundle) CompanyIDs() []string {
	ids := make([]string, len(b.Companies))
	for i, c := range b.Companies {
		ids[i] = c.ID.String()
	}
	return ids
}

// ProjectIDs returns the resolved project ids, highlights included.
func (b *ContextBundle) ProjectIDs() []string {
	ids := make([]string, len(b.Projects))
	for i, p := range b.Projects {
		ids[i] = p.ID.String()
	}
	return ids
}

// BlogIDs returns the resolved blog post ids.
func (b *ContextBundle) BlogIDs() []string {
	ids := make([]string, len(b.Blogs))
	for i, p := range b.Blogs {
		ids[i] = p.ID.String()
	}
	return ids
}

const (
	maxHighlights       = 3
	maxRenderedCompany  = 3
	maxRenderedProjects = 5
	maxRenderedBlogs    = 3
)

var portfolioTriggers = []string{"프로젝트", "포트폴리오", "개발", "진행"}

// Aggregator resolves retrieved documents against the knowledge store and
// renders the context text handed to the prompt.
type Aggregator struct {
	store  KnowledgeStore
	logger *observability.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(store KnowledgeStore, logger *observability.Logger) *Aggregator {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Aggregator{store: store, logger: logger.WithComponent("aggregator")}
}

// Aggregate resolves docs in order. Records that no longer exist are skipped;
// any other store error is returned.
func (a *Aggregator) Aggregate(ctx context.Context, docs []Document, question string) (*ContextBundle, error) {
	bundle := &ContextBundle{
		Sources:  make([]Metadata, 0, len(docs)),
		Outcomes: make([]Outcome, 0, len(docs)),
	}

	for _, doc := range docs {
		bundle.Sources = append(bundle.Sources, doc.Metadata)

		outcome := Outcome{
			SourceType: doc.Metadata.SourceType(),
			ContentID:  doc.Metadata.ContentID(),
			Status:     OutcomeResolved,
		}
		resolved, err := a.resolve(ctx, bundle, outcome.SourceType, outcome.ContentID)
		if err != nil {
			return nil, fmt.Errorf("resolve %s %s: %w", outcome.SourceType, outcome.ContentID, err)
		}
		if !resolved {
			outcome.Status = OutcomeSkipped
			outcome.Reason = ReasonStaleReference
			a.logger.WithContext(ctx).Debug().
				Str("source_type", outcome.SourceType).
				Str("content_id", outcome.ContentID).
				Msg("Skipping stale vector reference")
		}
		bundle.Outcomes = append(bundle.Outcomes, outcome)
	}

	if containsAny(strings.ToLower(question), portfolioTriggers) {
		if err := a.addHighlights(ctx, bundle); err != nil {
			return nil, err
		}
	}

	bundle.Text = renderContext(bundle)
	bundle.Summary = fmt.Sprintf("회사정보 %d개, 프로젝트 %d개, 블로그 %d개 검색됨",
		len(bundle.Companies), len(bundle.Projects), len(bundle.Blogs))
	return bundle, nil
}

// resolve reports false for references that cannot be resolved.
func (a *Aggregator) resolve(ctx context.Context, bundle *ContextBundle, sourceType, contentID string) (bool, error) {
	ct, ok := storage.ParseContentType(sourceType)
	if !ok {
		return false, nil
	}
	id, err := uuid.Parse(contentID)
	if err != nil {
		return false, nil
	}

	switch ct {
	case storage.ContentTypeCompany:
		c, err := a.store.CompanyContent(ctx, id)
		if err != nil {
			return notFound(err)
		}
		bundle.Companies = append(bundle.Companies, c)
	case storage.ContentTypeProject:
		p, err := a.store.Project(ctx, id)
		if err != nil {
			return notFound(err)
		}
		bundle.Projects = append(bundle.Projects, p)
	case storage.ContentTypeBlog:
		b, err := a.store.BlogPost(ctx, id)
		if err != nil {
			return notFound(err)
		}
		bundle.Blogs = append(bundle.Blogs, b)
	}
	return true, nil
}

func notFound(err error) (bool, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (a *Aggregator) addHighlights(ctx context.Context, bundle *ContextBundle) error {
	highlights, err := a.store.HighlightProjects(ctx)
	if err != nil {
		return fmt.Errorf("load highlight projects: %w", err)
	}

	present := make(map[uuid.UUID]bool, len(bundle.Projects))
	for _, p := range bundle.Projects {
		present[p.ID] = true
	}

	added := 0
	for _, p := range highlights {
		if added == maxHighlights {
			break
		}
		if present[p.ID] {
			continue
		}
		bundle.Projects = append(bundle.Projects, p)
		present[p.ID] = true
		added++
	}
	return nil
}

func renderContext(b *ContextBundle) string {
	var parts []string

	if len(b.Companies) > 0 {
		parts = append(parts, "## 회사 정보")
		for _, c := range head(b.Companies, maxRenderedCompany) {
			parts = append(parts,
				"**"+c.Title+"**",
				truncate(c.Content, 500)+"...",
				"",
			)
		}
	}

	if len(b.Projects) > 0 {
		parts = append(parts, "## 프로젝트 포트폴리오")
		for _, p := range head(b.Projects, maxRenderedProjects) {
			parts = append(parts,
				fmt.Sprintf("**%s** (%s)", p.Name, p.ProjectType.Display()),
				"클라이언트: "+p.ClientName,
				"설명: "+truncate(p.Description, 300)+"...",
				"기술스택: "+strings.Join(p.TechnologiesUsed, ", "),
				fmt.Sprintf("기간: %s개월, 팀: %d명", formatMonths(p.DurationMonths), p.TeamSize),
			)
			if p.IsPortfolioHighlight {
				parts = append(parts, "🌟 포트폴리오 대표 프로젝트")
			}
			parts = append(parts, "")
		}
	}

	if len(b.Blogs) > 0 {
		parts = append(parts, "## 관련 블로그")
		for _, post := range head(b.Blogs, maxRenderedBlogs) {
			parts = append(parts,
				"**"+post.Title+"**",
				"요약: "+truncate(post.ContentSummary, 200)+"...",
				"URL: "+post.URL,
				"",
			)
		}
	}

	return strings.Join(parts, "\n")
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func formatMonths(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
