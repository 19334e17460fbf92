package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

const seedDateLayout = "2006-01-02"

// SeedData is a knowledge base fixture. Records refer to each other by key.
type SeedData struct {
	Categories      []SeedCategory       `yaml:"categories"`
	CompanyContents []SeedCompanyContent `yaml:"company_contents"`
	Projects        []SeedProject        `yaml:"projects"`
	BlogPosts       []SeedBlogPost       `yaml:"blog_posts"`
}

type SeedCategory struct {
	Key            string   `yaml:"key"`
	Name           string   `yaml:"name"`
	CategoryType   string   `yaml:"category_type"`
	Parent         string   `yaml:"parent"`
	Description    string   `yaml:"description"`
	CommonKeywords []string `yaml:"common_keywords"`
}

type SeedCompanyContent struct {
	Title          string   `yaml:"title"`
	ContentType    string   `yaml:"content_type"`
	Category       string   `yaml:"category"`
	Content        string   `yaml:"content"`
	Summary        string   `yaml:"summary"`
	Tags           []string `yaml:"tags"`
	SearchKeywords string   `yaml:"search_keywords"`
	Priority       int      `yaml:"priority"`
	IsActive       *bool    `yaml:"is_active"`
	IsFeatured     bool     `yaml:"is_featured"`
}

type SeedProject struct {
	Key                  string   `yaml:"key"`
	Name                 string   `yaml:"name"`
	ProjectType          string   `yaml:"project_type"`
	ClientName           string   `yaml:"client_name"`
	Description          string   `yaml:"description"`
	KeyFeatures          []string `yaml:"key_features"`
	TechnologiesUsed     []string `yaml:"technologies_used"`
	TeamSize             int      `yaml:"team_size"`
	DurationMonths       float64  `yaml:"duration_months"`
	StartDate            string   `yaml:"start_date"`
	EndDate              string   `yaml:"end_date"`
	Status               string   `yaml:"status"`
	ProjectURL           string   `yaml:"project_url"`
	GithubURL            string   `yaml:"github_url"`
	IsPortfolioHighlight bool     `yaml:"is_portfolio_highlight"`
	SearchTags           []string `yaml:"search_tags"`
}

type SeedBlogPost struct {
	Title          string   `yaml:"title"`
	URL            string   `yaml:"url"`
	Excerpt        string   `yaml:"excerpt"`
	ContentSummary string   `yaml:"content_summary"`
	RelatedTopics  []string `yaml:"related_topics"`
	PublishedDate  string   `yaml:"published_date"`
	Author         string   `yaml:"author"`
	IsFeatured     bool     `yaml:"is_featured"`
	IsActive       *bool    `yaml:"is_active"`
	Projects       []string `yaml:"projects"`
}

// Total returns the number of records in the fixture.
func (d *SeedData) Total() int {
	return len(d.Categories) + len(d.CompanyContents) + len(d.Projects) + len(d.BlogPosts)
}

// LoadSeedFile reads a YAML fixture.
func LoadSeedFile(path string) (*SeedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &data, nil
}

// SeedReport counts inserted records.
type SeedReport struct {
	Categories      int
	CompanyContents int
	Projects        int
	BlogPosts       int
}

// Seeder inserts fixtures inside a single transaction.
type Seeder struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewSeeder creates a seeder.
func NewSeeder(db *sql.DB, logger *observability.Logger) *Seeder {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Seeder{db: db, logger: logger.WithComponent("seeder")}
}

// Seed inserts data. With clear set, existing knowledge records and vector
// index entries are deleted first. Chat logs are kept.
func (s *Seeder) Seed(ctx context.Context, data *SeedData, clear bool, progress ProgressFunc) (*SeedReport, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	repos := storage.NewRepositories(tx)
	if clear {
		if err := repos.ClearKnowledge(ctx); err != nil {
			return nil, err
		}
		s.logger.Info().Msg("Existing knowledge cleared")
	}

	report := &SeedReport{}
	total := data.Total()
	done := 0
	tick := func(label string) {
		done++
		if progress != nil {
			progress(done, total, label)
		}
	}

	categories := make(map[string]uuid.UUID, len(data.Categories))
	for _, c := range data.Categories {
		cat := &storage.Category{
			Name:           c.Name,
			CategoryType:   storage.CategoryType(c.CategoryType),
			Description:    c.Description,
			CommonKeywords: storage.StringList(c.CommonKeywords),
			IsActive:       true,
		}
		if c.Parent != "" {
			parentID, ok := categories[c.Parent]
			if !ok {
				return nil, fmt.Errorf("category %q: unknown parent %q", c.Key, c.Parent)
			}
			cat.ParentID = &parentID
		}
		if err := repos.Categories.Create(ctx, cat); err != nil {
			return nil, fmt.Errorf("create category %q: %w", c.Key, err)
		}
		categories[c.Key] = cat.ID
		report.Categories++
		tick(c.Name)
	}

	for _, c := range data.CompanyContents {
		categoryID, ok := categories[c.Category]
		if !ok {
			return nil, fmt.Errorf("company content %q: unknown category %q", c.Title, c.Category)
		}
		content := &storage.CompanyContent{
			Title:          c.Title,
			ContentType:    storage.CompanyContentKind(c.ContentType),
			CategoryID:     categoryID,
			Content:        c.Content,
			Summary:        c.Summary,
			Tags:           storage.StringList(c.Tags),
			SearchKeywords: c.SearchKeywords,
			Priority:       c.Priority,
			IsActive:       boolOr(c.IsActive, true),
			IsFeatured:     c.IsFeatured,
		}
		if err := repos.CompanyContents.Create(ctx, content); err != nil {
			return nil, fmt.Errorf("create company content %q: %w", c.Title, err)
		}
		report.CompanyContents++
		tick(c.Title)
	}

	projects := make(map[string]uuid.UUID, len(data.Projects))
	for _, p := range data.Projects {
		project := &storage.Project{
			Name:                 p.Name,
			ProjectType:          storage.ProjectType(p.ProjectType),
			ClientName:           p.ClientName,
			Description:          p.Description,
			KeyFeatures:          storage.StringList(p.KeyFeatures),
			TechnologiesUsed:     storage.StringList(p.TechnologiesUsed),
			TeamSize:             p.TeamSize,
			DurationMonths:       p.DurationMonths,
			Status:               storage.ProjectStatus(p.Status),
			ProjectURL:           p.ProjectURL,
			GithubURL:            p.GithubURL,
			IsPortfolioHighlight: p.IsPortfolioHighlight,
			SearchTags:           storage.StringList(p.SearchTags),
		}
		if project.StartDate, err = parseSeedDate(p.StartDate); err != nil {
			return nil, fmt.Errorf("project %q start_date: %w", p.Name, err)
		}
		if project.EndDate, err = parseSeedDate(p.EndDate); err != nil {
			return nil, fmt.Errorf("project %q end_date: %w", p.Name, err)
		}
		if err := repos.Projects.Create(ctx, project); err != nil {
			return nil, fmt.Errorf("create project %q: %w", p.Name, err)
		}
		if p.Key != "" {
			projects[p.Key] = project.ID
		}
		report.Projects++
		tick(p.Name)
	}

	for _, b := range data.BlogPosts {
		post := &storage.BlogPost{
			Title:          b.Title,
			URL:            b.URL,
			Excerpt:        b.Excerpt,
			ContentSummary: b.ContentSummary,
			RelatedTopics:  storage.StringList(b.RelatedTopics),
			Author:         b.Author,
			IsFeatured:     b.IsFeatured,
			IsActive:       boolOr(b.IsActive, true),
		}
		if post.PublishedDate, err = parseSeedDate(b.PublishedDate); err != nil {
			return nil, fmt.Errorf("blog post %q published_date: %w", b.Title, err)
		}
		for _, key := range b.Projects {
			id, ok := projects[key]
			if !ok {
				return nil, fmt.Errorf("blog post %q: unknown project %q", b.Title, key)
			}
			post.RelatedProjectIDs = append(post.RelatedProjectIDs, id)
		}
		if err := repos.BlogPosts.Create(ctx, post); err != nil {
			return nil, fmt.Errorf("create blog post %q: %w", b.Title, err)
		}
		report.BlogPosts++
		tick(b.Title)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed transaction: %w", err)
	}

	s.logger.Info().
		Int("categories", report.Categories).
		Int("company_contents", report.CompanyContents).
		Int("projects", report.Projects).
		Int("blog_posts", report.BlogPosts).
		Msg("Seed data loaded")
	return report, nil
}

func parseSeedDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(seedDateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
