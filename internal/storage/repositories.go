package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record conflict")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CategoryRepository handles category CRUD operations.
type CategoryRepository struct {
	db DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create creates a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO categories (id, name, category_type, parent_id, description, common_keywords, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.CategoryType, c.ParentID, c.Description, c.CommonKeywords, c.IsActive, c.CreatedAt,
	)
	return err
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	query := `
		SELECT id, name, category_type, parent_id, description, common_keywords, is_active, created_at
		FROM categories WHERE id = $1
	`
	c := &Category{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.CategoryType, &c.ParentID, &c.Description, &c.CommonKeywords, &c.IsActive, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// CompanyContentRepository handles company content records.
type CompanyContentRepository struct {
	db DB
}

// NewCompanyContentRepository creates a new company content repository.
func NewCompanyContentRepository(db DB) *CompanyContentRepository {
	return &CompanyContentRepository{db: db}
}

const companyContentColumns = `
	cc.id, cc.title, cc.content_type, cc.category_id, COALESCE(cat.name, ''), cc.content, cc.summary,
	cc.tags, cc.search_keywords, cc.priority, cc.is_active, cc.is_featured, cc.created_at, cc.updated_at`

// Create creates a new company content record.
func (r *CompanyContentRepository) Create(ctx context.Context, c *CompanyContent) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	query := `
		INSERT INTO company_contents (id, title, content_type, category_id, content, summary, tags,
			search_keywords, priority, is_active, is_featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Title, c.ContentType, c.CategoryID, c.Content, c.Summary, c.Tags,
		c.SearchKeywords, c.Priority, c.IsActive, c.IsFeatured, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

// GetByID retrieves a company content record with its category name.
func (r *CompanyContentRepository) GetByID(ctx context.Context, id uuid.UUID) (*CompanyContent, error) {
	query := `SELECT` + companyContentColumns + `
		FROM company_contents cc
		LEFT JOIN categories cat ON cat.id = cc.category_id
		WHERE cc.id = $1
	`
	c, err := scanCompanyContent(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// ListActive returns active records ordered by priority then recency.
func (r *CompanyContentRepository) ListActive(ctx context.Context) ([]*CompanyContent, error) {
	query := `SELECT` + companyContentColumns + `
		FROM company_contents cc
		LEFT JOIN categories cat ON cat.id = cc.category_id
		WHERE cc.is_active = $1
		ORDER BY cc.priority DESC, cc.updated_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []*CompanyContent
	for rows.Next() {
		c, err := scanCompanyContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompanyContent(row rowScanner) (*CompanyContent, error) {
	c := &CompanyContent{}
	err := row.Scan(
		&c.ID, &c.Title, &c.ContentType, &c.CategoryID, &c.CategoryName, &c.Content, &c.Summary,
		&c.Tags, &c.SearchKeywords, &c.Priority, &c.IsActive, &c.IsFeatured, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ProjectRepository handles project records.
type ProjectRepository struct {
	db DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	id, name, project_type, client_name, description, key_features, technologies_used,
	team_size, duration_months, start_date, end_date, status, project_url, github_url,
	is_portfolio_highlight, portfolio_image, search_tags, created_at, updated_at`

// Create creates a new project.
func (r *ProjectRepository) Create(ctx context.Context, p *Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProjectStatusCompleted
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.ProjectType, p.ClientName, p.Description, p.KeyFeatures, p.TechnologiesUsed,
		p.TeamSize, p.DurationMonths, p.StartDate, p.EndDate, p.Status, p.ProjectURL, p.GithubURL,
		p.IsPortfolioHighlight, p.PortfolioImage, p.SearchTags, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetByID retrieves a project by ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `SELECT` + projectColumns + ` FROM projects WHERE id = $1`
	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// List returns every project, highlights first then most recently finished.
func (r *ProjectRepository) List(ctx context.Context) ([]*Project, error) {
	query := `SELECT` + projectColumns + ` FROM projects
		ORDER BY is_portfolio_highlight DESC, end_date DESC`
	return r.query(ctx, query)
}

// ListHighlights returns portfolio highlight projects in default order.
func (r *ProjectRepository) ListHighlights(ctx context.Context) ([]*Project, error) {
	query := `SELECT` + projectColumns + ` FROM projects
		WHERE is_portfolio_highlight = $1
		ORDER BY is_portfolio_highlight DESC, end_date DESC`
	return r.query(ctx, query, true)
}

func (r *ProjectRepository) query(ctx context.Context, query string, args ...interface{}) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanProject(row rowScanner) (*Project, error) {
	p := &Project{}
	err := row.Scan(
		&p.ID, &p.Name, &p.ProjectType, &p.ClientName, &p.Description, &p.KeyFeatures, &p.TechnologiesUsed,
		&p.TeamSize, &p.DurationMonths, &p.StartDate, &p.EndDate, &p.Status, &p.ProjectURL, &p.GithubURL,
		&p.IsPortfolioHighlight, &p.PortfolioImage, &p.SearchTags, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// BlogPostRepository handles blog posts and their project links.
type BlogPostRepository struct {
	db DB
}

// NewBlogPostRepository creates a new blog post repository.
func NewBlogPostRepository(db DB) *BlogPostRepository {
	return &BlogPostRepository{db: db}
}

const blogColumns = `
	b.id, b.title, b.url, b.excerpt, b.content_summary, b.related_topics, b.published_date,
	b.author, b.is_featured, b.view_count, b.is_active, b.created_at, b.updated_at`

// Create creates a blog post and links it to RelatedProjectIDs.
func (r *BlogPostRepository) Create(ctx context.Context, b *BlogPost) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	query := `
		INSERT INTO blog_posts (id, title, url, excerpt, content_summary, related_topics, published_date,
			author, is_featured, view_count, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if _, err := r.db.ExecContext(ctx, query,
		b.ID, b.Title, b.URL, b.Excerpt, b.ContentSummary, b.RelatedTopics, b.PublishedDate,
		b.Author, b.IsFeatured, b.ViewCount, b.IsActive, b.CreatedAt, b.UpdatedAt,
	); err != nil {
		return err
	}

	for _, projectID := range b.RelatedProjectIDs {
		if err := r.LinkProject(ctx, b.ID, projectID); err != nil {
			return fmt.Errorf("link project %s: %w", projectID, err)
		}
	}
	return nil
}

// LinkProject records that a blog post relates to a project.
func (r *BlogPostRepository) LinkProject(ctx context.Context, blogID, projectID uuid.UUID) error {
	query := `
		INSERT INTO blog_post_projects (blog_post_id, project_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, blogID, projectID)
	return err
}

// GetByID retrieves a blog post by ID.
func (r *BlogPostRepository) GetByID(ctx context.Context, id uuid.UUID) (*BlogPost, error) {
	query := `SELECT` + blogColumns + ` FROM blog_posts b WHERE b.id = $1`
	b, err := scanBlogPost(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListActive returns active posts, featured first then newest.
func (r *BlogPostRepository) ListActive(ctx context.Context) ([]*BlogPost, error) {
	query := `SELECT` + blogColumns + ` FROM blog_posts b
		WHERE b.is_active = $1
		ORDER BY b.is_featured DESC, b.published_date DESC`
	return r.query(ctx, query, true)
}

// ListActiveByProject returns active posts linked to a project in default order.
func (r *BlogPostRepository) ListActiveByProject(ctx context.Context, projectID uuid.UUID) ([]*BlogPost, error) {
	query := `SELECT` + blogColumns + ` FROM blog_posts b
		JOIN blog_post_projects bp ON bp.blog_post_id = b.id
		WHERE bp.project_id = $1 AND b.is_active = $2
		ORDER BY b.is_featured DESC, b.published_date DESC`
	return r.query(ctx, query, projectID, true)
}

func (r *BlogPostRepository) query(ctx context.Context, query string, args ...interface{}) ([]*BlogPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*BlogPost
	for rows.Next() {
		b, err := scanBlogPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, b)
	}
	return posts, rows.Err()
}

func scanBlogPost(row rowScanner) (*BlogPost, error) {
	b := &BlogPost{}
	err := row.Scan(
		&b.ID, &b.Title, &b.URL, &b.Excerpt, &b.ContentSummary, &b.RelatedTopics, &b.PublishedDate,
		&b.Author, &b.IsFeatured, &b.ViewCount, &b.IsActive, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// VectorIndexRepository tracks which records have been embedded.
type VectorIndexRepository struct {
	db DB
}

// NewVectorIndexRepository creates a new vector index repository.
func NewVectorIndexRepository(db DB) *VectorIndexRepository {
	return &VectorIndexRepository{db: db}
}

// Upsert inserts or replaces the entry for (content_type, content_id).
func (r *VectorIndexRepository) Upsert(ctx context.Context, e *VectorIndexEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	e.LastEmbeddedAt = now
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}

	query := `
		INSERT INTO vector_index_entries (id, content_type, content_id, vector_key, collection_name,
			embedding_model, source_content_hash, needs_update, last_embedded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (content_type, content_id) DO UPDATE SET
			vector_key = excluded.vector_key,
			collection_name = excluded.collection_name,
			embedding_model = excluded.embedding_model,
			source_content_hash = excluded.source_content_hash,
			needs_update = excluded.needs_update,
			last_embedded_at = excluded.last_embedded_at
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.ContentType, e.ContentID, e.VectorKey, e.CollectionName,
		e.EmbeddingModel, e.SourceContentHash, e.NeedsUpdate, e.LastEmbeddedAt, e.CreatedAt,
	)
	return err
}

// Get returns the entry for a record.
func (r *VectorIndexRepository) Get(ctx context.Context, contentType ContentType, contentID uuid.UUID) (*VectorIndexEntry, error) {
	query := `
		SELECT id, content_type, content_id, vector_key, collection_name, embedding_model,
			source_content_hash, needs_update, last_embedded_at, created_at
		FROM vector_index_entries
		WHERE content_type = $1 AND content_id = $2
	`
	e := &VectorIndexEntry{}
	err := r.db.QueryRowContext(ctx, query, contentType, contentID).Scan(
		&e.ID, &e.ContentType, &e.ContentID, &e.VectorKey, &e.CollectionName, &e.EmbeddingModel,
		&e.SourceContentHash, &e.NeedsUpdate, &e.LastEmbeddedAt, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// CountByType returns the number of entries for a content type.
func (r *VectorIndexRepository) CountByType(ctx context.Context, contentType ContentType) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vector_index_entries WHERE content_type = $1`, contentType,
	).Scan(&n)
	return n, err
}

// Count returns the number of recorded entries.
func (r *VectorIndexRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vector_index_entries`).Scan(&n)
	return n, err
}

// Keys returns every recorded vector key, ordered.
func (r *VectorIndexRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT vector_key FROM vector_index_entries ORDER BY vector_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// ConversationLogRepository persists chat logs.
type ConversationLogRepository struct {
	db DB
}

// NewConversationLogRepository creates a new conversation log repository.
func NewConversationLogRepository(db DB) *ConversationLogRepository {
	return &ConversationLogRepository{db: db}
}

const chatLogColumns = `
	id, user_question, processed_question, retrieved_content_ids, retrieved_projects, retrieved_blogs,
	ai_response, recommended_blog_links, response_time_ms, user_rating, user_feedback, session_id, created_at`

// Create appends a chat log.
func (r *ConversationLogRepository) Create(ctx context.Context, l *ConversationLog) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO chat_logs (` + chatLogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.ExecContext(ctx, query,
		l.ID, l.UserQuestion, l.ProcessedQuestion, l.RetrievedContentIDs, l.RetrievedProjects, l.RetrievedBlogs,
		l.AIResponse, l.RecommendedLinks, l.ResponseTimeMs, l.UserRating, l.UserFeedback, l.SessionID, l.CreatedAt,
	)
	return err
}

// GetByID retrieves a chat log.
func (r *ConversationLogRepository) GetByID(ctx context.Context, id uuid.UUID) (*ConversationLog, error) {
	query := `SELECT` + chatLogColumns + ` FROM chat_logs WHERE id = $1`
	l, err := scanChatLog(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

// ListSince returns logs created at or after since, oldest first.
func (r *ConversationLogRepository) ListSince(ctx context.Context, since time.Time) ([]*ConversationLog, error) {
	query := `SELECT` + chatLogColumns + ` FROM chat_logs WHERE created_at >= $1 ORDER BY created_at ASC`
	return r.query(ctx, query, since)
}

// ListBySession returns up to limit logs of a session, oldest first.
func (r *ConversationLogRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*ConversationLog, error) {
	query := `SELECT` + chatLogColumns + ` FROM chat_logs WHERE session_id = $1 ORDER BY created_at ASC LIMIT $2`
	return r.query(ctx, query, sessionID, limit)
}

// UpdateFeedback sets the rating and free-text feedback of a log.
func (r *ConversationLogRepository) UpdateFeedback(ctx context.Context, id uuid.UUID, rating int, feedback string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE chat_logs SET user_rating = $1, user_feedback = $2 WHERE id = $3`,
		rating, feedback, id,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ConversationLogRepository) query(ctx context.Context, query string, args ...interface{}) ([]*ConversationLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*ConversationLog
	for rows.Next() {
		l, err := scanChatLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func scanChatLog(row rowScanner) (*ConversationLog, error) {
	l := &ConversationLog{}
	var rating sql.NullInt64
	err := row.Scan(
		&l.ID, &l.UserQuestion, &l.ProcessedQuestion, &l.RetrievedContentIDs, &l.RetrievedProjects, &l.RetrievedBlogs,
		&l.AIResponse, &l.RecommendedLinks, &l.ResponseTimeMs, &rating, &l.UserFeedback, &l.SessionID, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rating.Valid {
		v := int(rating.Int64)
		l.UserRating = &v
	}
	return l, nil
}

// Repositories bundles all repositories.
type Repositories struct {
	Categories       *CategoryRepository
	CompanyContents  *CompanyContentRepository
	Projects         *ProjectRepository
	BlogPosts        *BlogPostRepository
	VectorIndex      *VectorIndexRepository
	ConversationLogs *ConversationLogRepository
	db               DB
}

// NewRepositories creates all repositories with a shared database connection.
func NewRepositories(db DB) *Repositories {
	return &Repositories{
		Categories:       NewCategoryRepository(db),
		CompanyContents:  NewCompanyContentRepository(db),
		Projects:         NewProjectRepository(db),
		BlogPosts:        NewBlogPostRepository(db),
		VectorIndex:      NewVectorIndexRepository(db),
		ConversationLogs: NewConversationLogRepository(db),
		db:               db,
	}
}

// ClearKnowledge deletes all knowledge records and vector index entries.
// Chat logs are kept.
func (r *Repositories) ClearKnowledge(ctx context.Context) error {
	for _, table := range []string{
		"blog_post_projects", "blog_posts", "vector_index_entries", "projects", "company_contents", "categories",
	} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
