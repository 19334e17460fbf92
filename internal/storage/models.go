// Package storage provides database models and repositories for the chatbot knowledge base.
package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContentType identifies which knowledge table a vector or retrieved document points at.
type ContentType string

const (
	ContentTypeCompany ContentType = "company_content"
	ContentTypeProject ContentType = "project"
	ContentTypeBlog    ContentType = "blog_post"
)

// KeyPrefix returns the vector key prefix for the content type.
func (t ContentType) KeyPrefix() string {
	switch t {
	case ContentTypeCompany:
		return "company"
	case ContentTypeProject:
		return "project"
	case ContentTypeBlog:
		return "blog"
	default:
		return string(t)
	}
}

// VectorKey returns the deterministic vector store key for a record.
func (t ContentType) VectorKey(id uuid.UUID) string {
	return fmt.Sprintf("%s_%s", t.KeyPrefix(), id)
}

// ParseContentType validates a raw content type string.
func ParseContentType(s string) (ContentType, bool) {
	switch ContentType(s) {
	case ContentTypeCompany, ContentTypeProject, ContentTypeBlog:
		return ContentType(s), true
	}
	return "", false
}

// CategoryType groups categories for admin browsing.
type CategoryType string

const (
	CategoryTypeCompanyInfo CategoryType = "company_info"
	CategoryTypeProject     CategoryType = "project"
	CategoryTypeTechnology  CategoryType = "technology"
	CategoryTypeTeam        CategoryType = "team"
	CategoryTypeService     CategoryType = "service"
	CategoryTypeProcess     CategoryType = "process"
	CategoryTypeBlog        CategoryType = "blog"
	CategoryTypeEtc         CategoryType = "etc"
)

// CompanyContentKind is the editorial type of a company content record.
type CompanyContentKind string

const (
	CompanyContentBasic       CompanyContentKind = "company_basic"
	CompanyContentVision      CompanyContentKind = "company_vision"
	CompanyContentHistory     CompanyContentKind = "company_history"
	CompanyContentTeamMember  CompanyContentKind = "team_member"
	CompanyContentPortfolio   CompanyContentKind = "project_portfolio"
	CompanyContentTechStack   CompanyContentKind = "technology_stack"
	CompanyContentService     CompanyContentKind = "service_offering"
	CompanyContentProcess     CompanyContentKind = "work_process"
	CompanyContentTestimonial CompanyContentKind = "client_testimonial"
	CompanyContentBlog        CompanyContentKind = "blog_content"
	CompanyContentFAQ         CompanyContentKind = "faq"
)

var companyContentDisplay = map[CompanyContentKind]string{
	CompanyContentBasic:       "회사 기본정보",
	CompanyContentVision:      "비전/미션",
	CompanyContentHistory:     "회사 연혁",
	CompanyContentTeamMember:  "팀원 소개",
	CompanyContentPortfolio:   "프로젝트 포트폴리오",
	CompanyContentTechStack:   "기술 스택",
	CompanyContentService:     "제공 서비스",
	CompanyContentProcess:     "업무 프로세스",
	CompanyContentTestimonial: "고객 후기",
	CompanyContentBlog:        "블로그 내용",
	CompanyContentFAQ:         "자주 묻는 질문",
}

// Display returns the Korean label, or the raw value when unknown.
func (k CompanyContentKind) Display() string {
	if label, ok := companyContentDisplay[k]; ok {
		return label
	}
	return string(k)
}

// ProjectType is the kind of engagement a project represents.
type ProjectType string

const (
	ProjectTypeWeb        ProjectType = "web_development"
	ProjectTypeMobile     ProjectType = "mobile_app"
	ProjectTypeCommerce   ProjectType = "e_commerce"
	ProjectTypeCMS        ProjectType = "cms"
	ProjectTypePortfolio  ProjectType = "portfolio"
	ProjectTypeCorporate  ProjectType = "corporate"
	ProjectTypeLanding    ProjectType = "landing_page"
	ProjectTypeAPI        ProjectType = "api_development"
	ProjectTypeDesign     ProjectType = "ui_ux_design"
	ProjectTypeConsulting ProjectType = "consulting"
)

var projectTypeDisplay = map[ProjectType]string{
	ProjectTypeWeb:        "웹 개발",
	ProjectTypeMobile:     "모바일 앱",
	ProjectTypeCommerce:   "이커머스",
	ProjectTypeCMS:        "CMS/관리시스템",
	ProjectTypePortfolio:  "포트폴리오 사이트",
	ProjectTypeCorporate:  "기업 사이트",
	ProjectTypeLanding:    "랜딩 페이지",
	ProjectTypeAPI:        "API 개발",
	ProjectTypeDesign:     "UI/UX 디자인",
	ProjectTypeConsulting: "컨설팅",
}

// Display returns the Korean label, or the raw value when unknown.
func (t ProjectType) Display() string {
	if label, ok := projectTypeDisplay[t]; ok {
		return label
	}
	return string(t)
}

// ProjectStatus tracks delivery state.
type ProjectStatus string

const (
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOngoing   ProjectStatus = "ongoing"
	ProjectStatusPaused    ProjectStatus = "paused"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

var projectStatusDisplay = map[ProjectStatus]string{
	ProjectStatusCompleted: "완료",
	ProjectStatusOngoing:   "진행중",
	ProjectStatusPaused:    "일시중단",
	ProjectStatusCancelled: "취소",
}

// Display returns the Korean label, or the raw value when unknown.
func (s ProjectStatus) Display() string {
	if label, ok := projectStatusDisplay[s]; ok {
		return label
	}
	return string(s)
}

// StringList is a JSON-encoded list of strings stored in a text/jsonb column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// Link is a title/url pair recommended alongside an answer.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// LinkList is a JSON-encoded list of links.
type LinkList []Link

// Value implements driver.Valuer.
func (l LinkList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Link(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *LinkList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("scan json: unsupported type %T", value)
	}
}

// Category groups company content.
type Category struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	Name           string       `json:"name" db:"name"`
	CategoryType   CategoryType `json:"category_type" db:"category_type"`
	ParentID       *uuid.UUID   `json:"parent_id,omitempty" db:"parent_id"`
	Description    string       `json:"description" db:"description"`
	CommonKeywords StringList   `json:"common_keywords" db:"common_keywords"`
	IsActive       bool         `json:"is_active" db:"is_active"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// CompanyContent is a curated fact about the company.
type CompanyContent struct {
	ID             uuid.UUID          `json:"id" db:"id"`
	Title          string             `json:"title" db:"title"`
	ContentType    CompanyContentKind `json:"content_type" db:"content_type"`
	CategoryID     uuid.UUID          `json:"category_id" db:"category_id"`
	CategoryName   string             `json:"category_name" db:"-"`
	Content        string             `json:"content" db:"content"`
	Summary        string             `json:"summary" db:"summary"`
	Tags           StringList         `json:"tags" db:"tags"`
	SearchKeywords string             `json:"search_keywords" db:"search_keywords"`
	Priority       int                `json:"priority" db:"priority"`
	IsActive       bool               `json:"is_active" db:"is_active"`
	IsFeatured     bool               `json:"is_featured" db:"is_featured"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at" db:"updated_at"`
}

// Project is a delivered or ongoing client project.
type Project struct {
	ID                   uuid.UUID     `json:"id" db:"id"`
	Name                 string        `json:"name" db:"name"`
	ProjectType          ProjectType   `json:"project_type" db:"project_type"`
	ClientName           string        `json:"client_name" db:"client_name"`
	Description          string        `json:"description" db:"description"`
	KeyFeatures          StringList    `json:"key_features" db:"key_features"`
	TechnologiesUsed     StringList    `json:"technologies_used" db:"technologies_used"`
	TeamSize             int           `json:"team_size" db:"team_size"`
	DurationMonths       float64       `json:"duration_months" db:"duration_months"`
	StartDate            *time.Time    `json:"start_date,omitempty" db:"start_date"`
	EndDate              *time.Time    `json:"end_date,omitempty" db:"end_date"`
	Status               ProjectStatus `json:"status" db:"status"`
	ProjectURL           string        `json:"project_url" db:"project_url"`
	GithubURL            string        `json:"github_url" db:"github_url"`
	IsPortfolioHighlight bool          `json:"is_portfolio_highlight" db:"is_portfolio_highlight"`
	PortfolioImage       string        `json:"portfolio_image" db:"portfolio_image"`
	SearchTags           StringList    `json:"search_tags" db:"search_tags"`
	CreatedAt            time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at" db:"updated_at"`
}

// BlogPost is a company blog article that can be recommended with an answer.
type BlogPost struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	Title             string      `json:"title" db:"title"`
	URL               string      `json:"url" db:"url"`
	Excerpt           string      `json:"excerpt" db:"excerpt"`
	ContentSummary    string      `json:"content_summary" db:"content_summary"`
	RelatedTopics     StringList  `json:"related_topics" db:"related_topics"`
	RelatedProjectIDs []uuid.UUID `json:"related_project_ids,omitempty" db:"-"`
	PublishedDate     *time.Time  `json:"published_date,omitempty" db:"published_date"`
	Author            string      `json:"author" db:"author"`
	IsFeatured        bool        `json:"is_featured" db:"is_featured"`
	ViewCount         int         `json:"view_count" db:"view_count"`
	IsActive          bool        `json:"is_active" db:"is_active"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// VectorIndexEntry links a knowledge record to its vector store key.
// At most one entry exists per (content_type, content_id).
type VectorIndexEntry struct {
	ID                uuid.UUID   `json:"id" db:"id"`
	ContentType       ContentType `json:"content_type" db:"content_type"`
	ContentID         uuid.UUID   `json:"content_id" db:"content_id"`
	VectorKey         string      `json:"vector_key" db:"vector_key"`
	CollectionName    string      `json:"collection_name" db:"collection_name"`
	EmbeddingModel    string      `json:"embedding_model" db:"embedding_model"`
	SourceContentHash string      `json:"source_content_hash" db:"source_content_hash"`
	NeedsUpdate       bool        `json:"needs_update" db:"needs_update"`
	LastEmbeddedAt    time.Time   `json:"last_embedded_at" db:"last_embedded_at"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
}

// ConversationLog records one processed question. Only the feedback
// fields change after creation.
type ConversationLog struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	UserQuestion        string     `json:"user_question" db:"user_question"`
	ProcessedQuestion   string     `json:"processed_question" db:"processed_question"`
	RetrievedContentIDs StringList `json:"retrieved_content_ids" db:"retrieved_content_ids"`
	RetrievedProjects   StringList `json:"retrieved_projects" db:"retrieved_projects"`
	RetrievedBlogs      StringList `json:"retrieved_blogs" db:"retrieved_blogs"`
	AIResponse          string     `json:"ai_response" db:"ai_response"`
	RecommendedLinks    LinkList   `json:"recommended_blog_links" db:"recommended_blog_links"`
	ResponseTimeMs      int64      `json:"response_time_ms" db:"response_time_ms"`
	UserRating          *int       `json:"user_rating,omitempty" db:"user_rating"`
	UserFeedback        string     `json:"user_feedback" db:"user_feedback"`
	SessionID           string     `json:"session_id" db:"session_id"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
}
