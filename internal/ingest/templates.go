package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/toktokhan/chatbot-engine/internal/retrieval"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

// Embedded texts keep a leading newline and an eight-space indent on every
// line, so hashes stay comparable with texts indexed earlier.
const indent = "        "

func renderFields(fields [][2]string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, f := range fields {
		b.WriteString(indent)
		b.WriteString(f[0])
		b.WriteString(": ")
		b.WriteString(f[1])
		b.WriteString("\n")
	}
	b.WriteString(indent)
	return b.String()
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}

func companyDocument(c *storage.CompanyContent) retrieval.Document {
	text := renderFields([][2]string{
		{"제목", c.Title},
		{"유형", c.ContentType.Display()},
		{"카테고리", c.CategoryName},
		{"내용", c.Content},
		{"태그", joinList(c.Tags)},
		{"검색키워드", c.SearchKeywords},
	})
	return retrieval.Document{
		Text: text,
		Metadata: retrieval.Metadata{
			"source_type":  string(storage.ContentTypeCompany),
			"content_id":   c.ID.String(),
			"title":        c.Title,
			"content_type": string(c.ContentType),
			"category":     c.CategoryName,
			"priority":     c.Priority,
			"is_featured":  c.IsFeatured,
			"tags":         joinList(c.Tags),
		},
	}
}

func projectDocument(p *storage.Project) retrieval.Document {
	highlight := "아니오"
	if p.IsPortfolioHighlight {
		highlight = "예"
	}
	text := renderFields([][2]string{
		{"프로젝트명", p.Name},
		{"프로젝트 유형", p.ProjectType.Display()},
		{"클라이언트", p.ClientName},
		{"설명", p.Description},
		{"주요 기능", joinList(p.KeyFeatures)},
		{"사용 기술", joinList(p.TechnologiesUsed)},
		{"팀 크기", strconv.Itoa(p.TeamSize) + "명"},
		{"개발 기간", strconv.FormatFloat(p.DurationMonths, 'f', -1, 64) + "개월"},
		{"상태", p.Status.Display()},
		{"포트폴리오 대표", highlight},
		{"검색태그", joinList(p.SearchTags)},
	})
	return retrieval.Document{
		Text: text,
		Metadata: retrieval.Metadata{
			"source_type":     string(storage.ContentTypeProject),
			"content_id":      p.ID.String(),
			"project_name":    p.Name,
			"project_type":    string(p.ProjectType),
			"client_name":     p.ClientName,
			"technologies":    joinList(p.TechnologiesUsed),
			"is_highlight":    p.IsPortfolioHighlight,
			"duration_months": p.DurationMonths,
			"team_size":       p.TeamSize,
		},
	}
}

func blogDocument(b *storage.BlogPost) retrieval.Document {
	text := renderFields([][2]string{
		{"블로그 제목", b.Title},
		{"발췌", b.Excerpt},
		{"내용 요약", b.ContentSummary},
		{"관련 주제", joinList(b.RelatedTopics)},
		{"URL", b.URL},
	})

	var published interface{}
	if b.PublishedDate != nil {
		published = b.PublishedDate.Format(time.RFC3339)
	}
	return retrieval.Document{
		Text: text,
		Metadata: retrieval.Metadata{
			"source_type":    string(storage.ContentTypeBlog),
			"content_id":     b.ID.String(),
			"title":          b.Title,
			"url":            b.URL,
			"related_topics": joinList(b.RelatedTopics),
			"is_featured":    b.IsFeatured,
			"published_date": published,
		},
	}
}
