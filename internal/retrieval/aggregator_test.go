package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toktokhan/chatbot-engine/internal/storage"
)

type fakeKnowledge struct {
	companies  map[uuid.UUID]*storage.CompanyContent
	projects   map[uuid.UUID]*storage.Project
	blogs      map[uuid.UUID]*storage.BlogPost
	highlights []*storage.Project
	byProject  map[uuid.UUID][]*storage.BlogPost
	err        error
	lookups    int
}

func newFakeKnowledge() *fakeKnowledge {
	return &fakeKnowledge{
		companies: map[uuid.UUID]*storage.CompanyContent{},
		projects:  map[uuid.UUID]*storage.Project{},
		blogs:     map[uuid.UUID]*storage.BlogPost{},
		byProject: map[uuid.UUID][]*storage.BlogPost{},
	}
}

func (f *fakeKnowledge) CompanyContent(_ context.Context, id uuid.UUID) (*storage.CompanyContent, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.companies[id]; ok {
		return c, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeKnowledge) Project(_ context.Context, id uuid.UUID) (*storage.Project, error) {
	if p, ok := f.projects[id]; ok {
		return p, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeKnowledge) BlogPost(_ context.Context, id uuid.UUID) (*storage.BlogPost, error) {
	if b, ok := f.blogs[id]; ok {
		return b, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeKnowledge) HighlightProjects(context.Context) ([]*storage.Project, error) {
	return f.highlights, nil
}

func (f *fakeKnowledge) ActiveBlogsForProject(_ context.Context, projectID uuid.UUID) ([]*storage.BlogPost, error) {
	f.lookups++
	return f.byProject[projectID], nil
}

func (f *fakeKnowledge) addProject(name string, highlight bool) *storage.Project {
	p := &storage.Project{
		ID: uuid.New(), Name: name, ProjectType: storage.ProjectTypeWeb, ClientName: "고객사",
		Description: name + " 설명", TechnologiesUsed: storage.StringList{"React", "Django"},
		TeamSize: 5, DurationMonths: 4.5, IsPortfolioHighlight: highlight,
	}
	f.projects[p.ID] = p
	if highlight {
		f.highlights = append(f.highlights, p)
	}
	return p
}

func (f *fakeKnowledge) addBlog(title, excerpt string) *storage.BlogPost {
	b := &storage.BlogPost{
		ID: uuid.New(), Title: title, URL: "https://blog.example.com/" + title,
		Excerpt: excerpt, ContentSummary: title + " 요약", IsActive: true,
	}
	f.blogs[b.ID] = b
	return b
}

func TestAggregator_ResolvesAndSkipsStaleReferences(t *testing.T) {
	kb := newFakeKnowledge()
	company := &storage.CompanyContent{ID: uuid.New(), Title: "회사 개요", Content: "웹/앱 개발 회사"}
	kb.companies[company.ID] = company
	project := kb.addProject("핀테크 플랫폼", false)
	blog := kb.addBlog("결제 회고", "결제 모듈")

	docs := []Document{
		doc("company_content", company.ID.String(), "c"),
		doc("project", uuid.New().String(), "deleted"),
		doc("project", project.ID.String(), "p"),
		doc("blog_post", "not-a-uuid", "bad"),
		doc("video", uuid.New().String(), "unknown"),
		doc("blog_post", blog.ID.String(), "b"),
	}

	bundle, err := NewAggregator(kb, nil).Aggregate(context.Background(), docs, "회사 소개해줘")
	require.NoError(t, err)

	assert.Equal(t, []string{company.ID.String()}, bundle.CompanyIDs())
	assert.Equal(t, []string{project.ID.String()}, bundle.ProjectIDs())
	assert.Equal(t, []string{blog.ID.String()}, bundle.BlogIDs())
	assert.Len(t, bundle.Sources, 6)
	require.Len(t, bundle.Outcomes, 6)

	skipped := 0
	for _, o := range bundle.Outcomes {
		if o.Status == OutcomeSkipped {
			skipped++
			assert.Equal(t, ReasonStaleReference, o.Reason)
		}
	}
	assert.Equal(t, 3, skipped)
	assert.Equal(t, "회사정보 1개, 프로젝트 1개, 블로그 1개 검색됨", bundle.Summary)
}

func TestAggregator_PropagatesStoreErrors(t *testing.T) {
	kb := newFakeKnowledge()
	kb.err = errors.New("connection reset")

	_, err := NewAggregator(kb, nil).Aggregate(context.Background(),
		[]Document{doc("company_content", uuid.New().String(), "c")}, "회사")
	assert.ErrorContains(t, err, "connection reset")
}

func TestAggregator_InjectsHighlights(t *testing.T) {
	kb := newFakeKnowledge()
	retrieved := kb.addProject("물류", true)
	for _, name := range []string{"헬스케어", "교육", "커머스", "여행"} {
		kb.addProject(name, true)
	}

	docs := []Document{doc("project", retrieved.ID.String(), "p")}
	agg := NewAggregator(kb, nil)

	bundle, err := agg.Aggregate(context.Background(), docs, "어떤 프로젝트를 했나요?")
	require.NoError(t, err)
	require.Len(t, bundle.Projects, 4)
	assert.Equal(t, "물류", bundle.Projects[0].Name)
	assert.Equal(t, "헬스케어", bundle.Projects[1].Name)
	assert.Equal(t, "커머스", bundle.Projects[3].Name)

	bundle, err = agg.Aggregate(context.Background(), docs, "회사 위치가 어디인가요?")
	require.NoError(t, err)
	assert.Len(t, bundle.Projects, 1)
}

func TestAggregator_RendersSections(t *testing.T) {
	kb := newFakeKnowledge()
	company := &storage.CompanyContent{ID: uuid.New(), Title: "회사 개요", Content: strings.Repeat("가", 600)}
	kb.companies[company.ID] = company
	project := kb.addProject("핀테크", true)
	blog := kb.addBlog("회고", "")

	bundle, err := NewAggregator(kb, nil).Aggregate(context.Background(), []Document{
		doc("company_content", company.ID.String(), ""),
		doc("project", project.ID.String(), ""),
		doc("blog_post", blog.ID.String(), ""),
	}, "회사")
	require.NoError(t, err)

	want := strings.Join([]string{
		"## 회사 정보",
		"**회사 개요**",
		strings.Repeat("가", 500) + "...",
		"",
		"## 프로젝트 포트폴리오",
		"**핀테크** (웹 개발)",
		"클라이언트: 고객사",
		"설명: 핀테크 설명...",
		"기술스택: React, Django",
		"기간: 4.5개월, 팀: 5명",
		"🌟 포트폴리오 대표 프로젝트",
		"",
		"## 관련 블로그",
		"**회고**",
		"요약: 회고 요약...",
		"URL: https://blog.example.com/회고",
		"",
	}, "\n")
	assert.Equal(t, want, bundle.Text)
}

func TestAggregator_EmptyBundle(t *testing.T) {
	bundle, err := NewAggregator(newFakeKnowledge(), nil).Aggregate(context.Background(), nil, "안녕")
	require.NoError(t, err)
	assert.Equal(t, "", bundle.Text)
	assert.Equal(t, "회사정보 0개, 프로젝트 0개, 블로그 0개 검색됨", bundle.Summary)
	assert.Empty(t, bundle.CompanyIDs())
}

func TestFormatMonths(t *testing.T) {
	assert.Equal(t, "6", formatMonths(6))
	assert.Equal(t, "4.5", formatMonths(4.5))
	assert.Equal(t, "0", formatMonths(0))
}
