package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toktokhan/chatbot-engine/internal/storage"
)

func TestRelatedFinder_SearchResultsThenProjectBlogs(t *testing.T) {
	kb := newFakeKnowledge()
	searched := kb.addBlog("검색된 글", strings.Repeat("나", 150))
	project := kb.addProject("핀테크", false)
	linkedA := kb.addBlog("연관 A", "")
	linkedB := kb.addBlog("연관 B", "짧은 발췌")
	linkedC := kb.addBlog("연관 C", "")
	kb.byProject[project.ID] = []*storage.BlogPost{searched, linkedA, linkedB, linkedC}

	bundle := &ContextBundle{
		Blogs:    []*storage.BlogPost{searched},
		Projects: []*storage.Project{project},
	}

	related, err := NewRelatedFinder(kb, nil).Find(context.Background(), bundle, "핀테크 프로젝트")
	require.NoError(t, err)
	require.Len(t, related, 3)

	assert.Equal(t, "검색된 글", related[0].Title)
	assert.Equal(t, "검색 결과", related[0].Relevance)
	assert.Equal(t, strings.Repeat("나", 100)+"...", related[0].Excerpt)

	assert.Equal(t, "연관 A", related[1].Title)
	assert.Equal(t, "핀테크 관련", related[1].Relevance)
	assert.Equal(t, "", related[1].Excerpt)
	assert.Equal(t, "짧은 발췌...", related[2].Excerpt)
}

func TestRelatedFinder_LimitsToFive(t *testing.T) {
	kb := newFakeKnowledge()
	var blogs []*storage.BlogPost
	for _, title := range []string{"1", "2", "3", "4", "5", "6"} {
		blogs = append(blogs, kb.addBlog(title, ""))
	}
	project := kb.addProject("p", false)

	bundle := &ContextBundle{Blogs: blogs, Projects: []*storage.Project{project}}
	related, err := NewRelatedFinder(kb, nil).Find(context.Background(), bundle, "")
	require.NoError(t, err)
	assert.Len(t, related, MaxRelatedContent)
	assert.Equal(t, 0, kb.lookups)
}

func TestRelatedFinder_DeduplicatesAcrossProjects(t *testing.T) {
	kb := newFakeKnowledge()
	shared := kb.addBlog("공유 글", "")
	p1 := kb.addProject("A", false)
	p2 := kb.addProject("B", false)
	kb.byProject[p1.ID] = []*storage.BlogPost{shared}
	kb.byProject[p2.ID] = []*storage.BlogPost{shared}

	related, err := NewRelatedFinder(kb, nil).Find(context.Background(),
		&ContextBundle{Projects: []*storage.Project{p1, p2}}, "")
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "A 관련", related[0].Relevance)

	links := Links(related)
	assert.Equal(t, []storage.Link{{Title: "공유 글", URL: shared.URL}}, links)
}
