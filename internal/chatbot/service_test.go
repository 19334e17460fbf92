package chatbot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toktokhan/chatbot-engine/internal/embedding"
	"github.com/toktokhan/chatbot-engine/internal/fewshot"
	"github.com/toktokhan/chatbot-engine/internal/intent"
	"github.com/toktokhan/chatbot-engine/internal/llm"
	"github.com/toktokhan/chatbot-engine/internal/monitoring"
	"github.com/toktokhan/chatbot-engine/internal/prompt"
	"github.com/toktokhan/chatbot-engine/internal/retrieval"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

type recordingCompleter struct {
	answer   string
	err      error
	messages []llm.Message
	calls    int
}

func (c *recordingCompleter) Complete(_ context.Context, messages []llm.Message) (string, error) {
	c.calls++
	c.messages = messages
	return c.answer, c.err
}

type fixedRetriever struct {
	docs      []retrieval.Document
	processed string
}

func (r *fixedRetriever) Retrieve(_ context.Context, processed string, _ int) []retrieval.Document {
	r.processed = processed
	return r.docs
}

type testEnv struct {
	repos     *storage.Repositories
	store     *retrieval.VectorStore
	completer *recordingCompleter
	service   *Service
}

func newTestEnv(t *testing.T, retriever DocumentRetriever) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "chatbot.db"), storage.OpenOptions{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = storage.Migrate(db, "sqlite")
	require.NoError(t, err)

	repos := storage.NewRepositories(db)
	knowledge := storage.NewKnowledge(repos)
	store := retrieval.NewVectorStore(retrieval.NewMemoryIndex(0), embedding.NewMockClient(64), nil)
	if retriever == nil {
		retriever = retrieval.NewRetriever(store, nil, nil)
	}

	completer := &recordingCompleter{answer: "네, React 프로젝트 경험이 있습니다."}
	svc, err := NewService(Dependencies{
		Classifier: intent.NewScorer(),
		Retriever:  retriever,
		Aggregator: retrieval.NewAggregator(knowledge, nil),
		Related:    retrieval.NewRelatedFinder(knowledge, nil),
		Prompts:    prompt.NewBuilder(fewshot.NewDefaultRegistry()),
		Completer:  completer,
		Recorder:   monitoring.NewConversationLogger(repos.ConversationLogs, nil),
	})
	require.NoError(t, err)

	return &testEnv{repos: repos, store: store, completer: completer, service: svc}
}

func TestService_ProcessQuestion(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	project := &storage.Project{
		Name: "패션 쇼핑몰", ProjectType: storage.ProjectTypeWeb, ClientName: "패션 브랜드",
		Description: "React 기반 커머스", TechnologiesUsed: storage.StringList{"React", "Node.js"},
		TeamSize: 4, DurationMonths: 3,
	}
	require.NoError(t, env.repos.Projects.Create(ctx, project))
	post := &storage.BlogPost{
		Title: "커머스 구축기", URL: "https://blog.example.com/commerce", Excerpt: "쇼핑몰 회고",
		IsActive: true, RelatedProjectIDs: []uuid.UUID{project.ID},
	}
	require.NoError(t, env.repos.BlogPosts.Create(ctx, post))

	require.NoError(t, env.store.AddDocuments(ctx, []retrieval.Document{{
		Text:     "프로젝트명: 패션 쇼핑몰 React",
		Metadata: retrieval.Metadata{"source_type": "project", "content_id": project.ID.String()},
	}}, []string{storage.ContentTypeProject.VectorKey(project.ID)}))

	question := "React로 진행한 프로젝트 중에 어떤 것이 있나요?"
	result, err := env.service.ProcessQuestion(ctx, question, "sess-1")
	require.NoError(t, err)

	assert.Equal(t, intent.CategoryProject, result.Category)
	assert.Equal(t, "네, React 프로젝트 경험이 있습니다.", result.Answer)
	require.Len(t, result.RelatedContent, 1)
	assert.Equal(t, "패션 쇼핑몰 관련", result.RelatedContent[0].Relevance)
	require.Len(t, result.Sources, 1)
	assert.GreaterOrEqual(t, result.ElapsedMs, int64(0))

	require.Equal(t, 1, env.completer.calls)
	require.Len(t, env.completer.messages, 1)
	assert.Equal(t, "user", env.completer.messages[0].Role)
	p := env.completer.messages[0].Content
	assert.Contains(t, p, "**패션 쇼핑몰** (웹 개발)")
	assert.Contains(t, p, "# 사용자 질문\n"+question)
	assert.True(t, strings.HasSuffix(p, "- [커머스 구축기](https://blog.example.com/commerce)\n"))

	logID, err := uuid.Parse(result.LogID)
	require.NoError(t, err)
	entry, err := env.repos.ConversationLogs.GetByID(ctx, logID)
	require.NoError(t, err)
	assert.Equal(t, question, entry.UserQuestion)
	assert.Equal(t, ExpandQuery(question), entry.ProcessedQuestion)
	assert.Equal(t, storage.StringList{project.ID.String()}, entry.RetrievedProjects)
	assert.Equal(t, "sess-1", entry.SessionID)
	assert.Len(t, entry.RecommendedLinks, 1)
}

func TestService_EmptyRetrievalStillAnswers(t *testing.T) {
	retriever := &fixedRetriever{}
	env := newTestEnv(t, retriever)

	result, err := env.service.ProcessQuestion(context.Background(), "  안녕하세요  ", "")
	require.NoError(t, err)
	assert.Equal(t, intent.CategoryGeneral, result.Category)
	assert.Equal(t, "안녕하세요", retriever.processed)
	assert.Empty(t, result.RelatedContent)
	assert.Empty(t, result.Sources)
	assert.Contains(t, env.completer.messages[0].Content, "# 현재 검색된 회사 정보\n\n\n# 사용자 질문")
}

func TestService_StaleReferencesAreDropped(t *testing.T) {
	retriever := &fixedRetriever{docs: []retrieval.Document{{
		Text:     "deleted",
		Metadata: retrieval.Metadata{"source_type": "project", "content_id": uuid.New().String()},
	}}}
	env := newTestEnv(t, retriever)

	result, err := env.service.ProcessQuestion(context.Background(), "회사 소개해주세요", "s")
	require.NoError(t, err)
	assert.Equal(t, intent.CategoryCompany, result.Category)
	assert.Len(t, result.Sources, 1)
	assert.Empty(t, result.RelatedContent)
}

func TestService_LLMErrorPropagates(t *testing.T) {
	env := newTestEnv(t, &fixedRetriever{})
	env.completer.err = &llm.APIError{StatusCode: 503, Message: "overloaded"}

	_, err := env.service.ProcessQuestion(context.Background(), "회사 위치", "s")
	require.Error(t, err)
	var apiErr *llm.APIError
	assert.True(t, errors.As(err, &apiErr))

	logs, err := env.repos.ConversationLogs.ListBySession(context.Background(), "s", 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

type stubAggregator struct{ err error }

func (a stubAggregator) Aggregate(context.Context, []retrieval.Document, string) (*retrieval.ContextBundle, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &retrieval.ContextBundle{}, nil
}

type stubRelated struct{ err error }

func (r stubRelated) Find(context.Context, *retrieval.ContextBundle, string) ([]retrieval.RelatedContent, error) {
	return nil, r.err
}

type stubRecorder struct {
	err   error
	calls int
}

func (r *stubRecorder) Log(context.Context, monitoring.LogInput) (*storage.ConversationLog, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return &storage.ConversationLog{ID: uuid.New()}, nil
}

func TestService_StageErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		aggregator ContextAggregator
		related    RelatedContentFinder
		recorder   *stubRecorder
		wantMsg    string
		wantLLM    int
	}{
		{"aggregator", stubAggregator{err: boom}, stubRelated{}, &stubRecorder{}, "aggregate context", 0},
		{"related finder", stubAggregator{}, stubRelated{err: boom}, &stubRecorder{}, "find related content", 0},
		{"recorder", stubAggregator{}, stubRelated{}, &stubRecorder{err: boom}, "log conversation", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &recordingCompleter{answer: "답변"}
			svc, err := NewService(Dependencies{
				Classifier: intent.NewScorer(),
				Retriever:  &fixedRetriever{},
				Aggregator: tt.aggregator,
				Related:    tt.related,
				Prompts:    prompt.NewBuilder(fewshot.NewDefaultRegistry()),
				Completer:  completer,
				Recorder:   tt.recorder,
			})
			require.NoError(t, err)

			result, err := svc.ProcessQuestion(context.Background(), "회사 위치가 어디인가요?", "s")
			assert.Nil(t, result)
			assert.ErrorIs(t, err, boom)
			assert.ErrorContains(t, err, tt.wantMsg)
			assert.Equal(t, tt.wantLLM, completer.calls)
		})
	}
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	assert.Error(t, err)
}
