package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toktokhan/chatbot-engine/internal/cache"
	"github.com/toktokhan/chatbot-engine/internal/chatbot"
	"github.com/toktokhan/chatbot-engine/internal/fewshot"
	"github.com/toktokhan/chatbot-engine/internal/ingest"
	"github.com/toktokhan/chatbot-engine/internal/intent"
	"github.com/toktokhan/chatbot-engine/internal/monitoring"
	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/retrieval"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

type fakeAnswerer struct {
	result    *chatbot.Result
	err       error
	questions []string
	sessions  []string
}

func (f *fakeAnswerer) ProcessQuestion(ctx context.Context, question, sessionID string) (*chatbot.Result, error) {
	f.questions = append(f.questions, question)
	f.sessions = append(f.sessions, sessionID)
	return f.result, f.err
}

type fakeLogs struct {
	feedbackErr error
	history     []*storage.ConversationLog
	lastLimit   int
}

func (f *fakeLogs) RecordFeedback(ctx context.Context, logID uuid.UUID, rating int, comment string) error {
	return f.feedbackErr
}

func (f *fakeLogs) SessionHistory(ctx context.Context, sessionID string, limit int) ([]*storage.ConversationLog, error) {
	f.lastLimit = limit
	return f.history, nil
}

type fakeStats struct{ days int }

func (f *fakeStats) QuestionTypeStats(ctx context.Context, days int) (*monitoring.QuestionTypeStats, error) {
	f.days = days
	return &monitoring.QuestionTypeStats{Days: days, Total: 3, Counts: map[intent.Category]int{intent.CategoryProject: 3}}, nil
}

func newChatRouter(h *ChatHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/messages", h.SendMessage)
	r.Post("/logs/{logId}/feedback", h.Feedback)
	r.Get("/sessions/{sessionId}/logs", h.SessionLogs)
	r.Get("/stats", h.Stats)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&out))
	return out
}

func TestChatHandler_SendMessage(t *testing.T) {
	answerer := &fakeAnswerer{result: &chatbot.Result{
		Answer:    "React 프로젝트 경험이 있습니다.",
		ElapsedMs: 1234,
		LogID:     "log-1",
		Category:  intent.CategoryTech,
		RelatedContent: []retrieval.RelatedContent{
			{Title: "React 회고", URL: "https://blog.example.com/react", Relevance: "검색 결과"},
		},
	}}
	h := newChatRouter(NewChatHandler(observability.NopLogger(), answerer, &fakeLogs{}, &fakeStats{}, ChatLimits{}))

	rec := do(t, h, http.MethodPost, "/messages", `{"message":"React 개발 가능한가요?","session_id":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "React 개발 가능한가요?", body["question"])
	assert.Equal(t, "React 프로젝트 경험이 있습니다.", body["answer"])
	assert.Equal(t, float64(1234), body["response_time_ms"])
	assert.Equal(t, "log-1", body["chat_log_id"])
	assert.Equal(t, "tech", body["question_type"])
	assert.Len(t, body["related_blogs"], 1)
	assert.Equal(t, []string{"s1"}, answerer.sessions)
}

func TestChatHandler_SendMessageValidation(t *testing.T) {
	answerer := &fakeAnswerer{result: &chatbot.Result{}}
	h := newChatRouter(NewChatHandler(observability.NopLogger(), answerer, &fakeLogs{}, &fakeStats{}, ChatLimits{MaxQuestionLength: 5}))

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty message", `{"message":"   "}`, "질문을 입력해주세요."},
		{"missing message", `{}`, "질문을 입력해주세요."},
		{"too long", `{"message":"가나다라마바"}`, "질문이 너무 깁니다."},
		{"bad json", `{`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/messages", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["error"])
		})
	}
	assert.Empty(t, answerer.questions)
}

func TestChatHandler_SendMessageFailures(t *testing.T) {
	t.Run("pipeline error is hidden", func(t *testing.T) {
		answerer := &fakeAnswerer{err: errors.New("llm: status 500: upstream secret")}
		h := newChatRouter(NewChatHandler(observability.NopLogger(), answerer, &fakeLogs{}, &fakeStats{}, ChatLimits{}))

		rec := do(t, h, http.MethodPost, "/messages", `{"message":"안녕하세요"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "upstream secret")
	})

	t.Run("no answerer configured", func(t *testing.T) {
		h := newChatRouter(NewChatHandler(observability.NopLogger(), nil, &fakeLogs{}, &fakeStats{}, ChatLimits{}))
		rec := do(t, h, http.MethodPost, "/messages", `{"message":"안녕하세요"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("nil related content renders empty list", func(t *testing.T) {
		answerer := &fakeAnswerer{result: &chatbot.Result{Answer: "네"}}
		h := newChatRouter(NewChatHandler(observability.NopLogger(), answerer, &fakeLogs{}, &fakeStats{}, ChatLimits{}))
		rec := do(t, h, http.MethodPost, "/messages", `{"message":"안녕하세요"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"related_blogs":[]`)
	})
}

func TestChatHandler_Feedback(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"recorded", "/logs/" + id.String() + "/feedback", nil, http.StatusOK},
		{"invalid rating", "/logs/" + id.String() + "/feedback", monitoring.ErrInvalidRating, http.StatusBadRequest},
		{"unknown log", "/logs/" + id.String() + "/feedback", storage.ErrNotFound, http.StatusNotFound},
		{"store failure", "/logs/" + id.String() + "/feedback", errors.New("disk full"), http.StatusInternalServerError},
		{"bad id", "/logs/not-a-uuid/feedback", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newChatRouter(NewChatHandler(observability.NopLogger(), nil, &fakeLogs{feedbackErr: tt.err}, &fakeStats{}, ChatLimits{}))
			rec := do(t, h, http.MethodPost, tt.path, `{"rating":5,"feedback":"좋아요"}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestChatHandler_SessionLogsAndStats(t *testing.T) {
	logs := &fakeLogs{history: []*storage.ConversationLog{
		{ID: uuid.New(), UserQuestion: "질문", AIResponse: "답변", SessionID: "s1", CreatedAt: time.Now()},
	}}
	stats := &fakeStats{}
	h := newChatRouter(NewChatHandler(observability.NopLogger(), nil, logs, stats, ChatLimits{HistoryLimit: 20, StatsDays: 7}))

	rec := do(t, h, http.MethodGet, "/sessions/s1/logs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "s1", body["session_id"])
	assert.Len(t, body["logs"], 1)
	assert.Equal(t, 20, logs.lastLimit)

	rec = do(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, stats.days)

	rec = do(t, h, http.MethodGet, "/stats?days=30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, stats.days)
	assert.Equal(t, float64(3), decode(t, rec)["total"])

	rec = do(t, h, http.MethodGet, "/stats?days=week", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeRefresher struct {
	report    *ingest.EmbedReport
	singleErr error
	single    []string
}

func (f *fakeRefresher) EmbedAll(ctx context.Context, progress ingest.ProgressFunc) (*ingest.EmbedReport, error) {
	return f.report, nil
}

func (f *fakeRefresher) UpdateSingle(ctx context.Context, id uuid.UUID, contentType string) error {
	f.single = append(f.single, contentType+"_"+id.String())
	return f.singleErr
}

func newAdminRouter(h *AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/examples", h.AddExamples)
	r.Post("/embeddings", h.EmbedAll)
	r.Post("/embeddings/{contentType}/{contentId}", h.EmbedOne)
	r.Delete("/cache/{scope}", h.FlushCache)
	return r
}

func TestAdminHandler_AddExamples(t *testing.T) {
	registry := fewshot.NewDefaultRegistry()
	before := registry.Count(intent.CategoryCompany)
	h := newAdminRouter(NewAdminHandler(observability.NopLogger(), registry, &fakeRefresher{}, nil))

	rec := do(t, h, http.MethodPost, "/examples",
		`{"category":"company","examples":[{"question":"계약은 어떻게 하나요?","answer":"상담 후 계약서를 작성합니다."}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(before+1), decode(t, rec)["count"])

	rec = do(t, h, http.MethodPost, "/examples", `{"category":"weather","examples":[{"question":"q","answer":"a"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/examples", `{"category":"company","examples":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandler_Embeddings(t *testing.T) {
	refresher := &fakeRefresher{report: &ingest.EmbedReport{CompanyContents: 1, Projects: 2, BlogPosts: 2, Duration: time.Second}}
	h := newAdminRouter(NewAdminHandler(observability.NopLogger(), fewshot.NewRegistry(), refresher, nil))

	rec := do(t, h, http.MethodPost, "/embeddings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(2), body["projects"])
	assert.Equal(t, float64(1000), body["duration_ms"])

	id := uuid.New()
	rec = do(t, h, http.MethodPost, "/embeddings/project/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"project_" + id.String()}, refresher.single)

	rec = do(t, h, http.MethodPost, "/embeddings/project/bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	refresher.singleErr = ingest.ErrUnknownContentType
	rec = do(t, h, http.MethodPost, "/embeddings/video/"+id.String(), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	refresher.singleErr = storage.ErrNotFound
	rec = do(t, h, http.MethodPost, "/embeddings/blog/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandler_FlushCache(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewMemoryClient(0)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "variants:abc", []byte(`["a"]`), 0))
	require.NoError(t, c.Set(ctx, "emb:mock-embedding-model:abc", []byte("v"), 0))
	h := newAdminRouter(NewAdminHandler(observability.NopLogger(), fewshot.NewRegistry(), &fakeRefresher{}, c))

	rec := do(t, h, http.MethodDelete, "/cache/variants", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = c.Get(ctx, "variants:abc")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	_, err = c.Get(ctx, "emb:mock-embedding-model:abc")
	assert.NoError(t, err)

	rec = do(t, h, http.MethodDelete, "/cache/all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, err = c.Get(ctx, "emb:mock-embedding-model:abc")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	rec = do(t, h, http.MethodDelete, "/cache/sessions", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
