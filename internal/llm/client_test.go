package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toktokhan/chatbot-engine/internal/cache"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		APIKey:        "test-key",
		BaseURL:       srv.URL,
		MaxRetries:    2,
		RetryInterval: time.Millisecond,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return client
}

func writeChoice(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestClient_CompletePrompt(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeChoice(w, "안녕하세요!")
	}, nil)

	answer, err := client.CompletePrompt(context.Background(), "프롬프트")
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요!", answer)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 0.1, got.Temperature)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, Message{Role: "user", Content: "프롬프트"}, got.Messages[0])
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeChoice(w, "ok")
	}, nil)

	answer, err := client.CompletePrompt(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}, nil)

	_, err := client.CompletePrompt(context.Background(), "q")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad key", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_BreakerOpensAfterFailures(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *Config) {
		cfg.MaxRetries = 0
		cfg.BreakerMaxFailures = 2
		cfg.BreakerOpenTimeout = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := client.CompletePrompt(context.Background(), "q")
		require.Error(t, err)
	}

	_, err := client.CompletePrompt(context.Background(), "q")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)
}

type stubCompleter struct {
	calls  int
	output string
	err    error
	last   []Message
}

func (s *stubCompleter) Complete(_ context.Context, messages []Message) (string, error) {
	s.calls++
	s.last = messages
	return s.output, s.err
}

func TestVariantGenerator(t *testing.T) {
	t.Run("parses non-empty lines", func(t *testing.T) {
		stub := &stubCompleter{output: "React 프로젝트 사례\n\n  리액트 개발 경험  \nReact 포트폴리오\n"}
		g := NewVariantGenerator(stub, 3, nil)

		variants, err := g.GenerateQueryVariants(context.Background(), "React 프로젝트")
		require.NoError(t, err)
		assert.Equal(t, []string{"React 프로젝트 사례", "리액트 개발 경험", "React 포트폴리오"}, variants)
		require.Len(t, stub.last, 1)
		assert.Contains(t, stub.last[0].Content, "generate 3 different versions")
		assert.Contains(t, stub.last[0].Content, "Original question: React 프로젝트")
	})

	t.Run("caches variants", func(t *testing.T) {
		stub := &stubCompleter{output: "a\nb"}
		mem, err := cache.NewMemoryClient(10)
		require.NoError(t, err)
		g := NewVariantGenerator(stub, 2, nil, WithVariantCache(mem, time.Minute))

		first, err := g.GenerateQueryVariants(context.Background(), "q")
		require.NoError(t, err)
		second, err := g.GenerateQueryVariants(context.Background(), "q")
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, stub.calls)
	})

	t.Run("wraps completion errors", func(t *testing.T) {
		stub := &stubCompleter{err: &APIError{StatusCode: 503, Message: "down"}}
		g := NewVariantGenerator(stub, 3, nil)

		_, err := g.GenerateQueryVariants(context.Background(), "q")
		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
	})
}
