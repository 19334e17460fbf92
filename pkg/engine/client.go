// Package engine provides the public Go SDK for the chatbot API.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client calls a running chatbot API server.
type Client struct {
	baseURL    string
	adminToken string
	httpClient *http.Client
	maxRetries int
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL    string // Default: http://localhost:8090
	AdminToken string // required only for admin calls
	Timeout    time.Duration
	MaxRetries int
}

// NewClient creates a new chatbot API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8090"
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		adminToken: cfg.AdminToken,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Message    string `json:"error"`
	Detail     string `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("chatbot API %d: %s (%s)", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("chatbot API %d: %s", e.StatusCode, e.Message)
}

// RelatedContent is a recommended link attached to an answer.
type RelatedContent struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Excerpt   string `json:"excerpt"`
	Relevance string `json:"relevance"`
}

// AskResponse is the chatbot's answer to a message.
type AskResponse struct {
	Question       string           `json:"question"`
	Answer         string           `json:"answer"`
	RelatedBlogs   []RelatedContent `json:"related_blogs"`
	ResponseTimeMs int64            `json:"response_time_ms"`
	ChatLogID      string           `json:"chat_log_id"`
	QuestionType   string           `json:"question_type"`
}

// Ask sends a question. sessionID may be empty.
func (c *Client) Ask(ctx context.Context, question, sessionID string) (*AskResponse, error) {
	body := map[string]string{"message": question}
	if sessionID != "" {
		body["session_id"] = sessionID
	}
	var out AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/chat/messages", body, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Feedback rates an answer from 1 to 5.
func (c *Client) Feedback(ctx context.Context, chatLogID string, rating int, comment string) error {
	body := map[string]interface{}{"rating": rating, "feedback": comment}
	return c.do(ctx, http.MethodPost, "/api/v1/chat/logs/"+url.PathEscape(chatLogID)+"/feedback", body, false, nil)
}

// LogEntry is one stored conversation turn.
type LogEntry struct {
	ID             string           `json:"id"`
	UserQuestion   string           `json:"user_question"`
	AIResponse     string           `json:"ai_response"`
	Recommended    []RelatedContent `json:"recommended_blog_links"`
	ResponseTimeMs int64            `json:"response_time_ms"`
	UserRating     *int             `json:"user_rating,omitempty"`
	SessionID      string           `json:"session_id"`
	CreatedAt      time.Time        `json:"created_at"`
}

// SessionLogs returns the conversation history of a session, oldest first.
func (c *Client) SessionLogs(ctx context.Context, sessionID string) ([]LogEntry, error) {
	var out struct {
		Logs []LogEntry `json:"logs"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/chat/sessions/"+url.PathEscape(sessionID)+"/logs", nil, false, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}

// Stats is the question-type distribution over a window.
type Stats struct {
	Days   int            `json:"days"`
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

// Stats returns question-type statistics. days <= 0 uses the server default.
func (c *Client) Stats(ctx context.Context, days int) (*Stats, error) {
	path := "/api/v1/chat/stats"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	var out Stats
	if err := c.do(ctx, http.MethodGet, path, nil, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Example is a question with its model answer.
type Example struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AddExamples registers few-shot examples for a category. Requires an admin token.
func (c *Client) AddExamples(ctx context.Context, category string, examples ...Example) error {
	body := map[string]interface{}{"category": category, "examples": examples}
	return c.do(ctx, http.MethodPost, "/api/v1/admin/examples", body, true, nil)
}

// RefreshEmbeddings rebuilds every embedding. Requires an admin token.
func (c *Client) RefreshEmbeddings(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/admin/embeddings", nil, true, nil)
}

// FlushCache drops cached entries of one scope: variants, embeddings or all.
func (c *Client) FlushCache(ctx context.Context, scope string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/admin/cache/"+url.PathEscape(scope), nil, true, nil)
}

// Health checks the service health.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ready", nil, false, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, admin bool, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = 0

	operation := func() error {
		err := c.send(ctx, method, path, payload, admin, out)
		if err == nil {
			return nil
		}
		if apiErr, ok := err.(*Error); ok && apiErr.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx))
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, admin bool, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set("Authorization", "Bearer "+c.adminToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
