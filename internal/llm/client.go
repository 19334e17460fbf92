// Package llm provides a chat completion client for OpenAI-compatible APIs.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/toktokhan/chatbot-engine/internal/observability"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces a completion for a list of messages.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// APIError is a non-2xx response from the completion API.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("llm API error %d: %s (type: %s)", e.StatusCode, e.Message, e.Type)
	}
	return fmt.Sprintf("llm API error %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if repeated.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Config holds completion client configuration.
type Config struct {
	APIKey        string
	Model         string  // e.g. "gpt-4o"
	BaseURL       string  // Default: https://api.openai.com/v1
	Temperature   float64 // Default: 0.1
	Timeout       time.Duration
	MaxRetries    int
	RetryInterval time.Duration

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
}

// Client calls the chat completions endpoint with retry and a circuit breaker.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	model         string
	temperature   float64
	maxRetries    int
	retryInterval time.Duration
	breaker       *gobreaker.CircuitBreaker
	logger        *observability.Logger
}

// NewClient creates a new completion client.
func NewClient(cfg Config, logger *observability.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 500 * time.Millisecond
	}
	if cfg.BreakerMaxFailures == 0 {
		cfg.BreakerMaxFailures = 5
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	logger = logger.WithComponent("llm")

	maxFailures := cfg.BreakerMaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "llm-completions",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			// caller cancellations say nothing about upstream health
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		model:         cfg.Model,
		temperature:   cfg.Temperature,
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		breaker:       breaker,
		logger:        logger,
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.completeWithRetry(ctx, body)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// CompletePrompt sends prompt as a single user message.
func (c *Client) CompletePrompt(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, []Message{{Role: "user", Content: prompt}})
}

func (c *Client) completeWithRetry(ctx context.Context, body []byte) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxElapsedTime = 0

	var content string
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		content, err = c.send(ctx, body)
		if err == nil {
			return nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		c.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("Completion request failed")
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.maxRetries)), ctx))
	if err != nil {
		return "", err
	}
	return content, nil
}

func (c *Client) send(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(raw)}
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil {
			apiErr.Message = parsed.Error.Message
			apiErr.Type = parsed.Error.Type
		}
		return "", apiErr
	}

	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Model returns the model being used.
func (c *Client) Model() string {
	return c.model
}

var _ Completer = (*Client)(nil)
