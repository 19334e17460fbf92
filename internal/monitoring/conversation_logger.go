// Package monitoring records processed questions, user feedback and
// question-type statistics.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

const defaultHistoryLimit = 50

// LogStore persists conversation logs.
type LogStore interface {
	Create(ctx context.Context, l *storage.ConversationLog) error
	UpdateFeedback(ctx context.Context, id uuid.UUID, rating int, feedback string) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*storage.ConversationLog, error)
	ListSince(ctx context.Context, since time.Time) ([]*storage.ConversationLog, error)
}

// LogInput is everything recorded about one answered question.
type LogInput struct {
	Question          string
	ProcessedQuestion string
	CompanyIDs        []string
	ProjectIDs        []string
	BlogIDs           []string
	RelatedLinks      []storage.Link
	Answer            string
	ElapsedMs         int64
	SessionID         string
}

// ConversationLogger writes one chat log per processed question.
type ConversationLogger struct {
	store  LogStore
	logger *observability.Logger
}

// NewConversationLogger creates a conversation logger.
func NewConversationLogger(store LogStore, logger *observability.Logger) *ConversationLogger {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &ConversationLogger{store: store, logger: logger.WithComponent("conversation_logger")}
}

// Log persists the entry synchronously.
func (c *ConversationLogger) Log(ctx context.Context, in LogInput) (*storage.ConversationLog, error) {
	entry := &storage.ConversationLog{
		UserQuestion:        in.Question,
		ProcessedQuestion:   in.ProcessedQuestion,
		RetrievedContentIDs: nonNil(in.CompanyIDs),
		RetrievedProjects:   nonNil(in.ProjectIDs),
		RetrievedBlogs:      nonNil(in.BlogIDs),
		AIResponse:          in.Answer,
		RecommendedLinks:    storage.LinkList(in.RelatedLinks),
		ResponseTimeMs:      in.ElapsedMs,
		SessionID:           in.SessionID,
	}
	if entry.RecommendedLinks == nil {
		entry.RecommendedLinks = storage.LinkList{}
	}

	if err := c.store.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("save conversation log: %w", err)
	}

	c.logger.WithContext(ctx).WithSession(in.SessionID).Info().
		Str("log_id", entry.ID.String()).
		Int64("response_time_ms", in.ElapsedMs).
		Int("projects", len(in.ProjectIDs)).
		Int("blogs", len(in.BlogIDs)).
		Int("related_links", len(in.RelatedLinks)).
		Msg("Conversation logged")
	return entry, nil
}

// RecordFeedback attaches a rating and optional comment to an existing log.
func (c *ConversationLogger) RecordFeedback(ctx context.Context, logID uuid.UUID, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	if err := c.store.UpdateFeedback(ctx, logID, rating, comment); err != nil {
		return fmt.Errorf("record feedback for %s: %w", logID, err)
	}

	c.logger.WithContext(ctx).Info().
		Str("log_id", logID.String()).
		Int("rating", rating).
		Msg("Feedback recorded")
	return nil
}

// SessionHistory lists a session's logs, oldest first.
func (c *ConversationLogger) SessionHistory(ctx context.Context, sessionID string, limit int) ([]*storage.ConversationLog, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	logs, err := c.store.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list session %s: %w", sessionID, err)
	}
	return logs, nil
}

func nonNil(ids []string) storage.StringList {
	if ids == nil {
		return storage.StringList{}
	}
	return storage.StringList(ids)
}
