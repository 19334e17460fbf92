package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/toktokhan/chatbot-engine/internal/chatbot"
	"github.com/toktokhan/chatbot-engine/internal/monitoring"
	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/retrieval"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

// QuestionAnswerer answers a chat message.
type QuestionAnswerer interface {
	ProcessQuestion(ctx context.Context, question, sessionID string) (*chatbot.Result, error)
}

// ConversationStore exposes feedback and history.
type ConversationStore interface {
	RecordFeedback(ctx context.Context, logID uuid.UUID, rating int, comment string) error
	SessionHistory(ctx context.Context, sessionID string, limit int) ([]*storage.ConversationLog, error)
}

// StatsProvider computes question-type statistics.
type StatsProvider interface {
	QuestionTypeStats(ctx context.Context, days int) (*monitoring.QuestionTypeStats, error)
}

// ChatLimits bounds chat requests.
type ChatLimits struct {
	MaxQuestionLength int
	HistoryLimit      int
	StatsDays         int
}

// ChatHandler serves the public chat endpoints.
type ChatHandler struct {
	logger   *observability.Logger
	answerer QuestionAnswerer
	logs     ConversationStore
	stats    StatsProvider
	limits   ChatLimits
}

// NewChatHandler creates a chat handler. A nil answerer makes the message
// endpoint report 503.
func NewChatHandler(logger *observability.Logger, answerer QuestionAnswerer, logs ConversationStore, stats StatsProvider, limits ChatLimits) *ChatHandler {
	if limits.MaxQuestionLength <= 0 {
		limits.MaxQuestionLength = 1000
	}
	return &ChatHandler{
		logger:   logger,
		answerer: answerer,
		logs:     logs,
		stats:    stats,
		limits:   limits,
	}
}

// SendMessageRequest is the body of POST /chat/messages.
type SendMessageRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// SendMessageResponse is the answer to a chat message.
type SendMessageResponse struct {
	Question       string                     `json:"question"`
	Answer         string                     `json:"answer"`
	RelatedBlogs   []retrieval.RelatedContent `json:"related_blogs"`
	ResponseTimeMs int64                      `json:"response_time_ms"`
	ChatLogID      string                     `json:"chat_log_id"`
	QuestionType   string                     `json:"question_type"`
}

// SendMessage handles POST /chat/messages.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "질문을 입력해주세요.", "")
		return
	}
	if utf8.RuneCountInString(req.Message) > h.limits.MaxQuestionLength {
		writeError(w, http.StatusBadRequest, "질문이 너무 깁니다.",
			"최대 "+strconv.Itoa(h.limits.MaxQuestionLength)+"자까지 입력할 수 있습니다.")
		return
	}
	if h.answerer == nil {
		writeError(w, http.StatusServiceUnavailable, "챗봇이 설정되지 않았습니다.", "")
		return
	}

	result, err := h.answerer.ProcessQuestion(r.Context(), req.Message, req.SessionID)
	if err != nil {
		writeInternal(w, r, h.logger, err, "Failed to process question")
		return
	}

	related := result.RelatedContent
	if related == nil {
		related = []retrieval.RelatedContent{}
	}
	writeJSON(w, http.StatusOK, SendMessageResponse{
		Question:       req.Message,
		Answer:         result.Answer,
		RelatedBlogs:   related,
		ResponseTimeMs: result.ElapsedMs,
		ChatLogID:      result.LogID,
		QuestionType:   string(result.Category),
	})
}

// FeedbackRequest is the body of POST /chat/logs/{logId}/feedback.
type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// Feedback handles POST /chat/logs/{logId}/feedback.
func (h *ChatHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	logID, err := uuid.Parse(chi.URLParam(r, "logId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid log id", err.Error())
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	err = h.logs.RecordFeedback(r.Context(), logID, req.Rating, req.Feedback)
	switch {
	case errors.Is(err, monitoring.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "평점은 1에서 5 사이여야 합니다.", "")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "대화 기록을 찾을 수 없습니다.", "")
	case err != nil:
		writeInternal(w, r, h.logger, err, "Failed to record feedback")
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{"chat_log_id": logID.String(), "rating": req.Rating})
	}
}

// SessionLogs handles GET /chat/sessions/{sessionId}/logs.
func (h *ChatHandler) SessionLogs(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	logs, err := h.logs.SessionHistory(r.Context(), sessionID, h.limits.HistoryLimit)
	if err != nil {
		writeInternal(w, r, h.logger, err, "Failed to list session logs")
		return
	}
	if logs == nil {
		logs = []*storage.ConversationLog{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"session_id": sessionID, "logs": logs})
}

// Stats handles GET /chat/stats?days=N.
func (h *ChatHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := h.limits.StatsDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be an integer", err.Error())
			return
		}
		days = n
	}

	stats, err := h.stats.QuestionTypeStats(r.Context(), days)
	if err != nil {
		writeInternal(w, r, h.logger, err, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
