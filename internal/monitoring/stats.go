package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/toktokhan/chatbot-engine/internal/intent"
	"github.com/toktokhan/chatbot-engine/internal/observability"
)

// DefaultStatsDays is the window used when no positive window is given.
const DefaultStatsDays = 7

// QuestionTypeStats counts recent questions per category.
type QuestionTypeStats struct {
	Days   int                     `json:"days"`
	Total  int                     `json:"total"`
	Counts map[intent.Category]int `json:"counts"`
}

// StatsService re-classifies logged questions.
type StatsService struct {
	store  LogStore
	scorer *intent.Scorer
	now    func() time.Time
	logger *observability.Logger
}

// NewStatsService creates a stats service.
func NewStatsService(store LogStore, scorer *intent.Scorer, logger *observability.Logger) *StatsService {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &StatsService{
		store:  store,
		scorer: scorer,
		now:    time.Now,
		logger: logger.WithComponent("stats"),
	}
}

// QuestionTypeStats classifies every question logged in the last days days.
// All categories are present in the result.
func (s *StatsService) QuestionTypeStats(ctx context.Context, days int) (*QuestionTypeStats, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}

	since := s.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
	logs, err := s.store.ListSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list logs since %s: %w", since.Format(time.RFC3339), err)
	}

	stats := &QuestionTypeStats{
		Days:   days,
		Total:  len(logs),
		Counts: make(map[intent.Category]int, len(intent.Categories)),
	}
	for _, c := range intent.Categories {
		stats.Counts[c] = 0
	}
	for _, l := range logs {
		stats.Counts[s.scorer.Classify(l.UserQuestion)]++
	}

	s.logger.WithContext(ctx).Debug().
		Int("days", days).
		Int("total", stats.Total).
		Msg("Question type stats computed")
	return stats, nil
}
