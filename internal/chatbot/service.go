// Package chatbot answers company questions by classifying them, retrieving
// knowledge, assembling a few-shot prompt and calling the LLM once.
package chatbot

import (
	"context"
	"fmt"
	"time"

	"github.com/toktokhan/chatbot-engine/internal/intent"
	"github.com/toktokhan/chatbot-engine/internal/llm"
	"github.com/toktokhan/chatbot-engine/internal/monitoring"
	"github.com/toktokhan/chatbot-engine/internal/observability"
	"github.com/toktokhan/chatbot-engine/internal/retrieval"
	"github.com/toktokhan/chatbot-engine/internal/storage"
)

// Classifier assigns a category to a raw question.
type Classifier interface {
	Classify(question string) intent.Category
}

// DocumentRetriever fetches documents for an expanded question.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, processed string, k int) []retrieval.Document
}

// ContextAggregator resolves documents into a context bundle.
type ContextAggregator interface {
	Aggregate(ctx context.Context, docs []retrieval.Document, question string) (*retrieval.ContextBundle, error)
}

// RelatedContentFinder selects blog posts to recommend.
type RelatedContentFinder interface {
	Find(ctx context.Context, bundle *retrieval.ContextBundle, question string) ([]retrieval.RelatedContent, error)
}

// PromptBuilder renders the final prompt.
type PromptBuilder interface {
	Build(question string, category intent.Category, contextText string, related []storage.Link) string
}

// ConversationRecorder persists one log entry per answered question.
type ConversationRecorder interface {
	Log(ctx context.Context, in monitoring.LogInput) (*storage.ConversationLog, error)
}

// Result is the answer to one question.
type Result struct {
	Answer         string                     `json:"answer"`
	RelatedContent []retrieval.RelatedContent `json:"related_content"`
	Sources        []retrieval.Metadata       `json:"sources"`
	ElapsedMs      int64                      `json:"response_time_ms"`
	LogID          string                     `json:"chat_log_id"`
	Category       intent.Category            `json:"question_type"`
}

// Dependencies wires the pipeline stages.
type Dependencies struct {
	Classifier Classifier
	Retriever  DocumentRetriever
	Aggregator ContextAggregator
	Related    RelatedContentFinder
	Prompts    PromptBuilder
	Completer  llm.Completer
	Recorder   ConversationRecorder
	TopK       int
	Logger     *observability.Logger
}

// Service runs the question pipeline. It holds no per-request state.
type Service struct {
	classifier Classifier
	retriever  DocumentRetriever
	aggregator ContextAggregator
	related    RelatedContentFinder
	prompts    PromptBuilder
	completer  llm.Completer
	recorder   ConversationRecorder
	topK       int
	now        func() time.Time
	logger     *observability.Logger
}

// NewService creates a chatbot service.
func NewService(deps Dependencies) (*Service, error) {
	switch {
	case deps.Classifier == nil:
		return nil, fmt.Errorf("classifier is required")
	case deps.Retriever == nil:
		return nil, fmt.Errorf("retriever is required")
	case deps.Aggregator == nil:
		return nil, fmt.Errorf("aggregator is required")
	case deps.Related == nil:
		return nil, fmt.Errorf("related content finder is required")
	case deps.Prompts == nil:
		return nil, fmt.Errorf("prompt builder is required")
	case deps.Completer == nil:
		return nil, fmt.Errorf("completer is required")
	case deps.Recorder == nil:
		return nil, fmt.Errorf("conversation recorder is required")
	}

	if deps.TopK <= 0 {
		deps.TopK = retrieval.DefaultTopK
	}
	logger := deps.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	return &Service{
		classifier: deps.Classifier,
		retriever:  deps.Retriever,
		aggregator: deps.Aggregator,
		related:    deps.Related,
		prompts:    deps.Prompts,
		completer:  deps.Completer,
		recorder:   deps.Recorder,
		topK:       deps.TopK,
		now:        time.Now,
		logger:     logger.WithComponent("chatbot"),
	}, nil
}

// ProcessQuestion answers a question. Retrieval problems degrade to an empty
// context; every other failure is returned.
func (s *Service) ProcessQuestion(ctx context.Context, question, sessionID string) (*Result, error) {
	start := s.now()
	log := s.logger.WithContext(ctx).WithSession(sessionID).WithOperation("process_question")

	category := s.classifier.Classify(question)
	processed := ExpandQuery(question)

	log.Debug().
		Str("category", string(category)).
		Str("processed_question", processed).
		Msg("Question analyzed")

	docs := s.retriever.Retrieve(ctx, processed, s.topK)

	bundle, err := s.aggregator.Aggregate(ctx, docs, question)
	if err != nil {
		return nil, fmt.Errorf("aggregate context: %w", err)
	}

	related, err := s.related.Find(ctx, bundle, question)
	if err != nil {
		return nil, fmt.Errorf("find related content: %w", err)
	}
	links := retrieval.Links(related)

	prompt := s.prompts.Build(question, category, bundle.Text, links)
	answer, err := s.completer.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	elapsed := s.now().Sub(start).Milliseconds()
	entry, err := s.recorder.Log(ctx, monitoring.LogInput{
		Question:          question,
		ProcessedQuestion: processed,
		CompanyIDs:        bundle.CompanyIDs(),
		ProjectIDs:        bundle.ProjectIDs(),
		BlogIDs:           bundle.BlogIDs(),
		RelatedLinks:      links,
		Answer:            answer,
		ElapsedMs:         elapsed,
		SessionID:         sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("log conversation: %w", err)
	}

	log.Info().
		Str("category", string(category)).
		Int("documents", len(docs)).
		Str("context_summary", bundle.Summary).
		Int("related", len(related)).
		Int64("elapsed_ms", elapsed).
		Msg("Question answered")

	return &Result{
		Answer:         answer,
		RelatedContent: related,
		Sources:        bundle.Sources,
		ElapsedMs:      elapsed,
		LogID:          entry.ID.String(),
		Category:       category,
	}, nil
}
