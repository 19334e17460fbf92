package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/toktokhan/chatbot-engine/cmd/chatbot-api/handlers"
	"github.com/toktokhan/chatbot-engine/cmd/chatbot-api/middleware"
	"github.com/toktokhan/chatbot-engine/internal/app"
)

// NewRouter creates the API router over a bootstrapped application.
func NewRouter(a *app.App) http.Handler {
	cfg := a.Config
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.TraceID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"chatbot-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "application/json")
		if err := a.DB.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		vectors, err := a.Store.Count(ctx)
		if err != nil {
			a.Logger.WithContext(ctx).Error().Err(err).Msg("Vector count failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"status":"ready","vectors":%d}`, vectors)
	})

	var answerer handlers.QuestionAnswerer
	if a.Chatbot != nil {
		answerer = a.Chatbot
	}

	chatHandler := handlers.NewChatHandler(a.Logger, answerer, a.Logs, a.Stats, handlers.ChatLimits{
		MaxQuestionLength: cfg.Chatbot.MaxQuestionLength,
		HistoryLimit:      cfg.Chatbot.HistoryLimit,
		StatsDays:         cfg.Chatbot.StatsDays,
	})
	adminHandler := handlers.NewAdminHandler(a.Logger, a.Examples, a.Indexer, a.Cache)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/chat", func(r chi.Router) {
			r.Post("/messages", chatHandler.SendMessage)
			r.Post("/logs/{logId}/feedback", chatHandler.Feedback)
			r.Get("/sessions/{sessionId}/logs", chatHandler.SessionLogs)
			r.Get("/stats", chatHandler.Stats)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminToken(cfg.Admin.Token))
			r.Post("/examples", adminHandler.AddExamples)
			r.Post("/embeddings", adminHandler.EmbedAll)
			r.Post("/embeddings/{contentType}/{contentId}", adminHandler.EmbedOne)
			r.Delete("/cache/{scope}", adminHandler.FlushCache)
		})
	})

	return r
}
