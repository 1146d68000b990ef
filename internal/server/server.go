// Package server provides HTTP server initialization and lifecycle
// management for the Eve API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/tailored-ai/eve/internal/agent"
	"github.com/tailored-ai/eve/internal/config"
	"github.com/tailored-ai/eve/internal/llm"
	"github.com/tailored-ai/eve/internal/ratelimit"
	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/web/handlers"
)

// Start initializes and starts the HTTP server. It returns the actual
// listen address (useful for testing with port 0) and the insight hub so
// callers can inspect push delivery. The server shuts down gracefully when
// ctx is canceled.
func Start(ctx context.Context, cfg *config.Config, store storage.Store, llmClient *llm.Client, orchestrator *agent.Orchestrator) (string, *handlers.InsightHub, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)

	hub := handlers.NewInsightHub([]string{
		fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		fmt.Sprintf("localhost:%d", cfg.Server.Port),
		fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
	})
	go hub.Run()
	orchestrator.Proactive().SetNotifier(hub)

	api := handlers.NewAPIHandlers(orchestrator, store, llmClient)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/chat", api.Chat)
	apiMux.HandleFunc("GET /api/goals", api.ListGoals)
	apiMux.HandleFunc("POST /api/goals", api.CreateGoal)
	apiMux.HandleFunc("PATCH /api/goals/{id}/subtasks/{subtaskID}", api.UpdateSubtask)
	apiMux.HandleFunc("GET /api/goals/{id}/suggestions", api.SuggestNextActions)
	apiMux.HandleFunc("POST /api/feedback", api.PostFeedback)
	apiMux.HandleFunc("GET /api/memories", api.ListMemories)
	apiMux.HandleFunc("POST /api/memories", api.CreateMemory)
	apiMux.HandleFunc("DELETE /api/memories/{id}", api.DeleteMemory)
	apiMux.HandleFunc("GET /api/settings/engagement", api.GetEngagement)
	apiMux.HandleFunc("PUT /api/settings/engagement", api.PutEngagement)
	apiMux.HandleFunc("GET /api/agentic/stats", api.AgenticStats)
	apiMux.HandleFunc("POST /api/agentic/task", api.ExecuteTask)
	apiMux.HandleFunc("GET /api/learning/context", api.LearningContext)
	apiMux.HandleFunc("GET /api/reflection/stats", api.ReflectionStats)
	apiMux.HandleFunc("GET /api/insights", api.ListInsights)
	apiMux.HandleFunc("POST /api/insights/{id}/dismiss", api.DismissInsight)

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Burst:             cfg.RateLimit.Burst,
		TTL:               time.Duration(cfg.RateLimit.TTLSeconds) * time.Second,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", handlers.RequireAuth(
		handlers.RateLimit(apiMux, limiter),
		cfg.Server.APIToken,
		cfg.IsDevelopment(),
	))

	// Health endpoint stays outside auth for monitoring.
	mux.HandleFunc("GET /health", api.Health)

	// WebSocket endpoint relies on origin validation instead of auth.
	mux.Handle("GET /ws/insights", hub)

	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.SecurityHeaders(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		hub.Stop()
		limiter.Close()
		return "", nil, fmt.Errorf("server: failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server: serve error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("server: shutdown error: %v", err)
		}
		hub.Stop()
		limiter.Close()
	}()

	return actualAddr, hub, nil
}
