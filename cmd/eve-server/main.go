package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/tailored-ai/eve/internal/agent"
	"github.com/tailored-ai/eve/internal/config"
	"github.com/tailored-ai/eve/internal/llm"
	"github.com/tailored-ai/eve/internal/server"
	"github.com/tailored-ai/eve/internal/storage"
	"github.com/tailored-ai/eve/internal/storage/postgres"
	"github.com/tailored-ai/eve/internal/storage/sqlite"
	"github.com/tailored-ai/eve/pkg/types"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Settings persisted in the database override env and file values.
	stored, err := config.LoadFromStore(ctx, store)
	if err != nil {
		log.Fatalf("Failed to load settings from storage: %v", err)
	}
	cfg.LLM.Model = stored.LLM.Model
	cfg.Agent.DefaultEngagementLevel = stored.Agent.DefaultEngagementLevel

	llmClient := llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})

	orchestrator := agent.NewOrchestrator(llmClient, store, agent.Options{
		DefaultLevel:        types.EngagementLevel(cfg.Agent.DefaultEngagementLevel),
		MemoryContextLimit:  cfg.Agent.MemoryContextLimit,
		ReflectionThreshold: cfg.Agent.ReflectionThreshold,
	})

	addr, _, err := server.Start(ctx, cfg, store, llmClient, orchestrator)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Eve API listening on http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give in-flight requests time to finish
}

// openStore opens the configured storage backend. SQLite file paths get
// their parent directory created first.
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		return postgres.NewStore(cfg.Database.DSN)
	default:
		dsn := cfg.Database.DSN
		if dsn != ":memory:" && !strings.Contains(dsn, "mode=memory") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, err
			}
		}
		return sqlite.NewStore(dsn)
	}
}
