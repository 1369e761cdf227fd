package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"kbchat/internal/chat"
	"kbchat/internal/config"
	"kbchat/internal/domain"
	"kbchat/internal/embedding"
	"kbchat/internal/generation"
	"kbchat/internal/logger"
	"kbchat/internal/retrieval"
	"kbchat/internal/tui"
	"kbchat/internal/vectorstore"
	"kbchat/internal/vectorstore/azsearch"
	"kbchat/internal/vectorstore/memory"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var modeFlag string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/kbchat/config.yaml if not provided)")
	flag.StringVar(&modeFlag, "mode", "", "Session mode: private or public (overrides config)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.New(os.Stderr, cfg.LogLevel)

	mode, err := resolveMode(cfg, modeFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// Assemble components
	emb, err := embedding.NewClient(embedding.Config{
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   time.Duration(cfg.Embedding.TimeoutSecs) * time.Second,
	}, lg)
	if err != nil {
		log.Fatalf("embedding client init failed: %v", err)
	}

	var index vectorstore.Index
	switch cfg.Search.Type {
	case "memory", "":
		index = memory.NewStore(cfg.Embedding.Dimension)
	case "azure":
		if cfg.Search.Azure == nil {
			log.Fatalf("azure search config missing")
		}
		store, err := azsearch.NewStore(azsearch.Config{
			Endpoint:  cfg.Search.Azure.Endpoint,
			APIKey:    os.Getenv(cfg.Search.Azure.APIKeyEnv),
			IndexName: cfg.Search.Azure.IndexName,
			Dimension: cfg.Embedding.Dimension,
			Timeout:   time.Duration(cfg.Search.Azure.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("azure search init failed: %v", err)
		}
		index = store
	default:
		log.Fatalf("unknown search type: %s", cfg.Search.Type)
	}

	gen, err := generation.NewClient(generation.Config{
		APIKey:    os.Getenv(cfg.Generation.APIKeyEnv),
		BaseURL:   cfg.Generation.BaseURL,
		Model:     cfg.Generation.Model,
		Timeout:   time.Duration(cfg.Generation.TimeoutSecs) * time.Second,
		MaxTokens: cfg.Generation.MaxTokens,
	})
	if err != nil {
		log.Fatalf("generation client init failed: %v", err)
	}

	orch := retrieval.New(emb, index, retrieval.Config{
		ProbeTTL: time.Duration(cfg.Chat.ProbeTTLSecs) * time.Second,
	}, lg)

	svc := chat.NewService(orch, gen, chat.Config{
		TopK:       cfg.Chat.TopK,
		MemorySize: cfg.Chat.MemorySize,
	}, lg)
	session := svc.NewSession(context.Background(), mode)

	m := tui.New(svc, session)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}

	_ = gen.Close()
	_ = index.Close()
	_ = emb.Close()
}

func resolveMode(cfg *config.AppConfig, override string) (domain.Mode, error) {
	raw := cfg.Chat.Mode
	if override != "" {
		raw = override
	}
	switch raw {
	case "private", "":
		return domain.ModePrivate, nil
	case "public":
		return domain.ModePublic, nil
	default:
		return "", fmt.Errorf("unknown mode: %s", raw)
	}
}
