package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"kbchat/internal/chunker"
	"kbchat/internal/config"
	"kbchat/internal/embedding"
	"kbchat/internal/ingest"
	"kbchat/internal/logger"
	"kbchat/internal/vectorstore"
	"kbchat/internal/vectorstore/azsearch"
	"kbchat/internal/vectorstore/memory"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var ensureIndex, dropIndex bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/kbchat/config.yaml if not provided)")
	flag.BoolVar(&ensureIndex, "ensure-index", false, "Create the search index if it does not exist before ingesting")
	flag.BoolVar(&dropIndex, "drop-index", false, "Delete the search index and exit")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 && !dropIndex {
		fmt.Println("Usage: kbchat-ingest [--config=config.yaml] [--ensure-index] file1.pdf [file2.txt ...]")
		os.Exit(1)
	}

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
	ctx := context.Background()

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
	defer index.Close()

	if dropIndex {
		if err := index.DropIndex(ctx); err != nil {
			log.Fatalf("drop index failed: %v", err)
		}
		fmt.Println("Index dropped.")
		return
	}
	if ensureIndex {
		if err := index.EnsureIndex(ctx); err != nil {
			log.Fatalf("ensure index failed: %v", err)
		}
	}

	emb, err := embedding.NewClient(embedding.Config{
		BaseURL:   cfg.Embedding.BaseURL,
		Dimension: cfg.Embedding.Dimension,
		Timeout:   time.Duration(cfg.Embedding.TimeoutSecs) * time.Second,
	}, lg)
	if err != nil {
		log.Fatalf("embedding client init failed: %v", err)
	}
	defer emb.Close()

	splitter, err := chunker.NewSplitter(cfg.Ingest.ChunkSize, cfg.Ingest.Overlap)
	if err != nil {
		log.Fatalf("invalid chunking config: %v", err)
	}

	pipeline := ingest.New(splitter, emb, index, ingest.Config{
		BatchSize:   cfg.Ingest.BatchSize,
		Concurrency: cfg.Ingest.Concurrency,
	}, lg)

	results := pipeline.IngestFiles(ctx, inputs)
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", res.Path, res.Err)
			continue
		}
		fmt.Printf("ok   %s: %d chunks\n", res.Path, res.Chunks)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
