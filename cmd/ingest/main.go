package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dhayv/azure-rag-app/internal/chunker"
	"github.com/dhayv/azure-rag-app/internal/config"
	"github.com/dhayv/azure-rag-app/internal/embedcache"
	"github.com/dhayv/azure-rag-app/internal/openai"
	"github.com/dhayv/azure-rag-app/internal/pipeline"
	"github.com/dhayv/azure-rag-app/internal/ratelimit"
	"github.com/dhayv/azure-rag-app/internal/search"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	root := flag.String("root", cfg.DataRoot, "directory of markdown documents to ingest")
	flag.Parse()

	splitter, err := chunker.NewSplitter(cfg.ChunkMaxLen, cfg.ChunkOverlap)
	if err != nil {
		log.Error("invalid chunking configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	aoai := openai.NewClient(openai.Config{
		Endpoint:        cfg.OpenAIEndpoint,
		APIKey:          cfg.OpenAIAPIKey,
		APIVersion:      cfg.OpenAIAPIVersion,
		EmbedDeployment: cfg.EmbedDeployment,
		ChatDeployment:  cfg.ChatDeployment,
	})
	defer aoai.Close()
	index := search.NewClient(cfg.SearchEndpoint, cfg.SearchAPIKey, cfg.SearchIndex, cfg.SearchAPIVersion)
	defer index.Close()

	cache := embedcache.Load(cfg.CacheFile)
	log.Info("loaded embedding cache", "path", cfg.CacheFile, "entries", cache.Len())

	limiter := ratelimit.New(cfg.MaxRPM, time.Minute)
	embedder := pipeline.NewEmbedder(aoai, cache, limiter, log, cfg.EmbedBatchSize)
	ingestor := pipeline.NewIngestor(embedder, index, splitter, cfg.DocType, cfg.InterFileWait, log)

	summary, runErr := ingestor.Run(ctx, *root)

	// Save whatever was embedded, even on an interrupted run.
	if err := cache.Save(cfg.CacheFile); err != nil {
		log.Error("saving embedding cache failed", "path", cfg.CacheFile, "error", err)
	}

	if runErr != nil {
		log.Error("ingestion aborted", "error", runErr)
		os.Exit(1)
	}
	log.Info("done", "files", summary.Files, "uploaded", summary.Uploaded, "failed", len(summary.Failed))
}
