package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dhayv/azure-rag-app/internal/api"
	"github.com/dhayv/azure-rag-app/internal/config"
	"github.com/dhayv/azure-rag-app/internal/embedcache"
	"github.com/dhayv/azure-rag-app/internal/openai"
	"github.com/dhayv/azure-rag-app/internal/pipeline"
	"github.com/dhayv/azure-rag-app/internal/rag"
	"github.com/dhayv/azure-rag-app/internal/ratelimit"
	"github.com/dhayv/azure-rag-app/internal/search"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Optional .env for local development.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	tokenizer, err := rag.NewTiktoken(rag.TokenizerModel)
	if err != nil {
		log.Error("tokenizer init failed", "error", err)
		os.Exit(1)
	}

	// Initialize clients.
	aoai := openai.NewClient(openai.Config{
		Endpoint:        cfg.OpenAIEndpoint,
		APIKey:          cfg.OpenAIAPIKey,
		APIVersion:      cfg.OpenAIAPIVersion,
		EmbedDeployment: cfg.EmbedDeployment,
		ChatDeployment:  cfg.ChatDeployment,
	})
	index := search.NewClient(cfg.SearchEndpoint, cfg.SearchAPIKey, cfg.SearchIndex, cfg.SearchAPIVersion)

	// Query embedding shares the rate ceiling with ingestion but needs no
	// persisted cache.
	limiter := ratelimit.New(cfg.MaxRPM, time.Minute)
	embedder := pipeline.NewEmbedder(aoai, embedcache.New(), limiter, log, cfg.EmbedBatchSize)

	svc := rag.NewService(embedder, index, aoai, rag.NewBuilder(tokenizer), log)
	srv := api.NewServer(svc, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)

		aoai.Close()
		index.Close()
	}()

	log.Info("starting rag server", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
