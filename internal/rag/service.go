// Package rag composes query embedding, vector search, and grounded
// generation into a single retrieval operation.
package rag

import (
	"context"
	"log/slog"

	"github.com/dhayv/azure-rag-app/internal/pipeline"
	"github.com/dhayv/azure-rag-app/internal/search"
)

// Defaults applied when the caller leaves a knob unset.
const (
	DefaultTop       = 3
	DefaultMaxTokens = 300
)

// QueryEmbedder embeds a question.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Searcher runs a vector search against the external index.
type Searcher interface {
	VectorSearch(ctx context.Context, vector []float32, top int) ([]search.Result, error)
}

// Generator produces a completion for a prompt.
type Generator interface {
	Chat(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Service answers questions from indexed sources. No state persists between
// queries.
type Service struct {
	embedder  QueryEmbedder
	searcher  Searcher
	generator Generator
	prompt    *Builder
	log       *slog.Logger

	searchRetry pipeline.RetryPolicy
	chatRetry   pipeline.RetryPolicy
}

func NewService(embedder QueryEmbedder, searcher Searcher, generator Generator, prompt *Builder, log *slog.Logger) *Service {
	return &Service{
		embedder:    embedder,
		searcher:    searcher,
		generator:   generator,
		prompt:      prompt,
		log:         log,
		searchRetry: pipeline.SearchRetry,
		chatRetry:   pipeline.ChatRetry,
	}
}

// Query embeds the question, retrieves the top matching chunks, and
// generates a grounded answer. Failures report their stage; there is no
// silent fallback.
func (s *Service) Query(ctx context.Context, query string, top, maxTokens int) (string, error) {
	if top <= 0 {
		top = DefaultTop
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", &StageError{Stage: StageEmbed, Err: err}
	}

	var results []search.Result
	err = s.searchRetry.Do(ctx, s.log, "vector-search", func() error {
		var callErr error
		results, callErr = s.searcher.VectorSearch(ctx, vector, top)
		return callErr
	})
	if err != nil {
		return "", &StageError{Stage: StageSearch, Err: err}
	}

	prompt := s.prompt.Build(query, results)

	var answer string
	err = s.chatRetry.Do(ctx, s.log, "generate", func() error {
		var callErr error
		answer, callErr = s.generator.Chat(ctx, prompt, maxTokens)
		return callErr
	})
	if err != nil {
		return "", &StageError{Stage: StageGenerate, Err: err}
	}

	s.log.Info("answered query", "sources", len(results))
	return answer, nil
}
