package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dhayv/azure-rag-app/internal/embedcache"
	"github.com/dhayv/azure-rag-app/internal/ratelimit"
)

// DefaultBatchSize is the upstream embedding batch limit per call.
const DefaultBatchSize = 16

// batchPause is a courtesy pause between sub-batches, independent of the
// hard rate ceiling.
const batchPause = 100 * time.Millisecond

// EmbedClient is the slice of the inference client the embedder needs.
type EmbedClient interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedder turns texts into vectors, consulting the content-addressed cache
// first and pushing only misses through the rate-limited, retried upstream
// call.
type Embedder struct {
	client    EmbedClient
	cache     *embedcache.Cache
	limiter   *ratelimit.Limiter
	log       *slog.Logger
	batchSize int
	pause     time.Duration
	retry     RetryPolicy
}

func NewEmbedder(client EmbedClient, cache *embedcache.Cache, limiter *ratelimit.Limiter, log *slog.Logger, batchSize int) *Embedder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Embedder{
		client:    client,
		cache:     cache,
		limiter:   limiter,
		log:       log,
		batchSize: batchSize,
		pause:     batchPause,
		retry:     EmbedRetry,
	}
}

// EmbedChunks returns one vector per text, positionally aligned. Cached texts
// cost no upstream call; re-ingesting identical content embeds nothing.
func (e *Embedder) EmbedChunks(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, missing, positions := e.cache.Partition(texts)
	if len(missing) == 0 {
		return vectors, nil
	}

	fresh, err := e.embedAll(ctx, missing)
	if err != nil {
		return nil, err
	}
	for i, vec := range fresh {
		if e.cache.Put(missing[i], vec) {
			e.log.Warn("replaced cached vector for identical text", "key", embedcache.Key(missing[i]))
		}
		vectors[positions[i]] = vec
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string. Queries are not cached.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	var vecs [][]float32
	err := e.retry.Do(ctx, e.log, "embed-query", func() error {
		e.limiter.Wait()
		var callErr error
		vecs, callErr = e.client.EmbedBatch(ctx, []string{query})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}
	return vecs[0], nil
}

// embedAll embeds texts in sub-batches bounded by the upstream batch limit.
func (e *Embedder) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		var vecs [][]float32
		err := e.retry.Do(ctx, e.log, "embed", func() error {
			e.limiter.Wait()
			var callErr error
			vecs, callErr = e.client.EmbedBatch(ctx, batch)
			return callErr
		})
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(batch) {
			return nil, fmt.Errorf("embedding batch returned %d vectors, want %d", len(vecs), len(batch))
		}
		out = append(out, vecs...)

		if end < len(texts) && e.pause > 0 {
			time.Sleep(e.pause)
		}
	}
	return out, nil
}
