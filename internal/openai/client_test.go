package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhayv/azure-rag-app/internal/pipeline"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	c := NewClient(Config{
		Endpoint:        srv.URL,
		APIKey:          "test-key",
		APIVersion:      "2024-10-21",
		EmbedDeployment: "text-embedding-3-small",
		ChatDeployment:  "gpt-4o-mini",
	})
	return c, srv
}

func TestEmbedBatch(t *testing.T) {
	var gotPath, gotKey string
	var gotReq embeddingRequest

	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		// Vectors deliberately out of input order.
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.2}},
				{"index": 0, "embedding": []float32{0.1}},
			},
		})
	})
	defer srv.Close()
	defer c.Close()

	vecs, err := c.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/text-embedding-3-small/embeddings?api-version=2024-10-21", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, []string{"alpha", "beta"}, gotReq.Input)
	assert.Equal(t, [][]float32{{0.1}, {0.2}}, vecs)
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	c := NewClient(Config{Endpoint: "http://unused"})
	vecs, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float32{0.1}}},
		})
	})
	defer srv.Close()

	_, err := c.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 vectors, want 2")
}

func TestChat(t *testing.T) {
	var gotReq chatRequest
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "the answer"}},
			},
		})
	})
	defer srv.Close()

	answer, err := c.Chat(context.Background(), "the prompt", 300)
	require.NoError(t, err)

	assert.Equal(t, "the answer", answer)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "the prompt", gotReq.Messages[0].Content)
	assert.Equal(t, 300, gotReq.MaxTokens)
	assert.InDelta(t, 0.2, gotReq.Temperature, 1e-9)
}

func TestPost_ThrottleIsRetryable(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	})
	defer srv.Close()

	_, err := c.EmbedBatch(context.Background(), []string{"a"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindThrottled, apiErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, pipeline.IsRetryable(err))
}

func TestPost_ServerErrorIsRetryable(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream busy", http.StatusServiceUnavailable)
	})
	defer srv.Close()

	_, err := c.Chat(context.Background(), "p", 10)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTransient, apiErr.Kind)
	assert.True(t, pipeline.IsRetryable(err))
}

func TestPost_ClientErrorIsFatal(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad deployment", http.StatusBadRequest)
	})
	defer srv.Close()

	_, err := c.EmbedBatch(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.False(t, pipeline.IsRetryable(err))
	assert.Contains(t, err.Error(), "status 400")
}
