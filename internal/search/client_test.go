package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, "search-key", "rag-index", "2024-07-01"), srv
}

func uploadResult(entries ...map[string]any) map[string]any {
	return map[string]any{"value": entries}
}

func TestUpload(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(uploadResult(
			map[string]any{"key": "a-chunk0", "status": true},
		))
	})
	defer srv.Close()
	defer c.Close()

	err := c.Upload(context.Background(), []Document{{
		ID:            "a-chunk0",
		Content:       "chunk text",
		ContentVector: []float32{0.1},
		Topics:        []string{"go"},
		DocType:       "stackoverflow_thread",
	}})
	require.NoError(t, err)

	assert.Equal(t, "/indexes/rag-index/docs/index?api-version=2024-07-01", gotPath)
	assert.Equal(t, "search-key", gotKey)

	actions := gotBody["value"].([]any)
	require.Len(t, actions, 1)
	first := actions[0].(map[string]any)
	assert.Equal(t, "mergeOrUpload", first["@search.action"])
	assert.Equal(t, "a-chunk0", first["id"])
	assert.Equal(t, "stackoverflow_thread", first["doc_type"])
	assert.NotNil(t, first["contentVector"])
}

func TestUpload_EmptyBatchIsNoCall(t *testing.T) {
	called := false
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) { called = true })
	defer srv.Close()

	require.NoError(t, c.Upload(context.Background(), nil))
	assert.False(t, called)
}

func TestUpload_PartialFailure(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
		json.NewEncoder(w).Encode(uploadResult(
			map[string]any{"key": "a-chunk0", "status": true},
			map[string]any{"key": "b-chunk0", "status": false, "errorMessage": "key too long", "statusCode": 400},
			map[string]any{"key": "b-chunk1", "status": false, "statusCode": 400},
		))
	})
	defer srv.Close()

	err := c.Upload(context.Background(), []Document{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	var partial *PartialUploadError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.Failed)
	assert.Equal(t, []string{"b-chunk0", "b-chunk1"}, partial.SampleIDs)
}

func TestVectorSearch(t *testing.T) {
	var gotReq searchRequest
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indexes/rag-index/docs/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				{"id": "a-chunk0", "title": "Alpha", "source": "https://example.com/a",
					"content": "body", "chunk_index": 0, "topics": []string{"go"}, "@search.score": 0.87},
			},
		})
	})
	defer srv.Close()

	results, err := c.VectorSearch(context.Background(), []float32{0.1, 0.2}, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, gotReq.Top)
	assert.Equal(t, selectFields, gotReq.Select)
	require.Len(t, gotReq.VectorQueries, 1)
	assert.Equal(t, "vector", gotReq.VectorQueries[0].Kind)
	assert.Equal(t, "contentVector", gotReq.VectorQueries[0].Fields)
	assert.Equal(t, kNearest, gotReq.VectorQueries[0].K)
	assert.Equal(t, []float32{0.1, 0.2}, gotReq.VectorQueries[0].Vector)

	require.Len(t, results, 1)
	assert.Equal(t, "Alpha", results[0].Title)
	assert.InDelta(t, 0.87, results[0].Score, 1e-9)
}

func TestPost_ServiceErrorClassification(t *testing.T) {
	for _, tc := range []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusBadRequest, false},
		{http.StatusForbidden, false},
	} {
		c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		})

		_, err := c.VectorSearch(context.Background(), []float32{0.1}, 3)
		var svcErr *ServiceError
		require.ErrorAs(t, err, &svcErr, "status %d", tc.status)
		assert.Equal(t, tc.status, svcErr.StatusCode)
		assert.Equal(t, tc.retryable, svcErr.Retryable(), "status %d", tc.status)
		srv.Close()
	}
}
