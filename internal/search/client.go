// Package search is a REST client for the external vector index. The index
// owns search and ranking; this client only uploads records and issues
// vector queries.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// kNearest is the nearest-neighbor pool the index ranks before applying top.
const kNearest = 5

// selectFields are the only record fields the query path consumes.
const selectFields = "id,title,source,chunk_index,content,topics"

// Client talks to one index of an Azure AI Search service.
type Client struct {
	endpoint   string
	apiKey     string
	index      string
	apiVersion string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey, index, apiVersion string) *Client {
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		index:      index,
		apiVersion: apiVersion,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type uploadAction struct {
	Action string `json:"@search.action"`
	Document
}

type uploadRequest struct {
	Value []uploadAction `json:"value"`
}

type uploadResponse struct {
	Value []struct {
		Key          string `json:"key"`
		Status       bool   `json:"status"`
		ErrorMessage string `json:"errorMessage"`
		StatusCode   int    `json:"statusCode"`
	} `json:"value"`
}

// Upload pushes a batch of records to the index. Records that the index
// rejects while others succeed surface as *PartialUploadError.
func (c *Client) Upload(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	req := uploadRequest{Value: make([]uploadAction, len(docs))}
	for i, d := range docs {
		req.Value[i] = uploadAction{Action: "mergeOrUpload", Document: d}
	}

	body, err := c.post(ctx, "index", req)
	if err != nil {
		return err
	}

	var resp uploadResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode upload response: %w", err)
	}

	var sample []string
	failed := 0
	for _, r := range resp.Value {
		if r.Status {
			continue
		}
		failed++
		if len(sample) < 3 {
			sample = append(sample, r.Key)
		}
	}
	if failed > 0 {
		return &PartialUploadError{Failed: failed, SampleIDs: sample}
	}
	return nil
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

type searchRequest struct {
	Count         bool          `json:"count"`
	Select        string        `json:"select"`
	Top           int           `json:"top"`
	VectorQueries []vectorQuery `json:"vectorQueries"`
}

type searchResponse struct {
	Value []Result `json:"value"`
}

// VectorSearch returns the top hits for an embedding, ranked by the index.
func (c *Client) VectorSearch(ctx context.Context, vector []float32, top int) ([]Result, error) {
	req := searchRequest{
		Select: selectFields,
		Top:    top,
		VectorQueries: []vectorQuery{{
			Kind:   "vector",
			Vector: vector,
			Fields: "contentVector",
			K:      kNearest,
		}},
	}

	body, err := c.post(ctx, "search", req)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return resp.Value, nil
}

// post issues an index API call. Multi-status responses pass through so
// Upload can inspect per-record outcomes; other non-2xx statuses become
// *ServiceError, classified here and nowhere else.
func (c *Client) post(ctx context.Context, operation string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	u := fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s",
		c.endpoint, url.PathEscape(c.index), operation, url.QueryEscape(c.apiVersion))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return respBody, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
