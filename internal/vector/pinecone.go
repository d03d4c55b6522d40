package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Vector is one entry in a Pinecone namespace.
type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Match is a single similarity-search hit.
type Match struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
}

// PineconeClient talks to one serverless Pinecone index over its REST
// surface. Each user gets their own namespace.
type PineconeClient struct {
	logger     zerolog.Logger
	httpClient *http.Client
	host       string
	apiKey     string
}

func NewPineconeClient(logger zerolog.Logger, host, apiKey string) *PineconeClient {
	return &PineconeClient{
		logger: logger,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		host:   host,
		apiKey: apiKey,
	}
}

func (c *PineconeClient) Upsert(ctx context.Context, namespace string, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	return c.post(ctx, "/vectors/upsert", map[string]any{
		"vectors":   vectors,
		"namespace": namespace,
	}, nil)
}

func (c *PineconeClient) Query(ctx context.Context, namespace string, values []float32, topK int) ([]Match, error) {
	var result struct {
		Matches []Match `json:"matches"`
	}
	err := c.post(ctx, "/query", map[string]any{
		"vector":          values,
		"topK":            topK,
		"namespace":       namespace,
		"includeValues":   false,
		"includeMetadata": false,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Matches, nil
}

func (c *PineconeClient) Delete(ctx context.Context, namespace string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.post(ctx, "/vectors/delete", map[string]any{
		"ids":       ids,
		"namespace": namespace,
	}, nil)
}

func (c *PineconeClient) DeleteNamespace(ctx context.Context, namespace string) error {
	return c.post(ctx, "/vectors/delete", map[string]any{
		"deleteAll": true,
		"namespace": namespace,
	}, nil)
}

func (c *PineconeClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("pinecone %s returned %d: %s", path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		err = json.NewDecoder(resp.Body).Decode(out)
		if err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// NoopIndex is used when no Pinecone index is configured. CRUD keeps
// working; semantic search just finds nothing.
type NoopIndex struct{}

func (NoopIndex) Upsert(context.Context, string, []Vector) error { return nil }

func (NoopIndex) Query(context.Context, string, []float32, int) ([]Match, error) {
	return nil, nil
}

func (NoopIndex) Delete(context.Context, string, []string) error { return nil }

func (NoopIndex) DeleteNamespace(context.Context, string) error { return nil }
