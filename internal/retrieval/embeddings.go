// Package retrieval indexes chunked policy documents and serves the
// snippet context that the threshold parser and the agents consume.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNoAPIKey      = errors.New("retrieval: API key not configured")
	ErrEmbeddingDown = errors.New("retrieval: embedding service unreachable")
)

// Embedder produces vector representations of text for similarity search.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
}

// OpenAIEmbedder calls the OpenAI embeddings API.
type OpenAIEmbedder struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// OpenAIEmbedderOption configures the embedder.
type OpenAIEmbedderOption func(*OpenAIEmbedder)

// WithEmbedderBaseURL sets a custom base URL (e.g., for proxies).
func WithEmbedderBaseURL(url string) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) { e.baseURL = strings.TrimRight(url, "/") }
}

// WithEmbedderModel sets the embedding model.
func WithEmbedderModel(model string) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) { e.model = model }
}

// WithEmbedderHTTPClient sets a custom HTTP client.
func WithEmbedderHTTPClient(client *http.Client) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) { e.client = client }
}

// NewOpenAIEmbedder creates an embedder backed by OpenAI.
func NewOpenAIEmbedder(apiKey string, opts ...OpenAIEmbedderOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	e := &OpenAIEmbedder{
		apiKey:  apiKey,
		baseURL: "https://api.openai.com/v1",
		model:   "text-embedding-3-small",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

type embeddingErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Embed returns one vector per input, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(embeddingRequest{Model: e.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("retrieval: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingDown, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr embeddingErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			if resp.StatusCode == http.StatusUnauthorized {
				return nil, fmt.Errorf("%w: %s", ErrNoAPIKey, apiErr.Error.Message)
			}
			return nil, fmt.Errorf("retrieval: API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("retrieval: HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("retrieval: decode response: %w", err)
	}
	if len(result.Data) != len(inputs) {
		return nil, fmt.Errorf("retrieval: expected %d embeddings, got %d", len(inputs), len(result.Data))
	}

	out := make([][]float64, len(inputs))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("retrieval: embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
