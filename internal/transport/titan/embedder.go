// Package titan implements a multimodal embedding client for the
// Titan-style embeddings endpoint: JSON in with text plus base64 image,
// JSON out with a single embedding vector.
package titan

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medisearch/casedex/internal/domain"
	"github.com/medisearch/casedex/internal/metrics"
)

const providerLabel = "titan"

// Embedder calls a multimodal embeddings HTTP endpoint.
type Embedder struct {
	endpoint string
	apiKey   string
	model    string
	dim      int
	client   *http.Client
}

// Config holds the multimodal embedding provider settings.
type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	// Dimensions requested from the provider; 0 keeps the provider default.
	Dimensions int
	Timeout    time.Duration
}

// NewEmbedder creates a multimodal embedding client.
func NewEmbedder(cfg *Config) *Embedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Embedder{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		dim:      cfg.Dimensions,
		client:   &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	InputText  string     `json:"inputText,omitempty"`
	InputImage string     `json:"inputImage,omitempty"`
	Config     *embConfig `json:"embeddingConfig,omitempty"`
}

type embConfig struct {
	OutputEmbeddingLength int `json:"outputEmbeddingLength"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Message   string    `json:"message"`
}

// EmbedMultimodal returns the raw embedding for an image plus text. Either
// input may be empty but not both.
func (e *Embedder) EmbedMultimodal(ctx context.Context, image []byte, text string) ([]float32, error) {
	if len(image) == 0 && text == "" {
		return nil, fmt.Errorf("no inputs: %w", domain.ErrEmbeddingProvider)
	}

	payload := embedRequest{InputText: text}
	if len(image) > 0 {
		payload.InputImage = base64.StdEncoding.EncodeToString(image)
	}
	if e.dim > 0 {
		payload.Config = &embConfig{OutputEmbeddingLength: e.dim}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	start := time.Now()

	resp, err := e.client.Do(req)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "error").Inc()
		return nil, fmt.Errorf("multimodal request failed: %w: %w", err, domain.ErrEmbeddingProvider)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "error").Inc()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("multimodal API status %d: %s: %w",
			resp.StatusCode, string(msg), domain.ErrEmbeddingProvider)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "error").Inc()
		return nil, fmt.Errorf("decode: %w: %w", err, domain.ErrEmbeddingProvider)
	}
	if len(result.Embedding) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "error").Inc()
		return nil, fmt.Errorf("empty multimodal embedding: %w", domain.ErrEmbeddingProvider)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(providerLabel, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerLabel, e.model).Observe(time.Since(start).Seconds())

	return result.Embedding, nil
}
