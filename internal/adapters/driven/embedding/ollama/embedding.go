// Package ollama provides the neural embedder backend using a local Ollama
// instance running an all-MiniLM class model (384 dimensions).
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "all-minilm"
	DefaultTimeout = 30 * time.Second

	// Query cache: 1000 entries with a 1-hour sliding wall-clock TTL.
	cacheSize = 1000
	cacheTTL  = time.Hour
)

// Config holds configuration for the Ollama embedder.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model to use (default: all-minilm, 384-dim).
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Embedder generates 384-dimensional embeddings through the Ollama API.
// The inference session is treated as non-reentrant: requests are serialised
// by an exclusive lock. Parallelise across Embedder instances, not within one.
type Embedder struct {
	client  *http.Client
	baseURL string
	model   string

	// sessionMu serialises inference calls.
	sessionMu sync.Mutex

	cache *lru.LRU[string, []float32]
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// New creates an Ollama embedder and verifies the endpoint is reachable.
// An unreachable endpoint or missing model is a load failure; callers
// downgrade to the no-op backend.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	e := &Embedder{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		cache:   lru.NewLRU[string, []float32](cacheSize, nil, cacheTTL),
	}

	if err := e.ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedderUnavailable, err)
	}

	logger.Info("Embedder loaded: model=%s endpoint=%s", e.model, e.baseURL)
	return e, nil
}

// Embed generates an l2-normalised embedding, consulting the query cache
// first. A hit refreshes the entry's TTL (sliding expiry) and returns the
// same vector a miss would have computed.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		e.cache.Add(text, vec) // slide the TTL window
		return vec, nil
	}

	vec, err := e.infer(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts in input order.
// A failure on one input yields a nil entry and does not poison the batch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		vec, err := e.Embed(ctx, text)
		if err != nil {
			logger.Warn("Embedding failed for input %d: %v", i, err)
			continue
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return domain.EmbeddingDim
}

// Available reports whether a model is loaded.
func (e *Embedder) Available() bool {
	return true
}

// Close releases resources.
func (e *Embedder) Close() error {
	return nil
}

// infer runs one inference request under the session lock.
func (e *Embedder) infer(ctx context.Context, text string) ([]float32, error) {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()

	jsonBody, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/api/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			return nil, fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(embedResp.Embedding) != domain.EmbeddingDim {
		return nil, fmt.Errorf("model returned %d dimensions, want %d",
			len(embedResp.Embedding), domain.EmbeddingDim)
	}

	vec := make([]float32, len(embedResp.Embedding))
	var norm float64
	for i, v := range embedResp.Embedding {
		vec[i] = float32(v)
		norm += v * v
	}
	if norm > 1e-18 {
		inv := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

// ping checks the /api/tags endpoint for connectivity.
func (e *Embedder) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return nil
}

// CacheLen reports the number of live query-cache entries.
func (e *Embedder) CacheLen() int {
	return e.cache.Len()
}
