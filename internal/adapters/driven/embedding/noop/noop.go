// Package noop provides the embedder backend used when no model is loaded.
// All embed calls return absent vectors; retrieval treats this as "vector
// branch unavailable" and falls back to keyword search.
package noop

import (
	"context"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.Embedder = (*Embedder)(nil)

// Embedder is the no-op backend.
type Embedder struct{}

// New creates a no-op embedder.
func New() *Embedder {
	return &Embedder{}
}

// Embed returns an absent vector.
func (e *Embedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, nil
}

// EmbedBatch returns absent vectors in input order.
func (e *Embedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}

// Dimensions returns the nominal embedding size.
func (e *Embedder) Dimensions() int {
	return domain.EmbeddingDim
}

// Available reports that no model is loaded.
func (e *Embedder) Available() bool {
	return false
}

// Close releases resources.
func (e *Embedder) Close() error {
	return nil
}
