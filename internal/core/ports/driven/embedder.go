package driven

import "context"

// Embedder generates vector embeddings from text.
//
// Exactly two implementations exist: the neural backend (local Ollama
// all-MiniLM class model, 384 dimensions) and the no-op backend used when no
// model is loaded. Callers must treat a false Available() as "vector branch
// disabled", never as an error.
type Embedder interface {
	// Embed generates an l2-normalised embedding for the given text.
	// Returns nil (no error) when the backend is unavailable.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in input order.
	// Individual failures yield a nil entry; they do not poison the batch.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (384).
	Dimensions() int

	// Available reports whether a model is loaded.
	Available() bool

	// Close releases resources.
	Close() error
}
