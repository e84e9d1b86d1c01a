// Package embedding selects the embedder backend at startup.
package embedding

import (
	"context"

	"github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/embedding/noop"
	"github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/embedding/ollama"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
)

// New returns the neural backend when the Ollama endpoint answers, and the
// no-op backend otherwise. A load failure is never fatal.
func New(ctx context.Context, cfg ollama.Config) driven.Embedder {
	e, err := ollama.New(ctx, cfg)
	if err != nil {
		logger.Warn("Neural embedder unavailable, using no-op backend: %v", err)
		return noop.New()
	}
	return e
}
