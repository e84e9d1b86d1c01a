// Package driving provides interfaces for use-case entry points
// (primary/inbound ports).
package driving

import (
	"context"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
)

// Engine exposes the four verbs of the knowledge engine plus the background
// indexing machinery. It is the only surface the CLI and connectors consume.
type Engine interface {
	// Ingest chunks and stores raw text, embedding and enriching paragraph
	// chunks when possible. Returns the document id. Embedding or extraction
	// failures never fail the ingest; Distill catches up later.
	Ingest(ctx context.Context, text string, metadata map[string]string) (int64, error)

	// IngestFile extracts text from a file via the registered normalisers and
	// ingests each extracted text. Returns the document ids.
	IngestFile(ctx context.Context, path string) ([]int64, error)

	// Enqueue submits a file for background ingestion. Returns the job id, or
	// domain.ErrQueueFull when the queue is at capacity.
	Enqueue(ctx context.Context, path string) (string, error)

	// Distill embeds paragraph chunks lacking embeddings and enriches chunks
	// lacking enriched text. Returns (enriched, embedded) counts. Running it
	// twice in succession yields (0, 0) the second time.
	Distill(ctx context.Context) (int, int, error)

	// Recall searches the index with the tier-appropriate strategy.
	Recall(ctx context.Context, query string, limit int) ([]domain.SearchResult, error)

	// Consolidate prunes orphans, removes duplicates and evicts past the
	// tier's capacity envelope.
	Consolidate(ctx context.Context) (domain.ConsolidationReport, error)

	// Stats returns store statistics.
	Stats(ctx context.Context) (domain.StoreStats, error)

	// Tier returns the active capability tier.
	Tier() domain.CapabilityTier

	// Close drains the background queue and releases resources.
	Close(ctx context.Context) error
}

// JobStatus describes the lifecycle of a background indexing job.
type JobStatus string

// Job lifecycle states.
const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job is a background indexing job record.
type Job struct {
	ID          string    `json:"id"`
	Path        string    `json:"path"`
	Status      JobStatus `json:"status"`
	DocumentIDs []int64   `json:"documentIds,omitempty"`
	Error       string    `json:"error,omitempty"`
}
