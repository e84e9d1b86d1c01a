// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
)

// Store persists documents, chunks, embeddings and the full-text index.
// Backed by a single-file SQLite database in WAL mode: one writer,
// any number of readers.
type Store interface {
	// AddDocument inserts a document and returns its id. If a document with
	// the same content hash already exists, the existing id is returned.
	AddDocument(ctx context.Context, text string, metadata map[string]string) (int64, error)

	// AddChunks atomically inserts section and paragraph chunks for a
	// document and populates the FTS rows. Chunks must carry Level, Ordinal,
	// Text and char offsets; ids and parent links are assigned on insert.
	AddChunks(ctx context.Context, docID int64, chunks []domain.Chunk) ([]int64, error)

	// SetEmbedding quantises and stores an embedding for a paragraph chunk,
	// overwriting any previous one.
	SetEmbedding(ctx context.Context, chunkID int64, vec []float32) error

	// SetEnriched updates a chunk's enriched text and rebuilds its FTS row.
	SetEnriched(ctx context.Context, chunkID int64, enriched string) error

	// GetDocument retrieves a document by id.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// FindDocumentByHash retrieves a document by content hash.
	FindDocumentByHash(ctx context.Context, hash string) (*domain.Document, error)

	// MergeDocumentMetadata merges key-value pairs into a document's metadata.
	MergeDocumentMetadata(ctx context.Context, id int64, updates map[string]string) error

	// GetChunk retrieves a chunk by id.
	GetChunk(ctx context.Context, id int64) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document in ordinal order.
	GetChunks(ctx context.Context, docID int64) ([]domain.Chunk, error)

	// GetParentChunk returns the section chunk containing a paragraph chunk,
	// or nil if the paragraph hangs off the document root.
	GetParentChunk(ctx context.Context, chunkID int64) (*domain.Chunk, error)

	// GetSurroundingChunks returns same-level neighbours of a chunk within
	// the given ordinal window, for context expansion.
	GetSurroundingChunks(ctx context.Context, chunkID int64, window int) ([]domain.Chunk, error)

	// ChunksWithoutEmbedding returns up to limit paragraph chunks lacking a
	// stored embedding, oldest first.
	ChunksWithoutEmbedding(ctx context.Context, limit int) ([]domain.Chunk, error)

	// ChunksWithoutEnrichment returns up to limit paragraph chunks lacking
	// enriched text, oldest first.
	ChunksWithoutEnrichment(ctx context.Context, limit int) ([]domain.Chunk, error)

	// BM25Search runs a full-text MATCH over paragraph chunks and returns
	// ranked hits, best first.
	BM25Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)

	// VectorSearch runs a dot-product search of the query vector against the
	// in-memory quantised matrix and returns ranked hits, best first.
	VectorSearch(ctx context.Context, query []float32, limit int) ([]domain.SearchHit, error)

	// DeleteDocument removes a document, cascading to chunks, FTS rows and
	// embeddings.
	DeleteDocument(ctx context.Context, id int64) error

	// ListDocuments returns one page of documents ordered by creation time.
	ListDocuments(ctx context.Context, page, pageSize int, ascending bool) ([]domain.Document, int64, error)

	// PruneOrphanChunks deletes chunks whose owning document no longer
	// exists. Returns the number deleted.
	PruneOrphanChunks(ctx context.Context) (int64, error)

	// RemoveDuplicateDocuments deletes all but the oldest document in every
	// group sharing a content hash. Returns the number deleted.
	RemoveDuplicateDocuments(ctx context.Context) (int64, error)

	// EvictOldestDocuments deletes the n oldest documents by creation time.
	// Returns the number deleted.
	EvictOldestDocuments(ctx context.Context, n int64) (int64, error)

	// Stats returns store-level counters.
	Stats(ctx context.Context) (domain.StoreStats, error)

	// Close releases the database connection.
	Close() error
}
