package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateContent indicates content that is already indexed. Enqueue
	// returns it for a path the ingest state already records; Ingest itself
	// resolves identical text to the existing document id without an error.
	ErrDuplicateContent = errors.New("duplicate content")

	// ErrInputTooLarge indicates a document exceeds the configured byte cap.
	ErrInputTooLarge = errors.New("input too large")

	// ErrSchemaMismatch indicates the on-disk schema is newer than this build
	// understands. Fatal at startup.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrCorruptRow indicates an FTS or embedding row is inconsistent with its
	// chunk. The store logs and skips such rows while reading; they are not
	// recorded for later repair.
	ErrCorruptRow = errors.New("corrupt row")

	// ErrEmbedderUnavailable indicates no embedding backend is loaded.
	// Vector/semantic search is disabled without embeddings.
	ErrEmbedderUnavailable = errors.New("embedder unavailable")

	// ErrQueueFull indicates the background indexing queue is at capacity.
	// Callers observe back-pressure instead of unbounded memory growth.
	ErrQueueFull = errors.New("indexing queue full")

	// ErrQueueClosed indicates the background queue has been shut down.
	ErrQueueClosed = errors.New("indexing queue closed")

	// ErrUnsupportedType indicates no normaliser handles the file type.
	ErrUnsupportedType = errors.New("unsupported type")
)
