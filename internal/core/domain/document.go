package domain

// Chunk levels in the document hierarchy.
const (
	// LevelSection is a section-level container chunk (never returned by search).
	LevelSection = 0

	// LevelParagraph is a paragraph-level chunk. Only these are embedded and searched.
	LevelParagraph = 1
)

// EmbeddingDim is the embedding vector size (all-MiniLM class models).
const EmbeddingDim = 384

// Document represents an ingested document.
// Documents are immutable after creation; only metadata on derived
// chunks (enrichment) changes afterwards.
type Document struct {
	// ID is assigned by the store on insert.
	ID int64

	// Text is the full normalised text content.
	Text string

	// Metadata contains arbitrary key-value pairs (source, filename, ...).
	Metadata map[string]string

	// ContentHash is the SHA-256 hex digest of the normalised text.
	// Two documents with equal hashes are duplicates.
	ContentHash string

	// CreatedAt is a Unix-millisecond timestamp.
	CreatedAt int64

	// UpdatedAt is a Unix-millisecond timestamp of the last metadata merge.
	UpdatedAt int64
}

// Chunk represents one node in a document's section/paragraph hierarchy.
type Chunk struct {
	// ID is assigned by the store on insert.
	ID int64

	// DocumentID links to the owning Document.
	DocumentID int64

	// ParentID links a paragraph chunk to its section chunk (0 = document root).
	ParentID int64

	// Level is LevelSection or LevelParagraph.
	Level int

	// Ordinal is the position within the document, in document order.
	Ordinal int

	// Text is the chunk content.
	Text string

	// EnrichedText holds serialised entities/topics/passages appended to the
	// FTS row. Empty until extraction runs.
	EnrichedText string

	// CharStart and CharEnd are offsets into the document text.
	CharStart int
	CharEnd   int

	// CreatedAt is a Unix-millisecond timestamp.
	CreatedAt int64
}

// QuantizedEmbedding is an int8-quantised embedding as stored on disk.
// Reconstruction: float = Bytes[i]*Scale + Offset.
type QuantizedEmbedding struct {
	ChunkID int64
	Bytes   []byte
	Scale   float32
	Offset  float32
}

// StoreStats summarises store contents.
type StoreStats struct {
	Documents       int64 `json:"documents"`
	SectionChunks   int64 `json:"sectionChunks"`
	ParagraphChunks int64 `json:"paragraphChunks"`
	Embeddings      int64 `json:"embeddings"`
	MatrixRows      int   `json:"matrixRows"`
	DBSizeBytes     int64 `json:"dbSizeBytes"`
}
