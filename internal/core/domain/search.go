package domain

// ResolverKind identifies which branch of the pipeline produced a result.
type ResolverKind string

const (
	// ResolverKeyword marks a result produced by BM25 full-text search alone.
	ResolverKeyword ResolverKind = "keyword"

	// ResolverVector marks a result produced by vector similarity alone.
	ResolverVector ResolverKind = "vector"

	// ResolverHybrid marks a result produced by RRF fusion of both branches.
	ResolverHybrid ResolverKind = "hybrid"
)

// SearchHit is an intermediate ranked result from one search branch.
type SearchHit struct {
	ChunkID    int64
	DocumentID int64
	Ordinal    int
	Text       string
	Enriched   string
	Score      float64
}

// SearchResult is a final, fused and deduplicated recall result.
type SearchResult struct {
	ChunkID    int64        `json:"chunkId"`
	DocumentID int64        `json:"documentId"`
	Text       string       `json:"text"`
	Score      float64      `json:"score"`
	Resolver   ResolverKind `json:"resolver"`
}

// ConsolidationReport summarises one consolidation run.
type ConsolidationReport struct {
	OrphansPruned     int64 `json:"orphansPruned"`
	DuplicatesRemoved int64 `json:"duplicatesRemoved"`
	DocumentsEvicted  int64 `json:"documentsEvicted"`
	DurationMs        int64 `json:"durationMs"`
}
