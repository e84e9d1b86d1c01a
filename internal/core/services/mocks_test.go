package services

import (
	"context"
	"sync"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockStore implements driven.Store for retriever and consolidator tests.
type mockStore struct {
	mu sync.Mutex

	bm25Hits   []domain.SearchHit
	vectorHits []domain.SearchHit
	bm25Err    error
	vectorErr  error

	stats    domain.StoreStats
	statsSeq []domain.StoreStats

	prunedCount  int64
	dedupedCount int64
	evictCalls   []int64
	pruneErr     error
	dedupErr     error
	evictErr     error
}

var _ driven.Store = (*mockStore)(nil)

func (m *mockStore) AddDocument(context.Context, string, map[string]string) (int64, error) {
	return 0, nil
}

func (m *mockStore) AddChunks(context.Context, int64, []domain.Chunk) ([]int64, error) {
	return nil, nil
}

func (m *mockStore) SetEmbedding(context.Context, int64, []float32) error { return nil }

func (m *mockStore) SetEnriched(context.Context, int64, string) error { return nil }

func (m *mockStore) GetDocument(context.Context, int64) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStore) FindDocumentByHash(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStore) MergeDocumentMetadata(context.Context, int64, map[string]string) error {
	return nil
}

func (m *mockStore) GetChunk(context.Context, int64) (*domain.Chunk, error) {
	return nil, domain.ErrNotFound
}

func (m *mockStore) GetChunks(context.Context, int64) ([]domain.Chunk, error) { return nil, nil }

func (m *mockStore) GetParentChunk(context.Context, int64) (*domain.Chunk, error) {
	return nil, nil
}

func (m *mockStore) GetSurroundingChunks(context.Context, int64, int) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockStore) ChunksWithoutEmbedding(context.Context, int) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockStore) ChunksWithoutEnrichment(context.Context, int) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockStore) BM25Search(_ context.Context, _ string, limit int) ([]domain.SearchHit, error) {
	if m.bm25Err != nil {
		return nil, m.bm25Err
	}
	if limit < len(m.bm25Hits) {
		return m.bm25Hits[:limit], nil
	}
	return m.bm25Hits, nil
}

func (m *mockStore) VectorSearch(_ context.Context, _ []float32, limit int) ([]domain.SearchHit, error) {
	if m.vectorErr != nil {
		return nil, m.vectorErr
	}
	if limit < len(m.vectorHits) {
		return m.vectorHits[:limit], nil
	}
	return m.vectorHits, nil
}

func (m *mockStore) DeleteDocument(context.Context, int64) error { return nil }

func (m *mockStore) ListDocuments(context.Context, int, int, bool) ([]domain.Document, int64, error) {
	return nil, 0, nil
}

func (m *mockStore) PruneOrphanChunks(context.Context) (int64, error) {
	return m.prunedCount, m.pruneErr
}

func (m *mockStore) RemoveDuplicateDocuments(context.Context) (int64, error) {
	return m.dedupedCount, m.dedupErr
}

func (m *mockStore) EvictOldestDocuments(_ context.Context, n int64) (int64, error) {
	if m.evictErr != nil {
		return 0, m.evictErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictCalls = append(m.evictCalls, n)
	if len(m.statsSeq) > 1 {
		m.statsSeq = m.statsSeq[1:]
	}
	return n, nil
}

func (m *mockStore) Stats(context.Context) (domain.StoreStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.statsSeq) > 0 {
		return m.statsSeq[0], nil
	}
	return m.stats, nil
}

func (m *mockStore) Close() error { return nil }

// mockEmbedder implements driven.Embedder with per-text canned vectors.
type mockEmbedder struct {
	vectors   map[string][]float32
	available bool
	embedErr  error
}

var _ driven.Embedder = (*mockEmbedder)(nil)

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if !m.available {
		return nil, nil
	}
	return m.vectors[text], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			continue
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return domain.EmbeddingDim }

func (m *mockEmbedder) Available() bool { return m.available }

func (m *mockEmbedder) Close() error { return nil }

// basisVector returns a unit vector along the given axis.
func basisVector(axis int) []float32 {
	v := make([]float32, domain.EmbeddingDim)
	v[axis] = 1
	return v
}
