package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/embedding/noop"
	"github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/storage/sqlite"
	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driving"
	"github.com/mindsage-labs/mindsage-cli/internal/normalisers/plaintext"
)

func newTestEngine(t *testing.T, embedder driven.Embedder, tier domain.CapabilityTier) *Engine {
	t.Helper()
	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)

	e := NewEngine(store, embedder, Options{
		Tier:        tier,
		Normalisers: []driven.Normaliser{plaintext.New()},
		SkipCatchUp: true,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Close(ctx)
	})
	return e
}

func TestIngestIdempotentOnContentHash(t *testing.T) {
	e := newTestEngine(t, noop.New(), domain.TierBase)
	ctx := context.Background()

	first, err := e.Ingest(ctx, "hello world", map[string]string{})
	require.NoError(t, err)

	second, err := e.Ingest(ctx, "hello world", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Documents)
	assert.Equal(t, int64(1), stats.SectionChunks)
	assert.Equal(t, int64(1), stats.ParagraphChunks)
}

func TestIngestRejectsEmptyAndOversized(t *testing.T) {
	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	e := NewEngine(store, noop.New(), Options{
		Tier:             domain.TierBase,
		MaxDocumentBytes: 64,
		SkipCatchUp:      true,
	})
	defer e.Close(context.Background()) //nolint:errcheck
	ctx := context.Background()

	_, err = e.Ingest(ctx, "  ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.Ingest(ctx, string(make([]byte, 100)), nil)
	assert.ErrorIs(t, err, domain.ErrInputTooLarge)
}

func TestHybridRecallRanksSemanticallySimilarFirst(t *testing.T) {
	embedder := &mockEmbedder{
		available: true,
		vectors: map[string][]float32{
			"machine learning with transformers": basisVector(0),
			"cooking with cast iron":             basisVector(1),
			"transformers":                       basisVector(0),
		},
	}
	e := newTestEngine(t, embedder, domain.TierFull)
	ctx := context.Background()

	_, err := e.Ingest(ctx, "machine learning with transformers", nil)
	require.NoError(t, err)
	_, err = e.Ingest(ctx, "cooking with cast iron", nil)
	require.NoError(t, err)

	results, err := e.Recall(ctx, "transformers", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Contains(t, results[0].Text, "machine learning")
	assert.Equal(t, domain.ResolverHybrid, results[0].Resolver)
	if len(results) > 1 {
		assert.LessOrEqual(t, results[1].Score, 1.0/60.0)
	}
}

func TestEntityBoostLiftsScore(t *testing.T) {
	e := newTestEngine(t, noop.New(), domain.TierFull)
	ctx := context.Background()

	_, err := e.Ingest(ctx, "Contact alice@example.com about the plan", nil)
	require.NoError(t, err)

	results, err := e.Recall(ctx, "alice@example.com", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Base RRF contribution is at most 1/61; anything above 0.15 proves the
	// entity boost fired.
	assert.Greater(t, results[0].Score, 0.15)
}

func TestConsolidationEvictsPastBaseEnvelope(t *testing.T) {
	e := newTestEngine(t, noop.New(), domain.TierBase)
	ctx := context.Background()

	var earliest []int64
	for i := 0; i < 1005; i++ {
		id, err := e.Ingest(ctx, fmt.Sprintf("tiny document number %04d", i), nil)
		require.NoError(t, err)
		if i < 5 {
			earliest = append(earliest, id)
		}
	}

	report, err := e.Consolidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), report.OrphansPruned)
	assert.Equal(t, int64(0), report.DuplicatesRemoved)
	assert.Equal(t, int64(5), report.DocumentsEvicted)

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stats.Documents)

	store := e.store.(*sqlite.Store)
	for _, id := range earliest {
		_, err := store.GetDocument(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, "document %d should be evicted", id)
	}
}

func TestRecallWithoutEmbedderIsKeywordTagged(t *testing.T) {
	embedder := noop.New()
	e := newTestEngine(t, embedder, domain.TierFull)
	ctx := context.Background()

	assert.False(t, embedder.Available())

	for _, text := range []string{
		"the gardening notes mention tomatoes",
		"a recipe for sourdough bread",
		"notes about the kubernetes migration",
	} {
		_, err := e.Ingest(ctx, text, nil)
		require.NoError(t, err)
	}

	results, err := e.Recall(ctx, "kubernetes", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	for _, res := range results {
		assert.Equal(t, domain.ResolverKeyword, res.Resolver)
	}
}

func TestDistillIsAFixpoint(t *testing.T) {
	embedder := &mockEmbedder{available: false}
	e := newTestEngine(t, embedder, domain.TierEnhanced)
	ctx := context.Background()

	// Ingest without an embedder: chunks stay unembedded.
	_, err := e.Ingest(ctx, "distill catches up this text later on", nil)
	require.NoError(t, err)

	// A model shows up; distill embeds everything pending.
	embedder.available = true
	embedder.vectors = map[string][]float32{}
	chunks, err := e.store.ChunksWithoutEmbedding(ctx, 100)
	require.NoError(t, err)
	for _, c := range chunks {
		embedder.vectors[c.Text] = basisVector(0)
	}

	enriched, embedded, err := e.Distill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, enriched, "ingest already enriched inline")
	assert.Greater(t, embedded, 0)

	enriched, embedded, err = e.Distill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, enriched)
	assert.Equal(t, 0, embedded)
}

func TestDistillEnrichesPendingChunks(t *testing.T) {
	e := newTestEngine(t, noop.New(), domain.TierBase)
	ctx := context.Background()

	// Insert chunks directly, bypassing the inline enrichment of Ingest.
	store := e.store.(*sqlite.Store)
	docID, err := store.AddDocument(ctx, "raw inserted document", nil)
	require.NoError(t, err)
	_, err = store.AddChunks(ctx, docID, []domain.Chunk{
		{Level: domain.LevelSection, Ordinal: 0, Text: "raw inserted document", ParentID: -1},
		{Level: domain.LevelParagraph, Ordinal: 1, Text: "Send mail to bob@example.org today.", ParentID: 0},
	})
	require.NoError(t, err)

	enriched, embedded, err := e.Distill(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, enriched)
	assert.Equal(t, 0, embedded)

	hits, err := store.BM25Search(ctx, "bob@example.org", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)
}

func TestIngestFileAndQueue(t *testing.T) {
	e := newTestEngine(t, noop.New(), domain.TierBase)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("a note about the quarterly planning"), 0600))

	ids, err := e.IngestFile(ctx, path)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	other := filepath.Join(dir, "other.txt")
	require.NoError(t, os.WriteFile(other, []byte("an entirely different note about sailing"), 0600))

	jobID, err := e.Enqueue(ctx, other)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		job, ok := e.Job(jobID)
		return ok && job.Status == driving.JobCompleted
	}, 5*time.Second, 10*time.Millisecond)

	results, err := e.Recall(ctx, "sailing", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestIngestFileUnsupportedType(t *testing.T) {
	e := newTestEngine(t, noop.New(), domain.TierBase)

	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0600))

	_, err := e.IngestFile(context.Background(), path)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestCloseDrainsQueue(t *testing.T) {
	store, err := sqlite.NewStore(t.TempDir())
	require.NoError(t, err)
	e := NewEngine(store, noop.New(), Options{
		Tier:        domain.TierBase,
		Normalisers: []driven.Normaliser{plaintext.New()},
		SkipCatchUp: true,
	})

	dir := t.TempDir()
	var jobIDs []string
	for i := 0; i < 5; i++ {
		path := filepath.Join(dir, fmt.Sprintf("file%d.txt", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("drain me number %d with content", i)), 0600))
		id, err := e.Enqueue(context.Background(), path)
		require.NoError(t, err)
		jobIDs = append(jobIDs, id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.Close(ctx))

	for _, id := range jobIDs {
		job, ok := e.Job(id)
		require.True(t, ok)
		assert.Equal(t, driving.JobCompleted, job.Status)
	}

	_, err = e.Enqueue(context.Background(), "anything.txt")
	assert.ErrorIs(t, err, domain.ErrQueueClosed)
}

func TestCancelledIngestLeavesNoPartialChunks(t *testing.T) {
	e := newTestEngine(t, noop.New(), domain.TierBase)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Ingest(ctx, "this ingest is cancelled before any write lands", nil)
	assert.Error(t, err)

	stats, err := e.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats.SectionChunks+stats.ParagraphChunks, int64(0))
}
