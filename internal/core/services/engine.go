package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mindsage-labs/mindsage-cli/internal/chunker"
	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driving"
	"github.com/mindsage-labs/mindsage-cli/internal/extract"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.Engine = (*Engine)(nil)

// DefaultMaxDocumentBytes caps a single ingested document.
const DefaultMaxDocumentBytes = 10 << 20

// queueCapacity bounds the background indexing queue; producers observe
// back-pressure past this.
const queueCapacity = 128

// distillBatchSize is the page size for catch-up scans.
const distillBatchSize = 50

// Options configures the engine.
type Options struct {
	// Tier overrides the detected capability tier.
	Tier domain.CapabilityTier

	// MaxDocumentBytes caps a single document (default 10 MiB).
	MaxDocumentBytes int

	// Normalisers handle file-type specific text extraction for IngestFile
	// and the background queue.
	Normalisers []driven.Normaliser

	// IngestState optionally tracks indexed filenames across sessions.
	IngestState driven.IngestStateStore

	// SkipCatchUp disables the startup distill pass (tests).
	SkipCatchUp bool
}

// Engine binds the store, embedder, chunker, retriever and consolidator
// behind the four verbs, and owns the background indexing queue.
type Engine struct {
	store        driven.Store
	embedder     driven.Embedder
	retriever    *Retriever
	consolidator *Consolidator
	tier         domain.CapabilityTier
	budget       domain.ResourceBudget
	maxDocBytes  int
	normalisers  map[string]driven.Normaliser
	ingestState  driven.IngestStateStore

	jobs    chan queuedJob
	limiter *rate.Limiter

	mu        sync.RWMutex
	jobStatus map[string]*driving.Job
	closed    bool

	workerDone chan struct{}
}

type queuedJob struct {
	id   string
	path string
}

// NewEngine creates an engine and starts the background worker. When an
// embedder is available it runs one distill pass to catch up chunks
// ingested by prior sessions without a model loaded.
func NewEngine(store driven.Store, embedder driven.Embedder, opts Options) *Engine {
	maxBytes := opts.MaxDocumentBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}

	normalisers := make(map[string]driven.Normaliser)
	for _, n := range opts.Normalisers {
		for _, ext := range n.Extensions() {
			normalisers[ext] = n
		}
	}

	budget := domain.BudgetForTier(opts.Tier)

	e := &Engine{
		store:        store,
		embedder:     embedder,
		retriever:    NewRetriever(store, embedder),
		consolidator: NewConsolidator(store),
		tier:         opts.Tier,
		budget:       budget,
		maxDocBytes:  maxBytes,
		normalisers:  normalisers,
		ingestState:  opts.IngestState,
		jobs:         make(chan queuedJob, queueCapacity),
		// Edge devices share the pipeline with inference; pace queue jobs.
		limiter:    rate.NewLimiter(rate.Limit(budget.MaxConcurrency*4), budget.MaxConcurrency*4),
		jobStatus:  make(map[string]*driving.Job),
		workerDone: make(chan struct{}),
	}

	logger.Info("Engine initialized: tier=%s, budget=%dMB, embedder=%t",
		e.tier, budget.MaxMemoryMB, embedder.Available())

	go e.worker()

	if !opts.SkipCatchUp && embedder.Available() {
		go func() {
			enriched, embedded, err := e.Distill(context.Background())
			if err != nil {
				logger.Warn("Startup catch-up failed: %v", err)
				return
			}
			if enriched > 0 || embedded > 0 {
				logger.Info("Startup catch-up: %d enriched, %d embedded", enriched, embedded)
			}
		}()
	}

	return e
}

// Tier returns the active capability tier.
func (e *Engine) Tier() domain.CapabilityTier {
	return e.tier
}

// Budget returns the advisory resource budget.
func (e *Engine) Budget() domain.ResourceBudget {
	return e.budget
}

// ==================== Ingest ====================

// Ingest chunks and stores text, then embeds and enriches the paragraph
// chunks. Embedding and extraction are best-effort: their failures leave
// chunks pending for the next distill rather than failing the ingest.
func (e *Engine) Ingest(ctx context.Context, text string, metadata map[string]string) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}
	if len(text) > e.maxDocBytes {
		return 0, fmt.Errorf("%w: %d bytes exceeds cap of %d", domain.ErrInputTooLarge, len(text), e.maxDocBytes)
	}

	existing, err := e.store.AddDocument(ctx, text, metadata)
	if err != nil {
		return 0, fmt.Errorf("add document: %w", err)
	}

	// A second ingest of identical content resolves to the first document;
	// its chunks already exist.
	chunks, err := e.store.GetChunks(ctx, existing)
	if err == nil && len(chunks) > 0 {
		logger.Debug("Duplicate content resolves to document %d", existing)
		return existing, nil
	}

	size, overlap := chunker.SizeForExtension(metadata["file_extension"])
	ck := chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap))
	hierarchy := ck.Chunk(text)

	ids, err := e.store.AddChunks(ctx, existing, hierarchy)
	if err != nil {
		return 0, fmt.Errorf("add chunks: %w", err)
	}
	logger.Debug("Ingested document %d with %d chunks", existing, len(hierarchy))

	e.embedParagraphs(ctx, hierarchy, ids)
	e.enrichParagraphs(ctx, existing, hierarchy, ids)

	return existing, nil
}

// embedParagraphs embeds the paragraph chunks inline. Best-effort.
func (e *Engine) embedParagraphs(ctx context.Context, hierarchy []domain.Chunk, ids []int64) {
	if !e.embedder.Available() {
		return
	}

	var texts []string
	var chunkIDs []int64
	for i, c := range hierarchy {
		if c.Level == domain.LevelParagraph {
			texts = append(texts, c.Text)
			chunkIDs = append(chunkIDs, ids[i])
		}
	}

	batch := e.budget.EmbedBatchSize
	for start := 0; start < len(texts); start += batch {
		end := start + batch
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			logger.Warn("Embedding batch failed, distill will retry: %v", err)
			return
		}
		for i, vec := range vecs {
			if vec == nil {
				continue
			}
			if err := e.store.SetEmbedding(ctx, chunkIDs[start+i], vec); err != nil {
				logger.Warn("Storing embedding for chunk %d failed: %v", chunkIDs[start+i], err)
			}
		}
	}
}

// enrichParagraphs extracts entities/topics/passages and writes enriched
// text. Document-level topics are merged into its metadata. Best-effort.
func (e *Engine) enrichParagraphs(ctx context.Context, docID int64, hierarchy []domain.Chunk, ids []int64) {
	topicSet := map[string]struct{}{}
	var docTopics []string

	for i, c := range hierarchy {
		if c.Level != domain.LevelParagraph {
			continue
		}
		if err := ctx.Err(); err != nil {
			return
		}
		result := extract.All(c.Text)
		enriched := extract.EnrichedText(result)
		if enriched == "" {
			enriched = " "
		}
		if err := e.store.SetEnriched(ctx, ids[i], enriched); err != nil {
			logger.Warn("Enriching chunk %d failed, distill will retry: %v", ids[i], err)
			continue
		}
		for _, topic := range result.Topics {
			if _, seen := topicSet[topic.Term]; !seen {
				topicSet[topic.Term] = struct{}{}
				docTopics = append(docTopics, topic.Term)
			}
		}
	}

	if len(docTopics) > 0 {
		if err := e.store.MergeDocumentMetadata(ctx, docID, map[string]string{
			"topics":            strings.Join(docTopics, ","),
			"extraction_method": "heuristic",
		}); err != nil {
			logger.Warn("Merging document topics failed: %v", err)
		}
	}
}

// IngestFile extracts text via the registered normalisers and ingests each
// extracted text. Archives yield one document per entry.
func (e *Engine) IngestFile(ctx context.Context, path string) ([]int64, error) {
	ext := strings.ToLower(filepath.Ext(path))
	normaliser, ok := e.normalisers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(content) > e.maxDocBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", domain.ErrInputTooLarge, path, len(content))
	}

	extracted, err := normaliser.Normalise(ctx, filepath.Base(path), content)
	if err != nil {
		return nil, fmt.Errorf("normalising %s: %w", path, err)
	}

	var docIDs []int64
	for _, ex := range extracted {
		if strings.TrimSpace(ex.Text) == "" {
			continue
		}
		meta := ex.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		if _, ok := meta["filename"]; !ok {
			meta["filename"] = filepath.Base(path)
		}
		meta["file_extension"] = ext

		id, err := e.Ingest(ctx, ex.Text, meta)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				continue
			}
			return docIDs, err
		}
		docIDs = append(docIDs, id)
	}

	if e.ingestState != nil && len(docIDs) > 0 {
		if err := e.ingestState.MarkIndexed(path, docIDs); err != nil {
			logger.Warn("Recording ingest state for %s failed: %v", path, err)
		}
	}
	return docIDs, nil
}

// ==================== Background queue ====================

// Enqueue submits a file for background ingestion. The queue is bounded;
// a full queue returns domain.ErrQueueFull immediately.
func (e *Engine) Enqueue(ctx context.Context, path string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return "", domain.ErrQueueClosed
	}
	if e.ingestState != nil && e.ingestState.IsIndexed(path) {
		return "", fmt.Errorf("%w: %s already indexed", domain.ErrDuplicateContent, path)
	}

	id := uuid.New().String()
	select {
	case e.jobs <- queuedJob{id: id, path: path}:
		e.jobStatus[id] = &driving.Job{ID: id, Path: path, Status: driving.JobQueued}
		e.trimJobHistory()
		return id, nil
	default:
		return "", domain.ErrQueueFull
	}
}

// Job returns the status record for a queued job.
func (e *Engine) Job(id string) (*driving.Job, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	job, ok := e.jobStatus[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

// worker is the single queue consumer.
func (e *Engine) worker() {
	defer close(e.workerDone)
	for job := range e.jobs {
		ctx := context.Background()
		if err := e.limiter.Wait(ctx); err != nil {
			return
		}
		e.setJobStatus(job.id, driving.JobProcessing, nil, "")

		docIDs, err := e.IngestFile(ctx, job.path)
		switch {
		case err == nil:
			e.setJobStatus(job.id, driving.JobCompleted, docIDs, "")
			logger.Info("Indexed %s: %d documents", job.path, len(docIDs))
		case errors.Is(err, domain.ErrDuplicateContent):
			e.setJobStatus(job.id, driving.JobCompleted, docIDs, "duplicate content")
		default:
			e.setJobStatus(job.id, driving.JobFailed, nil, err.Error())
			logger.Warn("Indexing %s failed: %v", job.path, err)
		}
	}
}

func (e *Engine) setJobStatus(id string, status driving.JobStatus, docIDs []int64, errMsg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if job, ok := e.jobStatus[id]; ok {
		job.Status = status
		job.DocumentIDs = docIDs
		job.Error = errMsg
	}
}

// trimJobHistory keeps the job map from growing without bound.
// Caller holds e.mu.
func (e *Engine) trimJobHistory() {
	const keep = 100
	if len(e.jobStatus) <= keep*2 {
		return
	}
	for id, job := range e.jobStatus {
		if job.Status == driving.JobCompleted || job.Status == driving.JobFailed {
			delete(e.jobStatus, id)
			if len(e.jobStatus) <= keep {
				return
			}
		}
	}
}

// Close drains the queue, stops the worker and closes the store.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.jobs)
	e.mu.Unlock()

	select {
	case <-e.workerDone:
	case <-ctx.Done():
		return ctx.Err()
	}
	return e.store.Close()
}

// ==================== Distill ====================

// Distill embeds paragraph chunks lacking embeddings and enriches chunks
// lacking enriched text, in batches. It is a fixpoint: a second run right
// after a successful one returns (0, 0).
func (e *Engine) Distill(ctx context.Context) (int, int, error) {
	var enrichedTotal, embeddedTotal int

	if e.embedder.Available() {
		for {
			if err := ctx.Err(); err != nil {
				return enrichedTotal, embeddedTotal, err
			}
			chunks, err := e.store.ChunksWithoutEmbedding(ctx, distillBatchSize)
			if err != nil {
				return enrichedTotal, embeddedTotal, fmt.Errorf("scan unembedded: %w", err)
			}
			if len(chunks) == 0 {
				break
			}

			texts := make([]string, len(chunks))
			for i, c := range chunks {
				texts[i] = c.Text
			}
			vecs, err := e.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				return enrichedTotal, embeddedTotal, fmt.Errorf("embed batch: %w", err)
			}

			stored := 0
			for i, vec := range vecs {
				if vec == nil {
					continue
				}
				if err := e.store.SetEmbedding(ctx, chunks[i].ID, vec); err != nil {
					logger.Warn("Storing embedding for chunk %d failed: %v", chunks[i].ID, err)
					continue
				}
				stored++
			}
			embeddedTotal += stored
			if stored == 0 {
				// Every input failed; avoid spinning on the same batch.
				break
			}
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return enrichedTotal, embeddedTotal, err
		}
		chunks, err := e.store.ChunksWithoutEnrichment(ctx, distillBatchSize)
		if err != nil {
			return enrichedTotal, embeddedTotal, fmt.Errorf("scan unenriched: %w", err)
		}
		if len(chunks) == 0 {
			break
		}
		stored := 0
		for _, c := range chunks {
			enriched := extract.EnrichedText(extract.All(c.Text))
			if enriched == "" {
				enriched = " "
			}
			if err := e.store.SetEnriched(ctx, c.ID, enriched); err != nil {
				logger.Warn("Enriching chunk %d failed: %v", c.ID, err)
				continue
			}
			stored++
		}
		enrichedTotal += stored
		if stored == 0 {
			break
		}
	}

	if enrichedTotal > 0 || embeddedTotal > 0 {
		logger.Info("Distill complete: %d enriched, %d embedded", enrichedTotal, embeddedTotal)
	}
	return enrichedTotal, embeddedTotal, nil
}

// ==================== Recall / Consolidate / Stats ====================

// Recall delegates to the retriever under the active tier.
func (e *Engine) Recall(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	return e.retriever.Search(ctx, query, limit, e.tier)
}

// Consolidate runs the maintenance pipeline under the active tier. Each store
// call takes the store's writer lock on its own; no lock is held across the
// whole pipeline, so other writes can land between its phases.
func (e *Engine) Consolidate(ctx context.Context) (domain.ConsolidationReport, error) {
	return e.consolidator.Run(ctx, e.tier)
}

// Stats returns store statistics.
func (e *Engine) Stats(ctx context.Context) (domain.StoreStats, error) {
	return e.store.Stats(ctx)
}

// ExpandContext returns the section containing a result chunk, for showing
// surrounding context. Falls back to the ordinal window when the paragraph
// hangs off the document root.
func (e *Engine) ExpandContext(ctx context.Context, chunkID int64) (string, error) {
	parent, err := e.store.GetParentChunk(ctx, chunkID)
	if err != nil {
		return "", err
	}
	if parent != nil {
		return parent.Text, nil
	}

	siblings, err := e.store.GetSurroundingChunks(ctx, chunkID, 1)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, s := range siblings {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n"), nil
}

// Documents returns one page of stored documents with the total count.
func (e *Engine) Documents(ctx context.Context, page, pageSize int) ([]domain.Document, int64, error) {
	return e.store.ListDocuments(ctx, page, pageSize, false)
}
