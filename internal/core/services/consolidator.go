package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
)

// Consolidator runs the maintenance pipeline: prune orphans, deduplicate by
// content hash, evict the oldest documents past the tier's capacity
// envelope. It is externally triggered, never automatic during ingest.
type Consolidator struct {
	store driven.Store
}

// NewConsolidator creates a consolidator over a store.
func NewConsolidator(store driven.Store) *Consolidator {
	return &Consolidator{store: store}
}

// Run executes the three phases in fixed order and stops at the first failed
// phase; later phases run on the next invocation. Pruning and deduplication
// are single store calls; eviction may take several batches, and batches
// deleted before a failure stay deleted.
func (c *Consolidator) Run(ctx context.Context, tier domain.CapabilityTier) (domain.ConsolidationReport, error) {
	start := time.Now()
	var report domain.ConsolidationReport

	logger.Section("Consolidation")
	logger.Debug("Tier: %s", tier)

	pruned, err := c.store.PruneOrphanChunks(ctx)
	if err != nil {
		return report, fmt.Errorf("prune orphans: %w", err)
	}
	report.OrphansPruned = pruned

	deduped, err := c.store.RemoveDuplicateDocuments(ctx)
	if err != nil {
		return report, fmt.Errorf("deduplicate: %w", err)
	}
	report.DuplicatesRemoved = deduped

	evicted, err := c.evict(ctx, domain.ThresholdsForTier(tier))
	if err != nil {
		return report, fmt.Errorf("evict: %w", err)
	}
	report.DocumentsEvicted = evicted

	report.DurationMs = time.Since(start).Milliseconds()
	logger.Info("Consolidation complete: pruned=%d deduped=%d evicted=%d in %dms",
		report.OrphansPruned, report.DuplicatesRemoved, report.DocumentsEvicted, report.DurationMs)
	return report, nil
}

// evict deletes oldest documents until both the document and chunk counts
// fit the tier envelope.
func (c *Consolidator) evict(ctx context.Context, bounds domain.ConsolidationThresholds) (int64, error) {
	var evicted int64

	stats, err := c.store.Stats(ctx)
	if err != nil {
		return 0, err
	}

	if excess := stats.Documents - bounds.MaxDocuments; excess > 0 {
		n, err := c.store.EvictOldestDocuments(ctx, excess)
		if err != nil {
			return evicted, err
		}
		evicted += n
	}

	// Chunk counts shrink with whole documents; evict in batches sized from
	// the current chunks-per-document ratio until within bounds.
	for {
		if err := ctx.Err(); err != nil {
			return evicted, err
		}
		stats, err = c.store.Stats(ctx)
		if err != nil {
			return evicted, err
		}
		totalChunks := stats.SectionChunks + stats.ParagraphChunks
		if totalChunks <= bounds.MaxChunks || stats.Documents == 0 {
			return evicted, nil
		}

		perDoc := totalChunks / stats.Documents
		if perDoc < 1 {
			perDoc = 1
		}
		batch := (totalChunks - bounds.MaxChunks + perDoc - 1) / perDoc
		if batch < 1 {
			batch = 1
		}

		n, err := c.store.EvictOldestDocuments(ctx, batch)
		if err != nil {
			return evicted, err
		}
		if n == 0 {
			return evicted, nil
		}
		evicted += n
	}
}
