// Package services implements the use cases behind the driving ports: hybrid
// retrieval, consolidation, and the orchestrating engine with its background
// indexing queue.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/extract"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
)

// Fixed retrieval constants. Deliberately not tunable.
const (
	// rrfK is the Reciprocal Rank Fusion denominator constant.
	rrfK = 60

	// entityBoost is added to the fused score when a query entity appears in
	// the chunk's enriched text.
	entityBoost = 0.15

	// candidateMultiplier oversizes both branch result lists relative to the
	// requested limit, so fusion and dedup have enough candidates.
	candidateMultiplier = 3
)

// Retriever performs tier-aware hybrid search.
type Retriever struct {
	store    driven.Store
	embedder driven.Embedder
}

// NewRetriever creates a retriever over a store and an embedder.
func NewRetriever(store driven.Store, embedder driven.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Search runs the tier-appropriate strategy: BM25 only on the Base tier or
// when no embedder is loaded, hybrid BM25+vector with RRF fusion otherwise.
func (r *Retriever) Search(ctx context.Context, query string, limit int, tier domain.CapabilityTier) ([]domain.SearchResult, error) {
	logger.Section("Recall")
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	hybrid := tier >= domain.TierEnhanced && r.embedder.Available()
	logger.Debug("Query: %q, limit=%d, tier=%s, hybrid=%t", query, limit, tier, hybrid)

	if !hybrid {
		return r.keywordSearch(ctx, query, limit)
	}
	return r.hybridSearch(ctx, query, limit)
}

// keywordSearch is the BM25-only strategy.
func (r *Retriever) keywordSearch(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	hits, err := r.store.BM25Search(ctx, query, limit*candidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	logger.Debug("Keyword search: %d hits", len(hits))

	return finalize(fuse(hits, nil, query), limit), nil
}

// hybridSearch runs both branches concurrently and fuses with RRF.
// A failing vector branch degrades to keyword results rather than failing
// the query.
func (r *Retriever) hybridSearch(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	var bm25Hits, vectorHits []domain.SearchHit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, err := r.store.BM25Search(gctx, query, limit*candidateMultiplier)
		if err != nil {
			return fmt.Errorf("keyword branch: %w", err)
		}
		bm25Hits = hits
		return nil
	})
	g.Go(func() error {
		vec, err := r.embedder.Embed(gctx, query)
		if err != nil || vec == nil {
			// Vector branch is best-effort.
			logger.Warn("Query embedding unavailable: %v", err)
			return nil
		}
		hits, err := r.store.VectorSearch(gctx, vec, limit*candidateMultiplier)
		if err != nil {
			logger.Warn("Vector search failed, degrading to keyword: %v", err)
			return nil
		}
		vectorHits = hits
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Hybrid search: %d keyword + %d vector hits", len(bm25Hits), len(vectorHits))

	return finalize(fuse(bm25Hits, vectorHits, query), limit), nil
}

// fusedHit accumulates a chunk's fused score across branches. The branch
// flags determine the resolver kind each item is tagged with.
type fusedHit struct {
	hit       domain.SearchHit
	score     float64
	inKeyword bool
	inVector  bool
}

// resolver reports which branch produced this item.
func (f fusedHit) resolver() domain.ResolverKind {
	switch {
	case f.inKeyword && f.inVector:
		return domain.ResolverHybrid
	case f.inVector:
		return domain.ResolverVector
	default:
		return domain.ResolverKeyword
	}
}

// fuse merges two ranked lists with Reciprocal Rank Fusion
// (score = sum of 1/(k+rank), rank 1-based) and applies the entity boost
// for query entities found in a chunk's enriched text.
func fuse(bm25Hits, vectorHits []domain.SearchHit, query string) []fusedHit {
	merged := make(map[int64]*fusedHit)

	accumulate := func(hits []domain.SearchHit, vector bool) {
		for rank, hit := range hits {
			f, ok := merged[hit.ChunkID]
			if !ok {
				f = &fusedHit{hit: hit}
				merged[hit.ChunkID] = f
			}
			f.score += 1.0 / float64(rrfK+rank+1)
			if vector {
				f.inVector = true
			} else {
				f.inKeyword = true
			}
		}
	}
	accumulate(bm25Hits, false)
	accumulate(vectorHits, true)

	queryEntities := extract.Entities(query)
	out := make([]fusedHit, 0, len(merged))
	for _, f := range merged {
		if boostApplies(queryEntities, f.hit.Enriched) {
			f.score += entityBoost
		}
		out = append(out, *f)
	}
	return out
}

// boostApplies reports whether any query entity occurs in the enriched text.
func boostApplies(entities []extract.Entity, enriched string) bool {
	if enriched == "" || len(entities) == 0 {
		return false
	}
	lower := strings.ToLower(enriched)
	for _, e := range entities {
		if strings.Contains(lower, strings.ToLower(e.Text)) {
			return true
		}
	}
	return false
}

// finalize deduplicates per document (keeping the best chunk), sorts by
// score with ordinal tie-break, truncates to limit and tags each item with
// the resolver kind that produced it.
func finalize(fused []fusedHit, limit int) []domain.SearchResult {
	bestPerDoc := make(map[int64]fusedHit)
	for _, f := range fused {
		best, ok := bestPerDoc[f.hit.DocumentID]
		if !ok || f.score > best.score ||
			(f.score == best.score && f.hit.Ordinal < best.hit.Ordinal) {
			bestPerDoc[f.hit.DocumentID] = f
		}
	}

	deduped := make([]fusedHit, 0, len(bestPerDoc))
	for _, f := range bestPerDoc {
		deduped = append(deduped, f)
	}
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].score != deduped[j].score {
			return deduped[i].score > deduped[j].score
		}
		return deduped[i].hit.Ordinal < deduped[j].hit.Ordinal
	})
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}

	results := make([]domain.SearchResult, len(deduped))
	for i, f := range deduped {
		results[i] = domain.SearchResult{
			ChunkID:    f.hit.ChunkID,
			DocumentID: f.hit.DocumentID,
			Text:       f.hit.Text,
			Score:      f.score,
			Resolver:   f.resolver(),
		}
	}
	return results
}
