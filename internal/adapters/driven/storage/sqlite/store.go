// Package sqlite implements the Store port on a single-file SQLite database
// in WAL mode. Full-text search uses FTS5 with BM25 ranking; vector search
// runs a dequantise-on-read dot product over an in-memory matrix of
// int8-quantised embeddings.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
)

// latestSchemaVersion is the newest migration this build understands.
// An on-disk database ahead of this is rejected at startup.
const latestSchemaVersion = 1

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store is the SQLite-backed document, chunk and embedding store.
// Writes are serialised through a single writer lock; reads run
// concurrently against the WAL.
type Store struct {
	db   *sql.DB
	path string

	// writeMu serialises all writers.
	writeMu sync.Mutex

	matrix *vectorMatrix
}

// NewStore opens or creates the store inside dataDir.
// If dataDir is empty, defaults to ~/.mindsage/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mindsage", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "mindsage.db")

	// WAL mode for single-writer/multi-reader concurrency.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:     db,
		path:   dbPath,
		matrix: newVectorMatrix(domain.EmbeddingDim),
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations. Migrations are forward-only and
// idempotent; a database from a newer build is rejected.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	if currentVersion > latestSchemaVersion {
		return fmt.Errorf("%w: on-disk version %d, supported %d",
			domain.ErrSchemaMismatch, currentVersion, latestSchemaVersion)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Documents ====================

// AddDocument inserts a document keyed by its content hash. Inserting the
// same text twice resolves to the existing document id.
func (s *Store) AddDocument(ctx context.Context, text string, metadata map[string]string) (int64, error) {
	hash := ContentHash(text)

	if existing, err := s.FindDocumentByHash(ctx, hash); err == nil && existing != nil {
		return existing.ID, nil
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("marshalling metadata: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (text, metadata_json, content_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, text, string(metaJSON), hash, time.Now().UnixMilli())
	if err != nil {
		// Two ingests racing on the same hash: one insert loses the UNIQUE
		// constraint and resolves to the winner's row.
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			if existing, ferr := s.FindDocumentByHash(ctx, hash); ferr == nil && existing != nil {
				return existing.ID, nil
			}
		}
		return 0, fmt.Errorf("inserting document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert id: %w", err)
	}
	return id, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, metadata_json, content_hash, created_at, COALESCE(updated_at, 0)
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// FindDocumentByHash retrieves a document by content hash.
func (s *Store) FindDocumentByHash(ctx context.Context, hash string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, text, metadata_json, content_hash, created_at, COALESCE(updated_at, 0)
		FROM documents WHERE content_hash = ?
	`, hash)
	return scanDocument(row)
}

// MergeDocumentMetadata merges key-value pairs into a document's metadata.
func (s *Store) MergeDocumentMetadata(ctx context.Context, id int64, updates map[string]string) error {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	merged := doc.Metadata
	if merged == nil {
		merged = make(map[string]string, len(updates))
	}
	for k, v := range updates {
		merged[k] = v
	}

	metaJSON, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		UPDATE documents SET metadata_json = ?, updated_at = ? WHERE id = ?
	`, string(metaJSON), time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("updating metadata: %w", err)
	}
	return nil
}

// DeleteDocument removes a document, cascading to chunks, FTS rows and
// embeddings.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.matrix.markDirty()
	}
	return nil
}

// ListDocuments returns one page of documents ordered by creation time,
// along with the total document count.
func (s *Store) ListDocuments(ctx context.Context, page, pageSize int, ascending bool) ([]domain.Document, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting documents: %w", err)
	}

	order := "DESC"
	if ascending {
		order = "ASC"
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, text, metadata_json, content_hash, created_at, COALESCE(updated_at, 0)
		FROM documents ORDER BY created_at %s, id %s LIMIT ? OFFSET ?
	`, order, order), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, total, nil
}

// ==================== Chunks ====================

// AddChunks atomically inserts the section/paragraph hierarchy for a
// document and populates the FTS rows through the insert trigger.
// Each chunk's ParentID must hold the slice index of its owning section
// (or -1); the store resolves these into database ids.
func (s *Store) AddChunks(ctx context.Context, docID int64, chunks []domain.Chunk) ([]int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (doc_id, parent_chunk_id, text, enriched_text, chunk_index, char_start, char_end, level, created_at)
		VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	ids := make([]int64, len(chunks))

	for i, chunk := range chunks {
		var parent any
		if chunk.Level == domain.LevelParagraph && chunk.ParentID >= 0 {
			idx := int(chunk.ParentID)
			if idx >= len(ids) {
				return nil, fmt.Errorf("%w: chunk %d references section %d", domain.ErrInvalidInput, i, idx)
			}
			parent = ids[idx]
		}

		res, err := stmt.ExecContext(ctx, docID, parent, chunk.Text,
			chunk.Ordinal, chunk.CharStart, chunk.CharEnd, chunk.Level, now)
		if err != nil {
			return nil, fmt.Errorf("inserting chunk %d: %w", i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading chunk insert id: %w", err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return ids, nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id int64) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, selectChunk+" WHERE id = ?", id)
	return scanChunkRow(row)
}

// GetChunks retrieves all chunks for a document in ordinal order.
func (s *Store) GetChunks(ctx context.Context, docID int64) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, selectChunk+" WHERE doc_id = ? ORDER BY chunk_index", docID)
}

// GetParentChunk returns the owning section of a paragraph chunk.
func (s *Store) GetParentChunk(ctx context.Context, chunkID int64) (*domain.Chunk, error) {
	chunk, err := s.GetChunk(ctx, chunkID)
	if err != nil {
		return nil, err
	}
	if chunk.ParentID == 0 {
		return nil, nil
	}
	return s.GetChunk(ctx, chunk.ParentID)
}

// GetSurroundingChunks returns same-level neighbours within the ordinal
// window, for context expansion around a hit.
func (s *Store) GetSurroundingChunks(ctx context.Context, chunkID int64, window int) ([]domain.Chunk, error) {
	chunk, err := s.GetChunk(ctx, chunkID)
	if err != nil {
		return nil, err
	}
	return s.queryChunks(ctx, selectChunk+`
		 WHERE doc_id = ? AND level = ? AND chunk_index BETWEEN ? AND ?
		 ORDER BY chunk_index`,
		chunk.DocumentID, chunk.Level, chunk.Ordinal-window, chunk.Ordinal+window)
}

// SetEnriched updates a chunk's enriched text; the update trigger rebuilds
// its FTS row.
func (s *Store) SetEnriched(ctx context.Context, chunkID int64, enriched string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE chunks SET enriched_text = ? WHERE id = ?", enriched, chunkID)
	if err != nil {
		return fmt.Errorf("updating enriched text: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ChunksWithoutEmbedding returns paragraph chunks lacking a stored
// embedding, oldest first.
func (s *Store) ChunksWithoutEmbedding(ctx context.Context, limit int) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT c.id, c.doc_id, COALESCE(c.parent_chunk_id, 0), c.level, c.chunk_index,
		       c.text, COALESCE(c.enriched_text, ''), COALESCE(c.char_start, 0), COALESCE(c.char_end, 0), c.created_at
		FROM chunks c
		LEFT JOIN chunk_embeddings ce ON c.id = ce.chunk_id
		WHERE ce.chunk_id IS NULL AND c.level = ?
		ORDER BY c.created_at ASC, c.id ASC LIMIT ?`,
		domain.LevelParagraph, limit)
}

// ChunksWithoutEnrichment returns paragraph chunks lacking enriched text,
// oldest first.
func (s *Store) ChunksWithoutEnrichment(ctx context.Context, limit int) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, selectChunk+`
		 WHERE enriched_text IS NULL AND level = ?
		 ORDER BY created_at ASC, id ASC LIMIT ?`,
		domain.LevelParagraph, limit)
}

// ==================== Embeddings ====================

// SetEmbedding quantises and stores an embedding for a paragraph chunk,
// then appends it to the in-memory matrix.
func (s *Store) SetEmbedding(ctx context.Context, chunkID int64, vec []float32) error {
	if len(vec) != domain.EmbeddingDim {
		return fmt.Errorf("%w: embedding has %d dimensions, want %d",
			domain.ErrInvalidInput, len(vec), domain.EmbeddingDim)
	}

	normalized := l2Normalize(append([]float32(nil), vec...))
	bytes, scale, offset := quantizeUint8(normalized)

	s.writeMu.Lock()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chunk_embeddings (chunk_id, embedding, scale, offset_val)
		VALUES (?, ?, ?, ?)
	`, chunkID, bytes, scale, offset)
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}

	// Extend the matrix without a full reload. Readers may briefly miss this
	// trailing row; retrieval tolerates the stale view.
	s.matrix.append(chunkID, bytes, scale, offset)
	return nil
}

// ==================== BM25 search ====================

// BM25Search runs full-text MATCH over paragraph chunks with BM25 ranking.
func (s *Store) BM25Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	ftsQuery := sanitizeFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.doc_id, c.chunk_index, c.text, COALESCE(c.enriched_text, ''), chunks_fts.rank
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		WHERE chunks_fts MATCH ? AND c.level = ?
		ORDER BY chunks_fts.rank
		LIMIT ?
	`, ftsQuery, domain.LevelParagraph, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var h domain.SearchHit
		var rank float64
		if err := rows.Scan(&h.ChunkID, &h.DocumentID, &h.Ordinal, &h.Text, &h.Enriched, &rank); err != nil {
			logger.Warn("Skipping corrupt FTS row: %v", err)
			continue
		}
		// FTS5 rank is negative; negate for a positive score.
		h.Score = -rank
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fts rows: %w", err)
	}
	return hits, nil
}

// sanitizeFTSQuery wraps each token in double quotes and joins with OR so
// user input cannot inject FTS5 operators.
func sanitizeFTSQuery(query string) string {
	fields := strings.Fields(query)
	tokens := make([]string, 0, len(fields))
	for _, t := range fields {
		t = strings.ReplaceAll(t, `"`, "")
		if t != "" {
			tokens = append(tokens, `"`+t+`"`)
		}
	}
	return strings.Join(tokens, " OR ")
}

// ==================== Vector search ====================

// VectorSearch runs a dot-product search of the query vector against the
// in-memory matrix, lazily loading it from disk on first use.
func (s *Store) VectorSearch(ctx context.Context, query []float32, limit int) ([]domain.SearchHit, error) {
	if err := s.ensureMatrix(ctx); err != nil {
		return nil, err
	}

	top := s.matrix.search(query, limit)
	if len(top) == 0 {
		return nil, nil
	}

	hits := make([]domain.SearchHit, 0, len(top))
	for _, t := range top {
		chunk, err := s.GetChunk(ctx, t.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Chunk deleted since the matrix row was appended.
				continue
			}
			return nil, err
		}
		hits = append(hits, domain.SearchHit{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Ordinal:    chunk.Ordinal,
			Text:       chunk.Text,
			Enriched:   chunk.EnrichedText,
			Score:      t.score,
		})
	}
	return hits, nil
}

// ensureMatrix loads the matrix from the embeddings column when dirty.
func (s *Store) ensureMatrix(ctx context.Context) error {
	if !s.matrix.dirty() {
		return nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ce.chunk_id, ce.embedding, ce.scale, ce.offset_val
		FROM chunk_embeddings ce
		JOIN chunks c ON c.id = ce.chunk_id
		WHERE c.level = ?
	`, domain.LevelParagraph)
	if err != nil {
		return fmt.Errorf("loading embeddings: %w", err)
	}
	defer rows.Close()

	var loaded []matrixRow
	for rows.Next() {
		var r matrixRow
		if err := rows.Scan(&r.chunkID, &r.bytes, &r.scale, &r.offset); err != nil {
			logger.Warn("Skipping corrupt embedding row: %v", err)
			continue
		}
		if len(r.bytes) != domain.EmbeddingDim {
			logger.Warn("Skipping embedding for chunk %d: %d bytes, want %d",
				r.chunkID, len(r.bytes), domain.EmbeddingDim)
			continue
		}
		loaded = append(loaded, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating embeddings: %w", err)
	}

	s.matrix.reload(loaded)
	logger.Debug("Vector matrix loaded: %d rows", len(loaded))
	return nil
}

// ==================== Consolidation support ====================

// PruneOrphanChunks deletes chunks whose owning document no longer exists.
// Foreign keys make this a no-op in the normal case; it guards against torn
// writes from crashed sessions.
func (s *Store) PruneOrphanChunks(ctx context.Context) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM chunks WHERE doc_id NOT IN (SELECT id FROM documents)
	`)
	if err != nil {
		return 0, fmt.Errorf("pruning orphans: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.matrix.markDirty()
	}
	return n, nil
}

// RemoveDuplicateDocuments keeps the oldest document of every content-hash
// group and deletes the rest, cascading to chunks.
func (s *Store) RemoveDuplicateDocuments(ctx context.Context) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents
		WHERE content_hash IS NOT NULL
		  AND id NOT IN (
			SELECT MIN(id) FROM documents
			WHERE content_hash IS NOT NULL
			GROUP BY content_hash
		  )
	`)
	if err != nil {
		return 0, fmt.Errorf("removing duplicates: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.matrix.markDirty()
	}
	return n, nil
}

// EvictOldestDocuments deletes the n oldest documents by creation time.
func (s *Store) EvictOldestDocuments(ctx context.Context, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM documents WHERE id IN (
			SELECT id FROM documents ORDER BY created_at ASC, id ASC LIMIT ?
		)
	`, n)
	if err != nil {
		return 0, fmt.Errorf("evicting documents: %w", err)
	}
	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		s.matrix.markDirty()
	}
	return deleted, nil
}

// ==================== Stats ====================

// Stats returns store-level counters.
func (s *Store) Stats(ctx context.Context) (domain.StoreStats, error) {
	var st domain.StoreStats

	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM chunks WHERE level = ?),
			(SELECT COUNT(*) FROM chunks WHERE level = ?),
			(SELECT COUNT(*) FROM chunk_embeddings)
	`, domain.LevelSection, domain.LevelParagraph)
	if err := row.Scan(&st.Documents, &st.SectionChunks, &st.ParagraphChunks, &st.Embeddings); err != nil {
		return st, fmt.Errorf("counting: %w", err)
	}

	st.MatrixRows = s.matrix.rows()
	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}
	return st, nil
}

// ==================== Row scanning ====================

const selectChunk = `
	SELECT id, doc_id, COALESCE(parent_chunk_id, 0), level, chunk_index,
	       text, COALESCE(enriched_text, ''), COALESCE(char_start, 0), COALESCE(char_end, 0), created_at
	FROM chunks`

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ParentID, &c.Level, &c.Ordinal,
			&c.Text, &c.EnrichedText, &c.CharStart, &c.CharEnd, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var c domain.Chunk
	if err := row.Scan(&c.ID, &c.DocumentID, &c.ParentID, &c.Level, &c.Ordinal,
		&c.Text, &c.EnrichedText, &c.CharStart, &c.CharEnd, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}
	return &c, nil
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var metaJSON sql.NullString
	var hash sql.NullString
	if err := row.Scan(&doc.ID, &doc.Text, &metaJSON, &hash, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.ContentHash = hash.String
	if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != "null" {
		if err := json.Unmarshal([]byte(metaJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	return &doc, nil
}

func scanDocumentRows(rows *sql.Rows) (*domain.Document, error) {
	var doc domain.Document
	var metaJSON sql.NullString
	var hash sql.NullString
	if err := rows.Scan(&doc.ID, &doc.Text, &metaJSON, &hash, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.ContentHash = hash.String
	if metaJSON.Valid && metaJSON.String != "" && metaJSON.String != "null" {
		if err := json.Unmarshal([]byte(metaJSON.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	return &doc, nil
}
