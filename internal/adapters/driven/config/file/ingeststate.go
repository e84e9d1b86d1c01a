package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
)

// Ensure IngestStateStore implements the interface.
var _ driven.IngestStateStore = (*IngestStateStore)(nil)

// indexedFile records one indexed path.
type indexedFile struct {
	DocumentIDs []int64 `json:"documentIds"`
	IndexedAt   int64   `json:"indexedAt"`
}

// IngestStateStore is the ingest_state.json tracker in the data directory
// root. Watchers and restarts consult it to skip already-indexed files.
type IngestStateStore struct {
	mu       sync.RWMutex
	filePath string
	files    map[string]indexedFile
}

// NewIngestStateStore loads ingest_state.json from the data directory.
func NewIngestStateStore(dataDir string) (*IngestStateStore, error) {
	s := &IngestStateStore{
		filePath: filepath.Join(dataDir, "ingest_state.json"),
		files:    make(map[string]indexedFile),
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.files); err != nil {
		return nil, err
	}
	return s, nil
}

// IsIndexed reports whether the path was already indexed.
func (s *IngestStateStore) IsIndexed(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[path]
	return ok
}

// MarkIndexed records a path and persists the file.
func (s *IngestStateStore) MarkIndexed(path string, docIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[path] = indexedFile{
		DocumentIDs: docIDs,
		IndexedAt:   time.Now().UnixMilli(),
	}
	data, err := json.MarshalIndent(s.files, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}
