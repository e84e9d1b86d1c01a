package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
)

// Ensure ProviderStore implements the interface.
var _ driven.ProviderConfigStore = (*ProviderStore)(nil)

// ProviderStore is the providers.json registry in the data directory root.
type ProviderStore struct {
	mu       sync.RWMutex
	filePath string
	entries  map[string]driven.ProviderConfig
}

// NewProviderStore loads providers.json from the data directory.
func NewProviderStore(dataDir string) (*ProviderStore, error) {
	s := &ProviderStore{
		filePath: filepath.Join(dataDir, "providers.json"),
		entries:  make(map[string]driven.ProviderConfig),
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, err
	}
	return s, nil
}

// Providers returns a copy of the configured provider entries.
func (s *ProviderStore) Providers() map[string]driven.ProviderConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]driven.ProviderConfig, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// SetProvider stores a provider entry and persists the file.
func (s *ProviderStore) SetProvider(name string, cfg driven.ProviderConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[name] = cfg
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}
