// Package file provides file-backed configuration and state stores: the
// TOML host configuration, the providers.json provider registry and the
// ingest_state.json index of already-ingested files.
package file

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Config is the host configuration envelope the core consumes.
type Config struct {
	// DataDir is the data directory holding the database and state files.
	DataDir string `toml:"data_dir"`

	// Tier overrides auto-detection when non-empty (base/enhanced/advanced/full).
	Tier string `toml:"tier"`

	// EmbedderEndpoint is the local inference endpoint.
	EmbedderEndpoint string `toml:"embedder_endpoint"`

	// EmbedderModel is the embedding model name.
	EmbedderModel string `toml:"embedder_model"`

	// MaxDocumentBytes caps a single ingested document.
	MaxDocumentBytes int `toml:"max_document_bytes"`
}

// ConfigStore reads and writes the TOML host configuration.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	cfg      Config
}

// NewConfigStore loads config.toml from configDir, creating the directory
// if needed. Defaults to ~/.mindsage.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".mindsage")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{filePath: filepath.Join(configDir, "config.toml")}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, &s.cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Config returns the loaded configuration.
func (s *ConfigStore) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Save persists the configuration back to disk.
func (s *ConfigStore) Save(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}
