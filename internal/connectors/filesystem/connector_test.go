package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driving"
)

// mockEngine implements driving.Engine, recording enqueued paths.
type mockEngine struct {
	mu       sync.Mutex
	enqueued []string
	full     bool
}

var _ driving.Engine = (*mockEngine)(nil)

func (m *mockEngine) Ingest(context.Context, string, map[string]string) (int64, error) {
	return 0, nil
}

func (m *mockEngine) IngestFile(context.Context, string) ([]int64, error) { return nil, nil }

func (m *mockEngine) Enqueue(_ context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return "", domain.ErrQueueFull
	}
	m.enqueued = append(m.enqueued, path)
	return fmt.Sprintf("job-%d", len(m.enqueued)), nil
}

func (m *mockEngine) Distill(context.Context) (int, int, error) { return 0, 0, nil }

func (m *mockEngine) Recall(context.Context, string, int) ([]domain.SearchResult, error) {
	return nil, nil
}

func (m *mockEngine) Consolidate(context.Context) (domain.ConsolidationReport, error) {
	return domain.ConsolidationReport{}, nil
}

func (m *mockEngine) Stats(context.Context) (domain.StoreStats, error) {
	return domain.StoreStats{}, nil
}

func (m *mockEngine) Tier() domain.CapabilityTier { return domain.TierBase }

func (m *mockEngine) Close(context.Context) error { return nil }

func (m *mockEngine) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.enqueued...)
}

func TestWalkDirEnqueuesSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("b"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.png"), []byte("c"), 0600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden", "d.txt"), []byte("d"), 0600))

	engine := &mockEngine{}
	c := New(engine, []string{".txt", ".md"})

	queued, err := c.WalkDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, queued)

	paths := engine.paths()
	assert.Len(t, paths, 2)
	for _, p := range paths {
		assert.NotContains(t, p, ".hidden")
		assert.NotContains(t, p, "c.png")
	}
}

func TestWalkDirSurfacesBackPressure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0600))

	engine := &mockEngine{full: true}
	c := New(engine, []string{".txt"})

	_, err := c.WalkDir(context.Background(), dir)
	assert.ErrorIs(t, err, domain.ErrQueueFull)
}

func TestWalkDirCancellation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(&mockEngine{}, []string{".txt"})
	_, err := c.WalkDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
