// Package filesystem feeds local files into the background indexing queue:
// a one-shot directory walk for initial import and an fsnotify watcher for
// files dropped in afterwards (device-to-device transfers land here too).
package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driving"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
)

// Connector walks and watches a directory, enqueueing supported files.
type Connector struct {
	engine     driving.Engine
	extensions map[string]struct{}
}

// New creates a connector over the engine. Only files whose extension is in
// exts are enqueued.
func New(engine driving.Engine, exts []string) *Connector {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = struct{}{}
	}
	return &Connector{engine: engine, extensions: set}
}

// WalkDir enqueues every supported file under root. Returns the number of
// jobs queued. Already-indexed and duplicate files are skipped quietly; a
// full queue stops the walk and surfaces back-pressure to the caller.
func (c *Connector) WalkDir(ctx context.Context, root string) (int, error) {
	queued := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !c.supported(path) {
			return nil
		}

		if _, err := c.engine.Enqueue(ctx, path); err != nil {
			if errors.Is(err, domain.ErrDuplicateContent) {
				return nil
			}
			return err
		}
		queued++
		return nil
	})
	return queued, err
}

// Watch blocks until ctx is cancelled, enqueueing files created or written
// under dir.
func (c *Connector) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.Info("Watching %s for new files", dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !c.supported(event.Name) {
				continue
			}
			if _, err := c.engine.Enqueue(ctx, event.Name); err != nil {
				if errors.Is(err, domain.ErrQueueFull) {
					logger.Warn("Indexing queue full, dropping %s", event.Name)
					continue
				}
				if errors.Is(err, domain.ErrDuplicateContent) {
					continue
				}
				logger.Warn("Enqueue %s failed: %v", event.Name, err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func (c *Connector) supported(path string) bool {
	_, ok := c.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
