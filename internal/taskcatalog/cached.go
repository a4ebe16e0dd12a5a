package taskcatalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/pulsehub/scheduler/pkg/panicerr"
)

// Cached wraps a Catalog with a per-id read cache. When the task files
// live on the local filesystem the cache is invalidated by an fsnotify
// watch on the tasks directory, so edits made by the upstream tracker
// become visible without restarting the scheduler. ListByProject always
// goes to the inner catalog; only the Get hot path (assignment
// validation lookups) is cached.
type Cached struct {
	inner   Catalog
	watcher *fsnotify.Watcher

	mu   sync.RWMutex
	byID map[string]*TaskSummary
}

func NewCached(inner Catalog, watchDir string) (*Cached, error) {
	if err := os.MkdirAll(watchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(watchDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", watchDir, err)
	}

	c := &Cached{
		inner:   inner,
		watcher: watcher,
		byID:    make(map[string]*TaskSummary),
	}
	go func() {
		if err := panicerr.Safe(c.watch)(); err != nil {
			slog.Error("task catalog watcher stopped", "error", err)
		}
	}()
	return c, nil
}

func (c *Cached) watch() error {
	for {
		select {
		case _, ok := <-c.watcher.Events:
			if !ok {
				return nil
			}
			// Any change under the tasks directory drops the whole
			// cache; reloads happen lazily on the next Get.
			c.Invalidate()
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("task catalog watch error", "error", err)
		}
	}
}

// Invalidate drops all cached entries.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.byID = make(map[string]*TaskSummary)
	c.mu.Unlock()
}

func (c *Cached) Close() error {
	return c.watcher.Close()
}

func (c *Cached) Get(ctx context.Context, id string) (*TaskSummary, error) {
	c.mu.RLock()
	t, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}

	t, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.byID[id] = t
	c.mu.Unlock()
	return t, nil
}

func (c *Cached) ListByProject(ctx context.Context, accountID, projectID string) ([]*TaskSummary, error) {
	return c.inner.ListByProject(ctx, accountID, projectID)
}
