package file

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/core/ports/driven"
	"github.com/custodia-labs/glance/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.ConfigWatcher = (*Watcher)(nil)

// DefaultSettle is how long the watcher waits after the last change
// before reloading.
const DefaultSettle = 200 * time.Millisecond

// Watcher reloads the configuration when its file changes. The directory
// is watched rather than the file so editors that replace the file by
// rename are picked up.
type Watcher struct {
	store  *ConfigStore
	settle time.Duration
}

// NewWatcher creates a watcher for the store's file.
func NewWatcher(store *ConfigStore, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{store: store, settle: settle}
}

// Watch calls onChange with each successfully reloaded configuration. An
// invalid file is logged and the previous configuration stays in effect.
// It blocks until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, onChange func(domain.Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.store.Dir()); err != nil {
		return fmt.Errorf("watching %s: %w", w.store.Dir(), err)
	}

	target := filepath.Clean(w.store.Path())
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	reload := func() {
		if ctx.Err() != nil {
			return
		}
		cfg, err := w.store.Load()
		if err != nil {
			logger.Warn("config reload failed, keeping previous configuration",
				"path", target, "error", err)
			return
		}
		logger.Info("config reloaded", "path", target)
		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce: editors emit several events per save.
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.settle, reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}
