package warehouse

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits after the last change before
// refreshing. Editors and copy tools often write a file in several steps.
const DefaultDebounce = 500 * time.Millisecond

// Watch refreshes the index whenever the file at path changes, until ctx is
// done. The parent directory is watched so that files replaced by rename
// are still followed.
func (w *Warehouse) Watch(ctx context.Context, path string, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w.logger.Infof("watching %s for changes", abs)

	go func() {
		defer func() {
			if err := watcher.Close(); err != nil {
				w.logger.Warnf("failed to close file watcher: %v", err)
			}
		}()

		var (
			mu    sync.Mutex
			timer *time.Timer
		)
		trigger := func() {
			mu.Lock()
			defer mu.Unlock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := w.Refresh(ctx, ReasonWatch); err != nil {
					w.logger.Errorf("refresh after change of %s failed: %v", abs, err)
				}
			})
		}

		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					w.logger.Debugf("source file changed: %s (event: %s)", event.Name, event.Op.String())
					trigger()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warnf("file watcher error: %v", err)
			}
		}
	}()

	return nil
}
