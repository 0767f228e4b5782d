package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/vanpelt/codesandbox/internal/logger"
	"github.com/vanpelt/codesandbox/internal/recovery"
)

const reloadDebounce = 100 * time.Millisecond

// Watch reloads the config file at path whenever it changes and hands the
// result to onChange until ctx is done. The parent directory is watched so
// editors that save by renaming a temp file are picked up too. A file that
// fails to load is logged and skipped.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	if path == "" {
		path = DefaultPath()
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	recovery.SafeGo("config-watch", func() {
		defer watcher.Close()

		var debounce *time.Timer
		defer func() {
			if debounce != nil {
				debounce.Stop()
			}
		}()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || !isReloadEvent(event) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					if ctx.Err() != nil {
						return
					}
					cfg, err := Load(path)
					if err != nil {
						logger.Warnf("⚠️ Ignoring config change: %v", err)
						return
					}
					logger.Debugf("🔄 Reloaded %s", path)
					onChange(cfg)
				})

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("⚠️ Config watcher error for %s: %v", path, err)

			case <-ctx.Done():
				return
			}
		}
	})
	return nil
}

func isReloadEvent(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
