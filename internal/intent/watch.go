package intent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 200 * time.Millisecond

// WatchProjects reloads the project table into ext whenever the file at path
// changes. The parent directory is watched so editors that replace the file
// are handled. A file that fails to parse is logged and the previous table
// stays active. It blocks until ctx is cancelled.
func WatchProjects(ctx context.Context, path string, ext *Extractor, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create projects watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve projects file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(reloadDebounce)

		case <-debounce:
			debounce = nil
			table, err := LoadProjects(abs)
			if err != nil {
				logger.Warn("projects reload failed, keeping previous table", "path", abs, "error", err)
				continue
			}
			ext.SetProjects(table)
			logger.Info("projects reloaded", "path", abs, "count", len(table.Names()))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("projects watcher error", "error", err)
		}
	}
}
