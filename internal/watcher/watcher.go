// Package watcher reloads runtime-tunable configuration when the config
// file changes on disk.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arnarpall/musicsearch/internal/config"
	"github.com/arnarpall/musicsearch/internal/logging"
)

// Watcher watches the config file and reapplies the logging section on
// change. Other sections require a restart and are left untouched.
type Watcher struct {
	path     string
	manager  *logging.Manager
	logger   *slog.Logger
	debounce time.Duration
}

// New creates a config file watcher. path is the config file to watch.
func New(path string, manager *logging.Manager, logger *slog.Logger) *Watcher {
	return &Watcher{
		path:     path,
		manager:  manager,
		logger:   logger.With("component", "config-watcher"),
		debounce: 500 * time.Millisecond,
	}
}

// SetDebounce overrides the default debounce interval (for testing).
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start blocks until ctx is canceled. It watches the config file's parent
// directory, so editors that replace the file (rename-over-write) are
// still observed.
func (w *Watcher) Start(ctx context.Context) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify unavailable, config changes require restart", "error", err)
		return
	}
	defer fw.Close() //nolint:errcheck

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		w.logger.Warn("watching config directory failed", "dir", dir, "error", err)
		return
	}
	w.logger.Info("config watcher starting", "path", w.path)

	// Starts stopped; reset on each relevant event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	reloadPending := false

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("config watcher stopping")
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !reloadPending {
				reloadPending = true
			} else if !debounceTimer.Stop() {
				select {
				case <-debounceTimer.C:
				default:
				}
			}
			debounceTimer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-debounceTimer.C:
			reloadPending = false
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := config.Load(w.path)
	if err != nil {
		w.logger.Warn("reloading config failed, keeping current settings", "error", err)
		return
	}

	w.manager.Reconfigure(logging.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FilePath:       cfg.Logging.FilePath,
		FileMaxSizeMB:  cfg.Logging.FileMaxSizeMB,
		FileMaxFiles:   cfg.Logging.FileMaxFiles,
		FileMaxAgeDays: cfg.Logging.FileMaxAgeDays,
	})
	w.logger.Info("logging configuration reloaded",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)
}
