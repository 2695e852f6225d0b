// Package watcher reloads the tag mapping file when it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tsawler/slidetag/tags"
)

// DefaultDebounce is how long the watcher waits after the last change
// before reloading, so that a save arriving as several writes loads once.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches one mapping file.
type Watcher struct {
	path     string
	onChange func(tags.Mapping)
	logger   *slog.Logger
	debounce time.Duration
}

// New returns a watcher for the mapping file at path. onChange receives
// every mapping that loads successfully; a file that fails to load is
// logged and the previous mapping stays in effect.
func New(path string, onChange func(tags.Mapping), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		logger:   logger.With("component", "watcher", "file", path),
		debounce: DefaultDebounce,
	}
}

// WithDebounce returns a copy of w using d as the debounce interval.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	c := *w
	c.debounce = d
	return &c
}

// Run watches until ctx is done. The parent directory is watched rather
// than the file, so editors that replace the file by renaming are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching tag mapping")

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("tag mapping changed", "op", event.Op.String())
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-timer.C:
			w.reload()

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) reload() {
	m, err := tags.LoadMappingFile(w.path)
	if err != nil {
		w.logger.Error("tag mapping reload failed, keeping previous mapping", "error", err)
		return
	}
	w.logger.Info("tag mapping reloaded", "entries", len(m))
	w.onChange(m)
}
