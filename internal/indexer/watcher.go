package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kanak8278/IBC-RAG/internal/export"
	"github.com/kanak8278/IBC-RAG/internal/logger"
)

// DefaultDebounce is how long the watcher waits for a burst of events on a
// file to settle before re-indexing it
const DefaultDebounce = 500 * time.Millisecond

// change is the pending action for one path
type change int

const (
	changeNone change = iota
	changeUpdate
	changeRemove
)

// WatchEvent reports one applied change
type WatchEvent struct {
	Path    string // Absolute path
	Removed bool
	Result  DocumentResult
	Err     error
}

// Watcher keeps a corpus index in sync with its directory
type Watcher struct {
	indexer    *Indexer
	root       string
	extensions []string
	debounce   time.Duration
	onEvent    func(WatchEvent)

	watcher *fsnotify.Watcher
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithDebounce sets the settle delay
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithEventHandler is called after each applied change
func WithEventHandler(fn func(WatchEvent)) WatcherOption {
	return func(w *Watcher) { w.onEvent = fn }
}

// NewWatcher creates a watcher for the corpus at root. Subdirectories are
// watched as well, except hidden ones.
func (idx *Indexer) NewWatcher(root string, extensions []string, opts ...WatcherOption) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		indexer:    idx,
		root:       root,
		extensions: extensions,
		debounce:   DefaultDebounce,
		watcher:    fw,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run applies changes until ctx is done. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	pending := make(map[string]change)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&fsnotify.Create == fsnotify.Create && w.isDir(event.Name) {
				if err := w.addTree(event.Name); err != nil {
					logger.Warn("failed to watch %s: %v", event.Name, err)
				}
				continue
			}

			if c := w.classify(event); c != changeNone {
				pending[event.Name] = c
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-timer.C:
			w.apply(ctx, pending)
			clear(pending)
		}
	}
}

// classify maps an fsnotify event to the action it requires
func (w *Watcher) classify(event fsnotify.Event) change {
	if !hasExtension(event.Name, w.extensions) || export.IsMergedRecord(event.Name) || w.hidden(event.Name) {
		return changeNone
	}

	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		return changeUpdate

	case event.Op&fsnotify.Write == fsnotify.Write:
		return changeUpdate

	case event.Op&fsnotify.Remove == fsnotify.Remove:
		return changeRemove

	case event.Op&fsnotify.Rename == fsnotify.Rename:
		return changeRemove
	}
	return changeNone
}

// apply re-indexes or removes each pending path. A path that still exists
// is re-indexed whatever its last event was, so a rename onto an existing
// name is picked up.
func (w *Watcher) apply(ctx context.Context, pending map[string]change) {
	for path := range pending {
		if ctx.Err() != nil {
			return
		}

		event := WatchEvent{Path: path}
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			event.Removed = true
			event.Err = w.indexer.RemoveFile(ctx, w.root, path)
		} else {
			event.Result, event.Err = w.indexer.IndexFile(ctx, w.root, path, false)
		}

		if event.Err != nil {
			logger.Warn("failed to sync %s: %v", path, event.Err)
		} else {
			logger.Info("synced %s", path)
		}
		if w.onEvent != nil {
			w.onEvent(event)
		}
	}
}

// addTree watches dir and its non-hidden subdirectories
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching directory %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// hidden reports whether path lies in a hidden file or directory below root
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
