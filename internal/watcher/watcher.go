// Package watcher reports deck files that were created or modified under
// a set of directories. Events are debounced so an editor's burst of
// writes becomes one batch.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/deckscore/internal/logger"
)

// DefaultDebounce is the quiet period before a batch is emitted.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches directories for changed deck files.
type Watcher struct {
	fsw      *fsnotify.Watcher
	accept   func(path string) bool
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
}

// New creates a watcher over dirs and their non-hidden subdirectories.
// accept filters files by path; nil accepts every file.
func New(dirs []string, accept func(path string) bool, debounce time.Duration) (*Watcher, error) {
	if len(dirs) == 0 {
		return nil, errors.New("watcher: no directories to watch")
	}
	if accept == nil {
		accept = func(string) bool { return true }
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	w := &Watcher{
		fsw:      fsw,
		accept:   accept,
		debounce: debounce,
		pending:  make(map[string]struct{}),
	}
	for _, dir := range dirs {
		if err := w.addRecursive(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run delivers batches of changed paths to onBatch until ctx is done.
// Paths in a batch are sorted and unique. onBatch runs on the watcher
// goroutine, so events arriving meanwhile are queued for the next batch.
func (w *Watcher) Run(ctx context.Context, onBatch func(paths []string)) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.isNewDir(event) {
				if err := w.addRecursive(event.Name); err != nil {
					logger.Warn("Watch %s: %v", event.Name, err)
				}
				continue
			}
			path, changed := w.handleEvent(event)
			if !changed {
				continue
			}
			w.mu.Lock()
			w.pending[path] = struct{}{}
			w.mu.Unlock()
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			if batch := w.drain(); len(batch) > 0 {
				onBatch(batch)
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// handleEvent returns the path of a created or written deck file.
// Removals, renames, chmods, directories and hidden files are ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if isHidden(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	if !w.accept(event.Name) {
		return "", false
	}
	return event.Name, true
}

func (w *Watcher) isNewDir(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) || isHidden(event.Name) {
		return false
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	batch := make([]string, 0, len(w.pending))
	for p := range w.pending {
		batch = append(batch, p)
	}
	w.pending = make(map[string]struct{})
	sort.Strings(batch)
	return batch
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watcher: add %s: %w", path, err)
		}
		return nil
	})
}

// isHidden reports whether the base name starts with a dot.
func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
