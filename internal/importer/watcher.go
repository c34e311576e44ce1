// Package importer watches a drop directory for student CSV files and imports
// each new or modified file.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"placement/internal/errors"
	"placement/internal/store"

	"github.com/fsnotify/fsnotify"
)

// Importer loads one CSV stream. *service.Service implements it.
type Importer interface {
	ImportCSV(ctx context.Context, r io.Reader) (store.ImportResult, error)
}

// Watcher imports CSV files dropped into a directory.
type Watcher struct {
	mu sync.Mutex

	dir         string
	importer    Importer
	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}
	done       chan struct{}

	// onImport, when set, is called after every file attempt.
	onImport func(path string, result store.ImportResult, err error)
	logger   *errors.Logger

	running bool
}

// NewWatcher creates a watcher for dir. It does not touch the filesystem
// until Start.
func NewWatcher(dir string, debounceDelay time.Duration, importer Importer, logger *errors.Logger) *Watcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	return &Watcher{
		dir:           dir,
		importer:      importer,
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// OnImport registers a callback invoked after each file is processed.
func (w *Watcher) OnImport(fn func(path string, result store.ImportResult, err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onImport = fn
}

// Start imports the CSV files already present and then watches for changes.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("import watcher is already running")
	}

	info, err := os.Stat(w.dir)
	if err != nil {
		w.mu.Unlock()
		return errors.NewIOError(errors.ErrCodeFileNotFound, "import directory not found", err).
			WithContext("dir", w.dir)
	}
	if !info.IsDir() {
		w.mu.Unlock()
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "import path is not a directory", nil).
			WithContext("dir", w.dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return fmt.Errorf("failed to watch directory %s: %w", w.dir, err)
	}
	w.fsWatcher = watcher
	w.running = true
	w.mu.Unlock()

	w.logger.Info("Import watcher started",
		"dir", w.dir,
		"debounce_delay", w.debounceDelay)

	w.importChanged(ctx)
	go w.watchLoop(ctx)
	return nil
}

// Stop stops watching. It waits for an in-flight import to finish.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	err := w.fsWatcher.Close()
	w.running = false
	w.mu.Unlock()

	<-w.done
	w.logger.Info("Import watcher stopped")
	return err
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if shouldProcessEvent(event) {
				w.scheduleImport()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "Import watcher error")

		case <-w.reloadChan:
			w.importChanged(ctx)

		case <-ctx.Done():
			return

		case <-w.stopChan:
			return
		}
	}
}

func shouldProcessEvent(event fsnotify.Event) bool {
	if !isCSV(event.Name) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func isCSV(name string) bool {
	base := filepath.Base(name)
	return strings.EqualFold(filepath.Ext(base), ".csv") && !strings.HasPrefix(base, ".")
}

// scheduleImport debounces bursts of events from a single copy or save.
func (w *Watcher) scheduleImport() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}

// changedFiles lists CSV files whose modification time moved since the last import.
func (w *Watcher) changedFiles() []string {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.LogError(err, "Failed to read import directory", "dir", w.dir)
		return nil
	}

	var changed []string
	for _, e := range entries {
		if e.IsDir() || !isCSV(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(w.dir, e.Name())
		if last, seen := w.lastModTime[path]; !seen || info.ModTime().After(last) {
			w.lastModTime[path] = info.ModTime()
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	return changed
}

func (w *Watcher) importChanged(ctx context.Context) {
	for _, path := range w.changedFiles() {
		result, err := w.importFile(ctx, path)

		w.mu.Lock()
		cb := w.onImport
		w.mu.Unlock()
		if cb != nil {
			cb(path, result, err)
		}
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) (store.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		w.logger.LogError(err, "Failed to open import file", "file", path)
		return store.ImportResult{}, err
	}
	defer f.Close()

	result, err := w.importer.ImportCSV(ctx, f)
	if err != nil {
		w.logger.LogError(err, "Student import failed", "file", path)
		return store.ImportResult{}, err
	}
	w.logger.Info("Student file imported",
		"file", path,
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped)
	return result, nil
}
