package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"placement/internal/errors"
	"placement/internal/store"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingImporter struct {
	mu    sync.Mutex
	files []string
	fail  bool
}

func (r *recordingImporter) ImportCSV(_ context.Context, rd io.Reader) (store.ImportResult, error) {
	b, err := io.ReadAll(rd)
	if err != nil {
		return store.ImportResult{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = append(r.files, string(b))
	if r.fail {
		return store.ImportResult{}, fmt.Errorf("bad csv")
	}
	return store.ImportResult{Created: 1}, nil
}

func (r *recordingImporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

func newTestWatcher(t *testing.T, dir string, imp Importer) *Watcher {
	t.Helper()
	w := NewWatcher(dir, 20*time.Millisecond, imp, errors.NewLogger(slog.LevelError))
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestWatcherImportsExistingFilesOnStart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.CSV"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.csv"), []byte("x"), 0o644))

	imp := &recordingImporter{}
	w := newTestWatcher(t, dir, imp)
	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())

	imp.mu.Lock()
	defer imp.mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, imp.files)
}

func TestWatcherImportsNewFiles(t *testing.T) {
	dir := t.TempDir()
	imp := &recordingImporter{}
	w := newTestWatcher(t, dir, imp)

	results := make(chan string, 4)
	w.OnImport(func(path string, result store.ImportResult, err error) {
		assert.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		results <- filepath.Base(path)
	})
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch.csv"), []byte("rows"), 0o644))

	select {
	case name := <-results:
		assert.Equal(t, "batch.csv", name)
	case <-time.After(5 * time.Second):
		t.Fatal("file was not imported")
	}
	assert.Equal(t, 1, imp.count())
}

func TestWatcherReportsImportErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"), []byte("x"), 0o644))

	var got error
	w := newTestWatcher(t, dir, &recordingImporter{fail: true})
	w.OnImport(func(_ string, _ store.ImportResult, err error) { got = err })
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, got)
}

func TestWatcherStartErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name    string
		path    string
		errType errors.ErrorType
	}{
		{"missing directory", filepath.Join(dir, "nope"), errors.ErrorTypeIO},
		{"not a directory", file, errors.ErrorTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWatcher(tt.path, 0, &recordingImporter{}, errors.NewLogger(slog.LevelError))
			err := w.Start(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType))
			assert.False(t, w.IsRunning())
		})
	}

	w := newTestWatcher(t, dir, &recordingImporter{})
	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))
}

func TestShouldProcessEvent(t *testing.T) {
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/in/a.csv", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/in/a.csv", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/in/a.csv", Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: "/in/a.csv", Op: fsnotify.Remove}, false},
		{fsnotify.Event{Name: "/in/a.csv", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/in/a.txt", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/in/.a.csv.swp", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldProcessEvent(tt.event), "%s %s", tt.event.Op, tt.event.Name)
	}
}
