package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	w, err := New(testLogger(), Options{SettleDelay: 50 * time.Millisecond, Extensions: []string{".csv"}})
	require.NoError(t, err)
	require.NoError(t, w.Watch(dir))

	ctx, cancel := context.WithCancel(context.Background())
	go w.Start(ctx) //nolint:errcheck // Test goroutine
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	return w
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case event := <-w.Events():
		return event
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestWatch_RejectsFile(t *testing.T) {
	w, err := New(testLogger(), Options{})
	require.NoError(t, err)
	defer w.Stop() //nolint:errcheck // Test cleanup

	file := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	assert.Error(t, w.Watch(file))
}

func TestWatcher_AddedThenModified(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("Title,Author\n"), 0o600))

	event := nextEvent(t, w)
	assert.Equal(t, EventAdded, event.Type)
	assert.Equal(t, path, event.Path)
	assert.Equal(t, int64(13), event.Size)

	require.NoError(t, os.WriteFile(path, []byte("Title,Author\nDune,Herbert\n"), 0o600))
	event = nextEvent(t, w)
	assert.Equal(t, EventModified, event.Type)

	require.NoError(t, os.Remove(path))
	event = nextEvent(t, w)
	assert.Equal(t, EventRemoved, event.Type)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "export.csv"), []byte("x"), 0o600))

	event := nextEvent(t, w)
	assert.Equal(t, filepath.Join(dir, "export.csv"), event.Path)
}

func TestStop_Idempotent(t *testing.T) {
	w, err := New(testLogger(), Options{})
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestInbox_ImportsSettledCSV(t *testing.T) {
	dir := t.TempDir()

	var (
		mu       sync.Mutex
		imported []string
	)
	done := make(chan struct{}, 1)
	importF := func(_ context.Context, path string) error {
		mu.Lock()
		imported = append(imported, path)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}

	inbox, err := NewInbox(dir, importF, testLogger(), Options{SettleDelay: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = inbox.Shutdown() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go inbox.Run(ctx) //nolint:errcheck // Test goroutine

	// Give the watcher loop a moment to start before writing.
	time.Sleep(50 * time.Millisecond)
	path := filepath.Join(dir, "goodreads.csv")
	require.NoError(t, os.WriteFile(path, []byte("Title,Author,Exclusive Shelf\n"), 0o600))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("file was never imported")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{path}, imported)
}

func TestNewInbox_MissingDir(t *testing.T) {
	_, err := NewInbox(filepath.Join(t.TempDir(), "missing"), nil, testLogger(), Options{})
	assert.Error(t, err)
}
