package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var name string
	err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "kv", name)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetGet_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "read", []byte(`[{"title":"Dune"}]`)))
	got, err := s.Get(ctx, "read")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"Dune"}]`, string(got))

	// Overwrite replaces the whole value.
	require.NoError(t, s.Set(ctx, "read", []byte(`[]`)))
	got, err = s.Get(ctx, "read")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))
}

func TestSet_NilValueStoresEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "token", nil))
	got, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "proposed", []byte(`[]`)))
	require.NoError(t, s.Delete(ctx, "proposed"))

	_, err := s.Get(ctx, "proposed")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Absent keys delete cleanly.
	assert.NoError(t, s.Delete(ctx, "proposed"))
}

func TestKeys_Sorted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"removed", "read", "proposed"} {
		require.NoError(t, s.Set(ctx, k, []byte(`[]`)))
	}

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"proposed", "read", "removed"}, keys)
}

func TestUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Set(ctx, "read", []byte(`[]`)))
	got, err := s.UpdatedAt(ctx, "read")
	require.NoError(t, err)
	assert.True(t, fixed.Equal(got))

	_, err = s.UpdatedAt(ctx, "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "read", []byte(`[1]`)))
	require.NoError(t, s.Close())

	s, err = Open(dbPath, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "read")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(got))
}
