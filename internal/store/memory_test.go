package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CountsWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1")))
	require.NoError(t, m.Set(ctx, "a", []byte("2")))
	require.NoError(t, m.Delete(ctx, "a"))

	assert.Equal(t, 2, m.SetCount())
	assert.Equal(t, 1, m.DeleteCount())
}

func TestMemory_FailWrites(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	boom := errors.New("disk full")

	m.FailWrites(boom)
	assert.ErrorIs(t, m.Set(ctx, "a", []byte("1")), boom)
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	m.FailWrites(nil)
	assert.NoError(t, m.Set(ctx, "a", []byte("1")))
}

func TestMemory_ValuesAreCopied(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	buf := []byte("abc")

	require.NoError(t, m.Set(ctx, "a", buf))
	buf[0] = 'z'

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestError_Is(t *testing.T) {
	wrapped := ErrNotFound.WithCause(errors.New("inner"))
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrClosed)
	assert.Equal(t, 404, wrapped.HTTPCode())
	assert.Contains(t, wrapped.Error(), "inner")
}
