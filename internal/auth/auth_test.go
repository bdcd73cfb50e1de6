package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, first, keyLength)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second, "key is stable across loads")
}

func TestLoadOrGenerateKey_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("abc"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte(strings.Repeat("zz", 32)), 0o600))
	_, err = LoadOrGenerateKey(dir)
	assert.Error(t, err)
}

func TestDeriveKey(t *testing.T) {
	dir := t.TempDir()

	a, err := DeriveKey("correct horse", dir)
	require.NoError(t, err)
	assert.Len(t, a, keyLength)

	b, err := DeriveKey("correct horse", dir)
	require.NoError(t, err)
	assert.Equal(t, a, b, "salt is persisted")

	c, err := DeriveKey("battery staple", dir)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	_, err = DeriveKey("", dir)
	assert.Error(t, err)
	_, err = DeriveKey(strings.Repeat("x", maxPassphraseLength+1), dir)
	assert.Error(t, err)
}

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	key, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	s, err := NewSealer(key)
	require.NoError(t, err)
	return s
}

func TestSealer_RoundTrip(t *testing.T) {
	s := newTestSealer(t)
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }

	sealed := s.Seal("sk-abcdef123456")
	assert.True(t, strings.HasPrefix(sealed, "v4.local."))
	assert.NotContains(t, sealed, "sk-abcdef123456")

	got, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk-abcdef123456", got)

	at, err := s.IssuedAt(sealed)
	require.NoError(t, err)
	assert.True(t, issued.Equal(at))
}

func TestSealer_WrongKey(t *testing.T) {
	sealed := newTestSealer(t).Seal("sk-secret")

	_, err := newTestSealer(t).Open(sealed)
	assert.ErrorIs(t, err, ErrInvalidSeal)

	_, err = newTestSealer(t).Open("not a token")
	assert.ErrorIs(t, err, ErrInvalidSeal)
}

func TestNewSealer_KeyLength(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, "*****", Mask("abcde"))
	assert.Equal(t, "********3456", Mask("sk-abcdef123456"))
}
