package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/auth"
	"github.com/marlowai/marlow/internal/completion"
	"github.com/marlowai/marlow/internal/domain"
	domainerrors "github.com/marlowai/marlow/internal/errors"
	"github.com/marlowai/marlow/internal/store"
)

func setupTestSettings(t *testing.T) (*SettingsService, *store.Memory) {
	t.Helper()
	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	sealer, err := auth.NewSealer(key)
	require.NoError(t, err)
	repo := store.NewMemory()
	return NewSettingsService(repo, sealer, testLogger()), repo
}

func TestSettings_CredentialLifecycle(t *testing.T) {
	svc, repo := setupTestSettings(t)
	ctx := context.Background()

	status, err := svc.CredentialStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Configured)

	_, err = svc.Credential(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrPrecondition)
	assert.ErrorIs(t, err, completion.ErrMissingCredential)

	status, err = svc.SetCredential(ctx, " sk-live-0123456789abcd ")
	require.NoError(t, err)
	assert.True(t, status.Configured)
	assert.Equal(t, "********abcd", status.Masked)
	assert.NotNil(t, status.UpdatedAt)

	raw, err := repo.Get(ctx, domain.KeyCredential)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-live", "credential is sealed at rest")

	secret, err := svc.Credential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sk-live-0123456789abcd", secret)

	require.NoError(t, svc.DeleteCredential(ctx))
	_, err = svc.Credential(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrPrecondition)
}

func TestSettings_RejectsEmptyCredential(t *testing.T) {
	svc, _ := setupTestSettings(t)

	_, err := svc.SetCredential(context.Background(), "   ")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSettings_UnreadableCredentialIsUnset(t *testing.T) {
	svc, repo := setupTestSettings(t)
	// A plain value left by an older build, or one sealed with a lost key.
	repo.Put(domain.KeyCredential, []byte("sk-plain"))

	status, err := svc.CredentialStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Configured)

	_, err = svc.Credential(context.Background())
	assert.ErrorIs(t, err, domainerrors.ErrPrecondition)
}
