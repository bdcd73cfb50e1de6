package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marlowai/marlow/internal/store"
)

// brokenRepo fails every read.
type brokenRepo struct {
	store.Repository
}

func (brokenRepo) Get(context.Context, string) ([]byte, error) {
	return nil, store.ErrClosed
}

func TestHealthCheck_Success(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")

	assert.Equal(t, http.StatusOK, resp.Code)
	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, "healthy", health.Components["store"].Status)
	assert.Equal(t, "healthy", health.Components["search"].Status)
}

func TestHealthCheck_StoreFailure(t *testing.T) {
	ts := setupTestServer(t)
	ts.Server.repo = brokenRepo{Repository: ts.repo}

	resp := ts.api.Get("/health")

	assert.Equal(t, http.StatusOK, resp.Code)
	health := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy", health.Components["store"].Status)
}

func TestErrorResponse_StoreWriteFailure(t *testing.T) {
	ts := setupTestServer(t)
	ts.repo.FailWrites(errors.New("disk full"))

	resp := ts.api.Post("/api/v1/books", map[string]any{"title": "Dune", "author": "Frank Herbert"})

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	apiErr := decode[APIError](t, resp.Body.Bytes())
	assert.NotContains(t, apiErr.Message, "disk full")
	assert.Zero(t, ts.lists.Read.Len())
}
