package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/search"
)

func TestSearchLibrary_FindsReadAndAccepted(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedRead(t, foundation, hobbit)
	ts.seedAccepted(t, dune)

	resp := ts.api.Get("/api/v1/library/search?q=herbert")

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	res := decode[search.SearchResult](t, resp.Body.Bytes())
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Dune", res.Hits[0].Title)
	assert.Equal(t, search.KindRecommendation, res.Hits[0].Kind)
}

func TestSearchLibrary_KindFilter(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedRead(t, foundation)
	ts.seedAccepted(t, dune)

	resp := ts.api.Get("/api/v1/library/search?kind=read")

	require.Equal(t, http.StatusOK, resp.Code)
	res := decode[search.SearchResult](t, resp.Body.Bytes())
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "Foundation", res.Hits[0].Title)
}

func TestSearchLibrary_UnknownKind(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/library/search?kind=proposal")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSearchBooks_ReturnsCatalogMatches(t *testing.T) {
	ts := setupTestServer(t)
	ts.catalog.books = []domain.SearchBook{
		{ID: "a1", Title: "Dune", Author: "Frank Herbert"},
		{ID: "a2", Title: "Dune Messiah", Author: "Frank Herbert"},
	}

	resp := ts.api.Get("/api/v1/search?q=dune&limit=1")

	require.Equal(t, http.StatusOK, resp.Code)
	body := decode[SearchBooksResponse](t, resp.Body.Bytes())
	require.Len(t, body.Books, 1)
	assert.Equal(t, "a1", body.Books[0].ID)
}

func TestSearchBooks_CatalogFailureIsEmpty(t *testing.T) {
	ts := setupTestServer(t)
	ts.catalog.err = errors.New("catalog down")

	resp := ts.api.Get("/api/v1/search?q=dune")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"books":[]}`, stripSchema(t, resp.Body.Bytes()))
}
