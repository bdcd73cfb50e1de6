package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/auth"
	"github.com/marlowai/marlow/internal/completion"
	"github.com/marlowai/marlow/internal/domain"
	"github.com/marlowai/marlow/internal/recommend"
	"github.com/marlowai/marlow/internal/search"
	"github.com/marlowai/marlow/internal/service"
	"github.com/marlowai/marlow/internal/store"
)

const duneReply = `[
	{"title":"Dune","author":"Frank Herbert","explanation":"Sweeping world-building."},
	{"title":"Hyperion","author":"Dan Simmons","explanation":"Layered pilgrim tales."}
]`

var testNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api       humatest.TestAPI
	lists     *service.Lists
	repo      *store.Memory
	completer *stubCompleter
	catalog   *stubCatalog
}

// stubCompleter answers every completion request with a canned reply.
type stubCompleter struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
}

func (c *stubCompleter) Complete(_ context.Context, _ string, _ []completion.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.content, c.err
}

func (c *stubCompleter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// stubCatalog returns fixed catalog matches, or fails when err is set.
type stubCatalog struct {
	books []domain.SearchBook
	err   error
}

func (c *stubCatalog) Search(_ context.Context, _ string, limit int) ([]domain.SearchBook, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.books) > limit {
		return c.books[:limit], nil
	}
	return c.books, nil
}

// setupTestServer creates a test server backed by an in-memory store.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithOptions(t, Options{Version: "test"})
}

func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo := store.NewMemory()
	lists, err := service.OpenLists(ctx, repo, logger)
	require.NoError(t, err)

	key, err := auth.LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	sealer, err := auth.NewSealer(key)
	require.NoError(t, err)

	index, err := search.NewSearchIndex(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	searchService, err := service.NewSearchService(index, lists, logger)
	require.NoError(t, err)

	clock := func() time.Time { return testNow }
	completer := &stubCompleter{content: duneReply}
	catalog := &stubCatalog{}
	settings := service.NewSettingsService(repo, sealer, logger)
	workflow := recommend.NewWorkflow(completer, logger, recommend.WithClock(clock))
	recommendations := service.NewRecommendationService(
		lists, workflow, settings, service.RecommendationOptions{}, logger, service.WithClock(clock))
	t.Cleanup(func() { _ = recommendations.Shutdown() })

	services := &Services{
		Library:        service.NewLibraryService(lists, logger),
		Recommendation: recommendations,
		Settings:       settings,
		BookSearch:     service.NewBookSearchService(catalog, logger),
		Search:         searchService,
	}

	s := NewServer(repo, services, opts, logger)
	return &testServer{
		Server:    s,
		api:       humatest.Wrap(t, s.API()),
		lists:     lists,
		repo:      repo,
		completer: completer,
		catalog:   catalog,
	}
}

func (ts *testServer) seedRead(t *testing.T, books ...domain.ReadBook) {
	t.Helper()
	require.NoError(t, ts.lists.Read.AddMany(context.Background(), books))
}

func (ts *testServer) seedProposed(t *testing.T, recs ...domain.Recommendation) {
	t.Helper()
	require.NoError(t, ts.lists.Proposed.AddMany(context.Background(), recs))
}

func (ts *testServer) seedAccepted(t *testing.T, recs ...domain.Recommendation) {
	t.Helper()
	require.NoError(t, ts.lists.Recommendations.AddMany(context.Background(), recs))
}

func (ts *testServer) setCredential(t *testing.T) {
	t.Helper()
	_, err := ts.services.Settings.SetCredential(context.Background(), "sk-test-credential")
	require.NoError(t, err)
}

// decode unmarshals a response body into T.
func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", string(body))
	return v
}

// stripSchema removes the "$schema" link huma adds to JSON bodies.
func stripSchema(t *testing.T, body []byte) string {
	t.Helper()
	m := decode[map[string]any](t, body)
	delete(m, "$schema")
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}
