package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/completion"
	"github.com/marlowai/marlow/internal/recommend"
	"github.com/marlowai/marlow/internal/store"
)

const duneReply = `[
	{"title":"Dune","author":"Frank Herbert","explanation":"Sweeping world-building."},
	{"title":"Hyperion","author":"Dan Simmons","explanation":"Layered pilgrim tales."}
]`

var testNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestLists(t *testing.T) (*Lists, *store.Memory) {
	t.Helper()
	repo := store.NewMemory()
	lists, err := OpenLists(context.Background(), repo, testLogger())
	require.NoError(t, err)
	return lists, repo
}

// fakeCompleter returns a canned reply. When block is set, it waits until
// the request context is done and then replies anyway, as if the answer
// arrived just as the caller gave up.
type fakeCompleter struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
	block   bool
	started chan struct{}
}

func newFakeCompleter(content string) *fakeCompleter {
	return &fakeCompleter{content: content, started: make(chan struct{}, 1)}
}

func (f *fakeCompleter) Complete(ctx context.Context, _ string, _ []completion.Message) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}
	if block {
		<-ctx.Done()
	}
	return f.content, f.err
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type staticCredentials string

func (c staticCredentials) Credential(context.Context) (string, error) {
	if c == "" {
		return "", missingCredential()
	}
	return string(c), nil
}

func setupTestRecommendations(t *testing.T, fc *fakeCompleter, opts RecommendationOptions) (*RecommendationService, *Lists, *store.Memory) {
	t.Helper()
	lists, repo := setupTestLists(t)
	clock := func() time.Time { return testNow }
	workflow := recommend.NewWorkflow(fc, testLogger(), recommend.WithClock(clock))
	svc := NewRecommendationService(lists, workflow, staticCredentials("sk-test"), opts, testLogger(), WithClock(clock))
	t.Cleanup(func() { _ = svc.Shutdown() })
	return svc, lists, repo
}
