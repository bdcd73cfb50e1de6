package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlowai/marlow/internal/completion"
	"github.com/marlowai/marlow/internal/domain"
	domainerrors "github.com/marlowai/marlow/internal/errors"
	"github.com/marlowai/marlow/internal/recommend"
)

func seedRead(t *testing.T, lists *Lists, books ...domain.ReadBook) {
	t.Helper()
	require.NoError(t, lists.Read.AddMany(context.Background(), books))
}

var foundation = domain.ReadBook{Title: "Foundation", Author: "Isaac Asimov", Rating: 4}

func TestGenerate_AppendsProposals(t *testing.T) {
	fc := newFakeCompleter(duneReply)
	svc, lists, _ := setupTestRecommendations(t, fc, RecommendationOptions{})
	seedRead(t, lists, foundation)

	gen, err := svc.Generate(context.Background(), GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.GenerationSucceeded, gen.Status)
	assert.Equal(t, 1, gen.Books)
	assert.Len(t, gen.Proposals, 2)
	require.NotNil(t, gen.FinishedAt)
	assert.Equal(t, []string{"Dune", "Hyperion"}, lists.Proposed.Titles())
	dune, _ := lists.Proposed.Get("Dune")
	assert.Equal(t, "2024-05-01", dune.DateGenerated)

	got, err := svc.GetGeneration(gen.ID)
	require.NoError(t, err)
	assert.Equal(t, gen, got)
}

func TestGenerate_RefusesEmptyReadList(t *testing.T) {
	fc := newFakeCompleter(duneReply)
	svc, _, _ := setupTestRecommendations(t, fc, RecommendationOptions{})

	_, err := svc.Generate(context.Background(), GenerateOptions{})

	assert.ErrorIs(t, err, domainerrors.ErrPrecondition)
	assert.ErrorIs(t, err, recommend.ErrNoRatedBooks)
	assert.Zero(t, fc.Calls(), "endpoint must not be called")
}

func TestGenerate_RequiresCredential(t *testing.T) {
	fc := newFakeCompleter(duneReply)
	lists, _ := setupTestLists(t)
	seedRead(t, lists, foundation)
	svc := NewRecommendationService(lists, recommend.NewWorkflow(fc, testLogger()), staticCredentials(""), RecommendationOptions{}, testLogger())
	t.Cleanup(func() { _ = svc.Shutdown() })

	_, err := svc.Generate(context.Background(), GenerateOptions{})

	assert.ErrorIs(t, err, domainerrors.ErrPrecondition)
	assert.ErrorIs(t, err, completion.ErrMissingCredential)
	assert.Zero(t, fc.Calls())
}

func TestGenerate_SelectedTitles(t *testing.T) {
	svc, lists, _ := setupTestRecommendations(t, newFakeCompleter(duneReply), RecommendationOptions{})
	seedRead(t, lists, foundation, domain.ReadBook{Title: "Emma", Author: "Jane Austen", Rating: 2})

	gen, err := svc.Generate(context.Background(), GenerateOptions{Titles: []string{"Emma"}})
	require.NoError(t, err)
	assert.Equal(t, 1, gen.Books)

	_, err = svc.Generate(context.Background(), GenerateOptions{Titles: []string{"Persuasion"}})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestGenerate_InvalidCount(t *testing.T) {
	svc, lists, _ := setupTestRecommendations(t, newFakeCompleter(duneReply), RecommendationOptions{})
	seedRead(t, lists, foundation)

	_, err := svc.Generate(context.Background(), GenerateOptions{Count: 50})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestGenerate_DedupeOffPassesDuplicatesThrough(t *testing.T) {
	svc, lists, _ := setupTestRecommendations(t, newFakeCompleter(duneReply), RecommendationOptions{Dedupe: recommend.DedupeOff})
	seedRead(t, lists, foundation)
	require.NoError(t, lists.Recommendations.Add(context.Background(), hyperion))

	gen, err := svc.Generate(context.Background(), GenerateOptions{})
	require.NoError(t, err)

	assert.Len(t, gen.Proposals, 2)
	assert.Contains(t, lists.Proposed.Titles(), "Hyperion")
}

func TestGenerate_DedupeTitleDropsSeen(t *testing.T) {
	svc, lists, _ := setupTestRecommendations(t, newFakeCompleter(duneReply), RecommendationOptions{Dedupe: recommend.DedupeTitle})
	seedRead(t, lists, foundation)
	require.NoError(t, lists.Removed.Add(context.Background(), domain.Recommendation{Title: "hyperion", Author: "Dan Simmons"}))

	gen, err := svc.Generate(context.Background(), GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.GenerationSucceeded, gen.Status)
	assert.Equal(t, []string{"Hyperion"}, gen.Dropped)
	assert.Equal(t, []string{"Dune"}, lists.Proposed.Titles())
}

func TestGenerate_EmptyAndFailedReplies(t *testing.T) {
	tests := []struct {
		name    string
		content string
		err     error
		status  domain.GenerationStatus
	}{
		{"empty array", "[]", nil, domain.GenerationEmpty},
		{"not json", "not json", nil, domain.GenerationFailed},
		{"endpoint error", "", completion.ErrServer, domain.GenerationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newFakeCompleter(tt.content)
			fc.err = tt.err
			svc, lists, _ := setupTestRecommendations(t, fc, RecommendationOptions{})
			seedRead(t, lists, foundation)

			gen, err := svc.Generate(context.Background(), GenerateOptions{})
			require.NoError(t, err)

			assert.Equal(t, tt.status, gen.Status)
			assert.NotNil(t, gen.Proposals)
			assert.Empty(t, gen.Proposals)
			assert.Zero(t, lists.Proposed.Len())
		})
	}
}

func TestGenerate_StoreFailure(t *testing.T) {
	svc, lists, repo := setupTestRecommendations(t, newFakeCompleter(duneReply), RecommendationOptions{})
	seedRead(t, lists, foundation)
	repo.FailWrites(errors.New("disk full"))

	gen, err := svc.Generate(context.Background(), GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.GenerationFailed, gen.Status)
	assert.Equal(t, reasonStoreFailed, gen.Reason)
	assert.Zero(t, lists.Proposed.Len())
}

func TestStartGeneration_RunsInBackground(t *testing.T) {
	svc, lists, _ := setupTestRecommendations(t, newFakeCompleter(duneReply), RecommendationOptions{})
	seedRead(t, lists, foundation)

	gen, err := svc.StartGeneration(context.Background(), GenerateOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, gen.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done, err := svc.WaitGeneration(ctx, gen.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.GenerationSucceeded, done.Status)
	assert.Equal(t, 2, lists.Proposed.Len())
}

func TestCancelGeneration_NeverTouchesProposals(t *testing.T) {
	fc := newFakeCompleter(duneReply)
	fc.block = true
	svc, lists, repo := setupTestRecommendations(t, fc, RecommendationOptions{})
	seedRead(t, lists, foundation)
	writes := repo.SetCount()

	gen, err := svc.StartGeneration(context.Background(), GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.GenerationRunning, gen.Status)

	select {
	case <-fc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("completion was never requested")
	}

	_, err = svc.CancelGeneration(gen.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done, err := svc.WaitGeneration(ctx, gen.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.GenerationCancelled, done.Status)
	assert.Equal(t, recommend.ReasonCancelled, done.Reason)
	assert.Zero(t, lists.Proposed.Len())
	assert.Equal(t, writes, repo.SetCount(), "cancelled task must not write")
}

func TestGenerate_CallerCancellation(t *testing.T) {
	fc := newFakeCompleter(duneReply)
	fc.block = true
	svc, lists, _ := setupTestRecommendations(t, fc, RecommendationOptions{})
	seedRead(t, lists, foundation)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-fc.started
		cancel()
	}()

	gen, err := svc.Generate(ctx, GenerateOptions{})
	require.NoError(t, err)

	assert.Equal(t, domain.GenerationCancelled, gen.Status)
	assert.Zero(t, lists.Proposed.Len())
}

func TestGeneration_UnknownID(t *testing.T) {
	svc, _, _ := setupTestRecommendations(t, newFakeCompleter(duneReply), RecommendationOptions{})

	_, err := svc.GetGeneration("gen-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = svc.CancelGeneration("gen-missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestStartGeneration_AfterShutdown(t *testing.T) {
	svc, lists, _ := setupTestRecommendations(t, newFakeCompleter(duneReply), RecommendationOptions{})
	seedRead(t, lists, foundation)
	require.NoError(t, svc.Shutdown())

	_, err := svc.StartGeneration(context.Background(), GenerateOptions{})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}
