package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/marlowai/marlow/internal/domain"
	domainerrors "github.com/marlowai/marlow/internal/errors"
	"github.com/marlowai/marlow/internal/id"
	"github.com/marlowai/marlow/internal/metrics"
	"github.com/marlowai/marlow/internal/recommend"
)

const (
	maxRecommendationCount = 20

	// Finished tasks stay queryable this long.
	generationRetention = time.Hour

	// Failure reasons that happen after the completion reply.
	reasonStoreFailed = "storing proposals failed"
)

// GenerateOptions selects what a generation is based on.
type GenerateOptions struct {
	// Titles limits the prompt to these read books. Empty means the whole read list.
	Titles []string `json:"titles,omitempty"`
	// Count overrides the configured number of recommendations.
	Count int `json:"count,omitempty"`
}

// Generation is the state of one recommendation generation task.
type Generation struct {
	ID         string                  `json:"id"`
	Status     domain.GenerationStatus `json:"status"`
	Books      int                     `json:"books"`
	Proposals  []domain.Recommendation `json:"proposals"`
	Dropped    []string                `json:"dropped,omitempty"`
	Reason     string                  `json:"reason,omitempty"`
	StartedAt  time.Time               `json:"startedAt"`
	FinishedAt *time.Time              `json:"finishedAt,omitempty"`
}

type generationTask struct {
	cancel context.CancelFunc
	done   chan struct{}
	gen    Generation
}

type generationPlan struct {
	credential string
	prompt     string
	books      int
}

// Generate runs a generation and waits for it. Cancelling ctx cancels the
// task; a cancelled task never touches the proposals.
func (s *RecommendationService) Generate(ctx context.Context, opts GenerateOptions) (*Generation, error) {
	plan, err := s.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	task, err := s.register(plan, cancel)
	if err != nil {
		return nil, err
	}

	s.run(taskCtx, task, plan)
	return s.snapshot(task), nil
}

// StartGeneration starts a generation in the background and returns its
// running state immediately. Precondition failures are returned before
// any task is created.
func (s *RecommendationService) StartGeneration(ctx context.Context, opts GenerateOptions) (*Generation, error) {
	if s.baseCtx.Err() != nil {
		return nil, domainerrors.Conflict("service is shutting down")
	}

	plan, err := s.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	taskCtx, cancel := context.WithCancel(s.baseCtx)
	task, err := s.register(plan, cancel)
	if err != nil {
		cancel()
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(taskCtx, task, plan)
	}()

	return s.snapshot(task), nil
}

// GetGeneration returns the current state of a task.
func (s *RecommendationService) GetGeneration(id string) (*Generation, error) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return nil, domainerrors.NotFoundf("generation %q not found", id)
	}
	return s.snapshot(task), nil
}

// CancelGeneration cancels a running task. Cancelling a finished task
// returns its final state unchanged.
func (s *RecommendationService) CancelGeneration(id string) (*Generation, error) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return nil, domainerrors.NotFoundf("generation %q not found", id)
	}

	// Serialized with the apply step in run: once cancel returns, the
	// task can no longer write proposals.
	s.applyMu.Lock()
	task.cancel()
	s.applyMu.Unlock()

	s.logger.Info("generation cancel requested", "generation_id", id)
	return s.snapshot(task), nil
}

// WaitGeneration blocks until the task finishes or ctx is done.
func (s *RecommendationService) WaitGeneration(ctx context.Context, id string) (*Generation, error) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return nil, domainerrors.NotFoundf("generation %q not found", id)
	}

	select {
	case <-task.done:
		return s.snapshot(task), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown cancels every running task and waits for them to finish.
func (s *RecommendationService) Shutdown() error {
	s.stop()
	s.wg.Wait()
	return nil
}

func (s *RecommendationService) prepare(ctx context.Context, opts GenerateOptions) (*generationPlan, error) {
	count := opts.Count
	if count == 0 {
		count = s.opts.Count
	}
	if count < 1 || count > maxRecommendationCount {
		return nil, domainerrors.Validationf("count must be between 1 and %d", maxRecommendationCount)
	}

	books := s.lists.Read.List()
	if len(opts.Titles) > 0 {
		books = make([]domain.ReadBook, 0, len(opts.Titles))
		for _, title := range opts.Titles {
			book, ok := s.lists.Read.Get(title)
			if !ok {
				return nil, domainerrors.NotFoundf("book %q is not in the read list", title)
			}
			books = append(books, book)
		}
	}
	if len(books) == 0 {
		return nil, domainerrors.Wrap(recommend.ErrNoRatedBooks, domainerrors.CodePrecondition,
			"add books to the read list before generating recommendations")
	}

	credential, err := s.credentials.Credential(ctx)
	if err != nil {
		return nil, err
	}

	exclude := s.lists.Recommendations.Titles()
	if s.opts.ExcludeAll {
		exclude = s.lists.SeenTitles()
	}

	prompt, err := recommend.BuildPrompt(books, exclude, count)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeValidation, "cannot build prompt from %d books", len(books))
	}

	return &generationPlan{credential: credential, prompt: prompt, books: len(books)}, nil
}

func (s *RecommendationService) register(plan *generationPlan, cancel context.CancelFunc) (*generationTask, error) {
	taskID, err := id.Generate("gen")
	if err != nil {
		return nil, fmt.Errorf("generate task ID: %w", err)
	}

	now := s.now()
	task := &generationTask{
		cancel: cancel,
		done:   make(chan struct{}),
		gen: Generation{
			ID:        taskID,
			Status:    domain.GenerationRunning,
			Books:     plan.books,
			Proposals: []domain.Recommendation{},
			StartedAt: now,
		},
	}

	s.mu.Lock()
	s.pruneLocked(now)
	s.tasks[taskID] = task
	s.mu.Unlock()

	s.logger.Info("generation started", "generation_id", taskID, "books", plan.books)
	return task, nil
}

func (s *RecommendationService) run(ctx context.Context, task *generationTask, plan *generationPlan) {
	metrics.TrackGeneration(true)
	defer metrics.TrackGeneration(false)

	res := s.workflow.Request(ctx, plan.credential, plan.prompt)

	var (
		status    domain.GenerationStatus
		proposals []domain.Recommendation
		dropped   []string
		reason    = res.Reason
	)

	s.applyMu.Lock()
	switch {
	case ctx.Err() != nil:
		status, reason = domain.GenerationCancelled, recommend.ReasonCancelled
	case res.Status == recommend.StatusFailed:
		status = domain.GenerationFailed
	case res.Status == recommend.StatusEmpty:
		status = domain.GenerationEmpty
	default:
		proposals, dropped = s.opts.Dedupe.Apply(res.Recommendations, s.lists.SeenTitles())
		if len(proposals) == 0 {
			status = domain.GenerationEmpty
			break
		}
		// The apply write must not be torn by a late cancellation of ctx.
		if err := s.lists.Proposed.AddMany(context.WithoutCancel(ctx), proposals); err != nil {
			s.logger.Error("failed to store proposals", "generation_id", task.gen.ID, "error", err)
			status, reason, proposals = domain.GenerationFailed, reasonStoreFailed, nil
			break
		}
		status = domain.GenerationSucceeded
	}
	s.applyMu.Unlock()

	if len(dropped) > 0 {
		s.logger.Info("dropped previously seen proposals", "generation_id", task.gen.ID, "titles", dropped)
	}

	s.finish(task, status, proposals, dropped, reason)
	metrics.RecordGeneration(string(status), len(proposals))

	if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
		s.logger.Warn("generation finished with error",
			"generation_id", task.gen.ID,
			"status", status,
			"error", res.Err,
		)
		return
	}
	s.logger.Info("generation finished",
		"generation_id", task.gen.ID,
		"status", status,
		"proposals", len(proposals),
	)
}

func (s *RecommendationService) finish(task *generationTask, status domain.GenerationStatus, proposals []domain.Recommendation, dropped []string, reason string) {
	now := s.now()

	s.mu.Lock()
	task.gen.Status = status
	if proposals != nil {
		task.gen.Proposals = proposals
	}
	task.gen.Dropped = dropped
	task.gen.Reason = reason
	task.gen.FinishedAt = &now
	s.mu.Unlock()

	close(task.done)
}

func (s *RecommendationService) snapshot(task *generationTask) *Generation {
	s.mu.Lock()
	defer s.mu.Unlock()

	gen := task.gen
	gen.Proposals = slices.Clone(task.gen.Proposals)
	gen.Dropped = slices.Clone(task.gen.Dropped)
	return &gen
}

// pruneLocked forgets finished tasks older than the retention window.
func (s *RecommendationService) pruneLocked(now time.Time) {
	for taskID, task := range s.tasks {
		if task.gen.FinishedAt != nil && now.Sub(*task.gen.FinishedAt) > generationRetention {
			delete(s.tasks, taskID)
		}
	}
}
