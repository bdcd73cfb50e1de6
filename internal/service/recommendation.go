package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/marlowai/marlow/internal/domain"
	domainerrors "github.com/marlowai/marlow/internal/errors"
	"github.com/marlowai/marlow/internal/goodreads"
	"github.com/marlowai/marlow/internal/normalize"
	"github.com/marlowai/marlow/internal/recommend"
	"github.com/marlowai/marlow/internal/validation"
)

// CredentialSource supplies the completion-endpoint credential.
type CredentialSource interface {
	Credential(ctx context.Context) (string, error)
}

// RecommendationOptions configures generation.
type RecommendationOptions struct {
	Count  int
	Dedupe recommend.DedupePolicy
	// ExcludeAll lists proposed and rejected titles in the prompt's exclusion
	// block as well as accepted ones.
	ExcludeAll bool
}

// RecommendationOption configures a RecommendationService.
type RecommendationOption func(*RecommendationService)

// WithClock sets the clock used for task timestamps and default completion dates.
func WithClock(now func() time.Time) RecommendationOption {
	return func(s *RecommendationService) {
		s.now = now
	}
}

// RecommendationService generates proposals and moves recommendations
// between the proposed, accepted, rejected and read lists.
type RecommendationService struct {
	lists       *Lists
	workflow    *recommend.Workflow
	credentials CredentialSource
	opts        RecommendationOptions
	validate    *validation.Validator
	logger      *slog.Logger
	now         func() time.Time

	// Generation tasks; see generation.go.
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	tasks   map[string]*generationTask
	applyMu sync.Mutex
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(
	lists *Lists,
	workflow *recommend.Workflow,
	credentials CredentialSource,
	opts RecommendationOptions,
	logger *slog.Logger,
	options ...RecommendationOption,
) *RecommendationService {
	if opts.Count <= 0 {
		opts.Count = 5
	}
	if opts.Dedupe == "" {
		opts.Dedupe = recommend.DedupeOff
	}

	baseCtx, stop := context.WithCancel(context.Background())
	s := &RecommendationService{
		lists:       lists,
		workflow:    workflow,
		credentials: credentials,
		opts:        opts,
		validate:    validation.New(),
		logger:      logger,
		now:         time.Now,
		baseCtx:     baseCtx,
		stop:        stop,
		tasks:       make(map[string]*generationTask),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// ListAccepted returns the accepted recommendations sorted by title.
func (s *RecommendationService) ListAccepted() []domain.Recommendation {
	return s.lists.Recommendations.List()
}

// ListProposed returns the proposals awaiting review.
func (s *RecommendationService) ListProposed() []domain.Recommendation {
	return s.lists.Proposed.List()
}

// ListRejected returns the rejected proposals.
func (s *RecommendationService) ListRejected() []domain.Recommendation {
	return s.lists.Removed.List()
}

// Accept moves a proposal to the accepted recommendations.
func (s *RecommendationService) Accept(ctx context.Context, title string) (domain.Recommendation, error) {
	return s.moveProposal(ctx, title, "accept", s.lists.Recommendations.Add)
}

// Reject moves a proposal to the rejected list.
func (s *RecommendationService) Reject(ctx context.Context, title string) (domain.Recommendation, error) {
	return s.moveProposal(ctx, title, "reject", s.lists.Removed.Add)
}

// moveProposal adds the proposal to its target before removing it from
// proposed, so a failed second write leaves a duplicate rather than a loss.
func (s *RecommendationService) moveProposal(
	ctx context.Context,
	title, action string,
	add func(context.Context, domain.Recommendation) error,
) (domain.Recommendation, error) {
	rec, ok := s.lists.Proposed.Get(title)
	if !ok {
		return domain.Recommendation{}, domainerrors.NotFoundf("no proposal titled %q", title)
	}

	if err := add(ctx, rec); err != nil {
		return domain.Recommendation{}, fmt.Errorf("%s proposal: %w", action, err)
	}
	if err := s.lists.Proposed.RemoveKey(ctx, title); err != nil {
		return domain.Recommendation{}, fmt.Errorf("%s proposal: %w", action, err)
	}

	s.logger.Info("proposal reviewed", "action", action, "title", title)
	return rec, nil
}

// MarkRead moves an accepted recommendation to the read list with the
// given rating. An empty date means today.
func (s *RecommendationService) MarkRead(ctx context.Context, title string, rating int, dateCompleted string) (domain.ReadBook, error) {
	rec, ok := s.lists.Recommendations.Get(title)
	if !ok {
		return domain.ReadBook{}, domainerrors.NotFoundf("no recommendation titled %q", title)
	}

	date := normalize.Date(dateCompleted)
	if date == "" {
		date = s.now().Format(validation.DateLayout)
	}
	book := rec.AsRead(rating, date)
	if err := s.validate.Validate(book); err != nil {
		return domain.ReadBook{}, err
	}

	if err := s.lists.Read.Add(ctx, book); err != nil {
		return domain.ReadBook{}, fmt.Errorf("mark read: %w", err)
	}
	if err := s.lists.Recommendations.RemoveKey(ctx, title); err != nil {
		return domain.ReadBook{}, fmt.Errorf("mark read: %w", err)
	}

	s.logger.Info("recommendation marked read", "title", title, "rating", rating)
	return book, nil
}

// RemoveAccepted deletes an accepted recommendation. Removing an absent
// title is not an error.
func (s *RecommendationService) RemoveAccepted(ctx context.Context, title string) error {
	if err := s.lists.Recommendations.RemoveKey(ctx, title); err != nil {
		return fmt.Errorf("remove recommendation: %w", err)
	}
	return nil
}

// ClearAccepted empties the accepted recommendations.
func (s *RecommendationService) ClearAccepted(ctx context.Context) error {
	return s.clear(ctx, "accepted", s.lists.Recommendations.Clear)
}

// ClearProposed empties the proposals awaiting review.
func (s *RecommendationService) ClearProposed(ctx context.Context) error {
	return s.clear(ctx, "proposed", s.lists.Proposed.Clear)
}

// ClearRejected empties the rejected list.
func (s *RecommendationService) ClearRejected(ctx context.Context) error {
	return s.clear(ctx, "rejected", s.lists.Removed.Clear)
}

func (s *RecommendationService) clear(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return fmt.Errorf("clear %s list: %w", name, err)
	}
	s.logger.Info("list cleared", "list", name)
	return nil
}

// ExportAccepted writes the accepted recommendations as CSV.
func (s *RecommendationService) ExportAccepted(w io.Writer) error {
	return goodreads.WriteRecommendations(w, s.ListAccepted())
}
