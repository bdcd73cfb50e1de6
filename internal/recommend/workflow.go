package recommend

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/marlowai/marlow/internal/completion"
	"github.com/marlowai/marlow/internal/domain"
)

// Completer sends chat messages to a completion endpoint.
type Completer interface {
	Complete(ctx context.Context, credential string, messages []completion.Message) (string, error)
}

// Clock returns the current time.
type Clock func() time.Time

// Status classifies the outcome of a recommendation request.
type Status string

// Request outcomes.
const (
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty"
	StatusFailed  Status = "failed"
)

// Failure reasons reported in Result.Reason.
const (
	ReasonEmptyPrompt = "empty prompt"
	ReasonRequest     = "completion request failed"
	ReasonMalformed   = "malformed completion content"
	ReasonCancelled   = "cancelled"
)

var errEmptyPrompt = errors.New("recommend: empty prompt")

// Result is the typed outcome of Workflow.Request. Recommendations is
// non-nil only for StatusSuccess.
type Result struct {
	Status          Status
	Recommendations []domain.Recommendation
	Reason          string
	Err             error
}

// Workflow sends prompts to a completion endpoint and parses the replies.
type Workflow struct {
	completer    Completer
	clock        Clock
	logger       *slog.Logger
	systemPrompt string
}

// WorkflowOption configures a Workflow.
type WorkflowOption func(*Workflow)

// WithClock sets the clock used to stamp received recommendations.
func WithClock(clock Clock) WorkflowOption {
	return func(w *Workflow) {
		w.clock = clock
	}
}

// WithSystemPrompt overrides the system message. An empty prompt sends
// the user message alone.
func WithSystemPrompt(prompt string) WorkflowOption {
	return func(w *Workflow) {
		w.systemPrompt = prompt
	}
}

// NewWorkflow creates a workflow over completer.
func NewWorkflow(completer Completer, logger *slog.Logger, opts ...WorkflowOption) *Workflow {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := &Workflow{
		completer:    completer,
		clock:        time.Now,
		logger:       logger,
		systemPrompt: SystemPrompt,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Request issues a single completion request for prompt and classifies the outcome.
func (w *Workflow) Request(ctx context.Context, credential, prompt string) Result {
	if prompt == "" {
		return w.failed(ReasonEmptyPrompt, errEmptyPrompt)
	}

	messages := make([]completion.Message, 0, 2)
	if w.systemPrompt != "" {
		messages = append(messages, completion.Message{Role: completion.RoleSystem, Content: w.systemPrompt})
	}
	messages = append(messages, completion.Message{Role: completion.RoleUser, Content: prompt})

	content, err := w.completer.Complete(ctx, credential, messages)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return w.failed(ReasonCancelled, err)
		}
		return w.failed(ReasonRequest, err)
	}

	// Stamp with the time the reply arrived, not when it was requested.
	received := w.clock()

	recs, err := Parse(content, received)
	if err != nil {
		return w.failed(ReasonMalformed, err)
	}
	if len(recs) == 0 {
		w.logger.Info("completion returned no recommendations")
		return Result{Status: StatusEmpty}
	}

	w.logger.Info("recommendations received", "count", len(recs))
	return Result{Status: StatusSuccess, Recommendations: recs}
}

// RequestRecommendations is the fail-soft form of Request: any failure is
// logged and yields an empty, non-nil list.
func (w *Workflow) RequestRecommendations(ctx context.Context, credential, prompt string) []domain.Recommendation {
	res := w.Request(ctx, credential, prompt)
	if res.Status != StatusSuccess {
		return []domain.Recommendation{}
	}
	return res.Recommendations
}

func (w *Workflow) failed(reason string, err error) Result {
	w.logger.Warn("recommendation request failed", "reason", reason, "error", err)
	return Result{Status: StatusFailed, Reason: reason, Err: err}
}
