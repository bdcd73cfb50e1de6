// Package completion is a client for OpenAI-compatible chat-completion endpoints.
package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/marlowai/marlow/internal/metrics"
	"github.com/marlowai/marlow/internal/ratelimit"
)

const (
	// DefaultURL is the OpenAI chat completions endpoint.
	DefaultURL = "https://api.openai.com/v1/chat/completions"
	// DefaultModel is the chat model requested when none is configured.
	DefaultModel = "gpt-3.5-turbo"
	// DefaultTemperature is the sampling temperature requested when none is configured.
	DefaultTemperature = 0.75

	// Rate limit: 1 request per second per host, burst of 2
	defaultRPS   = 1.0
	defaultBurst = 2

	defaultTimeout = 60 * time.Second

	// Breaker opens after this many consecutive transport or server failures
	defaultBreakerFailures = 5
	defaultBreakerCooldown = 30 * time.Second

	// Cap on response bodies; chat replies are a few KB.
	maxResponseBytes = 4 << 20

	breakerName = "completion"
)

// Config configures a Client. Zero fields fall back to the defaults above.
// A nil Temperature means DefaultTemperature; an explicit zero is sent as is.
type Config struct {
	URL         string
	Model       string
	Temperature *float64
	Timeout     time.Duration

	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Client is a rate-limited chat completion client guarded by a circuit breaker.
type Client struct {
	http     *http.Client
	endpoint *url.URL
	model    string
	temp     float64
	limiter  *ratelimit.KeyedRateLimiter
	breaker  *gobreaker.CircuitBreaker[string]
	logger   *slog.Logger

	newRequestID func() string
}

// New creates a new completion client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	temp := DefaultTemperature
	if cfg.Temperature != nil {
		temp = *cfg.Temperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = defaultBreakerCooldown
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse completion url: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("completion url %q: scheme must be http or https", cfg.URL)
	}

	c := &Client{
		http:         &http.Client{Timeout: cfg.Timeout},
		endpoint:     endpoint,
		model:        cfg.Model,
		temp:         temp,
		limiter:      ratelimit.New(defaultRPS, defaultBurst),
		logger:       logger,
		newRequestID: uuid.NewString,
	}

	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// Only transport and server failures say the endpoint is down.
		IsSuccessful: func(err error) bool {
			return err == nil || !(errors.Is(err, ErrServer) || isTransport(err))
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})

	return c, nil
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// Model returns the model name sent with each request.
func (c *Client) Model() string { return c.model }

// Complete sends messages and returns the content of the first choice.
func (c *Client) Complete(ctx context.Context, credential string, messages []Message) (string, error) {
	host := c.endpoint.Host
	requestID := c.newRequestID()

	if credential == "" {
		return "", wrapError("complete", host, "", ErrMissingCredential)
	}

	start := time.Now()
	content, err := c.breaker.Execute(func() (string, error) {
		return c.do(ctx, credential, requestID, messages)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrCircuitOpen
	}
	metrics.RecordCompletion(outcome(err), time.Since(start))

	if err != nil {
		return "", wrapError("complete", host, requestID, err)
	}
	return content, nil
}

func (c *Client) do(ctx context.Context, credential, requestID string, messages []Message) (string, error) {
	if err := c.limiter.Wait(ctx, c.endpoint.Host); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temp,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", "Marlow/1.0")

	c.logger.Debug("completion request",
		"host", c.endpoint.Host,
		"model", c.model,
		"request_id", requestID,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &transportError{err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &transportError{err: fmt.Errorf("read response: %w", err)}
	}

	if err := checkStatus(resp.StatusCode, raw); err != nil {
		return "", err
	}
	return extractContent(raw)
}

func checkStatus(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= 500:
		return ErrServer
	case code == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, errorMessage(body))
	default:
		return fmt.Errorf("unexpected status %d: %s", code, errorMessage(body))
	}
}

// extractContent pulls choices[0].message.content out of a response body.
func extractContent(raw []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	msg := resp.Choices[0].Message
	if msg == nil || msg.Content == "" {
		return "", fmt.Errorf("%w: empty message content", ErrMalformedResponse)
	}
	return msg.Content, nil
}

// errorMessage returns the endpoint's error message, or a truncated body.
func errorMessage(body []byte) string {
	var resp chatResponse
	if json.Unmarshal(body, &resp) == nil && resp.Error != nil && resp.Error.Message != "" {
		return resp.Error.Message
	}
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}

// transportError marks failures reaching the endpoint at all.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return "transport: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func isTransport(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var te *transportError
	return errors.As(err, &te)
}
