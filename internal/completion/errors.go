package completion

import (
	"errors"
	"fmt"
)

// Sentinel errors for completion endpoint operations.
var (
	ErrMissingCredential = errors.New("completion: missing credential")
	ErrUnauthorized      = errors.New("completion: credential rejected")
	ErrRateLimited       = errors.New("completion: rate limited by server")
	ErrBadRequest        = errors.New("completion: bad request")
	ErrServer            = errors.New("completion: server error")
	ErrMalformedResponse = errors.New("completion: malformed response")
	ErrCircuitOpen       = errors.New("completion: endpoint unavailable, circuit open")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op        string // Operation: "complete"
	Host      string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("completion %s [%s/%s]: %v", e.Op, e.Host, e.RequestID, e.Err)
	}
	return fmt.Sprintf("completion %s [%s]: %v", e.Op, e.Host, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, host, requestID string, err error) error {
	return &Error{
		Op:        op,
		Host:      host,
		RequestID: requestID,
		Err:       err,
	}
}

// outcome maps an error to the metrics label for a finished request.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrServer):
		return "server"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	default:
		return "transport"
	}
}
