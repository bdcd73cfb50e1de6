package googlebooks

import (
	"errors"
	"fmt"
)

// Sentinel errors for Google Books API operations.
var (
	ErrRateLimited = errors.New("googlebooks: rate limited by server")
	ErrBadRequest  = errors.New("googlebooks: bad request")
	ErrForbidden   = errors.New("googlebooks: forbidden (check API key)")
	ErrServer      = errors.New("googlebooks: server error")
	ErrEmptyQuery  = errors.New("googlebooks: empty query")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // Operation: "search"
	Query string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("googlebooks %s [%q]: %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, query string, err error) error {
	return &Error{Op: op, Query: query, Err: err}
}
