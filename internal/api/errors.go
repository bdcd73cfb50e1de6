package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/marlowai/marlow/internal/errors"
	"github.com/marlowai/marlow/internal/store"
)

// codeRateLimited is reported for 429 responses produced outside the domain layer.
const codeRateLimited = "RATE_LIMITED"

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to render domain and store errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = newAPIError
}

func newAPIError(status int, message string, errs ...error) huma.StatusError {
	for _, err := range errs {
		if apiErr := fromError(err); apiErr != nil {
			return apiErr
		}
	}

	var details any
	if len(errs) > 0 {
		// huma passes schema validation failures here as *huma.ErrorDetail.
		msgs := make([]string, 0, len(errs))
		for _, err := range errs {
			if err != nil {
				msgs = append(msgs, err.Error())
			}
		}
		if len(msgs) > 0 {
			details = msgs
		}
	}

	return &APIError{
		status:  status,
		Code:    statusToCode(status),
		Message: message,
		Details: details,
	}
}

// fromError maps a known error to an APIError, or returns nil.
func fromError(err error) *APIError {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return &APIError{
			status:  domainErr.HTTPStatus(),
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		code := domainerrors.CodeInternal
		if storeErr.HTTPCode() == http.StatusNotFound {
			code = domainerrors.CodeNotFound
		}
		return &APIError{
			status:  storeErr.HTTPCode(),
			Code:    string(code),
			Message: storeErr.Message,
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &APIError{
			status:  http.StatusServiceUnavailable,
			Code:    string(domainerrors.CodeUpstream),
			Message: "request cancelled",
		}
	}
	return nil
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return codeRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return string(domainerrors.CodeUpstream)
	default:
		return string(domainerrors.CodeInternal)
	}
}

// fail converts a service error for a huma handler. Unknown errors are
// logged and become a 500 without leaking their text.
func (s *Server) fail(err error, message string) error {
	if apiErr := fromError(err); apiErr != nil {
		return apiErr
	}
	s.logger.Error(message, "error", err)
	return huma.Error500InternalServerError(message)
}
