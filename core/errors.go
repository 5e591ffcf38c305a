package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorCode categorizes gateway errors.
type ErrorCode string

const (
	ErrConfiguration ErrorCode = "configuration"
	ErrPayload       ErrorCode = "payload"
	ErrRateLimited   ErrorCode = "rate_limited"
	ErrBadRequest    ErrorCode = "bad_request"
	ErrProviderError ErrorCode = "provider_error"
	ErrTimeout       ErrorCode = "timeout"
	ErrCanceled      ErrorCode = "canceled"
)

// AIError provides rich context for callers.
type AIError struct {
	Code      ErrorCode
	Provider  Kind
	Message   string
	Status    int
	Retryable bool
	wrapped   error
}

func (e *AIError) Error() string {
	if e == nil {
		return ""
	}
	prefix := e.Message
	if e.Provider != "" {
		prefix = fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", prefix, e.wrapped)
	}
	return prefix
}

func (e *AIError) Unwrap() error { return e.wrapped }

// WrapError creates a new AIError with the provided code. Existing AIErrors
// pass through untouched.
func WrapError(err error, code ErrorCode) *AIError {
	if err == nil {
		return nil
	}
	var ai *AIError
	if errors.As(err, &ai) {
		return ai
	}
	return &AIError{Code: code, Message: err.Error(), Retryable: retryableByDefault(code), wrapped: err}
}

// NewError builds an AIError explicitly.
func NewError(code ErrorCode, message string, opts ...ErrorOption) *AIError {
	e := &AIError{Code: code, Message: message, Retryable: retryableByDefault(code)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ErrorOption mutates an AIError during construction.
type ErrorOption func(*AIError)

// WithStatus sets the HTTP status code.
func WithStatus(status int) ErrorOption {
	return func(e *AIError) { e.Status = status }
}

// WithRetryable marks whether retry is recommended.
func WithRetryable(retryable bool) ErrorOption {
	return func(e *AIError) { e.Retryable = retryable }
}

// WithProvider records which backend produced the error.
func WithProvider(kind Kind) ErrorOption {
	return func(e *AIError) { e.Provider = kind }
}

// WithWrapped attaches an underlying error.
func WithWrapped(err error) ErrorOption {
	return func(e *AIError) { e.wrapped = err }
}

func retryableByDefault(code ErrorCode) bool {
	switch code {
	case ErrProviderError, ErrRateLimited, ErrTimeout:
		return true
	default:
		return false
	}
}

// StatusError maps a non-2xx backend response onto the taxonomy.
func StatusError(kind Kind, status int, body string) *AIError {
	msg := fmt.Sprintf("%d %s: %s", status, http.StatusText(status), body)
	switch {
	case status == http.StatusTooManyRequests:
		return NewError(ErrRateLimited, msg, WithStatus(status), WithProvider(kind))
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewError(ErrTimeout, msg, WithStatus(status), WithProvider(kind))
	case status >= 400 && status < 500:
		return NewError(ErrBadRequest, msg, WithStatus(status), WithProvider(kind))
	default:
		return NewError(ErrProviderError, msg, WithStatus(status), WithProvider(kind))
	}
}

// TransportError maps a failed round trip onto the taxonomy, distinguishing
// caller cancellation from deadline expiry.
func TransportError(kind Kind, err error) *AIError {
	if err == nil {
		return nil
	}
	var ai *AIError
	if errors.As(err, &ai) {
		return ai
	}
	switch {
	case errors.Is(err, context.Canceled):
		return NewError(ErrCanceled, "request canceled", WithProvider(kind), WithWrapped(err))
	case errors.Is(err, context.DeadlineExceeded), isNetTimeout(err):
		return NewError(ErrTimeout, "request timed out", WithProvider(kind), WithWrapped(err))
	default:
		return NewError(ErrProviderError, "request failed", WithProvider(kind), WithWrapped(err))
	}
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func classify(code ErrorCode) func(error) bool {
	return func(err error) bool {
		var ai *AIError
		if err == nil {
			return false
		}
		if errors.As(err, &ai) {
			return ai.Code == code
		}
		return false
	}
}

// Helper predicates for common error handling patterns.
var (
	IsConfiguration = classify(ErrConfiguration)
	IsPayload       = classify(ErrPayload)
	IsRateLimited   = classify(ErrRateLimited)
	IsBadRequest    = classify(ErrBadRequest)
	IsProviderError = classify(ErrProviderError)
	IsTimeout       = classify(ErrTimeout)
	IsCanceled      = classify(ErrCanceled)
)

// IsRetryable reports whether another attempt may succeed. Errors outside the
// taxonomy are treated as transient provider faults.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ai *AIError
	if errors.As(err, &ai) {
		return ai.Retryable
	}
	return !errors.Is(err, context.Canceled)
}
