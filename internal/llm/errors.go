package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from provider")

// ErrorType classifies a provider failure.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeAuthentication
	ErrorTypeRateLimit
	ErrorTypeBadRequest
	ErrorTypeNotFound
	ErrorTypeServerError
	ErrorTypeNetwork
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// ProviderError normalizes provider-specific failures so that callers and
// middlewares can decide on retries without knowing each SDK.
type ProviderError struct {
	Type       ErrorType
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + " error"
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	msg += " [" + e.Type.String() + "]"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient.
func (e *ProviderError) Retryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a transient provider failure. Context
// cancellation is never retryable, even when the provider wrapped it.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyStatus builds a ProviderError from an HTTP status code.
func classifyStatus(provider string, status int, message string, err error) *ProviderError {
	var t ErrorType
	switch {
	case status == 401 || status == 403:
		t = ErrorTypeAuthentication
	case status == 429:
		t = ErrorTypeRateLimit
	case status == 404:
		t = ErrorTypeNotFound
	case status == 408:
		t = ErrorTypeTimeout
	case status >= 500:
		t = ErrorTypeServerError
	case status >= 400:
		t = ErrorTypeBadRequest
	default:
		t = ErrorTypeUnknown
	}
	return &ProviderError{Type: t, Provider: provider, StatusCode: status, Message: message, Err: err}
}

// classifyTransport handles errors that never produced an HTTP status.
func classifyTransport(provider string, err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ProviderError{Type: ErrorTypeTimeout, Provider: provider, Message: "request timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &ProviderError{Type: ErrorTypeUnknown, Provider: provider, Message: "request canceled", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ProviderError{Type: ErrorTypeNetwork, Provider: provider, Err: err}
	}
	return &ProviderError{Type: ErrorTypeUnknown, Provider: provider, Err: err}
}
