package fetch

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of a failed fetch.
type ErrorType string

const (
	// ErrorTypeNetwork indicates a transport-level failure (connection refused, DNS, TLS...).
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout indicates the request exceeded the client timeout or context deadline.
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeRateLimit indicates HTTP 429.
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates HTTP 5xx.
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates HTTP 4xx other than 429.
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeCircuitOpen indicates the request was refused locally after repeated failures.
	ErrorTypeCircuitOpen ErrorType = "circuit_open"
	// ErrorTypeUnknown covers any other non-2xx status.
	ErrorTypeUnknown ErrorType = "unknown"
)

const maxErrorBody = 512

// FetchError is returned when the upstream could not be reached or answered
// with a non-2xx status. The cached entry for the request is left untouched.
type FetchError struct {
	Type       ErrorType
	URL        string
	StatusCode int
	Body       []byte
	Message    string
	Cause      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	msg = fmt.Sprintf("%s fetching %s: %s", msg, e.URL, e.Message)
	if len(e.Body) > 0 {
		body := e.Body
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError wraps a transport failure.
func NewNetworkError(url string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeNetwork,
		URL:     url,
		Message: "request failed",
		Cause:   cause,
	}
}

// NewTimeoutError wraps a timed out request.
func NewTimeoutError(url string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeTimeout,
		URL:     url,
		Message: "request timed out",
		Cause:   cause,
	}
}

// NewCircuitOpenError reports a request refused by the circuit breaker.
func NewCircuitOpenError(url string, cause error) *FetchError {
	return &FetchError{
		Type:    ErrorTypeCircuitOpen,
		URL:     url,
		Message: "too many recent failures, request not sent",
		Cause:   cause,
	}
}

// ClassifyHTTPError builds a FetchError for a non-2xx status.
func ClassifyHTTPError(url string, statusCode int, body []byte) *FetchError {
	e := &FetchError{
		URL:        url,
		StatusCode: statusCode,
		Body:       body,
		Message:    http.StatusText(statusCode),
	}
	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Type = ErrorTypeRateLimit
	case statusCode >= 500:
		e.Type = ErrorTypeServer
	case statusCode >= 400:
		e.Type = ErrorTypeClient
	default:
		e.Type = ErrorTypeUnknown
		e.Message = fmt.Sprintf("unexpected status code: %d", statusCode)
	}
	return e
}

// MalformedResponseError is returned when a payload cannot be decoded or lacks
// a field the normalized model requires.
type MalformedResponseError struct {
	Source string
	Reason string
	Cause  error
}

func (e *MalformedResponseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed response from %s: %s: %v", e.Source, e.Reason, e.Cause)
	}
	return fmt.Sprintf("malformed response from %s: %s", e.Source, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// NewMalformedResponseError creates a MalformedResponseError.
func NewMalformedResponseError(source, reason string, cause error) *MalformedResponseError {
	return &MalformedResponseError{Source: source, Reason: reason, Cause: cause}
}

// Malformedf formats a MalformedResponseError without an underlying cause.
func Malformedf(source, format string, args ...any) *MalformedResponseError {
	return &MalformedResponseError{Source: source, Reason: fmt.Sprintf(format, args...)}
}
