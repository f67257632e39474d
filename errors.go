package janus

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error type constants used in Error.Type.
const (
	ErrorTypeInvalidPath          = "InvalidPath"
	ErrorTypeUnsupportedMediaType = "UnsupportedMediaType"
	ErrorTypeValidation           = "Validation"
	ErrorTypeThrottle             = "Throttle"
	ErrorTypeRequest              = "Request"
	ErrorTypeCircuitOpen          = "CircuitOpen"
	ErrorTypeGate                 = "Gate"
	ErrorTypeRecoveryBudget       = "RecoveryBudget"
	ErrorTypeConfiguration        = "Configuration"
)

// Sentinel errors for common failure scenarios
var (
	// ErrCircuitOpen is returned when the circuit breaker is in open state
	ErrCircuitOpen = errors.New("janus: circuit open")

	// ErrGateExhausted is returned when the client-side request gate has no tokens
	ErrGateExhausted = errors.New("janus: request gate exhausted")

	// ErrRecoveryBudgetExceeded is returned when the recovery budget is exhausted
	ErrRecoveryBudgetExceeded = errors.New("janus: recovery budget exceeded")
)

// Error is the typed error produced by the pipeline. Transport errors are the
// one exception: they propagate from the underlying RoundTripper unchanged
// and are never wrapped in an *Error.
type Error struct {
	Type    string
	Message string
	Cause   error

	// Request/response diagnostics, populated where available so callers
	// can log failures without re-issuing the request.
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string

	// Throttle metadata (Type == ErrorTypeThrottle).
	RetryAfter time.Duration
	Limit      int
	Fatal      bool
}

// Error implements error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *Error) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if e.RetryAfter > 0 {
		info += fmt.Sprintf("Retry After: %v\n", e.RetryAfter)
	}
	if e.Limit > 0 {
		info += fmt.Sprintf("Reported Limit: %d\n", e.Limit)
	}
	if len(e.Body) > 0 {
		info += fmt.Sprintf("Body: %s\n", string(e.Body))
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// IsThrottle reports whether err is a throttling failure.
func IsThrottle(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrorTypeThrottle
}

// IsTransient determines if an error represents a failure that might succeed
// on a later attempt: throttling that is not fatal, 5xx request failures and
// the client-side gate/breaker sentinels. Validation, path and media-type
// errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrGateExhausted) {
		return true
	}
	var e *Error
	if errors.As(err, &e) {
		switch e.Type {
		case ErrorTypeThrottle:
			return !e.Fatal
		case ErrorTypeRequest:
			return e.StatusCode >= 500
		case ErrorTypeCircuitOpen, ErrorTypeGate:
			return true
		}
	}
	return false
}
