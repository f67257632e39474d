package janus

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ResendFunc re-issues the original request through the transport stage and
// returns the new response. Recovery handlers use it after corrective
// action.
type ResendFunc func(ctx context.Context) (*http.Response, error)

// RecoveryHandler may replace a failed response with a new one, typically by
// resending after corrective action (e.g. waiting out a throttle window).
// Handlers are consulted in registration order; the first whose CanHandle
// returns true runs, and its result re-enters evaluation. There is no
// implicit retry ceiling: an always-matching handler can loop indefinitely,
// which is the handler author's responsibility (see WithRecoveryBudget).
type RecoveryHandler interface {
	CanHandle(resp *http.Response) bool
	Recover(ctx context.Context, resp *http.Response, attempt int, resend ResendFunc) (*http.Response, error)
}

// ErrorHandler converts a final unsuccessful response into a typed error.
// First matching handler wins; at most one executes.
type ErrorHandler interface {
	CanHandle(resp *http.Response) bool
	MapError(resp *http.Response, body []byte, url string) error
}

// rateLimitHeaders are consulted, first present wins, for the server's
// reported request limit.
var rateLimitHeaders = []string{
	"X-RateLimit-Limit",
	"X-Rate-Limit-Limit",
	"RequestLimit",
	"Rate-Limit-Limit",
}

// ReportedLimit extracts the server-reported request limit from a response
// header set. The boolean is false when no known header carries an integer.
func ReportedLimit(h http.Header) (int, bool) {
	for _, name := range rateLimitHeaders {
		v := strings.TrimSpace(h.Get(name))
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

// parseRetryAfter parses a Retry-After header value, supporting both
// delay-seconds and HTTP-date formats. Delays are capped at one hour.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		if seconds <= 0 {
			return 0
		}
		delay := time.Duration(seconds) * time.Second
		if delay > time.Hour {
			delay = time.Hour
		}
		return delay
	}
	if t, err := http.ParseTime(value); err == nil {
		if delay := time.Until(t); delay > 0 && delay <= time.Hour {
			return delay
		}
	}
	return 0
}

// ThrottleRecoveryHandler waits out rate-limit responses and resends. The
// delay comes from Retry-After when present, otherwise from an exponential
// backoff stepped by the recovery attempt number. Cancellation during the
// wait aborts before resending.
type ThrottleRecoveryHandler struct {
	// MaxWait caps a single wait; waits above it fail over to the error
	// mapping stage by returning the original response. Zero means no cap.
	MaxWait time.Duration

	// NewBackOff supplies the fallback wait strategy when Retry-After is
	// absent. Defaults to backoff.NewExponentialBackOff.
	NewBackOff func() backoff.BackOff
}

// NewThrottleRecoveryHandler creates the default throttle handler.
func NewThrottleRecoveryHandler() *ThrottleRecoveryHandler {
	return &ThrottleRecoveryHandler{}
}

// CanHandle matches 429 responses and 503 responses that carry Retry-After.
func (h *ThrottleRecoveryHandler) CanHandle(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusServiceUnavailable && resp.Header.Get("Retry-After") != ""
}

// Recover waits for the advertised (or computed) delay, then resends once.
// The resend's outcome replaces the throttled response, success or not.
func (h *ThrottleRecoveryHandler) Recover(ctx context.Context, resp *http.Response, attempt int, resend ResendFunc) (*http.Response, error) {
	delay := parseRetryAfter(resp.Header.Get("Retry-After"))
	if delay == 0 {
		delay = h.fallbackDelay(attempt)
	}
	if h.MaxWait > 0 && delay > h.MaxWait {
		return resp, nil
	}

	drainBody(resp)

	if err := sleepContext(ctx, delay); err != nil {
		return nil, err
	}
	return resend(ctx)
}

func (h *ThrottleRecoveryHandler) fallbackDelay(attempt int) time.Duration {
	factory := h.NewBackOff
	if factory == nil {
		factory = func() backoff.BackOff { return backoff.NewExponentialBackOff() }
	}
	bo := factory()
	delay := bo.NextBackOff()
	for i := 0; i < attempt; i++ {
		next := bo.NextBackOff()
		if next == backoff.Stop {
			break
		}
		delay = next
	}
	return delay
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ThrottleErrorHandler maps rate-limit responses that survived recovery into
// *Error values carrying the retry-after delay, the reported limit and a
// fatal flag (set when the server gave no wait hint).
type ThrottleErrorHandler struct{}

func (h *ThrottleErrorHandler) CanHandle(resp *http.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusTooManyRequests
}

func (h *ThrottleErrorHandler) MapError(resp *http.Response, body []byte, url string) error {
	retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
	limit, _ := ReportedLimit(resp.Header)
	return &Error{
		Type:       ErrorTypeThrottle,
		Message:    "request was throttled",
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		RetryAfter: retryAfter,
		Limit:      limit,
		Fatal:      retryAfter == 0,
	}
}

// RequestErrorHandler is the catch-all mapping for unsuccessful responses,
// preserving status, raw body, URL and headers for caller-side diagnostics.
type RequestErrorHandler struct{}

func (h *RequestErrorHandler) CanHandle(resp *http.Response) bool {
	return resp != nil && !successStatus(resp.StatusCode)
}

func (h *RequestErrorHandler) MapError(resp *http.Response, body []byte, url string) error {
	return &Error{
		Type:       ErrorTypeRequest,
		Message:    "request failed with status " + strconv.Itoa(resp.StatusCode),
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
}

func successStatus(code int) bool {
	return code >= 200 && code <= 299
}

// RecoveryBudget caps recovery-handler executions inside a sliding window,
// bounding the otherwise unlimited recovery loop. The zero client carries no
// budget and preserves the permissive contract.
type RecoveryBudget struct {
	max    int
	window time.Duration

	mu     sync.Mutex
	stamps []time.Time
}

// NewRecoveryBudget allows at most max recoveries per window.
func NewRecoveryBudget(max int, window time.Duration) *RecoveryBudget {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RecoveryBudget{max: max, window: window}
}

// Allow consumes one recovery slot, reporting false when the budget for the
// current window is spent.
func (b *RecoveryBudget) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-b.window)
	kept := b.stamps[:0]
	for _, s := range b.stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	b.stamps = kept
	if len(b.stamps) >= b.max {
		return false
	}
	b.stamps = append(b.stamps, now)
	return true
}
