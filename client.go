package janus

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gustavorviana/JanusRequest/internal/memberpath"
)

// RoundTripper is the transport seam: an HTTP send primitive that takes a
// prepared request and returns a response or fails on transport errors.
// Implemented by http.Transport; the default chain ends in http.Client.Do.
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc adapts a function to RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps the transport stage for cross-cutting concerns (auth,
// tracing, logging).
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// Validator checks a request body before any network call is attempted. It
// is an external collaborator; validation failures are surfaced as typed
// errors and the request is never sent.
type Validator interface {
	Validate(v any) error
}

// Option represents a configuration option.
type Option func(*Client)

// Client materializes declaratively-annotated requests and dispatches them
// with content negotiation and a two-stage recovery/error-mapping handler
// chain. All per-dispatch state is call-scoped; a single Client is safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	settings   Settings
	registry   *TranslatorRegistry
	validator  Validator
	middleware []Middleware

	recovery      []RecoveryHandler
	errorHandlers []ErrorHandler
	budget        *RecoveryBudget

	breaker *CircuitBreaker
	gate    *Gate

	metrics *MetricsCollector
	logger  Logger
	debug   *DebugConfig

	validationError error
}

// New constructs a Client using the provided functional options. A best
// effort validation is performed; call ValidationError for errors.
func New(options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		settings:   DefaultSettings(),
		registry:   NewTranslatorRegistry(),
		recovery:   []RecoveryHandler{NewThrottleRecoveryHandler()},
		errorHandlers: []ErrorHandler{
			&ThrottleErrorHandler{},
			&RequestErrorHandler{},
		},
		debug: DefaultDebugConfig(),
	}

	for _, option := range options {
		option(c)
	}
	c.settings = c.settings.normalized()

	if err := c.ValidateConfiguration(); err != nil {
		c.validationError = err
	}

	return c
}

// ValidationError returns the configuration error captured at construction,
// nil when the client is usable.
func (c *Client) ValidationError() error { return c.validationError }

// Registry returns the client's translator registry for per-client
// registrations.
func (c *Client) Registry() *TranslatorRegistry { return c.registry }

// Send dispatches the request and applies the recovery and error-mapping
// chains. The response body is left unread for the caller on success; on a
// mapped failure the returned *Error carries the body, URL and headers.
// Transport failures propagate unchanged.
func (c *Client) Send(ctx context.Context, req *Request) (*http.Response, error) {
	if c.validationError != nil {
		return nil, c.validationError
	}
	if req == nil {
		return nil, &Error{Type: ErrorTypeValidation, Message: "nil request"}
	}

	start := time.Now()
	requestID := c.newRequestID()

	prepared, err := c.prepare(ctx, req, requestID)
	if err != nil {
		c.metrics.RecordError(errorType(err), req.method, req.path)
		return nil, err
	}

	endpoint := prepared.endpoint()
	c.metrics.RecordRequestStart(req.method, endpoint)
	defer c.metrics.RecordRequestEnd(req.method, endpoint)

	resp, err := c.roundTrip(prepared.httpReq)
	if err != nil {
		c.metrics.RecordError(errorType(err), req.method, endpoint)
		return nil, err
	}

	resp, err = c.recover(ctx, prepared, resp, requestID)
	if err != nil {
		c.metrics.RecordError(errorType(err), req.method, endpoint)
		return nil, err
	}

	c.metrics.RecordRequest(req.method, endpoint, resp.StatusCode, time.Since(start))

	if successStatus(resp.StatusCode) {
		if c.debugEnabled() && c.debug.LogRequests {
			c.logger.Debug("Request completed", "requestID", requestID, "status", resp.StatusCode, "url", prepared.url)
		}
		return resp, nil
	}

	return c.mapError(resp, prepared, requestID)
}

// Execute dispatches the request and deserializes a successful response body
// into out (a non-nil pointer). A 204 response skips deserialization and
// leaves out at its zero value. A request- or type-declared custom decoder
// takes precedence over the translator registry.
func (c *Client) Execute(ctx context.Context, req *Request, out any) (*http.Response, error) {
	resp, err := c.Send(ctx, req)
	if err != nil || out == nil || resp == nil {
		return resp, err
	}
	defer drainBody(resp)

	if resp.StatusCode == http.StatusNoContent {
		return resp, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, err
	}
	if len(data) == 0 {
		return resp, nil
	}

	translator, err := c.responseTranslator(req, resp)
	if err != nil {
		return resp, err
	}
	if err := translator.Unmarshal(data, out); err != nil {
		return resp, &Error{
			Type:    ErrorTypeUnsupportedMediaType,
			Message: "deserializing response body",
			Cause:   err,
			URL:     requestURL(resp),
			Header:  resp.Header,
			Body:    data,
		}
	}
	return resp, nil
}

// Receive dispatches req through c and decodes the response into a fresh T.
func Receive[T any](ctx context.Context, c *Client, req *Request) (T, *http.Response, error) {
	var out T
	resp, err := c.Execute(ctx, req, &out)
	return out, resp, err
}

// preparedRequest is the call-scoped assembly of one dispatch. The body
// bytes are retained so recovery handlers can resend.
type preparedRequest struct {
	httpReq     *http.Request
	url         string
	method      string
	header      http.Header
	body        []byte
	contentType string
}

func (p *preparedRequest) endpoint() string {
	if u, err := url.Parse(p.url); err == nil && u.Path != "" {
		return u.Path
	}
	return p.url
}

// prepare runs the assembly stages: validate, expand template, build the
// merged query, attach headers/cookies, serialize the body.
func (c *Client) prepare(ctx context.Context, req *Request, requestID string) (*preparedRequest, error) {
	if err := c.validateBody(req.body); err != nil {
		return nil, err
	}

	formats := c.settings.formats()
	mediaType := req.mediaType
	if mediaType == "" {
		mediaType = c.settings.DefaultMediaType
	}

	path, err := expandTemplate(req.path, req.body, formats)
	if err != nil {
		return nil, err
	}
	if c.debugEnabled() && c.debug.LogTemplate {
		c.logger.Debug("Template expanded", "requestID", requestID, "template", req.path, "path", path)
	}

	query := req.query
	if req.queryFromBody(mediaType) && req.body != nil && !memberpath.Primitive(reflect.TypeOf(req.body)) {
		bodyQuery, err := flattenValues(req.body, QueryModeDefault, false, formats)
		if err != nil {
			return nil, err
		}
		query = bodyQuery.Merge(req.query)
	}
	if c.debugEnabled() && c.debug.LogQuery {
		c.logger.Debug("Query built", "requestID", requestID, "query", query.Encode())
	}

	fullURL := buildURL(c.settings.BaseURL, path, query)

	var bodyBytes []byte
	contentType := ""
	if req.bodyBearing() && req.body != nil && NormalizeMediaType(mediaType) != MediaTypeQueryString {
		translator, ok := c.registry.Lookup(mediaType)
		c.metrics.RecordTranslatorLookup(mediaType, ok)
		if !ok {
			return nil, &Error{
				Type:    ErrorTypeUnsupportedMediaType,
				Message: "no translator registered for media type " + mediaType,
				URL:     fullURL,
			}
		}
		if ctm, ok := translator.(ContentTypeMarshaler); ok {
			bodyBytes, contentType, err = ctm.MarshalWithContentType(req.body)
		} else {
			bodyBytes, err = translator.Marshal(req.body)
			contentType = mediaType
		}
		if err != nil {
			return nil, &Error{
				Type:    ErrorTypeValidation,
				Message: "serializing request body",
				Cause:   err,
				URL:     fullURL,
			}
		}
	}

	var bodyReader io.Reader
	if bodyBytes != nil {
		bodyReader = bytes.NewReader(bodyBytes)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, fullURL, bodyReader)
	if err != nil {
		return nil, &Error{Type: ErrorTypeValidation, Message: "building request", Cause: err, URL: fullURL}
	}
	if bodyBytes != nil {
		data := bodyBytes
		httpReq.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}

	header := httpReq.Header
	if c.settings.UserAgent != "" {
		header.Set("User-Agent", c.settings.UserAgent)
	}
	if c.settings.AuthHeader != "" {
		header.Set(c.settings.AuthHeader, c.settings.AuthValue)
	}
	for k, values := range req.headers {
		for _, v := range values {
			header.Add(k, v)
		}
	}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	if cookie := synthesizeCookieHeader(req.cookies); cookie != "" {
		header.Set("Cookie", cookie)
	}

	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("Request prepared", "requestID", requestID, "method", req.method, "url", fullURL)
	}

	return &preparedRequest{
		httpReq:     httpReq,
		url:         fullURL,
		method:      req.method,
		header:      header,
		body:        bodyBytes,
		contentType: contentType,
	}, nil
}

// validateBody delegates to the configured validator; nil and primitive-like
// bodies are skipped.
func (c *Client) validateBody(body any) error {
	if c.validator == nil || body == nil {
		return nil
	}
	if memberpath.Primitive(reflect.TypeOf(body)) {
		return nil
	}
	if err := c.validator.Validate(body); err != nil {
		return &Error{Type: ErrorTypeValidation, Message: "request body failed validation", Cause: err}
	}
	return nil
}

// roundTrip sends through the gate, the breaker and the middleware chain,
// ending in the HTTP client. Transport errors are returned unchanged.
func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	if c.gate != nil {
		if !c.gate.Allow() {
			return nil, &Error{Type: ErrorTypeGate, Message: "request gate exhausted", Cause: ErrGateExhausted, URL: req.URL.String()}
		}
		c.metrics.RecordGateTokens("default", c.gate.Tokens())
	}
	if c.breaker != nil && !c.breaker.Allow() {
		c.metrics.RecordCircuitBreakerState("default", c.breaker.State())
		return nil, &Error{Type: ErrorTypeCircuitOpen, Message: "circuit breaker is open", Cause: ErrCircuitOpen, URL: req.URL.String()}
	}

	resp, err := c.executeMiddleware(req)

	if c.breaker != nil {
		if err != nil || (resp != nil && resp.StatusCode >= 500) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
		c.metrics.RecordCircuitBreakerState("default", c.breaker.State())
	}
	return resp, err
}

func (c *Client) executeMiddleware(req *http.Request) (*http.Response, error) {
	final := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return c.httpClient.Do(r)
	})

	var next RoundTripper = final
	for i := len(c.middleware) - 1; i >= 0; i-- {
		mw := c.middleware[i]
		cur := next
		next = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return mw(r, cur)
		})
	}
	return next.RoundTrip(req)
}

// recover runs the recovery chain: while the response is unsuccessful, the
// first matching handler executes and its result replaces the response. A
// handler returning the response unchanged stops the loop so the error
// mapping stage can take over.
func (c *Client) recover(ctx context.Context, prepared *preparedRequest, resp *http.Response, requestID string) (*http.Response, error) {
	resend := func(ctx context.Context) (*http.Response, error) {
		clone := prepared.httpReq.Clone(ctx)
		if prepared.body != nil {
			clone.Body = io.NopCloser(bytes.NewReader(prepared.body))
		}
		return c.roundTrip(clone)
	}

	attempt := 0
	for !successStatus(resp.StatusCode) {
		handler := matchRecovery(c.recovery, resp)
		if handler == nil {
			break
		}
		if c.budget != nil && !c.budget.Allow() {
			return resp, &Error{
				Type:    ErrorTypeRecoveryBudget,
				Message: "recovery budget exceeded",
				Cause:   ErrRecoveryBudgetExceeded,
				URL:     prepared.url,
			}
		}

		if c.debugEnabled() && c.debug.LogRecovery {
			c.logger.Info("Recovery attempt", "requestID", requestID, "attempt", attempt, "status", resp.StatusCode, "handler", handlerName(handler))
		}
		c.metrics.RecordRecovery(prepared.method, prepared.endpoint(), handlerName(handler))

		next, err := handler.Recover(ctx, resp, attempt, resend)
		if err != nil {
			return nil, err
		}
		if next == resp {
			break
		}
		resp = next
		attempt++
	}
	return resp, nil
}

func matchRecovery(handlers []RecoveryHandler, resp *http.Response) RecoveryHandler {
	for _, h := range handlers {
		if h.CanHandle(resp) {
			return h
		}
	}
	return nil
}

// mapError runs the error-mapping stage over the final unsuccessful
// response. With no matching handler the raw response is handed back.
func (c *Client) mapError(resp *http.Response, prepared *preparedRequest, requestID string) (*http.Response, error) {
	body, _ := io.ReadAll(resp.Body)
	drainBody(resp)
	resp.Body = io.NopCloser(bytes.NewReader(body))

	for _, h := range c.errorHandlers {
		if !h.CanHandle(resp) {
			continue
		}
		err := h.MapError(resp, body, prepared.url)
		if e, ok := err.(*Error); ok && e.RequestID == "" {
			e.RequestID = requestID
		}
		c.metrics.RecordError(errorType(err), prepared.method, prepared.endpoint())
		if c.debugEnabled() && c.debug.LogRequests {
			c.logger.Warn("Request failed", "requestID", requestID, "status", resp.StatusCode, "url", prepared.url)
		}
		return resp, err
	}
	return resp, nil
}

// responseTranslator picks the decoder for a response body: a custom
// decoder declared on the request (or its registered type) wins over the
// registry, which is keyed by the response Content-Type and falls back to
// the request media type.
func (c *Client) responseTranslator(req *Request, resp *http.Response) (Translator, error) {
	if req.decoder != nil {
		return req.decoder, nil
	}
	mediaType := resp.Header.Get("Content-Type")
	if NormalizeMediaType(mediaType) == "" {
		mediaType = req.mediaType
	}
	if mediaType == "" {
		mediaType = c.settings.DefaultMediaType
	}
	translator, ok := c.registry.Lookup(mediaType)
	c.metrics.RecordTranslatorLookup(NormalizeMediaType(mediaType), ok)
	if !ok {
		return nil, &Error{
			Type:    ErrorTypeUnsupportedMediaType,
			Message: "no translator registered for media type " + NormalizeMediaType(mediaType),
			URL:     requestURL(resp),
			Header:  resp.Header,
		}
	}
	return translator, nil
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}

func (c *Client) newRequestID() string {
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		return c.debug.RequestIDGen()
	}
	return ""
}

func newRequestID() string {
	return uuid.NewString()
}

func errorType(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Type
	}
	return "Transport"
}

func handlerName(h any) string {
	t := reflect.TypeOf(h)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func requestURL(resp *http.Response) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return ""
}

func synthesizeCookieHeader(cookies []*http.Cookie) string {
	if len(cookies) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

func drainBody(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
