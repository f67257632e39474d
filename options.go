package janus

import (
	"fmt"
	"net/http"
	"time"
)

// WithSettings replaces the whole settings value.
func WithSettings(s Settings) Option {
	return func(c *Client) {
		c.settings = s.normalized()
	}
}

// WithBaseURL sets the base address prefixed to relative request paths.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.settings.BaseURL = baseURL
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.settings.UserAgent = ua
	}
}

// WithAuthHeader configures one static authentication header. No refresh
// logic is applied.
func WithAuthHeader(name, value string) Option {
	return func(c *Client) {
		c.settings.AuthHeader = name
		c.settings.AuthValue = value
	}
}

// WithDefaultMediaType sets the media type used when a request declares
// none.
func WithDefaultMediaType(mediaType string) Option {
	return func(c *Client) {
		c.settings.DefaultMediaType = mediaType
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if c.httpClient != nil {
			c.httpClient.Timeout = d
		}
	}
}

// WithRegistry replaces the translator registry.
func WithRegistry(r *TranslatorRegistry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// WithTranslator registers a translator on the client's registry.
func WithTranslator(mediaType string, t Translator) Option {
	return func(c *Client) {
		c.registry.Register(mediaType, t)
	}
}

// WithValidator sets the body validator collaborator.
func WithValidator(v Validator) Option {
	return func(c *Client) {
		c.validator = v
	}
}

// WithMiddleware adds middleware to the transport stage.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithRecoveryHandler appends recovery handlers, consulted in registration
// order after the defaults.
func WithRecoveryHandler(handlers ...RecoveryHandler) Option {
	return func(c *Client) {
		c.recovery = append(c.recovery, handlers...)
	}
}

// WithRecoveryHandlers replaces the recovery chain, defaults included.
func WithRecoveryHandlers(handlers ...RecoveryHandler) Option {
	return func(c *Client) {
		c.recovery = handlers
	}
}

// WithErrorHandler appends error-mapping handlers ahead of the catch-all.
func WithErrorHandler(handlers ...ErrorHandler) Option {
	return func(c *Client) {
		c.errorHandlers = append(handlers, c.errorHandlers...)
	}
}

// WithErrorHandlers replaces the error-mapping chain, defaults included.
func WithErrorHandlers(handlers ...ErrorHandler) Option {
	return func(c *Client) {
		c.errorHandlers = handlers
	}
}

// WithRecoveryBudget bounds recovery-handler executions to max per window.
// Without it the recovery loop is unbounded by design.
func WithRecoveryBudget(max int, window time.Duration) Option {
	return func(c *Client) {
		c.budget = NewRecoveryBudget(max, window)
	}
}

// WithCircuitBreaker guards the transport stage with a circuit breaker.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.breaker = NewCircuitBreaker(config)
	}
}

// WithGate installs a client-side token gate consulted before dispatch.
func WithGate(maxTokens int, refillRate time.Duration) Option {
	return func(c *Client) {
		c.gate = NewGate(maxTokens, refillRate)
	}
}

// WithMetrics enables Prometheus metrics collection on the default
// registerer.
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector.
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithLogger sets a custom logger for debug output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a plain console logger.
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithZerolog enables debug logging through a zerolog-backed logger.
func WithZerolog(l *ZerologLogger) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = l
	}
}

// WithDebug enables debug logging with the default configuration.
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration.
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs.
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an
// error if invalid.
func (c *Client) ValidateConfiguration() error {
	var problems []string

	problems = append(problems, c.validateTransportConfig()...)
	problems = append(problems, c.validateHandlerConfig()...)
	problems = append(problems, c.validateDebugConfig()...)

	if len(problems) > 0 {
		return &Error{
			Type:    ErrorTypeConfiguration,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", problems),
		}
	}
	return nil
}

func (c *Client) validateTransportConfig() []string {
	var problems []string
	if c.httpClient == nil {
		problems = append(problems, "HTTP client cannot be nil")
	}
	if c.registry == nil {
		problems = append(problems, "translator registry cannot be nil")
	}
	if c.gate != nil && c.gate.maxTokens <= 0 {
		problems = append(problems, "gate maxTokens must be positive")
	}
	if c.breaker != nil && c.breaker.config.FailureThreshold <= 0 {
		problems = append(problems, "circuit breaker FailureThreshold must be positive")
	}
	return problems
}

func (c *Client) validateHandlerConfig() []string {
	var problems []string
	for i, h := range c.recovery {
		if h == nil {
			problems = append(problems, fmt.Sprintf("recovery handler[%d] cannot be nil", i))
		}
	}
	for i, h := range c.errorHandlers {
		if h == nil {
			problems = append(problems, fmt.Sprintf("error handler[%d] cannot be nil", i))
		}
	}
	for i, mw := range c.middleware {
		if mw == nil {
			problems = append(problems, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}
	return problems
}

func (c *Client) validateDebugConfig() []string {
	var problems []string
	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			problems = append(problems, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			problems = append(problems, "logger must be set when debug is enabled")
		}
	}
	return problems
}
