package janus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request pipeline and
// its reliability layers. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	recoveriesTotal *prometheus.CounterVec

	translatorHits   *prometheus.CounterVec
	translatorMisses *prometheus.CounterVec

	circuitBreakerState *prometheus.GaugeVec
	gateTokens          *prometheus.GaugeVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "janus_requests_total",
				Help: "Total number of HTTP requests dispatched",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "janus_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "janus_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		recoveriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "janus_recoveries_total",
				Help: "Total number of recovery handler executions",
			},
			[]string{"method", "endpoint", "handler"},
		),
		translatorHits: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "janus_translator_lookup_hits_total",
				Help: "Total number of translator registry hits",
			},
			[]string{"media_type"},
		),
		translatorMisses: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "janus_translator_lookup_misses_total",
				Help: "Total number of translator registry misses",
			},
			[]string{"media_type"},
		),
		circuitBreakerState: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "janus_circuit_breaker_state",
				Help: "Current state of circuit breaker (0=closed, 1=open, 2=half-open)",
			},
			[]string{"name"},
		),
		gateTokens: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "janus_gate_tokens",
				Help: "Current number of available request gate tokens",
			},
			[]string{"name"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "janus_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type", "method", "endpoint"},
		),
	}
}

// RecordRequest records request count and duration.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if mc == nil {
		return
	}
	code := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, code, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, code, endpoint).Observe(duration.Seconds())
}

// RecordRequestStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	if mc == nil {
		return
	}
	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordRecovery counts one recovery handler execution.
func (mc *MetricsCollector) RecordRecovery(method, endpoint, handler string) {
	if mc == nil {
		return
	}
	mc.recoveriesTotal.WithLabelValues(method, endpoint, handler).Inc()
}

// RecordTranslatorLookup counts a registry hit or miss.
func (mc *MetricsCollector) RecordTranslatorLookup(mediaType string, hit bool) {
	if mc == nil {
		return
	}
	if hit {
		mc.translatorHits.WithLabelValues(mediaType).Inc()
		return
	}
	mc.translatorMisses.WithLabelValues(mediaType).Inc()
}

// RecordCircuitBreakerState records the breaker state.
func (mc *MetricsCollector) RecordCircuitBreakerState(name string, state CircuitState) {
	if mc == nil {
		return
	}
	mc.circuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordGateTokens records the current gate token count.
func (mc *MetricsCollector) RecordGateTokens(name string, tokens int) {
	if mc == nil {
		return
	}
	mc.gateTokens.WithLabelValues(name).Set(float64(tokens))
}

// RecordError counts an error by type.
func (mc *MetricsCollector) RecordError(errorType, method, endpoint string) {
	if mc == nil {
		return
	}
	mc.errorsTotal.WithLabelValues(errorType, method, endpoint).Inc()
}
