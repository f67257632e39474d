package janus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := NewMetricsCollectorWithRegistry(reg)

	mc.RecordRequest("GET", "/widgets", 200, 120*time.Millisecond)
	mc.RecordRequest("GET", "/widgets", 200, 80*time.Millisecond)
	mc.RecordRecovery("GET", "/widgets", "ThrottleRecoveryHandler")
	mc.RecordTranslatorLookup("application/json", true)
	mc.RecordTranslatorLookup("application/unknown", false)
	mc.RecordError("Request", "GET", "/widgets")
	mc.RecordCircuitBreakerState("default", StateOpen)
	mc.RecordGateTokens("default", 7)

	if got := testutil.ToFloat64(mc.requestsTotal.WithLabelValues("GET", "200", "/widgets")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(mc.recoveriesTotal.WithLabelValues("GET", "/widgets", "ThrottleRecoveryHandler")); got != 1 {
		t.Errorf("recoveries_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(mc.translatorHits.WithLabelValues("application/json")); got != 1 {
		t.Errorf("translator hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(mc.translatorMisses.WithLabelValues("application/unknown")); got != 1 {
		t.Errorf("translator misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(mc.errorsTotal.WithLabelValues("Request", "GET", "/widgets")); got != 1 {
		t.Errorf("errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(mc.circuitBreakerState.WithLabelValues("default")); got != float64(StateOpen) {
		t.Errorf("circuit_breaker_state = %v, want %v", got, float64(StateOpen))
	}
	if got := testutil.ToFloat64(mc.gateTokens.WithLabelValues("default")); got != 7 {
		t.Errorf("gate_tokens = %v, want 7", got)
	}
}

func TestMetricsCollectorInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := NewMetricsCollectorWithRegistry(reg)

	mc.RecordRequestStart("GET", "/a")
	mc.RecordRequestStart("GET", "/a")
	if got := testutil.ToFloat64(mc.requestsInFlight.WithLabelValues("GET", "/a")); got != 2 {
		t.Errorf("in flight = %v, want 2", got)
	}
	mc.RecordRequestEnd("GET", "/a")
	if got := testutil.ToFloat64(mc.requestsInFlight.WithLabelValues("GET", "/a")); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
}

func TestNilMetricsCollector(t *testing.T) {
	var mc *MetricsCollector

	// Every recorder must be a no-op on a nil collector.
	mc.RecordRequest("GET", "/a", 200, time.Millisecond)
	mc.RecordRequestStart("GET", "/a")
	mc.RecordRequestEnd("GET", "/a")
	mc.RecordRecovery("GET", "/a", "h")
	mc.RecordTranslatorLookup("application/json", true)
	mc.RecordCircuitBreakerState("default", StateClosed)
	mc.RecordGateTokens("default", 1)
	mc.RecordError("Request", "GET", "/a")
}
