package janus

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWithSettings(t *testing.T) {
	c := New(WithSettings(Settings{
		BaseURL:   "https://api.example.com/",
		UserAgent: "ua",
	}))

	if c.settings.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q, want normalized", c.settings.BaseURL)
	}
	if c.settings.UserAgent != "ua" {
		t.Errorf("UserAgent = %q", c.settings.UserAgent)
	}
	if c.settings.DefaultMediaType != MediaTypeJSON {
		t.Errorf("DefaultMediaType = %q, want the default filled in", c.settings.DefaultMediaType)
	}
}

func TestWithHTTPClientAndTimeout(t *testing.T) {
	hc := &http.Client{}
	c := New(WithHTTPClient(hc), WithTimeout(5*time.Second))

	if c.httpClient != hc {
		t.Error("custom HTTP client not installed")
	}
	if hc.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", hc.Timeout)
	}
}

func TestWithTranslator(t *testing.T) {
	c := New(WithTranslator("application/x-custom", &JSONTranslator{}))

	if _, ok := c.Registry().Lookup("application/x-custom"); !ok {
		t.Error("per-client translator not registered")
	}
	// The global defaults are untouched.
	if _, ok := NewTranslatorRegistry().Lookup("application/x-custom"); ok {
		t.Error("per-client registration leaked into the defaults")
	}
}

func TestWithErrorHandlerPrepends(t *testing.T) {
	custom := &RequestErrorHandler{}
	c := New(WithErrorHandler(custom))

	if len(c.errorHandlers) != 3 {
		t.Fatalf("error handlers = %d, want 3", len(c.errorHandlers))
	}
	if c.errorHandlers[0] != ErrorHandler(custom) {
		t.Error("custom handler must be consulted before the defaults")
	}
}

func TestWithRecoveryHandlersReplaces(t *testing.T) {
	c := New(WithRecoveryHandlers())
	if len(c.recovery) != 0 {
		t.Errorf("recovery handlers = %d, want the defaults replaced", len(c.recovery))
	}

	c = New(WithRecoveryHandler(NewThrottleRecoveryHandler()))
	if len(c.recovery) != 2 {
		t.Errorf("recovery handlers = %d, want defaults plus one", len(c.recovery))
	}
}

func TestWithDefaultMediaType(t *testing.T) {
	c := New(WithDefaultMediaType(MediaTypeForm))
	if c.settings.DefaultMediaType != MediaTypeForm {
		t.Errorf("DefaultMediaType = %q", c.settings.DefaultMediaType)
	}
}

func TestWithZerolog(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewZerologLogger(zerolog.New(buf))

	c := New(WithZerolog(logger))
	if c.ValidationError() != nil {
		t.Fatalf("ValidationError() = %v", c.ValidationError())
	}
	if !c.debugEnabled() {
		t.Fatal("debug logging should be enabled")
	}

	c.logger.Info("hello", "key", "value")
	out := buf.String()
	if !strings.Contains(out, `"message":"hello"`) || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("zerolog output = %q", out)
	}
}

func TestWithRequestIDGenerator(t *testing.T) {
	c := New(
		WithSimpleLogger(),
		WithRequestIDGenerator(func() string { return "fixed-id" }),
	)
	if c.ValidationError() != nil {
		t.Fatalf("ValidationError() = %v", c.ValidationError())
	}
	if got := c.newRequestID(); got != "fixed-id" {
		t.Errorf("newRequestID() = %q", got)
	}
}

func TestDefaultRequestIDsAreUnique(t *testing.T) {
	a, b := newRequestID(), newRequestID()
	if a == "" || a == b {
		t.Errorf("newRequestID() produced %q and %q", a, b)
	}
}

func TestValidateConfigurationProblems(t *testing.T) {
	c := New()
	c.httpClient = nil
	c.registry = nil
	err := c.ValidateConfiguration()
	if err == nil {
		t.Fatal("ValidateConfiguration() = nil, want an error")
	}
	e, ok := err.(*Error)
	if !ok || e.Type != ErrorTypeConfiguration {
		t.Errorf("error = %v, want a Configuration *Error", err)
	}
	for _, want := range []string{"HTTP client", "translator registry"} {
		if !strings.Contains(e.Cause.Error(), want) {
			t.Errorf("error cause %q missing %q", e.Cause.Error(), want)
		}
	}
}
