package janus

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"application/json", "application/json"},
		{"Application/JSON", "application/json"},
		{" application/json ", "application/json"},
		{"application/json; charset=utf-8", "application/json"},
		{"Application/Vnd.Acme+JSON; v=2", "application/vnd.acme+json"},
		{"", ""},
		{"; charset=utf-8", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeMediaType(tt.in), "input %q", tt.in)
	}
}

func TestSuffixKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"application/vnd.acme.error+json", "application/json"},
		{"application/vnd.a+b+xml", "application/xml"},
		{"application/json", ""},
		{"application/vnd.acme+", ""},
		{"nonsense", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, suffixKey(tt.in), "input %q", tt.in)
	}
}

func TestRegistryExactLookup(t *testing.T) {
	r := NewTranslatorRegistry()

	tr, ok := r.Lookup("application/json")
	require.True(t, ok)
	assert.IsType(t, &JSONTranslator{}, tr)

	tr, ok = r.Lookup("Application/XML; charset=utf-8")
	require.True(t, ok)
	assert.IsType(t, &XMLTranslator{}, tr)

	_, ok = r.Lookup("application/unknown")
	assert.False(t, ok)
}

func TestRegistrySuffixFallback(t *testing.T) {
	r := NewTranslatorRegistry()

	tr, ok := r.Lookup("application/vnd.acme.error+json")
	require.True(t, ok)
	assert.IsType(t, &JSONTranslator{}, tr)

	// The resolution is memoized; the second lookup is served from the
	// redirect cache.
	r.mu.RLock()
	target := r.redirects["application/vnd.acme.error+json"]
	r.mu.RUnlock()
	assert.Equal(t, "application/json", target)

	tr, ok = r.Lookup("application/vnd.acme.error+json")
	require.True(t, ok)
	assert.IsType(t, &JSONTranslator{}, tr)
}

func TestRegistryExactBindingInvalidatesRedirect(t *testing.T) {
	r := NewTranslatorRegistry()

	_, ok := r.Lookup("application/vnd.acme+xml")
	require.True(t, ok)

	custom := &JSONTranslator{}
	r.Register("application/vnd.acme+xml", custom)

	tr, ok := r.Lookup("application/vnd.acme+xml")
	require.True(t, ok)
	assert.Same(t, custom, tr, "the exact binding must win over the cached redirect")

	r.mu.RLock()
	_, cached := r.redirects["application/vnd.acme+xml"]
	r.mu.RUnlock()
	assert.False(t, cached)
}

func TestRegistryNoSuffixNoFallback(t *testing.T) {
	r := NewTranslatorRegistry()
	_, ok := r.Lookup("application/octet-stream")
	assert.False(t, ok)
}

func TestEmptyRegistry(t *testing.T) {
	r := NewEmptyTranslatorRegistry()
	_, ok := r.Lookup("application/json")
	assert.False(t, ok)
	assert.Empty(t, r.Bindings())
}

func TestRegistryIsolatedFromDefaults(t *testing.T) {
	r := NewTranslatorRegistry()
	r.Register("application/test-local", &JSONTranslator{})

	other := NewTranslatorRegistry()
	_, ok := other.Lookup("application/test-local")
	assert.False(t, ok, "per-registry registrations must not leak into new registries")
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewTranslatorRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("application/vnd.t%d+json", i)
				if j%10 == 0 {
					r.Register(key, &JSONTranslator{})
				}
				if _, ok := r.Lookup(key); !ok {
					t.Errorf("lookup of %q failed", key)
					return
				}
				r.Lookup("application/json")
			}
		}(i)
	}
	wg.Wait()
}
