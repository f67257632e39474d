package janus

import (
	"strings"
	"sync"
)

// Media types handled out of the box.
const (
	MediaTypeJSON      = "application/json"
	MediaTypeXML       = "application/xml"
	MediaTypeForm      = "application/x-www-form-urlencoded"
	MediaTypeMultipart = "multipart/form-data"

	// MediaTypeQueryString is an internal pseudo media type: a body bound
	// to it is flattened into query parameters instead of being sent as
	// request content.
	MediaTypeQueryString = "janus/x-query-string"
)

// NormalizeMediaType strips ";"-delimited parameters and surrounding
// whitespace, and lower-cases the key so lookups compare case-insensitively:
// "Application/JSON; charset=utf-8" -> "application/json".
func NormalizeMediaType(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// suffixKey derives the RFC 6839 structured-suffix fallback key for a
// normalized media type: "application/vnd.foo+json" -> "application/json".
// The subtype is split on its last "+". Returns "" when there is no suffix.
func suffixKey(key string) string {
	slash := strings.IndexByte(key, '/')
	if slash < 0 {
		return ""
	}
	subtype := key[slash+1:]
	plus := strings.LastIndexByte(subtype, '+')
	if plus < 0 || plus == len(subtype)-1 {
		return ""
	}
	return key[:slash+1] + subtype[plus+1:]
}

// TranslatorRegistry maps normalized media types to translators, with a
// redirect cache memoizing structured-suffix resolutions. Safe for many
// concurrent readers with rare writers.
type TranslatorRegistry struct {
	mu        sync.RWMutex
	bindings  map[string]Translator
	redirects map[string]string
}

// NewTranslatorRegistry creates a registry seeded from the global default
// binding table. Later changes to the defaults do not affect it.
func NewTranslatorRegistry() *TranslatorRegistry {
	r := &TranslatorRegistry{
		bindings:  make(map[string]Translator),
		redirects: make(map[string]string),
	}
	defaultMu.RLock()
	for k, t := range defaultBindings {
		r.bindings[k] = t
	}
	defaultMu.RUnlock()
	return r
}

// NewEmptyTranslatorRegistry creates a registry with no bindings.
func NewEmptyTranslatorRegistry() *TranslatorRegistry {
	return &TranslatorRegistry{
		bindings:  make(map[string]Translator),
		redirects: make(map[string]string),
	}
}

// Register binds a translator to a media type. An exact binding always takes
// precedence going forward: any redirect previously cached for the key is
// invalidated.
func (r *TranslatorRegistry) Register(mediaType string, t Translator) {
	key := NormalizeMediaType(mediaType)
	r.mu.Lock()
	r.bindings[key] = t
	delete(r.redirects, key)
	r.mu.Unlock()
}

// Lookup resolves a media type to a translator. Resolution order: exact
// binding, redirect cache, structured-suffix fallback. A suffix hit is
// memoized so the next lookup for the same key is served from the cache.
func (r *TranslatorRegistry) Lookup(mediaType string) (Translator, bool) {
	key := NormalizeMediaType(mediaType)

	r.mu.RLock()
	if t, ok := r.bindings[key]; ok {
		r.mu.RUnlock()
		return t, true
	}
	if target, ok := r.redirects[key]; ok {
		t, ok := r.bindings[target]
		r.mu.RUnlock()
		return t, ok
	}
	sk := suffixKey(key)
	var t Translator
	var hit bool
	if sk != "" {
		t, hit = r.bindings[sk]
	}
	r.mu.RUnlock()

	if !hit {
		return nil, false
	}

	// Promote the resolution into the redirect cache, re-validating under
	// the write lock: a racing Register may have bound the exact key or
	// removed the suffix binding in the meantime.
	r.mu.Lock()
	defer r.mu.Unlock()
	if exact, ok := r.bindings[key]; ok {
		return exact, true
	}
	t, hit = r.bindings[sk]
	if !hit {
		return nil, false
	}
	r.redirects[key] = sk
	return t, true
}

// Bindings returns a snapshot of the registered media type keys.
func (r *TranslatorRegistry) Bindings() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.bindings))
	for k := range r.bindings {
		keys = append(keys, k)
	}
	return keys
}

// Global default binding table. Seeds newly constructed registries only.
var (
	defaultMu       sync.RWMutex
	defaultBindings = make(map[string]Translator)
)

// RegisterDefault installs a translator into the global default binding
// table consulted by NewTranslatorRegistry. Existing registries are not
// affected.
func RegisterDefault(mediaType string, t Translator) {
	defaultMu.Lock()
	defaultBindings[NormalizeMediaType(mediaType)] = t
	defaultMu.Unlock()
}

func init() {
	RegisterDefault(MediaTypeJSON, &JSONTranslator{})
	RegisterDefault(MediaTypeXML, &XMLTranslator{})
	RegisterDefault(MediaTypeForm, &FormTranslator{})
	RegisterDefault(MediaTypeMultipart, &MultipartTranslator{})
	RegisterDefault(MediaTypeQueryString, &QueryStringTranslator{})
}
