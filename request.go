package janus

import (
	"net/http"
	"reflect"
	"sync"
)

// Descriptor is the declarative contract attached to a request type: the
// route template, HTTP method, media type and an optional custom response
// decoder that takes precedence over the registry.
type Descriptor struct {
	// Method defaults to GET when empty.
	Method string
	// Path is the route template, e.g. "/users/{id}".
	Path string
	// MediaType selects the body and response translator. Defaults to the
	// client's DefaultMediaType.
	MediaType string
	// Decoder, when set, deserializes responses for this type directly,
	// bypassing the translator registry entirely.
	Decoder Translator
	// AllowBody permits request content on methods that normally carry
	// none (GET/DELETE).
	AllowBody bool
}

var descriptorTable sync.Map // reflect.Type -> Descriptor

// RegisterType binds a Descriptor to proto's type in the process-wide table
// consulted by NewTypedRequest. Re-registration with an equivalent
// descriptor is idempotent; a different one overwrites.
func RegisterType(proto any, d Descriptor) error {
	if proto == nil {
		return &Error{Type: ErrorTypeConfiguration, Message: "RegisterType: nil prototype"}
	}
	if d.Path == "" {
		return &Error{Type: ErrorTypeConfiguration, Message: "RegisterType: empty path template"}
	}
	if d.Method == "" {
		d.Method = http.MethodGet
	}
	descriptorTable.Store(baseType(reflect.TypeOf(proto)), d)
	return nil
}

// DescriptorFor returns the registered descriptor for v's type.
func DescriptorFor(v any) (Descriptor, bool) {
	if v == nil {
		return Descriptor{}, false
	}
	if d, ok := descriptorTable.Load(baseType(reflect.TypeOf(v))); ok {
		return d.(Descriptor), true
	}
	return Descriptor{}, false
}

func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Request describes one outbound exchange. It is constructed fresh per call,
// mutated only through its builder methods, and discarded after dispatch; no
// state is shared across requests.
type Request struct {
	method    string
	path      string
	mediaType string
	body      any
	headers   http.Header
	cookies   []*http.Cookie
	query     *Values
	decoder   Translator
	allowBody bool
}

// NewRequest starts a request for an explicit method and path template.
func NewRequest(method, path string) *Request {
	if method == "" {
		method = http.MethodGet
	}
	return &Request{
		method:  method,
		path:    path,
		headers: make(http.Header),
		query:   NewValues(),
	}
}

// NewTypedRequest builds a request from body's registered Descriptor. The
// body doubles as the source for template placeholders and, on GET, query
// parameters.
func NewTypedRequest(body any) (*Request, error) {
	d, ok := DescriptorFor(body)
	if !ok {
		return nil, &Error{
			Type:    ErrorTypeConfiguration,
			Message: "no descriptor registered for request type " + reflect.TypeOf(body).String(),
		}
	}
	r := NewRequest(d.Method, d.Path)
	r.body = body
	r.mediaType = d.MediaType
	r.decoder = d.Decoder
	r.allowBody = d.AllowBody
	return r, nil
}

// Body attaches the request body object.
func (r *Request) Body(v any) *Request {
	r.body = v
	return r
}

// Header adds a header value.
func (r *Request) Header(key, value string) *Request {
	r.headers.Add(key, value)
	return r
}

// Cookie adds a cookie; all cookies are synthesized into a single Cookie
// header at dispatch time.
func (r *Request) Cookie(name, value string) *Request {
	r.cookies = append(r.cookies, &http.Cookie{Name: name, Value: value})
	return r
}

// Query sets an explicit query parameter.
func (r *Request) Query(key, value string) *Request {
	r.query.Set(key, value)
	return r
}

// QueryFrom flattens v into explicit query parameters with the default
// include policy.
func (r *Request) QueryFrom(v any) *Request {
	if vals, err := FlattenQuery(v, QueryModeDefault); err == nil {
		r.query = r.query.Merge(vals)
	}
	return r
}

// MediaType overrides the media type used to select the body and response
// translator.
func (r *Request) MediaType(mediaType string) *Request {
	r.mediaType = mediaType
	return r
}

// Decoder sets a custom response deserializer for this request only,
// bypassing the translator registry.
func (r *Request) Decoder(t Translator) *Request {
	r.decoder = t
	return r
}

// AllowBody permits content on methods that normally carry none.
func (r *Request) AllowBody() *Request {
	r.allowBody = true
	return r
}

// bodyBearing reports whether the request method carries content. GET and
// DELETE do not unless explicitly allowed.
func (r *Request) bodyBearing() bool {
	switch r.method {
	case http.MethodGet, http.MethodDelete:
		return r.allowBody
	}
	return true
}

// queryFromBody reports whether body members should be flattened into the
// query string: only methods without a standard body, by default GET, and
// always for the query-string pseudo media type.
func (r *Request) queryFromBody(mediaType string) bool {
	if NormalizeMediaType(mediaType) == MediaTypeQueryString {
		return true
	}
	return r.method == http.MethodGet && !r.allowBody
}
