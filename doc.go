// Package janus materializes declaratively-annotated request objects into
// concrete HTTP requests and dispatches them through a pluggable transport:
//
//   - Dotted member-path resolution for URL templates ("/users/{id}") and
//     query flattening, backed by a cached per-type member index
//   - Content negotiation with RFC 6839 structured-suffix fallback
//     (application/vnd.foo+json resolves to the JSON translator)
//   - A two-stage handler chain: recovery handlers that may replace a failed
//     response (e.g. waiting out Retry-After and resending), then
//     error-mapping handlers producing typed errors
//   - Optional circuit breaker, client-side request gate and recovery budget
//   - Prometheus metrics and lightweight structured debug logging
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - All per-dispatch state is call-scoped; a single *Client is safe for
//     concurrent use
//   - Extensibility via user supplied middleware, handlers and translators
//
// Typical usage:
//
//	type GetUser struct {
//	    ID int
//	}
//
//	janus.RegisterType(GetUser{}, janus.Descriptor{Path: "/users/{id}"})
//
//	client := janus.New(
//	    janus.WithBaseURL("https://api.example.com"),
//	    janus.WithRecoveryBudget(5, time.Minute),
//	)
//
//	req, _ := janus.NewTypedRequest(GetUser{ID: 123})
//	user, _, err := janus.Receive[User](ctx, client, req)
//
// Transport failures propagate unchanged; every mapped failure keeps the
// originating URL and response headers for caller-side diagnostics.
package janus
