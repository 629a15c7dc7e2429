// Package middleware contains the HTTP middleware of the API: tracing,
// bearer token authentication, per-client rate limiting and response
// status metrics.
package middleware
