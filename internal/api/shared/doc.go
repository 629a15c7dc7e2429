// Package shared holds the request context keys, JSON helpers and input
// sanitizing used by both the handlers and the middleware.
package shared
