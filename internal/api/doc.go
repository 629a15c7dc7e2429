// Package api exposes the skill exchange over HTTP. Handlers translate
// requests into service calls and service errors into status codes and the
// error codes of the domain taxonomy.
package api
