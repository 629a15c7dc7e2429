// Package task runs background work: a buffered task queue, a worker pool
// draining it, and the sweep that completes sessions whose scheduled end
// has passed.
package task
