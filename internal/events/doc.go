// Package events carries domain events from the services to in-process
// handlers.
//
// Services emit an Event after the transaction that produced it commits.
// The InMemoryEventEmitter fans each event out to every registered
// EventHandler; handler failures are logged and never undo the change.
package events
