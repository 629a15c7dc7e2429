// Package service implements the use cases of the skill exchange: profile
// upkeep, match queries, the pairing request protocol and the session
// schedule.
//
// Services depend on the store interfaces and the matching index only.
// Every mutation runs inside store.Transactor.WithinTx; domain events are
// emitted after the transaction commits. Expected outcomes are returned as
// domain sentinels, anything else as a *ServiceError.
package service
