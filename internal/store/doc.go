// Package store defines the persistence interfaces of the skill exchange.
// Implementations live under internal/platform; services depend only on
// these interfaces and run multi-step mutations through a Transactor.
package store
