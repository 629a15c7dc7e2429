package store

import "context"

// Repositories bundles the stores a service works with. Inside
// Transactor.WithinTx every store is bound to the same transaction.
type Repositories struct {
	Users    UserStore
	Requests PairingRequestStore
	Sessions SessionStore
}

// RepoFn is the unit of work run by a Transactor.
type RepoFn func(ctx context.Context, repos Repositories) error

// Transactor runs units of work atomically. WithinTx commits when fn
// returns nil and rolls back otherwise, including when fn panics.
type Transactor interface {
	WithinTx(ctx context.Context, fn RepoFn) error
}
