package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/skillswap-api/internal/store"
)

// NewRepositories binds every store to db.
func NewRepositories(db store.DBTX, logger *slog.Logger) store.Repositories {
	return store.Repositories{
		Users:    NewPostgresUserStore(db, logger),
		Requests: NewPostgresPairingRequestStore(db, logger),
		Sessions: NewPostgresSessionStore(db, logger),
	}
}

// Transactor implements store.Transactor with database/sql transactions.
type Transactor struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTransactor creates a Transactor on db.
func NewTransactor(db *sql.DB, logger *slog.Logger) *Transactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, logger: logger}
}

var _ store.Transactor = (*Transactor)(nil)

// WithinTx implements store.Transactor. Row locks taken by fn through the
// ForUpdate getters are held until commit or rollback.
func (t *Transactor) WithinTx(ctx context.Context, fn store.RepoFn) error {
	return store.RunInTransaction(ctx, t.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, NewRepositories(tx, t.logger))
	})
}
