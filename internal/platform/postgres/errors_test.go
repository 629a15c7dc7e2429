package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/skillswap-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "test_table",
		ColumnName:     "test_column",
		ConstraintName: constraint,
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()
	plain := errors.New("connection reset")

	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "no rows", err: sql.ErrNoRows, wantErr: store.ErrNotFound},
		{name: "unique violation", err: newPgError(uniqueViolationCode, "users_pkey"), wantErr: store.ErrDuplicate},
		{
			name:    "pending pair violation",
			err:     newPgError(uniqueViolationCode, pendingPairConstraint),
			wantErr: store.ErrPendingRequestExists,
		},
		{
			name:    "wrapped foreign key violation",
			err:     fmt.Errorf("insert: %w", newPgError(foreignKeyViolationCode, "fk")),
			wantErr: store.ErrInvalidEntity,
		},
		{name: "check violation", err: newPgError(checkViolationCode, "ck"), wantErr: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError(notNullViolationCode, ""), wantErr: store.ErrInvalidEntity},
		{name: "unmapped pg error", err: newPgError("42P01", ""), wantErr: nil},
		{name: "plain error", err: plain, wantErr: plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.wantErr == nil {
				assert.Same(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.wantErr)
		})
	}

	assert.NoError(t, MapError(nil))
}

func TestConstraintHelpers(t *testing.T) {
	t.Parallel()
	assert.True(t, IsUniqueViolation(newPgError(uniqueViolationCode, "")))
	assert.False(t, IsUniqueViolation(newPgError(foreignKeyViolationCode, "")))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("x: %w", newPgError(foreignKeyViolationCode, ""))))
	assert.False(t, IsForeignKeyViolation(errors.New("other")))
}
