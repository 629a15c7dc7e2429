//go:build integration

// Package testdb provides helpers for database integration tests.
//
// Each test runs inside its own transaction, which is rolled back when the
// test completes, so tests can share one migrated database and run in
// parallel:
//
//	db := testdb.GetTestDBWithT(t)
//	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	    users := postgres.NewPostgresUserStore(tx, nil)
//	    ...
//	})
//
// Tests are skipped when DATABASE_URL is not set.
package testdb
