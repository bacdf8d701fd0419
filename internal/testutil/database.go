// Package testutil provides testing utilities for repository tests.
//
// Repositories are exercised against go-sqlmock rather than live databases:
//
//	db, mock := testutil.NewMockDB(t)
//	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
//
// Expectations are verified automatically when the test finishes.
package testutil

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// NewMockDB returns a sqlmock-backed *sql.DB. Unmet expectations fail the test
// at cleanup and the connection is closed.
func NewMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create sqlmock")

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return db, mock
}

// UUIDBytes returns the BINARY(16) representation MySQL repositories send.
func UUIDBytes(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	b, err := id.MarshalBinary()
	require.NoError(t, err)
	return b
}
