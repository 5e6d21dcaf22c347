package testutil

import (
	"database/sql"
	"embed"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

//go:embed migrations/*.sql
var testMigrationsFS embed.FS

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is configured with foreign keys enabled and WAL mode.
func NewTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on&_journal_mode=WAL")
	require.NoError(t, err)

	migrations := []string{
		"migrations/001_app_state.sql",
		"migrations/002_sessions.sql",
	}

	for _, migration := range migrations {
		sqlBytes, err := testMigrationsFS.ReadFile(migration)
		require.NoError(t, err, "failed to read migration %s", migration)

		_, err = db.Exec(string(sqlBytes))
		require.NoError(t, err, "failed to apply migration %s", migration)
	}

	return db
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}
