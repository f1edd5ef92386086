package tests

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nutricare/server/internal/db"
)

// OpenDB connects to DATABASE_URL, applies migrations and empties every
// table. The test is skipped when DATABASE_URL is not set.
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()
	database, err := db.Open(ctx, databaseURL, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err, "database open must succeed; check DATABASE_URL and that test DB exists")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(ctx, database), "migrations must run successfully")
	ResetDB(t, database)
	return database
}

// ResetDB truncates all application tables for a clean test state
func ResetDB(t testing.TB, database *sql.DB) {
	t.Helper()
	require.NoError(t, db.Truncate(context.Background(), database), "truncate tables")
}
