//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/pkg/migrations"
	"github.com/meshgrid/crossregion/store"
	sqlstore "github.com/meshgrid/crossregion/store/sql"
)

// getTestDB returns a database connection for integration tests.
// It reads the DATABASE_URL environment variable and skips the test if not set.
func getTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}
	return db
}

// setupTables applies the generated migration to create the records table.
func setupTables(t *testing.T, db *sql.DB) {
	t.Helper()

	tmpDir := t.TempDir()
	config := migrations.DefaultConfig()
	config.OutputFolder = tmpDir
	config.OutputFilename = "init.sql"
	require.NoError(t, migrations.GeneratePostgres(&config))

	migrationSQL, err := os.ReadFile(filepath.Join(tmpDir, "init.sql"))
	require.NoError(t, err)

	if _, err := db.Exec(string(migrationSQL)); err != nil {
		t.Fatalf("failed to create tables: %v", err)
	}
}

// cleanupTables truncates the records table. Errors are logged but don't
// fail the test.
func cleanupTables(t *testing.T, db *sql.DB) {
	t.Helper()

	if _, err := db.Exec("TRUNCATE crossregion.replicated_records"); err != nil {
		t.Logf("warning: failed to truncate records table: %v", err)
	}
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTables(t, db)
	defer cleanupTables(t, db)

	s := sqlstore.NewWithConfig(db, sqlstore.DialectPostgres, sqlstore.TableConfig{
		RecordsTable: "crossregion.replicated_records",
	})
	ctx := context.Background()

	rec := crossregion.Record{ID: "user-1", Timestamp: 100, Body: []byte("hello")}
	require.NoError(t, s.Store(ctx, "us-east-1", rec))

	got, err := s.Read(ctx, "us-east-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// Upsert replaces the stored row.
	rec.Timestamp = 200
	rec.Body = []byte("updated")
	require.NoError(t, s.Store(ctx, "us-east-1", rec))

	got, err = s.Read(ctx, "us-east-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.Timestamp)
	assert.Equal(t, []byte("updated"), got.Body)
}

func TestPostgresStore_NotFound(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	setupTables(t, db)
	defer cleanupTables(t, db)

	s := sqlstore.NewWithConfig(db, sqlstore.DialectPostgres, sqlstore.TableConfig{
		RecordsTable: "crossregion.replicated_records",
	})

	_, err := s.Read(context.Background(), "us-east-1", "missing")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}
