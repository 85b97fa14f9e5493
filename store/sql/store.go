// Package sql provides a database/sql implementation of the RecordStore
// capability. It supports PostgreSQL, MySQL/MariaDB, and SQLite through
// dialect-specific placeholders and upsert forms; the caller opens the
// database with the matching driver.
package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/store"
)

// Dialect selects the SQL flavor used for placeholders and upserts.
type Dialect string

const (
	// DialectPostgres targets PostgreSQL (lib/pq).
	DialectPostgres Dialect = "postgres"

	// DialectMySQL targets MySQL and MariaDB (go-sql-driver/mysql).
	DialectMySQL Dialect = "mysql"

	// DialectSQLite targets SQLite (mattn/go-sqlite3).
	DialectSQLite Dialect = "sqlite"
)

// TableConfig holds the table name used for replicated records.
type TableConfig struct {
	RecordsTable string
}

// DefaultTableConfig returns the default table name.
func DefaultTableConfig() TableConfig {
	return TableConfig{RecordsTable: "replicated_records"}
}

// Store is a SQL implementation of store.RecordStore.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// New creates a new SQL store with the default table name.
func New(db *sql.DB, dialect Dialect) *Store {
	return NewWithConfig(db, dialect, DefaultTableConfig())
}

// NewWithConfig creates a new SQL store with a custom table name.
func NewWithConfig(db *sql.DB, dialect Dialect, config TableConfig) *Store {
	return &Store{
		db:      db,
		dialect: dialect,
		table:   config.RecordsTable,
	}
}

// Store upserts a record into the region's rows.
func (s *Store) Store(ctx context.Context, regionID string, rec crossregion.Record) error {
	var query string
	switch s.dialect {
	case DialectPostgres:
		query = fmt.Sprintf(`
			INSERT INTO %s (region_id, record_id, ts, payload)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (region_id, record_id)
			DO UPDATE SET ts = EXCLUDED.ts, payload = EXCLUDED.payload
		`, s.table)
	case DialectMySQL:
		query = fmt.Sprintf(`
			INSERT INTO %s (region_id, record_id, ts, payload)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE ts = VALUES(ts), payload = VALUES(payload)
		`, s.table)
	case DialectSQLite:
		query = fmt.Sprintf(`
			INSERT INTO %s (region_id, record_id, ts, payload)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (region_id, record_id)
			DO UPDATE SET ts = excluded.ts, payload = excluded.payload
		`, s.table)
	default:
		return fmt.Errorf("unsupported dialect %q", s.dialect)
	}

	if _, err := s.db.ExecContext(ctx, query, regionID, rec.ID, rec.Timestamp, rec.Body); err != nil {
		return fmt.Errorf("failed to store record %s in region %s: %w", rec.ID, regionID, err)
	}
	return nil
}

// DeleteRegion removes every record held for the region.
func (s *Store) DeleteRegion(ctx context.Context, regionID string) error {
	placeholder := "?"
	if s.dialect == DialectPostgres {
		placeholder = "$1"
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE region_id = %s`, s.table, placeholder)
	if _, err := s.db.ExecContext(ctx, query, regionID); err != nil {
		return fmt.Errorf("failed to delete records for region %s: %w", regionID, err)
	}
	return nil
}

// Read returns the record with the given ID from the region's rows.
// Returns store.ErrRecordNotFound if no such record exists.
func (s *Store) Read(ctx context.Context, regionID, recordID string) (crossregion.Record, error) {
	placeholder1, placeholder2 := "?", "?"
	if s.dialect == DialectPostgres {
		placeholder1, placeholder2 = "$1", "$2"
	}

	query := fmt.Sprintf(`
		SELECT record_id, ts, payload
		FROM %s
		WHERE region_id = %s AND record_id = %s
	`, s.table, placeholder1, placeholder2)

	var rec crossregion.Record
	err := s.db.QueryRowContext(ctx, query, regionID, recordID).Scan(
		&rec.ID,
		&rec.Timestamp,
		&rec.Body,
	)
	if err == sql.ErrNoRows {
		return crossregion.Record{}, store.ErrRecordNotFound
	}
	if err != nil {
		return crossregion.Record{}, fmt.Errorf("failed to read record %s from region %s: %w", recordID, regionID, err)
	}
	return rec, nil
}
