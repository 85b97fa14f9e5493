package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// validateIdentifier ensures an identifier contains only safe characters for SQL.
// Returns an error if the identifier contains characters that could be used for SQL injection.
func validateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%s must start with a letter and contain only letters, numbers, and underscores (got: %s)", fieldName, name)
	}
	return nil
}

// validateConfig validates all configuration values to prevent SQL injection.
func validateConfig(config *Config) error {
	if err := validateIdentifier(config.SchemaName, "SchemaName"); err != nil {
		return err
	}
	if err := validateIdentifier(config.RecordsTable, "RecordsTable"); err != nil {
		return err
	}
	return nil
}

// Config configures migration generation for the replication storage tables.
type Config struct {
	// OutputFolder is the directory where the migration file will be written
	OutputFolder string

	// OutputFilename is the name of the migration file
	OutputFilename string

	// SchemaName is the database schema name (PostgreSQL) or table name
	// prefix (MySQL and SQLite, which use prefixed table names instead of
	// schemas)
	SchemaName string

	// RecordsTable is the name of the replicated records table
	RecordsTable string
}

// DefaultConfig returns the default configuration for replication migrations.
func DefaultConfig() Config {
	timestamp := time.Now().Format("20060102150405")
	return Config{
		OutputFolder:   "migrations",
		OutputFilename: fmt.Sprintf("%s_init_replicated_records.sql", timestamp),
		SchemaName:     "crossregion",
		RecordsTable:   "replicated_records",
	}
}

// GeneratePostgres generates a PostgreSQL migration file.
func GeneratePostgres(config *Config) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return write(config, generatePostgresSQL(config))
}

// GenerateMySQL generates a MySQL/MariaDB migration file.
func GenerateMySQL(config *Config) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return write(config, generateMySQLSQL(config))
}

// GenerateSQLite generates a SQLite migration file.
func GenerateSQLite(config *Config) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return write(config, generateSQLiteSQL(config))
}

func write(config *Config, sql string) error {
	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	outputPath := filepath.Join(config.OutputFolder, config.OutputFilename)
	if err := os.WriteFile(outputPath, []byte(sql), 0o600); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}
	return nil
}

func generatePostgresSQL(config *Config) string {
	return fmt.Sprintf(`-- Cross-Region Replication Storage Migration
-- Generated: %s
-- Database: PostgreSQL

CREATE SCHEMA IF NOT EXISTS %s;

-- Replicated records table holds one row per (region, record) pair.
-- The replication processor upserts into it on every delivery; ts is the
-- record timestamp used for last-write-wins conflict resolution.
CREATE TABLE IF NOT EXISTS %s.%s (
    region_id TEXT NOT NULL,
    record_id TEXT NOT NULL,
    ts BIGINT NOT NULL,
    payload BYTEA,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (region_id, record_id)
);

-- Index for per-region scans and lag inspection
CREATE INDEX IF NOT EXISTS idx_%s_region
    ON %s.%s (region_id, ts DESC);
`,
		time.Now().Format(time.RFC3339),
		config.SchemaName,
		config.SchemaName, config.RecordsTable,
		config.RecordsTable,
		config.SchemaName, config.RecordsTable,
	)
}

func generateMySQLSQL(config *Config) string {
	table := config.SchemaName + "_" + config.RecordsTable
	return fmt.Sprintf(`-- Cross-Region Replication Storage Migration
-- Generated: %s
-- Database: MySQL/MariaDB

CREATE TABLE IF NOT EXISTS %s (
    region_id VARCHAR(128) NOT NULL,
    record_id VARCHAR(128) NOT NULL,
    ts BIGINT NOT NULL,
    payload BLOB,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    PRIMARY KEY (region_id, record_id)
) ENGINE=InnoDB;

CREATE INDEX idx_%s_region
    ON %s (region_id, ts DESC);
`,
		time.Now().Format(time.RFC3339),
		table,
		table,
		table,
	)
}

func generateSQLiteSQL(config *Config) string {
	table := config.SchemaName + "_" + config.RecordsTable
	return fmt.Sprintf(`-- Cross-Region Replication Storage Migration
-- Generated: %s
-- Database: SQLite

CREATE TABLE IF NOT EXISTS %s (
    region_id TEXT NOT NULL,
    record_id TEXT NOT NULL,
    ts INTEGER NOT NULL,
    payload BLOB,
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (region_id, record_id)
);

CREATE INDEX IF NOT EXISTS idx_%s_region
    ON %s (region_id, ts DESC);
`,
		time.Now().Format(time.RFC3339),
		table,
		table,
		table,
	)
}
