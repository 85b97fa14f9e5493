// Command migrate-gen generates SQL migration files for the replicated
// records storage used by the SQL record store.
//
// Usage:
//
//	go run github.com/meshgrid/crossregion/cmd/migrate-gen -output migrations -filename init.sql
//
// Generate migrations for different database adapters:
//
//	go run github.com/meshgrid/crossregion/cmd/migrate-gen -adapter postgres -output migrations
//	go run github.com/meshgrid/crossregion/cmd/migrate-gen -adapter mysql -output migrations
//	go run github.com/meshgrid/crossregion/cmd/migrate-gen -adapter sqlite -output migrations
//
// Customize table names:
//
//	go run github.com/meshgrid/crossregion/cmd/migrate-gen -schema crossregion -output migrations
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/meshgrid/crossregion/pkg/migrations"
)

func main() {
	var (
		adapter        = flag.String("adapter", "postgres", "Database adapter: postgres, mysql, or sqlite")
		outputFolder   = flag.String("output", "migrations", "Output folder for migration file")
		outputFilename = flag.String("filename", "", "Output filename (default: timestamp-based)")
		schemaName     = flag.String("schema", "crossregion", "Schema name (PostgreSQL) or table prefix (MySQL, SQLite)")
		recordsTable   = flag.String("records-table", "replicated_records", "Name of replicated records table")
	)

	flag.Parse()

	config := migrations.DefaultConfig()
	config.OutputFolder = *outputFolder
	config.SchemaName = *schemaName
	config.RecordsTable = *recordsTable

	if *outputFilename != "" {
		config.OutputFilename = *outputFilename
	}

	var err error
	switch *adapter {
	case "postgres":
		err = migrations.GeneratePostgres(&config)
	case "mysql":
		err = migrations.GenerateMySQL(&config)
	case "sqlite":
		err = migrations.GenerateSQLite(&config)
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported adapter '%s'. Supported adapters are: postgres, mysql, sqlite\n", *adapter)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s migration: %s/%s\n", *adapter, config.OutputFolder, config.OutputFilename)
}
