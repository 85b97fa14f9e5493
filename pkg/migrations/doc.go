// Package migrations provides SQL migration generation for the replicated
// records table used by the SQL record store. It emits schema migrations
// for PostgreSQL, MySQL/MariaDB, and SQLite databases.
package migrations
