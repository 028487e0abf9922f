// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the binary and stores everything in one file.
// A pastebin is a single table of write-once rows, so there is no server to run
// and ":memory:" gives every test its own throwaway database.
//
// modernc.org/sqlite is a pure Go translation of SQLite: no CGo, no C compiler,
// cross-compiles like any other Go package.
package sqlite

import (
	"database/sql"
	"fmt"
	"net/url"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.SnippetRepository.
type DB struct {
	conn  *sql.DB
	newID func() string
}

// migrations run in order on every start. Each statement must be idempotent.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "create snippets table",
		sql: `
		CREATE TABLE IF NOT EXISTS snippets (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			code       TEXT NOT NULL,
			language   TEXT NOT NULL DEFAULT 'text',
			visitor_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	},
	{
		name: "index snippets by visitor",
		sql:  `CREATE INDEX IF NOT EXISTS idx_snippets_visitor_id ON snippets(visitor_id);`,
	},
}

// pragmas are applied by the driver to every connection it opens.
//
// PER-CONNECTION SETTINGS:
// A PRAGMA only affects the connection that runs it, and database/sql keeps
// a pool. Running "PRAGMA busy_timeout" once through db.Exec would configure
// one connection and leave the rest failing with SQLITE_BUSY under concurrent
// writes, so the settings travel in the DSN instead.
//   - busy_timeout(5000): wait up to 5s for a competing writer
//   - journal_mode(WAL):  readers proceed while a write is in progress
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
}

// dsn turns a path into a driver DSN carrying the pragmas.
func dsn(dbPath string) string {
	q := make(url.Values)
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	return "file:" + dbPath + "?" + q.Encode()
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/codebin.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// IN-MEMORY POOLS:
// Every new connection to ":memory:" gets its OWN empty database. A pool with
// several connections would therefore see tables appear and vanish at random,
// so we pin in-memory databases to a single connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	// sql.Open is lazy; Ping surfaces a bad path or permissions issue now.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, newID: newXID}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	for _, m := range migrations {
		if _, err := db.conn.Exec(m.sql); err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
	}
	return nil
}
