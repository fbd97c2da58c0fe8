// Package storage holds the deck store backends and the command journal.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DB wraps a SQL connection and remembers its dialect.
type DB struct {
	conn   *sql.DB
	driver string
}

// Open connects to driver at dsn and creates the tables. For sqlite the dsn is
// a file path whose directory is created if missing.
func Open(driver, dsn string) (*DB, error) {
	var conn *sql.DB
	var err error
	switch driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		conn, err = sql.Open("sqlite", dsn+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// one writer only, avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	case DriverPostgres:
		conn, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	case DriverMySQL:
		if !strings.Contains(dsn, "parseTime=") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "parseTime=true"
		}
		conn, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if driver != DriverSQLite {
		conn.SetMaxOpenConns(5)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(10 * time.Minute)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Driver() string {
	return db.driver
}

// rebind rewrites ? placeholders into $n for postgres.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) migrate() error {
	var migrations []string
	switch db.driver {
	case DriverSQLite:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS decks (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL DEFAULT '',
				slug TEXT NOT NULL DEFAULT '',
				owner_id TEXT NOT NULL DEFAULT '',
				document TEXT NOT NULL,
				version INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS deck_commands (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				deck_id TEXT NOT NULL,
				command_id TEXT NOT NULL,
				type TEXT NOT NULL,
				slide_id TEXT NOT NULL DEFAULT '',
				payload TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_deck_commands_deck ON deck_commands(deck_id, seq)`,
		}
	case DriverPostgres:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS decks (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL DEFAULT '',
				slug TEXT NOT NULL DEFAULT '',
				owner_id TEXT NOT NULL DEFAULT '',
				document TEXT NOT NULL,
				version BIGINT NOT NULL DEFAULT 1,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE TABLE IF NOT EXISTS deck_commands (
				seq BIGSERIAL PRIMARY KEY,
				deck_id TEXT NOT NULL,
				command_id TEXT NOT NULL,
				type TEXT NOT NULL,
				slide_id TEXT NOT NULL DEFAULT '',
				payload TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_deck_commands_deck ON deck_commands(deck_id, seq)`,
		}
	case DriverMySQL:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS decks (
				id VARCHAR(64) PRIMARY KEY,
				title VARCHAR(512) NOT NULL DEFAULT '',
				slug VARCHAR(512) NOT NULL DEFAULT '',
				owner_id VARCHAR(64) NOT NULL DEFAULT '',
				document LONGTEXT NOT NULL,
				version BIGINT NOT NULL DEFAULT 1,
				created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
			) CHARACTER SET utf8mb4`,
			`CREATE TABLE IF NOT EXISTS deck_commands (
				seq BIGINT AUTO_INCREMENT PRIMARY KEY,
				deck_id VARCHAR(64) NOT NULL,
				command_id VARCHAR(64) NOT NULL,
				type VARCHAR(64) NOT NULL,
				slide_id VARCHAR(64) NOT NULL DEFAULT '',
				payload LONGTEXT NOT NULL,
				created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				INDEX idx_deck_commands_deck (deck_id, seq)
			) CHARACTER SET utf8mb4`,
		}
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", strings.TrimSpace(m)[:30], err)
		}
	}
	return nil
}
