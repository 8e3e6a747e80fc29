// Package sqlite persists the ledger, wallets, stats aggregates and
// withdrawal requests. Every balance- or stat-affecting write is a single
// atomic increment statement, and multi-record settlements run inside one
// transaction obtained from InTx.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Migrations returns the schema migration statements. Each string is a
// single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Thin member directory — existence and display name only.
		`CREATE TABLE IF NOT EXISTS members (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			joined_at  TEXT NOT NULL
		)`,

		// Append-only transaction log. Financial fields are write-once.
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id                TEXT PRIMARY KEY,
			member_id         TEXT NOT NULL,
			amount            INTEGER NOT NULL,
			category          TEXT NOT NULL,
			description       TEXT NOT NULL,
			occurred_at       TEXT NOT NULL,
			status            TEXT NOT NULL,
			related_member_id TEXT NOT NULL DEFAULT '',
			level             INTEGER NOT NULL DEFAULT 0,
			pairs             INTEGER NOT NULL DEFAULT 0,
			created_at        TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_member ON ledger_entries(member_id, occurred_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_status ON ledger_entries(status)`,

		// One balance per member, mutated only by atomic deltas.
		`CREATE TABLE IF NOT EXISTS wallets (
			member_id TEXT PRIMARY KEY,
			balance   INTEGER NOT NULL DEFAULT 0
		)`,

		// Rolling aggregate counters (the root row uses the sentinel id).
		`CREATE TABLE IF NOT EXISTS dashboard_stats (
			member_id             TEXT PRIMARY KEY,
			total_earnings        INTEGER NOT NULL DEFAULT 0,
			pending_withdrawals   INTEGER NOT NULL DEFAULT 0,
			completed_withdrawals INTEGER NOT NULL DEFAULT 0
		)`,

		// Cumulative signed total per (member, category).
		`CREATE TABLE IF NOT EXISTS category_totals (
			member_id TEXT NOT NULL,
			category  TEXT NOT NULL,
			total     INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (member_id, category)
		)`,

		// Bounded recent-activity window; seq breaks occurrence-time ties
		// by insertion order.
		`CREATE TABLE IF NOT EXISTS recent_activity (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			member_id   TEXT NOT NULL,
			entry_id    TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recent_member ON recent_activity(member_id, occurred_at DESC)`,

		// Daily running-total timeline. seq preserves insertion order: the
		// "latest point" a new day carries forward from is the last row
		// inserted, matching the documented backdating limitation.
		`CREATE TABLE IF NOT EXISTS earnings_timeline (
			seq       INTEGER PRIMARY KEY AUTOINCREMENT,
			member_id TEXT NOT NULL,
			day       TEXT NOT NULL,
			amount    INTEGER NOT NULL,
			UNIQUE (member_id, day)
		)`,

		`CREATE TABLE IF NOT EXISTS withdrawal_requests (
			id             TEXT PRIMARY KEY,
			member_id      TEXT NOT NULL,
			user_name      TEXT NOT NULL,
			amount         INTEGER NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
			account_name   TEXT NOT NULL DEFAULT '',
			account_number TEXT NOT NULL,
			bank_name      TEXT NOT NULL,
			ifsc_code      TEXT NOT NULL DEFAULT '',
			requested_at   TEXT NOT NULL,
			processed_at   TEXT,
			entry_id       TEXT NOT NULL DEFAULT '',
			remarks        TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawal_member ON withdrawal_requests(member_id, requested_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawal_status ON withdrawal_requests(status)`,
	}
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store carries the record-level operations. A Store obtained from DB runs
// each statement on its own; a Store handed to an InTx callback runs inside
// that transaction.
type Store struct {
	q dbtx
}

// DB is the SQLite-backed store.
type DB struct {
	Store
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// migrations. Use ":memory:" for tests.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single connection serializes writers (SQLite allows one anyway)
	// and keeps ":memory:" databases from splitting across connections.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	db := &DB{Store: Store{q: sqlDB}, db: sqlDB}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// InTx runs fn inside a single transaction. All writes succeed or none do.
func (db *DB) InTx(fn func(*Store) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ─── Time encoding ──────────────────────────────────────────────────────────
// Timestamps are stored as RFC3339 UTC strings, second precision, so that
// lexicographic ORDER BY matches chronological order.

func encodeTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func decodeTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
