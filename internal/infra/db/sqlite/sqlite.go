// Package sqlite stores the ledger in a single SQLite file through the pure Go
// modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/infra/logging"

	_ "modernc.org/sqlite"
)

// DB wraps the pool. SQLite permits one writer, so the pool is pinned to a
// single connection and statements queue in database/sql instead of
// failing with SQLITE_BUSY.
type DB struct {
	conn *sql.DB
	log  *zerolog.Logger
}

// New opens path (":memory:" for tests) and applies the schema.
func New(ctx context.Context, path string, logger *zerolog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn, log: logging.Component(logger, "SQLiteStore")}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	db.log.Info().Str("path", path).Msg("sqlite store ready")
	return db, nil
}

func (db *DB) Close() error { return db.conn.Close() }

func (db *DB) Accounts() *AccountRepo { return &AccountRepo{db: db} }
func (db *DB) Admins() *AdminRepo     { return &AdminRepo{db: db} }
func (db *DB) Channels() *ChannelRepo { return &ChannelRepo{db: db} }

func (db *DB) migrate(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id                   INTEGER PRIMARY KEY,
			balance              INTEGER NOT NULL DEFAULT 0,
			referral_count       INTEGER NOT NULL DEFAULT 0,
			referred_by          INTEGER,
			joined_channels      INTEGER NOT NULL DEFAULT 0,
			last_claim_date      TEXT,
			claimed_one_time     INTEGER NOT NULL DEFAULT 0,
			wallet_address       TEXT NOT NULL DEFAULT '',
			created_at           TEXT NOT NULL,
			updated_at           TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS admins (
			id         INTEGER PRIMARY KEY,
			created_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS channels (
			seq    INTEGER PRIMARY KEY AUTOINCREMENT,
			handle TEXT NOT NULL UNIQUE
		);
	`)
	return err
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) { return time.Parse(time.RFC3339Nano, s) }
