// Package sqlite keeps an append-only journal of order lifecycle
// transitions. The journal is debug tooling: cancelled and filled orders
// disappear from live state and from Redis immediately, but their terminal
// rows stay here for post-mortems. Nothing in the engine reads the journal
// back.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sltp-overlay/internal/model"
)

// Config configures the journal.
type Config struct {
	DBPath string // e.g. "data/orders.db"
}

// Journal implements model.OrderJournal on SQLite.
type Journal struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// New opens the database in WAL mode and creates the schema.
func New(cfg Config) (*Journal, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS order_journal (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			ts         INTEGER NOT NULL,
			action     TEXT    NOT NULL,
			order_id   TEXT    NOT NULL,
			symbol     TEXT    NOT NULL,
			status     TEXT    NOT NULL,
			record     TEXT    NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_journal_order ON order_journal (order_id, ts);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened order journal at %s", cfg.DBPath)
	return &Journal{db: db}, nil
}

// Append writes one lifecycle row. Failures are the caller's to log; a
// journal miss never blocks reconciliation.
func (j *Journal) Append(ctx context.Context, action string, rec *model.OrderRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = j.db.ExecContext(ctx,
		`INSERT INTO order_journal (ts, action, order_id, symbol, status, record) VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UnixMilli(), action, rec.OrderID, rec.Symbol, string(rec.Status), string(data),
	)
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// Close releases the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
