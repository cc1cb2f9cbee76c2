/*
Package sqlite provides a SQLite-backed key-value snapshot store.

PURPOSE:
  Implements ledger.KV on a single snapshots table. Each collection is
  one row holding its full JSON snapshot; the ledger engines own the
  in-memory state and write whole collections back after each mutation.

KEY TABLE:
  snapshots: key TEXT PRIMARY KEY, value TEXT, updated_at TEXT

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of database/sql.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  kv, err := sqlite.New("./data/hoa.db")
  if err != nil {
      log.Fatal(err)
  }
  defer kv.Close()

  store, err := ledger.Open(ctx, kv, baseRate)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/hoa-ledger/ledger"
)

// KV implements ledger.KV using SQLite.
type KV struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ ledger.KV = (*KV)(nil)

// New creates a SQLite-backed KV at the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*KV, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	kv := &KV{db: db}
	if err := kv.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return kv, nil
}

// Close closes the database connection.
func (k *KV) Close() error {
	return k.db.Close()
}

// migrate creates the database schema.
func (k *KV) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	_, err := k.db.Exec(schema)
	return err
}

// Get returns the snapshot stored under key, with found=false when the
// key has never been written.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var value string
	err := k.db.QueryRowContext(ctx,
		`SELECT value FROM snapshots WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read snapshot %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes or replaces the snapshot under key.
func (k *KV) Set(ctx context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	_, err := k.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", key, err)
	}
	return nil
}

// Delete removes the snapshot under key. Deleting a missing key is a no-op.
func (k *KV) Delete(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	_, err := k.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", key, err)
	}
	return nil
}
