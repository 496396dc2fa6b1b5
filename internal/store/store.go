package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/possync/internal/pos"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - snapshots and settings tables
const currentSchemaVersion = 1

const settingsKey = "sync_config"

// Store keeps snapshots and settings in a SQLite file.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema. Safe to call repeatedly.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// SaveSnapshot overwrites all five collection blobs in one transaction.
func (s *Store) SaveSnapshot(ctx context.Context, snap pos.Snapshot) error {
	blobs, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	savedAt := s.now().UnixMilli()
	for _, c := range pos.Collections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO snapshots (collection, data, saved_at)
			VALUES (?, ?, ?)
			ON CONFLICT(collection) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at
		`, string(c), blobs[c], savedAt)
		if err != nil {
			return fmt.Errorf("save snapshot %s: %w", c, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: commit: %w", err)
	}
	return nil
}

// LoadSnapshot returns the saved snapshot. ok is false when nothing was
// ever saved.
func (s *Store) LoadSnapshot(ctx context.Context) (pos.Snapshot, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT collection, data FROM snapshots ORDER BY collection`)
	if err != nil {
		return pos.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	defer rows.Close()

	blobs := make(map[pos.Collection]string)
	for rows.Next() {
		var c, data string
		if err := rows.Scan(&c, &data); err != nil {
			return pos.Snapshot{}, false, fmt.Errorf("load snapshot: scan: %w", err)
		}
		blobs[pos.Collection(c)] = data
	}
	if err := rows.Err(); err != nil {
		return pos.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	if len(blobs) == 0 {
		return pos.Snapshot{}, false, nil
	}

	snap, err := decodeSnapshot(blobs)
	if err != nil {
		return pos.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, true, nil
}

// SavedAt returns when the snapshot was last written.
func (s *Store) SavedAt(ctx context.Context) (time.Time, bool, error) {
	var ms sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(saved_at) FROM snapshots`).Scan(&ms)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("snapshot saved_at: %w", err)
	}
	if !ms.Valid {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms.Int64), true, nil
}

// SaveSettings persists the sync configuration as one blob.
func (s *Store) SaveSettings(ctx context.Context, cfg pos.SyncConfig) error {
	data, err := encodeSettings(cfg)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, settingsKey, data, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LoadSettings returns the persisted configuration. ok is false on first
// run.
func (s *Store) LoadSettings(ctx context.Context) (pos.SyncConfig, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingsKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return pos.DefaultSyncConfig(), false, nil
	}
	if err != nil {
		return pos.SyncConfig{}, false, fmt.Errorf("load settings: %w", err)
	}
	cfg, err := decodeSettings(data)
	if err != nil {
		return pos.SyncConfig{}, false, fmt.Errorf("load settings: %w", err)
	}
	return cfg, true, nil
}
