// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xiaolongtang/rw/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Region names one of the three persisted areas. Clearing a region
// never touches the others.
type Region string

// Persisted regions.
const (
	RegionKV       Region = "kv"
	RegionProgress Region = "progress"
	RegionStats    Region = "stats"
)

// Regions lists all persisted regions.
var Regions = []Region{RegionKV, RegionProgress, RegionStats}

// Store wraps SQLite access for the dataset cache, unit progress, and
// the session log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS progress (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			language TEXT NOT NULL,
			unit TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			duration_sec INTEGER NOT NULL,
			total_items INTEGER NOT NULL,
			wrong_count INTEGER NOT NULL,
			retry_count INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_stats_finished_at ON stats(finished_at);`,
		`CREATE INDEX IF NOT EXISTS idx_stats_date ON stats(date);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetKV returns the value for a key, or nil when the key is absent.
func (s *Store) GetKV(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SetKV inserts or replaces a single key.
func (s *Store) SetKV(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SetKVGroup writes several keys in one transaction so readers never
// observe a partially applied group.
func (s *Store) SetKVGroup(ctx context.Context, entries map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	for key, value := range entries {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO kv (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteKV removes a key. Deleting an absent key is not an error.
func (s *Store) DeleteKV(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// GetProgress returns the snapshot stored under key, or nil when absent.
func (s *Store) GetProgress(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM progress WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// PutProgress inserts or replaces a snapshot.
func (s *Store) PutProgress(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO progress (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// DeleteProgress removes a snapshot. Deleting an absent key is not an error.
func (s *Store) DeleteProgress(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM progress WHERE key = ?`, key)
	return err
}

// ListProgress returns all stored snapshots in key order.
func (s *Store) ListProgress(ctx context.Context) ([][]byte, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT value FROM progress ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var values [][]byte
	for rows.Next() {
		var value []byte
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// AddSession appends a completion record and returns its assigned id.
func (s *Store) AddSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO stats (date, language, unit, started_at, finished_at, duration_sec, total_items, wrong_count, retry_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Date,
		rec.LanguageCode,
		rec.UnitName,
		rec.StartedAt,
		rec.FinishedAt,
		rec.DurationSec,
		rec.TotalItems,
		rec.WrongCount,
		rec.RetryCount,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSessions returns all completion records, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]model.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, language, unit, started_at, finished_at, duration_sec, total_items, wrong_count, retry_count
		 FROM stats
		 ORDER BY finished_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Date,
			&rec.LanguageCode,
			&rec.UnitName,
			&rec.StartedAt,
			&rec.FinishedAt,
			&rec.DurationSec,
			&rec.TotalItems,
			&rec.WrongCount,
			&rec.RetryCount,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Clear removes every entry of one region without touching the others.
func (s *Store) Clear(ctx context.Context, region Region) error {
	switch region {
	case RegionKV, RegionProgress, RegionStats:
	default:
		return fmt.Errorf("unknown region %q", region)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+string(region)); err != nil {
		return err
	}
	if region == RegionStats {
		// Reset the id sequence so a cleared log starts over.
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'stats'`); err != nil {
			// The sequence row may not exist yet.
			_ = err
		}
	}
	return nil
}
