package cloud

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit bounds history queries without an explicit limit.
const DefaultHistoryLimit = 100

// Store persists telemetry snapshots in SQLite.
type Store struct {
	db *sql.DB
}

// Record is one persisted snapshot.
type Record struct {
	Robot    string         `json:"robot"`
	Received time.Time      `json:"received"`
	State    int            `json:"state"`
	Payload  map[string]any `json:"payload"`
}

// OpenStore opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer; an in-memory database would otherwise be per-connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS telemetry (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			robot TEXT NOT NULL,
			received_ms INTEGER NOT NULL,
			state INTEGER NOT NULL,
			payload TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS telemetry_robot ON telemetry (robot, id);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save appends one snapshot.
func (s *Store) Save(ctx context.Context, r Record) error {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO telemetry (robot, received_ms, state, payload) VALUES (?, ?, ?, ?)",
		r.Robot, r.Received.UnixMilli(), r.State, string(payload))
	return err
}

// History returns up to limit snapshots of a robot, newest first.
func (s *Store) History(ctx context.Context, robot string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT received_ms, state, payload FROM telemetry WHERE robot = ? ORDER BY id DESC LIMIT ?",
		robot, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			ms      int64
			state   int
			payload string
		)
		if err := rows.Scan(&ms, &state, &payload); err != nil {
			return nil, err
		}
		r := Record{Robot: robot, Received: time.UnixMilli(ms), State: state}
		if err := json.Unmarshal([]byte(payload), &r.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of snapshots stored for a robot.
func (s *Store) Count(ctx context.Context, robot string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM telemetry WHERE robot = ?", robot).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
