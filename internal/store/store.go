// Package store persists users and produced artifacts in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
)

const defaultTimeout = 5 * time.Second

// User is one known sender.
type User struct {
	ID        int64
	UserID    int64
	FullName  string
	Username  string
	Count     int64
	Timestamp int64 // first seen, epoch seconds
}

// Artifact is one produced video note.
type Artifact struct {
	ID        int64
	UserID    int64
	FileID    string
	Timestamp int64 // epoch seconds
}

// Store wraps the SQLite database holding the users and files tables.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dbPath and applies the
// schema. busy_timeout and WAL keep concurrent submission writes from
// tripping over each other.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		full_name TEXT,
		username TEXT,
		count INTEGER,
		timestamp INTEGER
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_user_id ON users(user_id);

	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		file_id TEXT NOT NULL,
		timestamp INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_files_user_id ON files(user_id);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureRegistered inserts the user if unseen, with a zero submission count.
// Concurrent calls for the same identity are safe: the unique index on
// user_id turns the losing insert into a no-op. Returns true when a new
// record was created.
func (s *Store) EnsureRegistered(ctx context.Context, userID int64, fullName, username string, seenAt int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (user_id, full_name, username, count, timestamp) VALUES (?, ?, ?, 0, ?)`,
		userID, fullName, username, seenAt)
	if err != nil {
		return false, fmt.Errorf("register user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("register user %d: %w", userID, err)
	}
	return n > 0, nil
}

// IncrementCount bumps the user's submission count by one. A NULL count
// (legacy rows) is treated as zero.
func (s *Store) IncrementCount(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET count = COALESCE(count, 0) + 1 WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("increment count for user %d: %w", userID, err)
	}
	return nil
}

// RecordArtifact appends one produced-artifact row.
func (s *Store) RecordArtifact(ctx context.Context, userID int64, fileID string, producedAt int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (user_id, file_id, timestamp) VALUES (?, ?, ?)`,
		userID, fileID, producedAt)
	if err != nil {
		return fmt.Errorf("record artifact for user %d: %w", userID, err)
	}
	return nil
}

// GetUser returns the stored record for userID, or sql.ErrNoRows.
func (s *Store) GetUser(ctx context.Context, userID int64) (*User, error) {
	var u User
	var count sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, full_name, username, count, timestamp FROM users WHERE user_id = ?`,
		userID).Scan(&u.ID, &u.UserID, &u.FullName, &u.Username, &count, &u.Timestamp)
	if err != nil {
		return nil, err
	}
	if count.Valid {
		u.Count = count.Int64
	}
	return &u, nil
}

// Artifacts returns all artifact rows for userID, oldest first.
func (s *Store) Artifacts(ctx context.Context, userID int64) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, file_id, timestamp FROM files WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.ID, &a.UserID, &a.FileID, &a.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
