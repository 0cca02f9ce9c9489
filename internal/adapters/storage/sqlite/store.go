// Package sqlite provides the durable session tier on a local SQLite file.
// It survives process restarts; the in-process tier stays authoritative
// while the process lives.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency between webhook handlers and the sweep.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS call_sessions (
		call_id TEXT PRIMARY KEY,
		session_json TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_call_sessions_expires ON call_sessions(expires_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Put upserts the whole session record. Last writer wins, matching the
// copy-on-write contract of the port.
func (s *Store) Put(ctx context.Context, session *domain.CallSession, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.CallID, err)
	}

	now := s.now()
	query := `
		INSERT INTO call_sessions (call_id, session_json, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(call_id) DO UPDATE SET
			session_json = excluded.session_json,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`
	_, err = s.db.ExecContext(ctx, query,
		string(session.CallID), string(payload), now.Add(ttl).Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("put session %s: %w", session.CallID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.CallID) (*domain.CallSession, error) {
	query := `SELECT session_json FROM call_sessions WHERE call_id = ? AND expires_at > ?`
	row := s.db.QueryRowContext(ctx, query, string(id), s.now().Unix())

	var payload string
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}

	var session domain.CallSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

func (s *Store) Delete(ctx context.Context, id domain.CallID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM call_sessions WHERE call_id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (s *Store) Touch(ctx context.Context, id domain.CallID, ttl time.Duration) error {
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE call_sessions SET expires_at = ?, updated_at = ? WHERE call_id = ? AND expires_at > ?`,
		now.Add(ttl).Unix(), now.Unix(), string(id), now.Unix())
	if err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Active lists every stored session, expired rows included, mirroring the
// in-process tier so a restarted process can sweep what it inherited.
func (s *Store) Active(ctx context.Context) ([]*domain.CallSession, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_json FROM call_sessions`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.CallSession
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		var session domain.CallSession
		if err := json.Unmarshal([]byte(payload), &session); err != nil {
			return nil, fmt.Errorf("decode session row: %w", err)
		}
		out = append(out, &session)
	}
	return out, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
