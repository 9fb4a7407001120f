package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"watson-dash/pkg/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS actions(
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL,
	envelope_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	status TEXT NOT NULL,
	code INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS audit(
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	actor TEXT NOT NULL,
	action TEXT NOT NULL,
	target TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	remote_ip TEXT NOT NULL DEFAULT '',
	ts INTEGER NOT NULL
);`

const sqliteOpTimeout = 2 * time.Second

// SQLiteStore persists the journal in a local sqlite file.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) RecordAction(rec model.ActionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actions(id, envelope_id, event_type, status, code, error, created_at) VALUES(?,?,?,?,?,?,?)`,
		rec.ID, rec.EnvelopeID, rec.EventType, rec.Status, rec.Code, rec.Error, rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite record action: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListActions(limit int) ([]model.ActionRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, envelope_id, event_type, status, code, error, created_at FROM
		   (SELECT * FROM actions ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("sqlite list actions: %w", err)
	}
	defer rows.Close()
	out := []model.ActionRecord{}
	for rows.Next() {
		var rec model.ActionRecord
		var ts int64
		if err := rows.Scan(&rec.ID, &rec.EnvelopeID, &rec.EventType, &rec.Status, &rec.Code, &rec.Error, &ts); err != nil {
			return nil, fmt.Errorf("sqlite scan action: %w", err)
		}
		rec.CreatedAt = time.Unix(0, ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AppendAudit(entry model.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit(actor, action, target, detail, remote_ip, ts) VALUES(?,?,?,?,?,?)`,
		entry.Actor, entry.Action, entry.Target, entry.Detail, entry.RemoteIP, entry.Timestamp.UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite append audit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAudit(limit int) ([]model.AuditEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), sqliteOpTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx,
		`SELECT actor, action, target, detail, remote_ip, ts FROM
		   (SELECT * FROM audit ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("sqlite list audit: %w", err)
	}
	defer rows.Close()
	out := []model.AuditEntry{}
	for rows.Next() {
		var e model.AuditEntry
		var ts int64
		if err := rows.Scan(&e.Actor, &e.Action, &e.Target, &e.Detail, &e.RemoteIP, &ts); err != nil {
			return nil, fmt.Errorf("sqlite scan audit: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqlLimit maps "no limit" to sqlite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
